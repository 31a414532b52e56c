package telemetry

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/boid"
)

// ParticleRecord is one particle in a dump.
type ParticleRecord struct {
	Index int     `csv:"index"`
	PX    float32 `csv:"px"`
	PY    float32 `csv:"py"`
	PZ    float32 `csv:"pz"`
	HX    float32 `csv:"hx"`
	HY    float32 `csv:"hy"`
	HZ    float32 `csv:"hz"`
}

// WriteParticles dumps states as CSV.
func WriteParticles(path string, states []boid.State) error {
	records := make([]ParticleRecord, len(states))
	for i, s := range states {
		records[i] = ParticleRecord{
			Index: i,
			PX:    s.Position.X(),
			PY:    s.Position.Y(),
			PZ:    s.Position.Z(),
			HX:    s.Heading.X(),
			HY:    s.Heading.Y(),
			HZ:    s.Heading.Z(),
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating particle dump: %w", err)
	}
	defer f.Close()
	if err := gocsv.Marshal(records, f); err != nil {
		return fmt.Errorf("writing particle dump: %w", err)
	}
	return nil
}

// ReadParticles loads a dump written by WriteParticles.
func ReadParticles(path string) ([]boid.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening particle dump: %w", err)
	}
	defer f.Close()
	var records []ParticleRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("reading particle dump: %w", err)
	}
	states := make([]boid.State, len(records))
	for i, r := range records {
		states[i].Position = [3]float32{r.PX, r.PY, r.PZ}
		states[i].Heading = [3]float32{r.HX, r.HY, r.HZ}
	}
	return states, nil
}
