// Package telemetry records per-frame statistics of a session and writes
// them as CSV.
package telemetry

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/engine"
	"gonum.org/v1/gonum/stat"
)

// Smoothing is the weight of the newest frame in the averaged frame time.
const Smoothing = 0.03

// FrameRecord is one CSV row.
type FrameRecord struct {
	Session     string  `csv:"session"`
	Frame       uint64  `csv:"frame"`
	DeltaTime   float64 `csv:"dt"`
	AverageFPS  float64 `csv:"avg_fps"`
	SubmitUS    float64 `csv:"submit_us"`
	Passes      int     `csv:"reduction_passes"`
	Aggregates  int     `csv:"aggregates"`
	SteerGroups int     `csv:"steer_groups"`
	TargetX     float32 `csv:"target_x"`
	TargetY     float32 `csv:"target_y"`
	TargetZ     float32 `csv:"target_z"`
	Device      string  `csv:"device"`
}

// Summary aggregates a whole session.
type Summary struct {
	Session      string
	Device       string
	Frames       int
	AverageFPS   float64
	SubmitMeanUS float64
	SubmitStdUS  float64
	SubmitP95US  float64
}

func (s Summary) String() string {
	return fmt.Sprintf("session %s on %s: %d frames, %.0f fps, submit %.1f±%.1fµs (p95 %.1fµs)",
		s.Session, s.Device, s.Frames, s.AverageFPS, s.SubmitMeanUS, s.SubmitStdUS, s.SubmitP95US)
}

// Recorder keeps the frame history of one session. A Recorder without an
// output file still tracks the averages.
type Recorder struct {
	session string
	device  string

	file          *os.File
	headerWritten bool

	averageDelta float64
	submits      []float64
}

// NewRecorder starts a session. An empty path disables CSV output.
func NewRecorder(path, deviceName string) (*Recorder, error) {
	r := &Recorder{
		session: uuid.NewString(),
		device:  deviceName,
	}
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("creating telemetry file: %w", err)
		}
		r.file = f
	}
	return r, nil
}

func (r *Recorder) Session() string { return r.session }

// AverageFPS returns the exponentially smoothed frame rate.
func (r *Recorder) AverageFPS() float64 {
	if r.averageDelta <= 0 {
		return 0
	}
	return 1 / r.averageDelta
}

// Record adds a frame and appends it to the CSV file.
func (r *Recorder) Record(report engine.FrameReport) error {
	r.averageDelta += (float64(report.DeltaTime) - r.averageDelta) * Smoothing
	submit := float64(report.Submit) / float64(time.Microsecond)
	r.submits = append(r.submits, submit)

	if r.file == nil {
		return nil
	}
	records := []FrameRecord{{
		Session:     r.session,
		Frame:       report.Frame,
		DeltaTime:   float64(report.DeltaTime),
		AverageFPS:  r.AverageFPS(),
		SubmitUS:    submit,
		Passes:      report.Passes,
		Aggregates:  report.Aggregates,
		SteerGroups: report.SteerGroups,
		TargetX:     report.Target.X(),
		TargetY:     report.Target.Y(),
		TargetZ:     report.Target.Z(),
		Device:      r.device,
	}}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.file); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.file); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

func (r *Recorder) Summary() Summary {
	s := Summary{
		Session:    r.session,
		Device:     r.device,
		Frames:     len(r.submits),
		AverageFPS: r.AverageFPS(),
	}
	if len(r.submits) == 0 {
		return s
	}
	s.SubmitMeanUS, s.SubmitStdUS = stat.MeanStdDev(r.submits, nil)
	sorted := slices.Clone(r.submits)
	slices.Sort(sorted)
	s.SubmitP95US = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	return s
}

func (r *Recorder) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}
