// Package config loads the simulation configuration from JSON or YAML,
// validates it against a JSON schema and merges it over the defaults.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/geometry"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var schemaJSON []byte

const schemaURL = "config.schema.json"

var ErrInvalid = errors.New("invalid configuration")

const (
	ModeReduction = "reduction"
	ModeNaive     = "naive"
)

type OrbitConfig struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Speed   float32 `json:"speed" yaml:"speed"`   // degrees per second
	Radius  float32 `json:"radius" yaml:"radius"` // distance of the target from the owner
}

type Config struct {
	// Population
	BoidCount  int        `json:"boidCount" yaml:"boidCount"` // rounded up to a power of two
	BoidExtent [3]float32 `json:"boidExtent" yaml:"boidExtent"`
	Seed       uint64     `json:"seed" yaml:"seed"`

	// Device
	Mode           string `json:"mode" yaml:"mode"`
	BlockSize      int    `json:"blockSize" yaml:"blockSize"`
	SteerGroupSize int    `json:"steerGroupSize" yaml:"steerGroupSize"`
	Remainder      string `json:"remainder" yaml:"remainder"`
	MaxElements    int    `json:"maxElements" yaml:"maxElements"`

	// Steering, editable while running
	MoveSpeed        float32     `json:"moveSpeed" yaml:"moveSpeed"`
	SeparationWeight float32     `json:"separationWeight" yaml:"separationWeight"`
	AlignmentWeight  float32     `json:"alignmentWeight" yaml:"alignmentWeight"`
	TargetWeight     float32     `json:"targetWeight" yaml:"targetWeight"`
	Target           *[3]float32 `json:"target,omitempty" yaml:"target,omitempty"`

	Orbit OrbitConfig `json:"orbit" yaml:"orbit"`

	// Headless runs
	Frames        int     `json:"frames" yaml:"frames"`
	DeltaTime     float32 `json:"deltaTime" yaml:"deltaTime"`
	TelemetryFile string  `json:"telemetryFile" yaml:"telemetryFile"`
}

func DefaultConfig() *Config {
	return &Config{
		BoidCount:        1024,
		BoidExtent:       [3]float32{32, 32, 32},
		Seed:             256,
		Mode:             ModeReduction,
		BlockSize:        32,
		SteerGroupSize:   32,
		Remainder:        "pad",
		MaxElements:      1 << 24,
		MoveSpeed:        10,
		SeparationWeight: 0.5,
		AlignmentWeight:  0.5,
		TargetWeight:     0.5,
		Orbit: OrbitConfig{
			Enabled: true,
			Speed:   30,
			Radius:  20,
		},
		Frames:    600,
		DeltaTime: 1.0 / 60,
	}
}

// LoadConfig loads configuration from a JSON or YAML file and validates it
// against the schema. An empty schemaFile selects the embedded schema.
// Fields missing from the file keep their default value.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := compileSchema(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File, normalised to JSON
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	if ext := strings.ToLower(filepath.Ext(configFile)); ext == ".yaml" || ext == ".yml" {
		if b, err = yamlToJSON(b); err != nil {
			return nil, fmt.Errorf("failed to decode config yaml: %w", err)
		}
	}

	// 3. Validate
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal over the defaults
	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func compileSchema(schemaFile string) (*jsonschema.Schema, error) {
	if schemaFile != "" {
		return jsonschema.Compile(schemaFile)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
}

func yamlToJSON(b []byte) ([]byte, error) {
	var v interface{}
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

// Validate checks the rules the schema cannot express and reports every
// violation at once.
func (c *Config) Validate() error {
	var err error
	add := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	if c.BoidCount <= 0 {
		add("boidCount must be positive, got %d", c.BoidCount)
	}
	for i, e := range c.BoidExtent {
		if !(e > 0) {
			add("boidExtent[%d] must be positive, got %v", i, e)
		}
	}
	switch c.Mode {
	case ModeReduction, ModeNaive:
	default:
		add("unknown mode %q", c.Mode)
	}
	if c.BlockSize < 2 || !geometry.IsPow2(c.BlockSize) {
		add("blockSize must be a power of two greater than one, got %d", c.BlockSize)
	}
	if c.SteerGroupSize <= 0 {
		add("steerGroupSize must be positive, got %d", c.SteerGroupSize)
	}
	if c.Remainder != "pad" && c.Remainder != "drop" {
		add("unknown remainder policy %q", c.Remainder)
	}
	if c.DeltaTime <= 0 {
		add("deltaTime must be positive, got %v", c.DeltaTime)
	}
	if c.MaxElements <= 0 {
		add("maxElements must be positive, got %d", c.MaxElements)
	} else if need, ok := c.DeviceElements(); !ok {
		add("boidCount %d needs %d device elements, maxElements is %d", c.BoidCount, need, c.MaxElements)
	}
	if e := c.Simulation().Validate(); e != nil {
		err = multierr.Append(err, e)
	}
	return err
}

// DeviceElements returns how many buffer elements a session needs: the
// particle buffer rounded up to a power of two, plus two scratch buffers in
// reduction mode or one previous-state buffer in naive mode. ok reports
// whether that fits within MaxElements.
func (c *Config) DeviceElements() (need int, ok bool) {
	buffers := 3
	if c.Mode == ModeNaive {
		buffers = 2
	}
	if c.BoidCount <= 0 || c.BoidCount > c.MaxElements/buffers {
		// Rounding up would overflow or exceed the cap anyway.
		return c.BoidCount * buffers, c.BoidCount <= 0
	}
	need = geometry.CeilPow2(c.BoidCount) * buffers
	return need, need <= c.MaxElements
}

// Extent returns BoidExtent as a vector.
func (c *Config) Extent() mgl32.Vec3 {
	return mgl32.Vec3(c.BoidExtent)
}

// Simulation extracts the per-frame steering values.
func (c *Config) Simulation() Simulation {
	s := Simulation{
		MoveSpeed:        c.MoveSpeed,
		SeparationWeight: c.SeparationWeight,
		AlignmentWeight:  c.AlignmentWeight,
		TargetWeight:     c.TargetWeight,
	}
	if c.Target != nil {
		t := mgl32.Vec3(*c.Target)
		s.Target = &t
	}
	return s
}

// WriteYAML saves the configuration, e.g. to seed a config file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
