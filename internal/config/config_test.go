package config

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfig(t *testing.T) {
	t.Run("YAML merged over defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join("testdata", "valid.yaml"), "")
		require.NoError(t, err)
		assert.Equal(t, 3000, cfg.BoidCount)
		assert.Equal(t, [3]float32{10, 5, 10}, cfg.BoidExtent)
		assert.Equal(t, uint64(7), cfg.Seed)
		assert.Equal(t, 16, cfg.BlockSize)
		assert.Equal(t, "drop", cfg.Remainder)
		assert.Equal(t, float32(0.2), cfg.SeparationWeight)
		require.NotNil(t, cfg.Target)
		assert.Equal(t, [3]float32{1, 2, 3}, *cfg.Target)
		assert.False(t, cfg.Orbit.Enabled)

		// Untouched fields keep their defaults.
		def := DefaultConfig()
		assert.Equal(t, def.AlignmentWeight, cfg.AlignmentWeight)
		assert.Equal(t, def.Mode, cfg.Mode)
		assert.Equal(t, def.Orbit.Speed, cfg.Orbit.Speed)
	})

	t.Run("JSON", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join("testdata", "valid.json"), "")
		require.NoError(t, err)
		assert.Equal(t, 64, cfg.BoidCount)
		assert.Equal(t, ModeNaive, cfg.Mode)
		assert.Equal(t, float32(1), cfg.AlignmentWeight)
		assert.Equal(t, 10, cfg.Frames)
		assert.Nil(t, cfg.Target)
	})

	t.Run("External schema file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join("testdata", "valid.json"), "config.schema.json")
		require.NoError(t, err)
	})

	tests := []struct {
		name string
		file string
	}{
		{"Weight above one", "schema_violation.json"},
		{"Unknown field", "unknown_field.yaml"},
		{"Block size not a power of two", "semantic.json"},
		{"Missing file", "missing.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(filepath.Join("testdata", tt.file), "")
			assert.Error(t, err)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BoidCount = 0
	cfg.BoidExtent[1] = -1
	cfg.Remainder = "round"
	cfg.AlignmentWeight = 2

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, ErrWeightRange)
	for _, part := range []string{"boidCount", "boidExtent[1]", "round", "alignmentWeight"} {
		assert.Contains(t, err.Error(), part)
	}
}

func TestValidate_DeviceMemory(t *testing.T) {
	tests := []struct {
		name        string
		mode        string
		count       int
		maxElements int
		wantErr     bool
	}{
		{"reduction fits", ModeReduction, 1024, 3 * 1024, false},
		{"reduction rounds up", ModeReduction, 1025, 3 * 1024, true},
		{"naive needs two buffers", ModeNaive, 1024, 2 * 1024, false},
		{"naive over the cap", ModeNaive, 1024, 2*1024 - 1, true},
		{"huge population", ModeReduction, 1 << 28, 1 << 24, true},
		{"no budget", ModeReduction, 16, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Mode = tt.mode
			cfg.BoidCount = tt.count
			cfg.MaxElements = tt.maxElements
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				assert.Contains(t, err.Error(), "maxElements")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Simulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Target = &[3]float32{4, 5, 6}
	s := cfg.Simulation()
	require.NotNil(t, s.Target)
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, *s.Target)

	cfg.Target[0] = 100
	assert.Equal(t, float32(4), s.Target.X(), "snapshot is detached from the config")
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boids.yaml")
	cfg := DefaultConfig()
	cfg.BoidCount = 77
	cfg.Target = &[3]float32{1, 1, 1}
	require.NoError(t, cfg.WriteYAML(path))

	got, err := LoadConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLive(t *testing.T) {
	target := mgl32.Vec3{1, 2, 3}
	live, err := NewLive(Simulation{MoveSpeed: 1, TargetWeight: 0.5, Target: &target})
	require.NoError(t, err)

	a := live.Load()
	b := live.Load()
	assert.Equal(t, a, b, "reads without writes are identical")

	a.Target[0] = 42
	assert.Equal(t, float32(1), live.Load().Target.X(), "loaded values are copies")

	err = live.Store(Simulation{SeparationWeight: 1.5})
	assert.True(t, errors.Is(err, ErrWeightRange))
	assert.Equal(t, float32(0.5), live.Load().TargetWeight, "rejected values are not stored")

	require.NoError(t, live.Update(func(s *Simulation) { s.Target = nil }))
	assert.Nil(t, live.Load().Target)

	_, err = NewLive(Simulation{MoveSpeed: -1})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLive_ResetTarget(t *testing.T) {
	configured := mgl32.Vec3{1, 2, 3}
	tests := []struct {
		name   string
		target *mgl32.Vec3
	}{
		{"configured target", &configured},
		{"origin", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			live, err := NewLive(Simulation{TargetWeight: 0.5, Target: tt.target})
			require.NoError(t, err)

			orbiting := mgl32.Vec3{9, 9, 9}
			require.NoError(t, live.Update(func(s *Simulation) { s.Target = &orbiting }))
			require.NoError(t, live.Update(func(s *Simulation) { s.TargetWeight = 0.25 }))
			require.NoError(t, live.ResetTarget())

			got := live.Load()
			assert.Equal(t, tt.target, got.Target)
			assert.Equal(t, float32(0.25), got.TargetWeight, "other edits are kept")
		})
	}

	live, err := NewLive(Simulation{Target: &configured})
	require.NoError(t, err)
	configured[0] = 42
	require.NoError(t, live.ResetTarget())
	assert.Equal(t, float32(1), live.Load().Target.X(), "the configured target is copied at creation")
}

func TestLive_ConcurrentReadsSeeWholeSnapshots(t *testing.T) {
	live, err := NewLive(Simulation{SeparationWeight: 0, AlignmentWeight: 0})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			w := float32(i%2) * 0.5
			_ = live.Store(Simulation{SeparationWeight: w, AlignmentWeight: w})
		}
	}()
	for i := 0; i < 1000; i++ {
		s := live.Load()
		if s.SeparationWeight != s.AlignmentWeight {
			t.Fatalf("torn snapshot: %+v", s)
		}
	}
	wg.Wait()
}
