package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/config"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/engine"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/render"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/target"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/telemetry"
	"github.com/tochemey/goakt/v3/log"
	"go.uber.org/multierr"
)

func main() {
	configFile := flag.String("config", "", "JSON or YAML configuration file")
	schemaFile := flag.String("schema", "", "JSON schema overriding the embedded one")
	frames := flag.Int("frames", 0, "number of frames to run (overrides the configuration)")
	telemetryFile := flag.String("telemetry", "", "per-frame CSV output (overrides the configuration)")
	dumpFile := flag.String("dump", "", "CSV dump of the final particles")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	level := log.InfoLevel
	if *debug {
		level = log.DebugLevel
	}
	logger := log.New(level, os.Stdout)

	cfg := config.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadConfig(*configFile, *schemaFile); err != nil {
			logger.Fatalf("Failed to load config: %v", err)
		}
	}
	if *frames > 0 {
		cfg.Frames = *frames
	}
	if *telemetryFile != "" {
		cfg.TelemetryFile = *telemetryFile
	}

	if err := run(context.Background(), cfg, *dumpFile, logger); err != nil {
		logger.Fatalf("Simulation failed: %v", err)
	}
}

// run drives a headless session. Errors from shutting the session down are
// returned along with any run error.
func run(ctx context.Context, cfg *config.Config, dumpFile string, logger log.Logger) (err error) {
	session, err := engine.NewSession(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(ctx); cerr != nil {
			logger.Errorf("Failed to close session: %v", cerr)
			err = multierr.Append(err, cerr)
		}
	}()

	if err := session.Activate(); err != nil {
		return err
	}
	rec, err := telemetry.NewRecorder(cfg.TelemetryFile, session.Device.Name())
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, rec.Close())
	}()

	var orbit *target.Orbit
	if cfg.Orbit.Enabled && cfg.Target == nil {
		orbit = target.NewOrbit(mgl32.Vec3{}, cfg.Orbit.Radius, cfg.Orbit.Speed)
	}

	start := time.Now()
	for i := 0; i < cfg.Frames; i++ {
		if orbit != nil {
			p := orbit.Advance(cfg.DeltaTime)
			if err := session.Live.Update(func(s *config.Simulation) { s.Target = &p }); err != nil {
				return err
			}
		}
		report, err := session.Orchestrator.Tick(cfg.DeltaTime)
		if err != nil {
			return err
		}
		if err := rec.Record(report); err != nil {
			return err
		}
	}
	if err := session.Device.Fence(ctx); err != nil {
		return err
	}
	logger.Infof("Ran %d frames in %v", cfg.Frames, time.Since(start))
	logger.Info(rec.Summary().String())

	if dumpFile != "" {
		view, _ := session.Orchestrator.View()
		states, err := render.Fetch(ctx, session.Device, view)
		if err != nil {
			return err
		}
		if err := telemetry.WriteParticles(dumpFile, states); err != nil {
			return err
		}
		logger.Infof("Wrote %d particles to %s", len(states), dumpFile)
	}
	return nil
}
