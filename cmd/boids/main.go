package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/config"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/engine"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/render"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/target"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/telemetry"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/boid"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/ui"
	"github.com/tochemey/goakt/v3/log"
)

const (
	screenWidth  = 1024
	screenHeight = 768
	headLength   = 0.6
)

var (
	background  = color.RGBA{R: 10, G: 10, B: 30, A: 255}
	boidColor   = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	targetColor = color.RGBA{R: 255, G: 100, B: 50, A: 255}
)

// Viewer draws the particle buffer it was presented. It is the external
// renderer of the session.
type Viewer struct {
	ctx     context.Context
	session *engine.Session
	logger  log.Logger

	view   render.View
	live   bool
	states []boid.State

	camera   render.Camera
	orbit    *target.Orbit
	orbiting bool
	panel    *ui.Panel
	stats    *telemetry.Recorder
	err      error
}

func (v *Viewer) Present(view render.View) {
	v.view = view
	v.live = true
}

func (v *Viewer) Withdraw() {
	v.live = false
	v.states = nil
}

func (v *Viewer) buildPanel(cfg *config.Config) {
	update := func(fn func(*config.Simulation)) {
		if err := v.session.Live.Update(fn); err != nil {
			v.logger.Warnf("Rejected setting: %v", err)
		}
	}
	p := ui.NewPanel(10, 10, 240, "Boids")
	p.AddSlider("Move speed", 0, 40, float64(cfg.MoveSpeed), func(x float64) {
		update(func(s *config.Simulation) { s.MoveSpeed = float32(x) })
	})
	p.AddSlider("Separation", 0, 1, float64(cfg.SeparationWeight), func(x float64) {
		update(func(s *config.Simulation) { s.SeparationWeight = float32(x) })
	})
	p.AddSlider("Alignment", 0, 1, float64(cfg.AlignmentWeight), func(x float64) {
		update(func(s *config.Simulation) { s.AlignmentWeight = float32(x) })
	})
	p.AddSlider("Target", 0, 1, float64(cfg.TargetWeight), func(x float64) {
		update(func(s *config.Simulation) { s.TargetWeight = float32(x) })
	})
	p.AddCheckbox("Orbit target", v.orbiting, func(on bool) {
		v.orbiting = on
		if !on {
			if err := v.session.Live.ResetTarget(); err != nil {
				v.logger.Warnf("Rejected setting: %v", err)
			}
		}
	})
	p.AddButton("Respawn", v.respawn)
	v.panel = p
}

func (v *Viewer) respawn() {
	if err := v.session.Orchestrator.Deactivate(); err != nil {
		v.logger.Warnf("Deactivate: %v", err)
	}
	if err := v.session.Activate(); err != nil {
		v.err = err
	}
}

func (v *Viewer) Update() error {
	if v.err != nil {
		return v.err
	}
	v.panel.Update()

	dt := float32(1 / ebiten.ActualTPS())
	if ebiten.ActualTPS() == 0 {
		dt = 1.0 / 60
	}
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		v.camera.Orbit(-dt)
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		v.camera.Orbit(dt)
	}
	if v.orbiting {
		p := v.orbit.Advance(dt)
		if err := v.session.Live.Update(func(s *config.Simulation) { s.Target = &p }); err != nil {
			return err
		}
	}

	report, err := v.session.Orchestrator.Tick(dt)
	if err != nil {
		return err
	}
	if err := v.stats.Record(report); err != nil {
		return err
	}
	if v.live {
		// Reading back waits for the frame just submitted.
		if v.states, err = render.Fetch(v.ctx, v.session.Device, v.view); err != nil {
			return err
		}
	}
	return nil
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()

	for _, s := range v.states {
		x, y, ok := v.camera.Project(s.Position, w, h)
		if !ok {
			continue
		}
		hx, hy, ok := v.camera.Project(s.Position.Add(s.Heading.Mul(headLength)), w, h)
		if ok {
			vector.StrokeLine(screen, x, y, hx, hy, 1, boidColor, true)
		}
		vector.FillRect(screen, x-1, y-1, 2, 2, boidColor, false)
	}

	if t := v.session.Live.Load().Target; t != nil {
		if x, y, ok := v.camera.Project(*t, w, h); ok {
			vector.FillRect(screen, x-3, y-3, 6, 6, targetColor, true)
		}
	}

	v.panel.Draw(screen)
	msg := fmt.Sprintf("Fps: %.0f\nBoids: %d\n%s", v.stats.AverageFPS(), v.view.Count, v.session.Device.Name())
	ebitenutil.DebugPrintAt(screen, msg, w-260, 10)
}

func (v *Viewer) Layout(w, h int) (int, int) { return screenWidth, screenHeight }

func main() {
	configFile := flag.String("config", "", "JSON or YAML configuration file")
	schemaFile := flag.String("schema", "", "JSON schema overriding the embedded one")
	flag.Parse()

	ctx := context.Background()
	logger := log.New(log.InfoLevel, os.Stdout)

	cfg := config.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadConfig(*configFile, *schemaFile); err != nil {
			logger.Fatalf("Failed to load config: %v", err)
		}
	}

	extent := max(cfg.BoidExtent[0], cfg.BoidExtent[1], cfg.BoidExtent[2])
	v := &Viewer{
		ctx:      ctx,
		logger:   logger,
		camera:   render.NewCamera(mgl32.Vec3{}, extent),
		orbit:    target.NewOrbit(mgl32.Vec3{}, cfg.Orbit.Radius, cfg.Orbit.Speed),
		orbiting: cfg.Orbit.Enabled && cfg.Target == nil,
	}
	session, err := engine.NewSession(ctx, cfg, v, logger)
	if err != nil {
		logger.Fatalf("Failed to start session: %v", err)
	}
	defer func() {
		if err := session.Close(ctx); err != nil {
			logger.Errorf("Failed to close session: %v", err)
		}
	}()
	v.session = session

	if v.stats, err = telemetry.NewRecorder(cfg.TelemetryFile, session.Device.Name()); err != nil {
		logger.Fatalf("Failed to open telemetry: %v", err)
	}
	defer func() {
		if err := v.stats.Close(); err != nil {
			logger.Errorf("Failed to close telemetry: %v", err)
		}
	}()

	v.buildPanel(cfg)
	if err := session.Activate(); err != nil {
		logger.Fatalf("Failed to activate: %v", err)
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Boids: hierarchical reduction")
	if err := ebiten.RunGame(v); err != nil {
		logger.Error(err)
	}
}
