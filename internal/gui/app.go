// Package gui shows the swarm in a raylib window. The mouse drags the
// attractor; the arrow keys tune attraction and friction.
package gui

import (
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"
	"time"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/swarmsim/internal/config"
	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/export"
	"github.com/san-kum/swarmsim/internal/metrics"
	"github.com/san-kum/swarmsim/internal/sim"
	"github.com/san-kum/swarmsim/internal/tuning"
)

var (
	ColText    = rl.NewColor(40, 40, 40, 255)
	ColTextDim = rl.NewColor(120, 120, 120, 255)
	ColPanel   = rl.NewColor(255, 255, 255, 200)
	ColAccent  = rl.NewColor(220, 60, 60, 255)
	ColGraph   = rl.NewColor(60, 60, 60, 255)
)

type Options struct {
	Name        string
	Config      *config.Config
	SnapshotDir string
	Logger      *slog.Logger
	// Scale multiplies the window size relative to the field.
	Scale float32
}

type App struct {
	Name   string
	Engine *sim.Engine
	Config *config.Config

	Tuning    tuning.Tuning
	Attractor rl.Vector2
	Paused    bool
	ShowHUD   bool
	Status    string

	Frame    *density.Frame
	Stats    sim.FrameStats
	Recorder *metrics.Recorder

	Texture     rl.Texture2D
	Scale       float32
	SnapshotDir string

	logger *slog.Logger
}

func initWindow(w, h int32, title string) {
	rl.SetConfigFlags(rl.FlagVsyncHint)
	rl.InitWindow(w, h, title)
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// NewApp builds the engine and its texture. The window must already be open.
func NewApp(opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	engOpts, err := opts.Config.Engine()
	if err != nil {
		return nil, err
	}
	engine, err := sim.New(engOpts, sim.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}

	cfg := opts.Config
	img := rl.GenImageColor(cfg.Width, cfg.Height, rl.Blank)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)

	budgetMS := float64(cfg.FrameBudget) / float64(time.Millisecond)
	return &App{
		Name:        opts.Name,
		Engine:      engine,
		Config:      cfg,
		Tuning:      cfg.Tuning(),
		Attractor:   rl.NewVector2(float32(cfg.Width)/2, float32(cfg.Height)/2),
		ShowHUD:     true,
		Recorder:    metrics.NewRecorder(300, metrics.Standard(cfg.Particles, budgetMS)...),
		Texture:     tex,
		Scale:       opts.Scale,
		SnapshotDir: opts.SnapshotDir,
		logger:      opts.Logger,
	}, nil
}

// Run opens a window sized to the field and blocks until it is closed.
func Run(opts Options) error {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	w := int32(float32(opts.Config.Width) * opts.Scale)
	h := int32(float32(opts.Config.Height) * opts.Scale)
	initWindow(w, h, "swarmsim - "+opts.Name)
	defer rl.CloseWindow()

	app, err := NewApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()
	app.RunLoop()
	return nil
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

func (a *App) Close() {
	rl.UnloadTexture(a.Texture)
	a.Engine.Close()
}

// Update handles input and steps the engine once. It returns false when
// the user asked to quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) || rl.IsKeyPressed(rl.KeyEscape) {
		return false
	}

	mouse := rl.GetMousePosition()
	a.Attractor = rl.NewVector2(mouse.X/a.Scale, mouse.Y/a.Scale)

	if rl.IsKeyPressed(rl.KeyUp) {
		a.Tuning = a.Tuning.Apply(tuning.AttractionUp)
	}
	if rl.IsKeyPressed(rl.KeyDown) {
		a.Tuning = a.Tuning.Apply(tuning.AttractionDown)
	}
	if rl.IsKeyPressed(rl.KeyRight) {
		a.Tuning = a.Tuning.Apply(tuning.FrictionUp)
	}
	if rl.IsKeyPressed(rl.KeyLeft) {
		a.Tuning = a.Tuning.Apply(tuning.FrictionDown)
	}
	if rl.IsKeyPressed(rl.KeySpace) || rl.IsKeyPressed(rl.KeyP) {
		a.Paused = !a.Paused
	}
	if rl.IsKeyPressed(rl.KeyH) {
		a.ShowHUD = !a.ShowHUD
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.Tuning = a.Config.Tuning()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		a.snapshot()
	}

	if a.Paused {
		return true
	}

	f, stats, err := a.Engine.Step(sim.Input{
		AttractorX: a.Attractor.X,
		AttractorY: a.Attractor.Y,
		Tuning:     a.Tuning,
	})
	if err != nil {
		a.logger.Error("step failed", "err", err)
		return false
	}
	a.Frame, a.Stats = f, stats
	a.Recorder.OnFrame(f, stats)
	if !stats.Skipped {
		rl.UpdateTexture(a.Texture, pixels(f))
	}
	return true
}

func (a *App) snapshot() {
	if a.Frame == nil {
		return
	}
	path := filepath.Join(a.SnapshotDir, fmt.Sprintf("%s-%06d.png", a.Name, a.Stats.Frame))
	if err := export.SavePNG(path, a.Frame); err != nil {
		a.Status = "snapshot failed"
		a.logger.Error("snapshot", "path", path, "err", err)
		return
	}
	a.Status = "saved " + path
	a.logger.Info("snapshot", "path", path)
}

// pixels views the frame as raylib's RGBA pixel type. Both layouts are
// four bytes in R, G, B, A order.
func pixels(f *density.Frame) []color.RGBA {
	b := f.Bytes()
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*color.RGBA)(unsafe.Pointer(&b[0])), len(f.Pixels))
}
