package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/swarmsim/internal/compute"
	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/particle"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Particles%particle.LaneWidth != 0 {
		t.Errorf("default particle count %d is not lane aligned", cfg.Particles)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	o, err := cfg.Engine()
	if err != nil {
		t.Fatal(err)
	}
	if o.Palette != density.DefaultPalette() {
		t.Errorf("palette = %+v", o.Palette)
	}
	if o.Clamp != compute.ClampMinDistance || o.MinDistance != 0.5 {
		t.Errorf("clamp = %v %v", o.Clamp, o.MinDistance)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swarm.yaml")
	data := `
particles: 4096
width: 320
density:
  mode: counted
  op: add
frame_budget: 12ms
palette:
  foreground: "#ff0000"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Particles != 4096 || cfg.Width != 320 || cfg.Height != DefaultHeight {
		t.Errorf("size = %d particles %dx%d", cfg.Particles, cfg.Width, cfg.Height)
	}
	if cfg.FrameBudget != 12*time.Millisecond {
		t.Errorf("frame budget = %v", cfg.FrameBudget)
	}
	if cfg.Palette.ForegroundAlpha != 100 {
		t.Errorf("foreground alpha lost its default: %d", cfg.Palette.ForegroundAlpha)
	}

	o, err := cfg.Engine()
	if err != nil {
		t.Fatal(err)
	}
	if o.Mode != density.ModeCounted || o.Op != density.OpAdd {
		t.Errorf("mode/op = %v/%v", o.Mode, o.Op)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	want := GetPreset("heatmap")
	want.FrameBudget = 5 * time.Millisecond

	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *want {
		t.Errorf("round trip changed config:\n got %+v\nwant %+v", got, want)
	}
}

func TestValidateCollectsEveryError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles = 12
	cfg.Wrap = "mirror"
	cfg.Kernel = "cuda"
	cfg.Palette.Background = "white"

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
	for _, want := range []string{"particles", "wrap", "kernel", "palette"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s: %v", want, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"zero height", func(c *Config) { c.Height = 0 }},
		{"min above max", func(c *Config) { c.Workers.Min, c.Workers.Max = 4, 2 }},
		{"size outside bounds", func(c *Config) { c.Workers.Size = 128 }},
		{"unknown mode", func(c *Config) { c.Density.Mode = "heat" }},
		{"or in counted mode", func(c *Config) { c.Density.Mode = "counted" }},
		{"add in presence mode", func(c *Config) { c.Density.Op = "add" }},
		{"zero max density", func(c *Config) { c.Density.Mode, c.Density.Op, c.Density.MaxDensity = "counted", "add", 0 }},
		{"unknown placement", func(c *Config) { c.Placement = "grid" }},
		{"unknown velocity", func(c *Config) { c.Velocity = "fast" }},
		{"zero min distance", func(c *Config) { c.MinDistance = 0 }},
		{"unknown falloff", func(c *Config) { c.Falloff = "square" }},
		{"negative budget", func(c *Config) { c.FrameBudget = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("got %v, want ErrInvalid", err)
			}
		})
	}
}

func TestUnclampedAllowsZeroMinDistance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clamp = "none"
	cfg.MinDistance = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("unclamped config rejected: %v", err)
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range ListPresets() {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("classic")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Wrap != "toroidal" || cfg.Falloff != "inverse" {
		t.Errorf("classic preset = %+v", cfg)
	}

	cfg.Particles = 8
	if Presets["classic"].Particles == 8 {
		t.Error("GetPreset returned the shared preset")
	}
}

func TestClassicPresetStep(t *testing.T) {
	cfg := GetPreset("classic")
	opts, err := cfg.Engine()
	if err != nil {
		t.Fatal(err)
	}
	tu := cfg.Tuning()
	p := compute.Params{
		AttractorX:  400,
		AttractorY:  100,
		Attraction:  tu.Attraction,
		Friction:    tu.Friction,
		Width:       float32(opts.Width),
		Height:      float32(opts.Height),
		MinDistance: opts.MinDistance,
		Wrap:        opts.Wrap,
		Clamp:       opts.Clamp,
		Falloff:     opts.Falloff,
	}
	px, py := []float32{100}, []float32{100}
	vx, vy := []float32{0}, []float32{0}
	compute.NewScalar().Advance(px, py, vx, vy, p)

	// 300px away on x: vel += norm/dist, then damped by 0.99
	want := float32(1.0/300) * 0.99
	if d := vx[0] - want; d > 1e-6 || d < -1e-6 {
		t.Errorf("vx = %v, want %v", vx[0], want)
	}
	if vy[0] != 0 {
		t.Errorf("vy = %v, want 0", vy[0])
	}
	if d := px[0] - (100 + want); d > 1e-4 || d < -1e-4 {
		t.Errorf("px = %v, want %v", px[0], 100+want)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Errorf("got %d names for %d presets", len(names), len(Presets))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}
