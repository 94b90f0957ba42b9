package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/swarmsim/internal/compute"
	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/particle"
	"github.com/san-kum/swarmsim/internal/sim"
	"github.com/san-kum/swarmsim/internal/tuning"
)

const (
	DefaultParticles  = 100_000
	DefaultWidth      = 800
	DefaultHeight     = 800
	DefaultMaxWorkers = 64
	DefaultMaxDensity = 8
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Particles   int           `yaml:"particles"`
	Width       int           `yaml:"width"`
	Height      int           `yaml:"height"`
	Workers     WorkersConfig `yaml:"workers"`
	Density     DensityConfig `yaml:"density"`
	Placement   string        `yaml:"placement"`
	Velocity    string        `yaml:"velocity"`
	Wrap        string        `yaml:"wrap"`
	Clamp       string        `yaml:"clamp"`
	MinDistance float32       `yaml:"min_distance"`
	Falloff     string        `yaml:"falloff"`
	Attraction  float32       `yaml:"attraction"`
	Friction    float32       `yaml:"friction"`
	Kernel      string        `yaml:"kernel"`
	FrameBudget time.Duration `yaml:"frame_budget"`
	Seed        uint64        `yaml:"seed"`
	Palette     PaletteConfig `yaml:"palette"`
}

type WorkersConfig struct {
	Min        int `yaml:"min"`
	Max        int `yaml:"max"`
	Size       int `yaml:"size"`
	QueueDepth int `yaml:"queue_depth"`
}

type DensityConfig struct {
	Mode           string `yaml:"mode"`
	Op             string `yaml:"op"`
	Groups         int    `yaml:"groups"`
	CombineWorkers int    `yaml:"combine_workers"`
	MaxDensity     int    `yaml:"max_density"`
}

type PaletteConfig struct {
	Background      string `yaml:"background"`
	BackgroundAlpha uint8  `yaml:"background_alpha"`
	Foreground      string `yaml:"foreground"`
	ForegroundAlpha uint8  `yaml:"foreground_alpha"`
}

func DefaultConfig() *Config {
	return &Config{
		Particles: DefaultParticles,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Workers: WorkersConfig{
			Min: 1,
			Max: DefaultMaxWorkers,
		},
		Density: DensityConfig{
			Mode:           "presence",
			Op:             "or",
			CombineWorkers: 1,
			MaxDensity:     DefaultMaxDensity,
		},
		Placement:   "random",
		Velocity:    "random",
		Wrap:        "none",
		Clamp:       "min_distance",
		MinDistance: compute.DefaultMinDistance,
		Falloff:     "constant",
		Attraction:  tuning.DefaultAttraction,
		Friction:    tuning.DefaultFriction,
		Kernel:      compute.Auto,
		Palette: PaletteConfig{
			Background:      "#f5f5f5",
			BackgroundAlpha: 255,
			Foreground:      "#000000",
			ForegroundAlpha: 100,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Tuning is the initial attraction and friction.
func (c *Config) Tuning() tuning.Tuning {
	return tuning.Tuning{Attraction: c.Attraction, Friction: c.Friction}
}

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	_, err := c.Engine()
	return err
}

// Engine translates c into engine options.
func (c *Config) Engine() (sim.Options, error) {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	o := sim.Options{
		Particles:      c.Particles,
		Width:          c.Width,
		Height:         c.Height,
		MinWorkers:     c.Workers.Min,
		MaxWorkers:     c.Workers.Max,
		Workers:        c.Workers.Size,
		QueueDepth:     c.Workers.QueueDepth,
		Groups:         c.Density.Groups,
		CombineWorkers: c.Density.CombineWorkers,
		MaxDensity:     c.Density.MaxDensity,
		Seed:           c.Seed,
		MinDistance:    c.MinDistance,
		Kernel:         c.Kernel,
		FrameBudget:    c.FrameBudget,
	}

	if c.Particles <= 0 || c.Particles%particle.LaneWidth != 0 {
		fail("particles must be a positive multiple of %d, got %d", particle.LaneWidth, c.Particles)
	}
	if c.Width <= 0 || c.Height <= 0 {
		fail("size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Workers.Min < 1 || c.Workers.Max < c.Workers.Min {
		fail("workers: need 1 <= min <= max, got min=%d max=%d", c.Workers.Min, c.Workers.Max)
	}
	if c.Workers.Size != 0 && (c.Workers.Size < c.Workers.Min || c.Workers.Size > c.Workers.Max) {
		fail("workers.size %d outside [%d,%d]", c.Workers.Size, c.Workers.Min, c.Workers.Max)
	}
	if c.Density.Groups < 0 || c.Density.CombineWorkers < 0 {
		fail("density groups and combine_workers must not be negative")
	}
	if c.FrameBudget < 0 {
		fail("frame_budget must not be negative, got %v", c.FrameBudget)
	}

	var err error
	if o.Mode, err = density.ParseMode(c.Density.Mode); err != nil {
		fail("density.mode: %v", err)
	}
	o.Op = density.DefaultOp(o.Mode)
	if c.Density.Op != "" {
		if o.Op, err = density.ParseOp(c.Density.Op); err != nil {
			fail("density.op: %v", err)
		}
	}
	if o.Mode == density.ModeCounted && o.Op != density.OpAdd {
		fail("density.op %q does not apply to counted mode, use add", c.Density.Op)
	}
	if o.Mode == density.ModePresence && o.Op == density.OpAdd {
		fail("density.op add needs counted mode")
	}
	if o.Mode == density.ModeCounted && c.Density.MaxDensity < 1 {
		fail("density.max_density must be at least 1, got %d", c.Density.MaxDensity)
	}

	switch c.Placement {
	case "", "random":
		o.Placement = particle.PlacementRandom
	case "scanline":
		o.Placement = particle.PlacementScanline
	default:
		fail("placement %q (want random or scanline)", c.Placement)
	}

	switch c.Velocity {
	case "", "random":
		o.Velocity = particle.VelocityRandom
	case "zero":
		o.Velocity = particle.VelocityZero
	default:
		fail("velocity %q (want random or zero)", c.Velocity)
	}

	switch c.Wrap {
	case "", "none":
		o.Wrap = compute.WrapNone
	case "toroidal":
		o.Wrap = compute.WrapToroidal
	default:
		fail("wrap %q (want none or toroidal)", c.Wrap)
	}

	switch c.Clamp {
	case "", "min_distance":
		o.Clamp = compute.ClampMinDistance
		if !(c.MinDistance > 0) {
			fail("min_distance must be positive, got %v", c.MinDistance)
		}
	case "none":
		o.Clamp = compute.ClampNone
	default:
		fail("clamp %q (want min_distance or none)", c.Clamp)
	}

	switch c.Falloff {
	case "", "constant":
		o.Falloff = compute.FalloffConstant
	case "inverse":
		o.Falloff = compute.FalloffInverse
	default:
		fail("falloff %q (want constant or inverse)", c.Falloff)
	}

	if c.Kernel != "" && c.Kernel != compute.Auto {
		if _, err := compute.New(c.Kernel); err != nil {
			fail("kernel: %v", err)
		}
	}

	o.Palette, err = density.NewPalette(c.Palette.Background, c.Palette.BackgroundAlpha,
		c.Palette.Foreground, c.Palette.ForegroundAlpha)
	if err != nil {
		fail("palette: %v", err)
	}

	if len(errs) > 0 {
		return sim.Options{}, errors.Join(errs...)
	}
	return o, nil
}
