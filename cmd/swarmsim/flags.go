package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/swarmsim/internal/config"
)

func addEngineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "default", "preset name (see 'swarmsim presets')")
	f.StringVar(&configFile, "config", "", "config file path (yaml), overrides --preset")
	f.IntVar(&particles, "particles", config.DefaultParticles, "particle count, a multiple of 8")
	f.IntVar(&width, "width", config.DefaultWidth, "field width")
	f.IntVar(&height, "height", config.DefaultHeight, "field height")
	f.IntVar(&workers, "workers", 0, "worker count (0 sizes the pool from the CPU count)")
	f.StringVar(&kernel, "kernel", "auto", "kinematics kernel")
	f.StringVar(&mode, "mode", "presence", "density mode (presence, counted)")
	f.StringVar(&op, "op", "", "combine op (or, xor, and, add)")
	f.Uint64Var(&seed, "seed", 0, "placement seed (0 picks a random one, recorded with the run)")
	f.Float32Var(&attraction, "attraction", 0.2, "attraction strength")
	f.Float32Var(&friction, "friction", 0.999, "velocity damping")
	f.StringVar(&budget, "budget", "", "frame budget, e.g. 16ms (empty disables)")
}

// loadConfig resolves the preset or config file, then applies the engine
// flags the user actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("particles") {
		cfg.Particles = particles
	}
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if flags.Changed("workers") {
		cfg.Workers.Size = workers
		cfg.Workers.Max = max(cfg.Workers.Max, workers)
	}
	if flags.Changed("kernel") {
		cfg.Kernel = kernel
	}
	if flags.Changed("mode") {
		cfg.Density.Mode = mode
		if !flags.Changed("op") {
			cfg.Density.Op = ""
		}
	}
	if flags.Changed("op") {
		cfg.Density.Op = op
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	for cfg.Seed == 0 {
		cfg.Seed = rand.Uint64()
	}
	if flags.Changed("attraction") {
		cfg.Attraction = attraction
	}
	if flags.Changed("friction") {
		cfg.Friction = friction
	}
	if flags.Changed("budget") {
		d, err := time.ParseDuration(budget)
		if err != nil {
			return nil, fmt.Errorf("budget: %w", err)
		}
		cfg.FrameBudget = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runName labels stored runs and snapshots.
func runName() string {
	if configFile != "" {
		return "custom"
	}
	return preset
}
