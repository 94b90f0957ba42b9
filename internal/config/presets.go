package config

import "sort"

func preset(edit func(*Config)) *Config {
	cfg := DefaultConfig()
	edit(cfg)
	return cfg
}

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"classic": preset(func(c *Config) {
		c.Wrap = "toroidal"
		c.Falloff = "inverse"
		c.Attraction = 1
		c.Friction = 0.99
	}),
	"million": preset(func(c *Config) {
		c.Particles = 1_000_000
		c.Width, c.Height = 1920, 1080
		c.Density.CombineWorkers = 4
	}),
	"heatmap": preset(func(c *Config) {
		c.Particles = 400_000
		c.Width, c.Height = 1280, 720
		c.Density.Mode = "counted"
		c.Density.Op = "add"
		c.Density.MaxDensity = 8
	}),
	"xor": preset(func(c *Config) {
		c.Density.Op = "xor"
	}),
	"and": preset(func(c *Config) {
		c.Density.Op = "and"
		c.Density.Groups = 2
		c.Palette.ForegroundAlpha = 255
	}),
	"scanline": preset(func(c *Config) {
		c.Placement = "scanline"
		c.Velocity = "zero"
		c.Particles = 640_000
	}),
	"legacy": preset(func(c *Config) {
		c.Clamp = "none"
	}),
	"night": preset(func(c *Config) {
		c.Palette = PaletteConfig{
			Background:      "#101418",
			BackgroundAlpha: 255,
			Foreground:      "#8fd3ff",
			ForegroundAlpha: 160,
		}
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
