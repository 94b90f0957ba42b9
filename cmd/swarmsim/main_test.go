package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/swarmsim/internal/config"
)

func newCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addEngineFlags(cmd)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestLoadConfigPreset(t *testing.T) {
	configFile = ""
	cfg, err := loadConfig(newCmd(t, "--preset", "heatmap"))
	if err != nil {
		t.Fatal(err)
	}
	want := config.GetPreset("heatmap")
	if cfg.Particles != want.Particles || cfg.Density.Mode != want.Density.Mode {
		t.Errorf("unset flags should keep preset values, got %+v", cfg)
	}
	if runName() != "heatmap" {
		t.Errorf("runName = %s", runName())
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	configFile = ""
	cfg, err := loadConfig(newCmd(t, "--particles", "1024", "--mode", "counted", "--budget", "8ms", "--workers", "80"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Particles != 1024 || cfg.FrameBudget != 8*time.Millisecond {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Density.Mode != "counted" || cfg.Density.Op != "" {
		t.Errorf("mode switch should reset op to its default, got %q/%q", cfg.Density.Mode, cfg.Density.Op)
	}
	if cfg.Workers.Size != 80 || cfg.Workers.Max < 80 {
		t.Errorf("workers = %+v", cfg.Workers)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	base := config.DefaultConfig()
	base.Particles = 2048
	if err := config.Save(path, base); err != nil {
		t.Fatal(err)
	}

	configFile = path
	defer func() { configFile = "" }()
	cfg, err := loadConfig(newCmd(t, "--config", path, "--friction", "0.5"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Particles != 2048 || cfg.Friction != 0.5 {
		t.Errorf("got particles=%d friction=%v", cfg.Particles, cfg.Friction)
	}
	if runName() != "custom" {
		t.Errorf("runName = %s", runName())
	}
}

func TestLoadConfigRejects(t *testing.T) {
	configFile = ""
	tests := [][]string{
		{"--preset", "nope"},
		{"--particles", "100"},
		{"--budget", "soon"},
		{"--mode", "presence", "--op", "add"},
	}
	for _, args := range tests {
		if _, err := loadConfig(newCmd(t, args...)); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestLoadConfigSeed(t *testing.T) {
	configFile = ""
	a, err := loadConfig(newCmd(t))
	if err != nil {
		t.Fatal(err)
	}
	b, err := loadConfig(newCmd(t, "--seed", "0"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Seed == 0 || b.Seed == 0 {
		t.Errorf("zero seed should be replaced, got %d and %d", a.Seed, b.Seed)
	}
	if a.Seed == b.Seed {
		t.Errorf("two unseeded runs share seed %d", a.Seed)
	}

	c, err := loadConfig(newCmd(t, "--seed", "7"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Seed != 7 {
		t.Errorf("seed = %d, want 7", c.Seed)
	}
}

func TestSetupLogger(t *testing.T) {
	if err := setupLogger("debug"); err != nil {
		t.Fatal(err)
	}
	if err := setupLogger("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
