package scenario

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/swarmsim/internal/sim"
	"github.com/san-kum/swarmsim/internal/tuning"
)

const script = `
name: glide
steps:
  - frames: 4
    attractor: {x: 40, y: 0}
  - frames: 8
    orbit: {x: 40, y: 40, radius: 10, period: 8}
    nudge: [attraction_up, attraction_up]
  - frames: 2
    tuning: {attraction: 1, friction: 0.5}
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(script))
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "glide" || len(s.Steps) != 3 || s.Frames() != 14 {
		t.Errorf("scenario = %+v", s)
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	if err := os.WriteFile(path, []byte(script), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScenario(path); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no steps", "name: empty\n"},
		{"zero frames", "steps:\n  - frames: 0\n"},
		{"both targets", "steps:\n  - frames: 1\n    attractor: {x: 1, y: 1}\n    orbit: {period: 2}\n"},
		{"zero period", "steps:\n  - frames: 1\n    orbit: {radius: 2}\n"},
		{"unknown nudge", "steps:\n  - frames: 1\n    nudge: [gravity_up]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); !errors.Is(err, ErrInvalid) {
				t.Errorf("got %v, want ErrInvalid", err)
			}
		})
	}
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestPlayer(t *testing.T) {
	s, err := Parse([]byte(script))
	if err != nil {
		t.Fatal(err)
	}
	base := tuning.Default()
	p := s.Player(Point{X: 0, Y: 0}, base)

	// glide reaches the target on the step's last frame
	if in := p.Next(1); !near(in.AttractorX, 20) || in.AttractorY != 0 {
		t.Errorf("frame 1 attractor = (%v,%v), want (20,0)", in.AttractorX, in.AttractorY)
	}
	if in := p.Next(3); !near(in.AttractorX, 40) {
		t.Errorf("frame 3 attractor x = %v, want 40", in.AttractorX)
	}
	if in := p.Next(0); in.Tuning != base {
		t.Errorf("frame 0 tuning = %v", in.Tuning)
	}

	// orbit starts at angle zero and nudges apply for the whole step
	in := p.Next(4)
	if !near(in.AttractorX, 50) || !near(in.AttractorY, 40) {
		t.Errorf("frame 4 attractor = (%v,%v), want (50,40)", in.AttractorX, in.AttractorY)
	}
	want := base.Apply(tuning.AttractionUp).Apply(tuning.AttractionUp)
	if in.Tuning != want {
		t.Errorf("orbit tuning = %v, want %v", in.Tuning, want)
	}
	if in := p.Next(6); !near(in.AttractorX, 40) || !near(in.AttractorY, 50) {
		t.Errorf("frame 6 attractor = (%v,%v), want (40,50)", in.AttractorX, in.AttractorY)
	}

	// the last step holds the orbit's end point and sets tuning outright
	in = p.Next(12)
	if in.Tuning != (tuning.Tuning{Attraction: 1, Friction: 0.5}) {
		t.Errorf("last step tuning = %v", in.Tuning)
	}
	if !near(in.AttractorX, 50) || !near(in.AttractorY, 40) {
		t.Errorf("last step attractor = (%v,%v)", in.AttractorX, in.AttractorY)
	}

	// past the end the final input repeats
	if p.Next(100) != p.Next(13) {
		t.Error("non-looping player should hold its last input")
	}
}

func TestPlayerLoops(t *testing.T) {
	s, _ := Parse([]byte(script))
	s.Loop = true
	p := s.Player(Point{}, tuning.Default())
	for f := uint64(0); f < 14; f++ {
		if p.Next(f) != p.Next(f+14) {
			t.Errorf("frame %d differs from frame %d", f, f+14)
		}
	}
}

func TestCircle(t *testing.T) {
	src := Circle(90, 60, 4, tuning.Default())
	in := src.Next(0)
	if !near(in.AttractorX, 65) || !near(in.AttractorY, 30) {
		t.Errorf("frame 0 = (%v,%v), want (65,30)", in.AttractorX, in.AttractorY)
	}
	if src.Next(1) == src.Next(0) || src.Next(4) != src.Next(0) {
		t.Error("circle should move each frame and repeat each period")
	}
}

func TestRunSweep(t *testing.T) {
	base := sim.DefaultOptions()
	base.Particles = 512
	base.Width, base.Height = 32, 32
	base.MaxWorkers = 2

	sweep := Sweep{Kernels: []string{"scalar", "lanes"}, Workers: []int{1, 3}, Frames: 5, Warmup: 1}
	results, err := RunSweep(context.Background(), base, sweep, Circle(32, 32, 10, tuning.Default()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for _, r := range results {
		if len(r.Series) != 5 {
			t.Errorf("%s/%d: %d samples", r.Kernel, r.Workers, len(r.Series))
		}
	}
	if results[1].Workers != 3 || results[2].Kernel != "lanes" {
		t.Errorf("unexpected order: %+v", results)
	}

	if _, err := RunSweep(context.Background(), base, Sweep{Kernels: []string{"scalar"}, Workers: []int{1}}, nil, nil); !errors.Is(err, ErrInvalid) {
		t.Errorf("zero frames: got %v", err)
	}
}
