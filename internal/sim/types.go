package sim

import (
	"errors"
	"log/slog"
	"time"

	"github.com/san-kum/swarmsim/internal/compute"
	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/particle"
	"github.com/san-kum/swarmsim/internal/tuning"
)

var (
	ErrReleased       = errors.New("sim: engine released")
	ErrInvalidOptions = errors.New("sim: invalid options")
)

// Input is what the host supplies each frame.
type Input struct {
	AttractorX float32
	AttractorY float32
	Tuning     tuning.Tuning
}

// Source produces the input for frame n.
type Source interface {
	Next(frame uint64) Input
}

type SourceFunc func(frame uint64) Input

func (f SourceFunc) Next(frame uint64) Input { return f(frame) }

// Fixed is a Source that never moves.
func Fixed(in Input) Source {
	return SourceFunc(func(uint64) Input { return in })
}

// Observer sees every composited frame. The frame is only valid for the
// duration of the call.
type Observer interface {
	OnFrame(f *density.Frame, stats FrameStats)
}

// Options fixes everything about an engine at construction.
type Options struct {
	Particles int
	Width     int
	Height    int

	MinWorkers int
	MaxWorkers int
	// Workers pins the pool size; zero sizes it from GOMAXPROCS.
	Workers    int
	QueueDepth int

	Mode           density.Mode
	Op             density.Op
	Groups         int
	CombineWorkers int
	MaxDensity     int
	Palette        density.Palette

	Placement particle.Placement
	Velocity  particle.Velocity
	Seed      uint64

	Wrap        compute.WrapPolicy
	Clamp       compute.ClampPolicy
	MinDistance float32
	Falloff     compute.FalloffPolicy
	Kernel      string

	// FrameBudget, when positive, skips compositing for any frame whose
	// kinematics phase alone ran over it.
	FrameBudget time.Duration
}

func DefaultOptions() Options {
	return Options{
		Particles:      100_000,
		Width:          800,
		Height:         800,
		MinWorkers:     1,
		MaxWorkers:     64,
		Mode:           density.ModePresence,
		Op:             density.OpOr,
		CombineWorkers: 1,
		MaxDensity:     8,
		Palette:        density.DefaultPalette(),
		Placement:      particle.PlacementRandom,
		Velocity:       particle.VelocityRandom,
		MinDistance:    compute.DefaultMinDistance,
		Kernel:         compute.Auto,
	}
}

// FrameStats describes one Step.
type FrameStats struct {
	Frame      uint64
	Kinematics time.Duration
	Density    time.Duration
	Composite  time.Duration
	Total      time.Duration
	// InRange counts particles that landed inside the field this frame.
	InRange    int
	InlineJobs int
	Failures   int
	Skipped    bool
}

func (s FrameStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Uint64("frame", s.Frame),
		slog.Int64("kinematics_us", s.Kinematics.Microseconds()),
		slog.Int64("density_us", s.Density.Microseconds()),
		slog.Int64("composite_us", s.Composite.Microseconds()),
		slog.Int64("total_us", s.Total.Microseconds()),
		slog.Int("in_range", s.InRange),
	}
	if s.InlineJobs > 0 {
		attrs = append(attrs, slog.Int("inline_jobs", s.InlineJobs))
	}
	if s.Failures > 0 {
		attrs = append(attrs, slog.Int("failures", s.Failures))
	}
	if s.Skipped {
		attrs = append(attrs, slog.Bool("skipped", true))
	}
	return slog.GroupValue(attrs...)
}
