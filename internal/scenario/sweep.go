package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/swarmsim/internal/metrics"
	"github.com/san-kum/swarmsim/internal/sim"
)

// Sweep runs the same workload over every kernel and worker count pair.
type Sweep struct {
	Kernels []string
	Workers []int
	Frames  int
	// Warmup frames run before recording starts.
	Warmup int
}

type SweepResult struct {
	Kernel   string
	Workers  int
	MeanMS   float64
	StdDevMS float64
	P95MS    float64
	Series   []float64
}

// RunSweep builds a fresh engine per combination from base. Options other
// than Kernel and Workers are left untouched.
func RunSweep(ctx context.Context, base sim.Options, sweep Sweep, src sim.Source, logger *slog.Logger) ([]SweepResult, error) {
	if sweep.Frames <= 0 {
		return nil, fmt.Errorf("%w: sweep needs a positive frame count", ErrInvalid)
	}
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]SweepResult, 0, len(sweep.Kernels)*len(sweep.Workers))
	for _, kernel := range sweep.Kernels {
		for _, workers := range sweep.Workers {
			opts := base
			opts.Kernel = kernel
			opts.Workers = workers
			if opts.MaxWorkers < workers {
				opts.MaxWorkers = workers
			}

			res, err := runOne(ctx, opts, sweep, src, logger)
			if err != nil {
				return results, fmt.Errorf("kernel %s, %d workers: %w", kernel, workers, err)
			}
			results = append(results, res)
			logger.Info("sweep point", "kernel", kernel, "workers", workers, "mean_ms", res.MeanMS, "p95_ms", res.P95MS)
		}
	}
	return results, nil
}

func runOne(ctx context.Context, opts sim.Options, sweep Sweep, src sim.Source, logger *slog.Logger) (SweepResult, error) {
	engine, err := sim.New(opts, sim.WithLogger(logger))
	if err != nil {
		return SweepResult{}, err
	}
	defer engine.Close()

	if sweep.Warmup > 0 {
		if err := engine.Run(ctx, sweep.Warmup, src); err != nil {
			return SweepResult{}, err
		}
	}

	mean := metrics.NewFrameTime()
	p95 := metrics.NewFrameTimeQuantile(0.95)
	rec := metrics.NewRecorder(0, mean, p95)
	engine.AddObserver(rec)

	if err := engine.Run(ctx, sweep.Frames, src); err != nil {
		return SweepResult{}, err
	}

	return SweepResult{
		Kernel:   engine.KernelName(),
		Workers:  engine.Workers(),
		MeanMS:   mean.Value(),
		StdDevMS: mean.StdDev(),
		P95MS:    p95.Value(),
		Series:   rec.Series(),
	}, nil
}
