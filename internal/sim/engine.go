package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/swarmsim/internal/compute"
	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/particle"
	"github.com/san-kum/swarmsim/internal/partition"
	"github.com/san-kum/swarmsim/internal/pool"
)

// Engine owns a particle set, a worker pool and the density pipeline, and
// advances them one frame per Step. Step, Run and Close must be called from
// a single goroutine.
type Engine struct {
	opts   Options
	logger *slog.Logger

	set      *particle.Set
	pool     *pool.Pool
	batch    *pool.Batch
	combiner *density.Combiner
	bufs     []*density.Buffer

	kinematics []kinematicsSlot
	densities  []densitySlot
	composites []compositeSlot

	kinematicsJobs []func()
	densityJobs    []func()
	compositeJobs  []func()

	observers []Observer
	frame     uint64
	hasFrame  bool
	released  bool
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New builds an engine. On any failure everything allocated so far is
// released before the error is returned.
func New(opts Options, options ...Option) (e *Engine, err error) {
	e = &Engine{opts: opts, logger: slog.Default()}
	for _, o := range options {
		o(e)
	}

	if err := validate(opts); err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			e.Close()
			e = nil
		}
	}()

	e.set, err = particle.New(opts.Particles, opts.Width, opts.Height, particle.Options{
		Placement: opts.Placement,
		Velocity:  opts.Velocity,
		Seed:      opts.Seed,
	})
	if err != nil {
		return e, fmt.Errorf("particles: %w", err)
	}

	poolOpts := []pool.Option{pool.WithLogger(e.logger), pool.WithQueueDepth(opts.QueueDepth)}
	if opts.Workers > 0 {
		poolOpts = append(poolOpts, pool.WithSize(opts.Workers))
	}
	e.pool, err = pool.New(opts.MinWorkers, opts.MaxWorkers, poolOpts...)
	if err != nil {
		return e, fmt.Errorf("pool: %w", err)
	}
	e.batch = pool.NewBatch()
	workers := e.pool.Size()

	chunks := partition.Split(opts.Particles, workers)
	e.kinematics = make([]kinematicsSlot, len(chunks))
	e.kinematicsJobs = make([]func(), len(chunks))
	for i, r := range chunks {
		k, err := compute.New(opts.Kernel)
		if err != nil {
			return e, err
		}
		slot := &e.kinematics[i]
		slot.set, slot.r, slot.kernel = e.set, r, k
		slot.bind()
		e.kinematicsJobs[i] = slot.run
	}

	groups := opts.Groups
	if groups <= 0 {
		groups = workers
	}
	e.bufs = make([]*density.Buffer, groups)
	e.densities = make([]densitySlot, groups)
	e.densityJobs = make([]func(), groups)
	for i, r := range partition.Split(opts.Particles, groups) {
		buf, err := density.NewBuffer(opts.Mode, opts.Width, opts.Height)
		if err != nil {
			return e, fmt.Errorf("density buffer %d: %w", i, err)
		}
		e.bufs[i] = buf
		slot := &e.densities[i]
		slot.set, slot.r, slot.buf = e.set, r, buf
		slot.bind()
		e.densityJobs[i] = slot.run
	}

	e.combiner, err = density.NewCombiner(opts.Mode, opts.Op, opts.Width, opts.Height, opts.Palette, opts.MaxDensity)
	if err != nil {
		return e, fmt.Errorf("combiner: %w", err)
	}

	if opts.CombineWorkers > 1 {
		bands := partition.Rows(opts.Width, opts.Height, opts.CombineWorkers)
		e.composites = make([]compositeSlot, len(bands))
		e.compositeJobs = make([]func(), len(bands))
		for i, r := range bands {
			slot := &e.composites[i]
			slot.combiner, slot.bufs, slot.r = e.combiner, e.bufs, r
			slot.bind()
			e.compositeJobs[i] = slot.run
		}
	}

	e.logger.Info("engine ready",
		"particles", opts.Particles,
		"size", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"workers", workers,
		"kernel", e.KernelName(),
		"lanes", e.kinematics[0].kernel.Lanes(),
		"mode", opts.Mode,
		"op", opts.Op,
		"groups", groups)
	return e, nil
}

func validate(o Options) error {
	switch {
	case o.Particles <= 0 || o.Particles%particle.LaneWidth != 0:
		return fmt.Errorf("%w: particle count %d: %w", ErrInvalidOptions, o.Particles, particle.ErrLaneAlignment)
	case o.Width <= 0 || o.Height <= 0:
		return fmt.Errorf("%w: size %dx%d: %w", ErrInvalidOptions, o.Width, o.Height, particle.ErrInvalidDimensions)
	case o.Groups < 0:
		return fmt.Errorf("%w: density groups %d", ErrInvalidOptions, o.Groups)
	case o.CombineWorkers < 0:
		return fmt.Errorf("%w: combine workers %d", ErrInvalidOptions, o.CombineWorkers)
	case o.Clamp == compute.ClampMinDistance && !(o.MinDistance > 0):
		return fmt.Errorf("%w: min distance %v", ErrInvalidOptions, o.MinDistance)
	case o.FrameBudget < 0:
		return fmt.Errorf("%w: frame budget %v", ErrInvalidOptions, o.FrameBudget)
	}
	return nil
}

func (e *Engine) AddObserver(o Observer) { e.observers = append(e.observers, o) }

func (e *Engine) Options() Options            { return e.opts }
func (e *Engine) Particles() *particle.Set    { return e.set }
func (e *Engine) Combiner() *density.Combiner { return e.combiner }
func (e *Engine) Workers() int                { return e.pool.Size() }
func (e *Engine) PoolStats() pool.Stats       { return e.pool.Stats() }
func (e *Engine) Frames() uint64              { return e.frame }

func (e *Engine) KernelName() string {
	if len(e.kinematics) == 0 {
		return ""
	}
	return e.kinematics[0].kernel.Name()
}

func (e *Engine) params(in Input) compute.Params {
	return compute.Params{
		AttractorX:  in.AttractorX,
		AttractorY:  in.AttractorY,
		Attraction:  in.Tuning.Attraction,
		Friction:    in.Tuning.Friction,
		Width:       float32(e.opts.Width),
		Height:      float32(e.opts.Height),
		MinDistance: e.opts.MinDistance,
		Wrap:        e.opts.Wrap,
		Clamp:       e.opts.Clamp,
		Falloff:     e.opts.Falloff,
	}
}

// Step advances every particle once, rebuilds the density field and returns
// the composited frame. The frame stays valid until the next Step or Close.
func (e *Engine) Step(in Input) (*density.Frame, FrameStats, error) {
	if e.released {
		return nil, FrameStats{}, ErrReleased
	}

	stats := FrameStats{Frame: e.frame}
	e.frame++
	start := time.Now()

	p := e.params(in)
	for i := range e.kinematics {
		e.kinematics[i].params = p
		e.kinematics[i].ok = false
	}
	inline, err := dispatch(e.pool, e.batch, e.kinematicsJobs)
	stats.InlineJobs += inline
	if err != nil {
		for i := range e.kinematics {
			if !e.kinematics[i].ok {
				stats.Failures++
				e.logger.Error("kinematics job failed", "chunk", i, "range", e.kinematics[i].r)
			}
		}
		e.logger.Debug("kinematics join", "error", err)
	}
	stats.Kinematics = time.Since(start)

	if e.opts.FrameBudget > 0 && e.hasFrame && stats.Kinematics > e.opts.FrameBudget {
		stats.Skipped = true
		stats.Total = time.Since(start)
		e.logger.Debug("frame over budget, reusing previous frame", "stats", stats)
		return e.combiner.Frame(), stats, nil
	}

	mark := time.Now()
	for i := range e.densities {
		e.densities[i].ok = false
		e.densities[i].written = 0
	}
	inline, err = dispatch(e.pool, e.batch, e.densityJobs)
	stats.InlineJobs += inline
	for i := range e.densities {
		slot := &e.densities[i]
		if !slot.ok {
			stats.Failures++
			slot.buf.Clear()
			e.logger.Error("density job failed, buffer cleared", "group", i, "range", slot.r)
			continue
		}
		stats.InRange += slot.written
	}
	if err != nil {
		e.logger.Debug("density join", "error", err)
	}
	stats.Density = time.Since(mark)

	mark = time.Now()
	frame := e.composite(&stats)
	stats.Composite = time.Since(mark)
	stats.Total = time.Since(start)
	e.hasFrame = true

	return frame, stats, nil
}

func (e *Engine) composite(stats *FrameStats) *density.Frame {
	if len(e.compositeJobs) == 0 {
		return e.combiner.Combine(e.bufs)
	}
	inline, err := dispatch(e.pool, e.batch, e.compositeJobs)
	stats.InlineJobs += inline
	if err != nil {
		stats.Failures++
		e.logger.Error("composite job failed", "error", err)
	}
	return e.combiner.Frame()
}

// Run steps the engine frames times (forever when frames <= 0), feeding it
// from src and notifying observers. It stops early when ctx is done.
func (e *Engine) Run(ctx context.Context, frames int, src Source) error {
	return e.RunWithCallback(ctx, frames, src, nil)
}

// RunWithCallback is Run with a per-frame callback; returning false stops
// the run without error.
func (e *Engine) RunWithCallback(ctx context.Context, frames int, src Source, fn func(*density.Frame, FrameStats) bool) error {
	for n := 0; frames <= 0 || n < frames; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		f, stats, err := e.Step(src.Next(e.frame))
		if err != nil {
			return err
		}
		for _, o := range e.observers {
			o.OnFrame(f, stats)
		}
		if fn != nil && !fn(f, stats) {
			return nil
		}
	}
	return nil
}

// Close releases the particle set and stops the pool. It is idempotent.
func (e *Engine) Close() {
	if e == nil || e.released {
		return
	}
	e.released = true
	e.pool.Close()
	e.set.Release()
	e.logger.Debug("engine released", "frames", e.frame)
}
