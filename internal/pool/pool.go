package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

var (
	ErrInvalidSize       = errors.New("pool: invalid worker bounds")
	ErrResourceExhausted = errors.New("pool: could not start minimum number of workers")
	ErrSaturated         = errors.New("pool: job queue full")
	ErrClosed            = errors.New("pool: closed")
)

// JobError reports a job that panicked. The panic is contained in the worker
// and surfaced through Batch.Wait.
type JobError struct {
	Value any
	Stack []byte
}

func (e *JobError) Error() string {
	return fmt.Sprintf("pool: job panicked: %v", e.Value)
}

type job struct {
	fn    func()
	batch *Batch
}

// Pool is a fixed set of persistent worker goroutines fed from a bounded
// queue. It is created once and reused for every frame.
type Pool struct {
	jobs   chan job
	wg     sync.WaitGroup
	size   int
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool

	submitted atomic.Int64
	inline    atomic.Int64
	panics    atomic.Int64
}

type options struct {
	size       int
	queueDepth int
	logger     *slog.Logger
	spawn      func(func()) error
}

type Option func(*options)

// WithSize fixes the worker count instead of deriving it from GOMAXPROCS. It
// must still lie within [min, max].
func WithSize(n int) Option {
	return func(o *options) { o.size = n }
}

// WithQueueDepth sets how many jobs may wait for a worker before Submit
// reports ErrSaturated. Defaults to twice the worker count.
func WithQueueDepth(n int) Option {
	return func(o *options) { o.queueDepth = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// withSpawn replaces goroutine creation; tests use it to simulate failures.
func withSpawn(fn func(func()) error) Option {
	return func(o *options) { o.spawn = fn }
}

// New starts a pool sized within [min, max]. If fewer than min workers can be
// started the ones already running are stopped and ErrResourceExhausted is
// returned.
func New(min, max int, opts ...Option) (*Pool, error) {
	if min < 1 || max < min {
		return nil, fmt.Errorf("%w: min=%d max=%d", ErrInvalidSize, min, max)
	}

	o := options{
		logger: slog.Default(),
		spawn: func(fn func()) error {
			go fn()
			return nil
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	size := o.size
	if size == 0 {
		size = clamp(runtime.GOMAXPROCS(0), min, max)
	} else if size < min || size > max {
		return nil, fmt.Errorf("%w: size %d outside [%d,%d]", ErrInvalidSize, size, min, max)
	}

	depth := o.queueDepth
	if depth <= 0 {
		depth = 2 * size
	}

	p := &Pool{
		jobs:   make(chan job, depth),
		logger: o.logger,
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		if err := o.spawn(p.worker); err != nil {
			p.wg.Done()
			if p.size >= min {
				p.logger.Warn("pool: worker spawn failed, running below target size",
					"started", p.size, "target", size, "error", err)
				break
			}
			p.Close()
			return nil, fmt.Errorf("%w: started %d of %d: %v", ErrResourceExhausted, p.size, min, err)
		}
		p.size++
	}

	p.logger.Debug("pool started", "workers", p.size, "queue_depth", depth)
	return p, nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	defer j.batch.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			j.batch.fail(&JobError{Value: r, Stack: debug.Stack()})
		}
	}()
	j.fn()
}

// Submit enqueues fn against b without blocking. It returns ErrSaturated when
// the queue is full and ErrClosed after Close; in both cases fn was not
// scheduled and the caller still owns it.
func (p *Pool) Submit(b *Batch, fn func()) error {
	if p == nil {
		return ErrClosed
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	b.wg.Add(1)
	select {
	case p.jobs <- job{fn: fn, batch: b}:
		p.submitted.Add(1)
		return nil
	default:
		b.wg.Done()
		return ErrSaturated
	}
}

// Go submits fn, falling back to running it on the calling goroutine when the
// pool rejects it. It reports whether the fallback was taken.
func (p *Pool) Go(b *Batch, fn func()) bool {
	err := p.Submit(b, fn)
	if err == nil {
		return false
	}
	p.inline.Add(1)
	p.logger.Debug("pool: running job inline", "reason", err)
	b.wg.Add(1)
	p.run(job{fn: fn, batch: b})
	return true
}

// Size is the number of running workers.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return p.size
}

// Close waits for queued jobs to finish and stops the workers. It is safe on a
// nil pool and safe to call more than once.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

type Stats struct {
	Workers   int
	Submitted int64
	Inline    int64
	Panics    int64
}

func (p *Pool) Stats() Stats {
	if p == nil {
		return Stats{}
	}
	return Stats{
		Workers:   p.size,
		Submitted: p.submitted.Load(),
		Inline:    p.inline.Load(),
		Panics:    p.panics.Load(),
	}
}
