package metrics

import (
	"log/slog"
	"sync"

	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/sim"
)

// Sample is one frame's stats in a flat, CSV-friendly shape.
type Sample struct {
	Frame        uint64 `csv:"frame"`
	KinematicsUS int64  `csv:"kinematics_us"`
	DensityUS    int64  `csv:"density_us"`
	CompositeUS  int64  `csv:"composite_us"`
	TotalUS      int64  `csv:"total_us"`
	InRange      int    `csv:"in_range"`
	InlineJobs   int    `csv:"inline_jobs"`
	Failures     int    `csv:"failures"`
	Skipped      bool   `csv:"skipped"`
}

func NewSample(s sim.FrameStats) Sample {
	return Sample{
		Frame:        s.Frame,
		KinematicsUS: s.Kinematics.Microseconds(),
		DensityUS:    s.Density.Microseconds(),
		CompositeUS:  s.Composite.Microseconds(),
		TotalUS:      s.Total.Microseconds(),
		InRange:      s.InRange,
		InlineJobs:   s.InlineJobs,
		Failures:     s.Failures,
		Skipped:      s.Skipped,
	}
}

// Recorder is a sim.Observer that feeds its metrics and keeps the most
// recent samples. It is safe to read from another goroutine.
type Recorder struct {
	mu      sync.Mutex
	metrics []Metric
	samples []Sample
	limit   int
	logger  *slog.Logger
	every   uint64
}

// NewRecorder keeps at most limit samples; zero keeps all.
func NewRecorder(limit int, metrics ...Metric) *Recorder {
	return &Recorder{metrics: metrics, limit: limit}
}

// LogEvery logs the frame stats at debug level once every n frames.
func (r *Recorder) LogEvery(logger *slog.Logger, n uint64) *Recorder {
	r.logger, r.every = logger, n
	return r
}

func (r *Recorder) OnFrame(f *density.Frame, s sim.FrameStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.metrics {
		m.Observe(f, s)
	}
	r.samples = append(r.samples, NewSample(s))
	if r.limit > 0 && len(r.samples) > r.limit {
		n := copy(r.samples, r.samples[len(r.samples)-r.limit:])
		r.samples = r.samples[:n]
	}
	if r.logger != nil && r.every > 0 && s.Frame%r.every == 0 {
		r.logger.Debug("frame", "stats", s)
	}
}

func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

// Series returns the recorded frame times in milliseconds, oldest first.
func (r *Recorder) Series() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.samples))
	for i, s := range r.samples {
		out[i] = float64(s.TotalUS) / 1000
	}
	return out
}

func (r *Recorder) Summary() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.metrics {
		m.Reset()
	}
	r.samples = r.samples[:0]
}
