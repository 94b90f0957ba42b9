package metrics

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/sim"
)

func millis(s sim.FrameStats) float64 {
	return float64(s.Total.Microseconds()) / 1000
}

// FrameTime is the mean frame time in milliseconds.
type FrameTime struct {
	name    string
	samples []float64
}

func NewFrameTime() *FrameTime {
	return &FrameTime{name: "frame_ms"}
}

func (m *FrameTime) Name() string { return m.name }

func (m *FrameTime) Observe(f *density.Frame, s sim.FrameStats) {
	m.samples = append(m.samples, millis(s))
}

func (m *FrameTime) Value() float64 {
	if len(m.samples) == 0 {
		return 0
	}
	return stat.Mean(m.samples, nil)
}

// StdDev is the frame time jitter in milliseconds.
func (m *FrameTime) StdDev() float64 {
	if len(m.samples) < 2 {
		return 0
	}
	return stat.StdDev(m.samples, nil)
}

func (m *FrameTime) Reset() {
	m.samples = m.samples[:0]
}

// FrameTimeQuantile is the q-quantile of frame time in milliseconds.
type FrameTimeQuantile struct {
	name    string
	q       float64
	samples []float64
}

func NewFrameTimeQuantile(q float64) *FrameTimeQuantile {
	return &FrameTimeQuantile{
		name: fmt.Sprintf("frame_p%02.0f_ms", q*100),
		q:    q,
	}
}

func (m *FrameTimeQuantile) Name() string { return m.name }

func (m *FrameTimeQuantile) Observe(f *density.Frame, s sim.FrameStats) {
	m.samples = append(m.samples, millis(s))
}

func (m *FrameTimeQuantile) Value() float64 {
	if len(m.samples) == 0 {
		return 0
	}
	sorted := append([]float64(nil), m.samples...)
	sort.Float64s(sorted)
	return stat.Quantile(m.q, stat.Empirical, sorted, nil)
}

func (m *FrameTimeQuantile) Reset() {
	m.samples = m.samples[:0]
}
