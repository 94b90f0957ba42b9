package metrics

import (
	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/sim"
)

// InRange is the mean fraction of particles inside the field, over frames
// that were composited.
type InRange struct {
	name      string
	particles int
	sum       float64
	samples   int
}

func NewInRange(particles int) *InRange {
	return &InRange{name: "in_range", particles: particles}
}

func (m *InRange) Name() string { return m.name }

func (m *InRange) Observe(f *density.Frame, s sim.FrameStats) {
	if s.Skipped || m.particles == 0 {
		return
	}
	m.sum += float64(s.InRange) / float64(m.particles)
	m.samples++
}

func (m *InRange) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *InRange) Reset() {
	m.sum = 0
	m.samples = 0
}

// Degraded is the mean number of inline fallbacks and failed jobs per frame.
type Degraded struct {
	name    string
	sum     float64
	samples int
}

func NewDegraded() *Degraded {
	return &Degraded{name: "degraded_jobs"}
}

func (m *Degraded) Name() string { return m.name }

func (m *Degraded) Observe(f *density.Frame, s sim.FrameStats) {
	m.sum += float64(s.InlineJobs + s.Failures)
	m.samples++
}

func (m *Degraded) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Degraded) Reset() {
	m.sum = 0
	m.samples = 0
}
