package metrics

import (
	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/sim"
)

// Budget is the fraction of frames composited within targetMS.
type Budget struct {
	name       string
	targetMS   float64
	violations int
	samples    int
}

func NewBudget(targetMS float64) *Budget {
	return &Budget{
		name:     "within_budget",
		targetMS: targetMS,
	}
}

func (b *Budget) Name() string {
	return b.name
}

func (b *Budget) Observe(f *density.Frame, s sim.FrameStats) {
	b.samples++
	if s.Skipped || millis(s) > b.targetMS {
		b.violations++
	}
}

func (b *Budget) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Budget) Reset() {
	b.violations = 0
	b.samples = 0
}
