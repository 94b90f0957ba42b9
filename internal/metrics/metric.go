// Package metrics observes engine frames: timing, coverage and degradation.
package metrics

import (
	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/sim"
)

type Metric interface {
	Name() string
	Observe(f *density.Frame, s sim.FrameStats)
	Value() float64
	Reset()
}

// Standard is the metric set the CLI records for every run.
func Standard(particles int, budgetMS float64) []Metric {
	return []Metric{
		NewFrameTime(),
		NewFrameTimeQuantile(0.95),
		NewBudget(budgetMS),
		NewInRange(particles),
		NewDegraded(),
	}
}
