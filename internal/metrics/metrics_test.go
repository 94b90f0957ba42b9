package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/san-kum/swarmsim/internal/sim"
)

func frame(n uint64, total time.Duration) sim.FrameStats {
	return sim.FrameStats{Frame: n, Total: total, InRange: 50}
}

func TestFrameTime(t *testing.T) {
	m := NewFrameTime()
	if m.Value() != 0 {
		t.Error("empty metric should be 0")
	}

	for i, ms := range []int{2, 4, 6} {
		m.Observe(nil, frame(uint64(i), time.Duration(ms)*time.Millisecond))
	}
	if math.Abs(m.Value()-4) > 1e-9 {
		t.Errorf("mean = %v, want 4", m.Value())
	}
	if math.Abs(m.StdDev()-2) > 1e-9 {
		t.Errorf("stddev = %v, want 2", m.StdDev())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("Reset did not clear samples")
	}
}

func TestFrameTimeQuantile(t *testing.T) {
	m := NewFrameTimeQuantile(0.95)
	if m.Name() != "frame_p95_ms" {
		t.Errorf("name = %q", m.Name())
	}
	for i := 100; i >= 1; i-- {
		m.Observe(nil, frame(0, time.Duration(i)*time.Millisecond))
	}
	if got := m.Value(); got != 95 {
		t.Errorf("p95 = %v, want 95", got)
	}
}

func TestBudget(t *testing.T) {
	b := NewBudget(10)
	if b.Value() != 1 {
		t.Error("empty budget should be fully met")
	}

	b.Observe(nil, frame(0, 5*time.Millisecond))
	b.Observe(nil, frame(1, 15*time.Millisecond))
	b.Observe(nil, sim.FrameStats{Skipped: true})
	b.Observe(nil, frame(3, 8*time.Millisecond))

	if b.Value() != 0.5 {
		t.Errorf("within budget = %v, want 0.5", b.Value())
	}
}

func TestInRangeSkipsSkippedFrames(t *testing.T) {
	m := NewInRange(100)
	m.Observe(nil, sim.FrameStats{InRange: 100})
	m.Observe(nil, sim.FrameStats{InRange: 50})
	m.Observe(nil, sim.FrameStats{InRange: 0, Skipped: true})

	if m.Value() != 0.75 {
		t.Errorf("in range = %v, want 0.75", m.Value())
	}
}

func TestDegraded(t *testing.T) {
	m := NewDegraded()
	m.Observe(nil, sim.FrameStats{InlineJobs: 3})
	m.Observe(nil, sim.FrameStats{Failures: 1})
	if m.Value() != 2 {
		t.Errorf("degraded = %v, want 2", m.Value())
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(3, Standard(100, 16)...)
	for i := 0; i < 5; i++ {
		r.OnFrame(nil, frame(uint64(i), time.Duration(i+1)*time.Millisecond))
	}

	samples := r.Samples()
	if len(samples) != 3 || samples[0].Frame != 2 || samples[2].Frame != 4 {
		t.Fatalf("samples = %+v", samples)
	}
	series := r.Series()
	if series[0] != 3 || series[2] != 5 {
		t.Errorf("series = %v", series)
	}

	summary := r.Summary()
	for _, name := range []string{"frame_ms", "frame_p95_ms", "within_budget", "in_range", "degraded_jobs"} {
		if _, ok := summary[name]; !ok {
			t.Errorf("summary missing %s", name)
		}
	}
	if summary["frame_ms"] != 3 {
		t.Errorf("frame_ms = %v, want 3", summary["frame_ms"])
	}

	r.Reset()
	if len(r.Samples()) != 0 {
		t.Error("Reset kept samples")
	}
}
