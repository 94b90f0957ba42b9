package tuning

import (
	"math"
	"sync"
	"testing"
)

func TestApply(t *testing.T) {
	base := Default()

	up := base.Apply(AttractionUp)
	if math.Abs(float64(up.Attraction-base.Attraction-Step)) > 1e-7 {
		t.Errorf("attraction up: got %v", up.Attraction)
	}
	if up.Friction != base.Friction {
		t.Errorf("friction changed: %v", up.Friction)
	}

	down := base.Apply(FrictionDown)
	if math.Abs(float64(base.Friction-down.Friction-Step)) > 1e-7 {
		t.Errorf("friction down: got %v", down.Friction)
	}

	if base != Default() {
		t.Error("Apply mutated the receiver")
	}
}

func TestTunerConcurrentApply(t *testing.T) {
	tuner := NewTuner(Tuning{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tuner.Apply(Event{Attraction: 1, Friction: -1})
				_ = tuner.Snapshot()
			}
		}()
	}
	wg.Wait()

	got := tuner.Snapshot()
	if got.Attraction != 800 || got.Friction != -800 {
		t.Errorf("Snapshot = %+v, want {800 -800}", got)
	}
}

func TestTunerSet(t *testing.T) {
	tuner := NewTuner(Default())
	tuner.Set(Tuning{Attraction: 1, Friction: 0.5})
	if got := tuner.Snapshot(); got.Attraction != 1 || got.Friction != 0.5 {
		t.Errorf("Snapshot = %+v", got)
	}
}
