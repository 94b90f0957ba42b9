// Package tuning holds the live-adjustable simulation constants.
//
// A [Tuning] is a plain value: the frame driver copies it into every frame's
// dispatch, so workers never read shared mutable state. Hosts that accept
// input on another goroutine keep a [Tuner] and take one [Tuner.Snapshot] per
// frame.
package tuning

import (
	"fmt"
	"sync"
)

// Step is the change applied by one key press.
const Step float32 = 0.0005

const (
	DefaultAttraction float32 = 0.2
	DefaultFriction   float32 = 0.999
)

type Tuning struct {
	Attraction float32 `yaml:"attraction" json:"attraction"`
	Friction   float32 `yaml:"friction" json:"friction"`
}

func Default() Tuning {
	return Tuning{Attraction: DefaultAttraction, Friction: DefaultFriction}
}

// Event is one discrete tuning input. Either delta may be zero.
type Event struct {
	Attraction float32
	Friction   float32
}

var (
	AttractionUp   = Event{Attraction: Step}
	AttractionDown = Event{Attraction: -Step}
	FrictionUp     = Event{Friction: Step}
	FrictionDown   = Event{Friction: -Step}
)

// Apply returns t with ev added.
func (t Tuning) Apply(ev Event) Tuning {
	t.Attraction += ev.Attraction
	t.Friction += ev.Friction
	return t
}

func (t Tuning) String() string {
	return fmt.Sprintf("attraction=%.4f friction=%.4f", t.Attraction, t.Friction)
}

// Tuner is a Tuning shared between an input goroutine and the frame loop.
type Tuner struct {
	mu  sync.Mutex
	cur Tuning
}

func NewTuner(initial Tuning) *Tuner {
	return &Tuner{cur: initial}
}

func (t *Tuner) Apply(ev Event) Tuning {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cur = t.cur.Apply(ev)
	return t.cur
}

func (t *Tuner) Set(v Tuning) {
	t.mu.Lock()
	t.cur = v
	t.mu.Unlock()
}

// Snapshot returns the current values. Call it once per frame, before
// dispatching workers.
func (t *Tuner) Snapshot() Tuning {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cur
}
