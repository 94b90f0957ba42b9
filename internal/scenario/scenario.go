// Package scenario scripts the attractor and tuning inputs of a headless run.
//
// A scenario is a list of steps, each lasting a number of frames. A step can
// glide the attractor to a point, circle it around a center, and set or nudge
// the tuning when it begins:
//
//	name: figure
//	steps:
//	  - frames: 120
//	    attractor: {x: 200, y: 200}
//	  - frames: 240
//	    orbit: {x: 400, y: 400, radius: 150, period: 120}
//	    nudge: [attraction_up, attraction_up]
//
// Inputs depend only on the frame number, so a replay is exact.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/swarmsim/internal/sim"
	"github.com/san-kum/swarmsim/internal/tuning"
)

var ErrInvalid = errors.New("invalid scenario")

type Point struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
}

type Orbit struct {
	X      float32 `yaml:"x"`
	Y      float32 `yaml:"y"`
	Radius float32 `yaml:"radius"`
	// Period is the number of frames per revolution.
	Period int `yaml:"period"`
}

type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Loop        bool   `yaml:"loop"`
	Steps       []Step `yaml:"steps"`
}

type Step struct {
	Frames    int            `yaml:"frames"`
	Attractor *Point         `yaml:"attractor,omitempty"`
	Orbit     *Orbit         `yaml:"orbit,omitempty"`
	Tuning    *tuning.Tuning `yaml:"tuning,omitempty"`
	Nudge     []string       `yaml:"nudge,omitempty"`
}

var nudges = map[string]tuning.Event{
	"attraction_up":   tuning.AttractionUp,
	"attraction_down": tuning.AttractionDown,
	"friction_up":     tuning.FrictionUp,
	"friction_down":   tuning.FrictionDown,
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalid)
	}
	var errs []error
	for i, st := range s.Steps {
		if st.Frames <= 0 {
			errs = append(errs, fmt.Errorf("%w: step %d: frames must be positive", ErrInvalid, i+1))
		}
		if st.Attractor != nil && st.Orbit != nil {
			errs = append(errs, fmt.Errorf("%w: step %d: attractor and orbit are exclusive", ErrInvalid, i+1))
		}
		if st.Orbit != nil && st.Orbit.Period <= 0 {
			errs = append(errs, fmt.Errorf("%w: step %d: orbit period must be positive", ErrInvalid, i+1))
		}
		for _, n := range st.Nudge {
			if _, ok := nudges[n]; !ok {
				errs = append(errs, fmt.Errorf("%w: step %d: unknown nudge %q", ErrInvalid, i+1, n))
			}
		}
	}
	return errors.Join(errs...)
}

// Frames is the length of one pass through the steps.
func (s *Scenario) Frames() int {
	n := 0
	for _, st := range s.Steps {
		n += st.Frames
	}
	return n
}

type stepState struct {
	first  uint64
	from   Point
	tuning tuning.Tuning
}

// Player replays a scenario as a sim.Source.
type Player struct {
	sc     *Scenario
	states []stepState
	total  uint64
}

// Player starts the attractor at start with the given tuning.
func (s *Scenario) Player(start Point, initial tuning.Tuning) *Player {
	p := &Player{sc: s, states: make([]stepState, len(s.Steps))}

	pos, tun := start, initial
	for i, st := range s.Steps {
		if st.Tuning != nil {
			tun = *st.Tuning
		}
		for _, n := range st.Nudge {
			tun = tun.Apply(nudges[n])
		}
		p.states[i] = stepState{first: p.total, from: pos, tuning: tun}
		p.total += uint64(st.Frames)

		switch {
		case st.Attractor != nil:
			pos = *st.Attractor
		case st.Orbit != nil:
			pos = orbitAt(*st.Orbit, st.Frames)
		}
	}
	return p
}

func (p *Player) Next(frame uint64) sim.Input {
	if frame >= p.total {
		if p.sc.Loop {
			frame %= p.total
		} else {
			frame = p.total - 1
		}
	}

	i := sort.Search(len(p.states), func(i int) bool {
		return p.states[i].first > frame
	}) - 1
	st, state := p.sc.Steps[i], p.states[i]
	local := int(frame - state.first)

	pos := state.from
	switch {
	case st.Attractor != nil:
		t := float32(local+1) / float32(st.Frames)
		pos = Point{
			X: state.from.X + (st.Attractor.X-state.from.X)*t,
			Y: state.from.Y + (st.Attractor.Y-state.from.Y)*t,
		}
	case st.Orbit != nil:
		pos = orbitAt(*st.Orbit, local)
	}

	return sim.Input{AttractorX: pos.X, AttractorY: pos.Y, Tuning: state.tuning}
}

func orbitAt(o Orbit, frame int) Point {
	theta := 2 * math.Pi * float64(frame%o.Period) / float64(o.Period)
	return Point{
		X: o.X + o.Radius*float32(math.Cos(theta)),
		Y: o.Y + o.Radius*float32(math.Sin(theta)),
	}
}

// Circle is the default headless source: the attractor circles the field
// center once every period frames.
func Circle(width, height, period int, t tuning.Tuning) sim.Source {
	o := Orbit{
		X:      float32(width) / 2,
		Y:      float32(height) / 2,
		Radius: float32(min(width, height)) / 3,
		Period: max(period, 1),
	}
	return sim.SourceFunc(func(frame uint64) sim.Input {
		pos := orbitAt(o, int(frame%uint64(o.Period)))
		return sim.Input{AttractorX: pos.X, AttractorY: pos.Y, Tuning: t}
	})
}
