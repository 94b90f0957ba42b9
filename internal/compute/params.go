package compute

import (
	"fmt"
	"math"
)

type WrapPolicy int

const (
	// WrapNone lets particles leave the field; the density writers skip them.
	WrapNone WrapPolicy = iota
	// WrapToroidal folds a position that left the field back in from the
	// opposite edge, once per axis per tick.
	WrapToroidal
)

func (w WrapPolicy) String() string {
	switch w {
	case WrapNone:
		return "none"
	case WrapToroidal:
		return "toroidal"
	}
	return fmt.Sprintf("wrap(%d)", int(w))
}

type ClampPolicy int

const (
	// ClampMinDistance floors the attractor distance at Params.MinDistance.
	ClampMinDistance ClampPolicy = iota
	// ClampNone divides by the raw distance. A particle sitting exactly on
	// the attractor gets a non-finite direction.
	ClampNone
)

func (c ClampPolicy) String() string {
	switch c {
	case ClampMinDistance:
		return "min_distance"
	case ClampNone:
		return "none"
	}
	return fmt.Sprintf("clamp(%d)", int(c))
}

type FalloffPolicy int

const (
	// FalloffConstant pulls with the same strength at every distance.
	FalloffConstant FalloffPolicy = iota
	// FalloffInverse scales the pull by 1/distance.
	FalloffInverse
)

func (f FalloffPolicy) String() string {
	switch f {
	case FalloffConstant:
		return "constant"
	case FalloffInverse:
		return "inverse"
	}
	return fmt.Sprintf("falloff(%d)", int(f))
}

// DefaultMinDistance is the clamp radius used by ClampMinDistance.
const DefaultMinDistance float32 = 0.5

// Params is everything a kernel needs for one frame. It is passed by value.
type Params struct {
	AttractorX float32
	AttractorY float32
	Attraction float32
	Friction   float32

	Width  float32
	Height float32

	MinDistance float32
	Wrap        WrapPolicy
	Clamp       ClampPolicy
	Falloff     FalloffPolicy
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// distance returns the attractor distance after the clamp policy.
func (p *Params) distance(dx, dy float32) float32 {
	d := sqrt32(dx*dx + dy*dy)
	if p.Clamp == ClampMinDistance && d < p.MinDistance {
		d = p.MinDistance
	}
	return d
}

// gain is the attraction applied along the unit direction.
func (p *Params) gain(dist float32) float32 {
	if p.Falloff == FalloffInverse {
		return p.Attraction / dist
	}
	return p.Attraction
}

func wrap(v, limit float32) float32 {
	if v < 0 {
		v += limit
		// a tiny negative v rounds up to limit
		if v >= limit {
			return 0
		}
		return v
	}
	if v >= limit {
		return v - limit
	}
	return v
}
