// Package particle owns the structure-of-arrays particle state.
//
// A [Set] holds four parallel float32 arrays (positions and velocities),
// allocated together, aligned to a vector register boundary, and released
// together. The particle count is fixed at creation and must be a multiple of
// [LaneWidth].
package particle

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/san-kum/swarmsim/internal/aligned"
	"github.com/san-kum/swarmsim/internal/partition"
)

// LaneWidth is the number of float32 lanes in one 256-bit vector register.
const LaneWidth = 8

// Alignment is the byte alignment of every particle array.
const Alignment = aligned.Boundary

// MaxParticles bounds a single set; larger requests are treated as resource
// exhaustion rather than attempted.
const MaxParticles = 1 << 28

var (
	ErrLaneAlignment     = errors.New("particle: count must be a positive multiple of the lane width")
	ErrInvalidDimensions = errors.New("particle: width and height must be positive")
	ErrResourceExhausted = errors.New("particle: cannot allocate particle arrays")
	ErrUnknownPlacement  = errors.New("particle: unknown placement policy")
	ErrUnknownVelocity   = errors.New("particle: unknown velocity policy")
)

type Placement int

const (
	// PlacementRandom scatters particles uniformly over the output area.
	PlacementRandom Placement = iota
	// PlacementScanline places particle i at (i mod width, i div width).
	// Particles past the last row start below the field and stay clipped
	// until they move into it.
	PlacementScanline
)

func (p Placement) String() string {
	switch p {
	case PlacementRandom:
		return "random"
	case PlacementScanline:
		return "scanline"
	}
	return fmt.Sprintf("placement(%d)", int(p))
}

type Velocity int

const (
	// VelocityRandom draws each component uniformly from [-1, 1].
	VelocityRandom Velocity = iota
	VelocityZero
)

func (v Velocity) String() string {
	switch v {
	case VelocityRandom:
		return "random"
	case VelocityZero:
		return "zero"
	}
	return fmt.Sprintf("velocity(%d)", int(v))
}

type Options struct {
	Placement Placement
	Velocity  Velocity
	Seed      uint64
}

// Set is the particle state. The exported arrays may only be mutated through
// disjoint ranges handed out by [Set.Chunk].
type Set struct {
	PosX []float32
	PosY []float32
	VelX []float32
	VelY []float32

	count    int
	released bool
}

// New allocates and initializes count particles for a width x height field.
// On failure nothing is retained.
func New(count, width, height int, opts Options) (*Set, error) {
	if count <= 0 || count%LaneWidth != 0 {
		return nil, fmt.Errorf("%w: got %d (lane width %d)", ErrLaneAlignment, count, LaneWidth)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, width, height)
	}
	if opts.Placement != PlacementRandom && opts.Placement != PlacementScanline {
		return nil, fmt.Errorf("%w: %v", ErrUnknownPlacement, opts.Placement)
	}
	if opts.Velocity != VelocityRandom && opts.Velocity != VelocityZero {
		return nil, fmt.Errorf("%w: %v", ErrUnknownVelocity, opts.Velocity)
	}
	if count > MaxParticles {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrResourceExhausted, count, MaxParticles)
	}

	s := &Set{count: count}
	for _, dst := range []*[]float32{&s.PosX, &s.PosY, &s.VelX, &s.VelY} {
		buf, err := aligned.Make[float32](count)
		if err != nil {
			s.Release()
			return nil, fmt.Errorf("%w: %v", ErrResourceExhausted, err)
		}
		*dst = buf
	}

	s.place(width, height, opts)
	return s, nil
}

func (s *Set) place(width, height int, opts Options) {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	fw, fh := float32(width), float32(height)

	for i := range s.PosX {
		if opts.Placement == PlacementScanline {
			s.PosX[i] = float32(i % width)
			s.PosY[i] = float32(i / width)
		} else {
			s.PosX[i] = below(rng.Float32()*fw, fw)
			s.PosY[i] = below(rng.Float32()*fh, fh)
		}

		if opts.Velocity == VelocityRandom {
			s.VelX[i] = rng.Float32()*2 - 1
			s.VelY[i] = rng.Float32()*2 - 1
		}
	}
}

// below keeps a scaled sample inside the half-open interval; float32 rounding
// can otherwise land exactly on the limit.
func below(v, limit float32) float32 {
	if v >= limit {
		return math.Nextafter32(limit, 0)
	}
	return v
}

// Count is the number of particles, or 0 once the set is released.
func (s *Set) Count() int {
	if s == nil || s.released {
		return 0
	}
	return s.count
}

func (s *Set) Released() bool { return s == nil || s.released }

// Release drops the four arrays together. Calling it again, or on nil, is a
// no-op; reads after release see empty slices.
func (s *Set) Release() {
	if s == nil || s.released {
		return
	}
	s.PosX, s.PosY, s.VelX, s.VelY = nil, nil, nil, nil
	s.released = true
}

// Chunk returns the four sub-slices covering r. The slices are capped at r.End
// so a writer cannot reach past its range.
func (s *Set) Chunk(r partition.Range) (px, py, vx, vy []float32) {
	if s.released {
		return nil, nil, nil, nil
	}
	return s.PosX[r.Start:r.End:r.End],
		s.PosY[r.Start:r.End:r.End],
		s.VelX[r.Start:r.End:r.End],
		s.VelY[r.Start:r.End:r.End]
}

// Bounds counts the particles whose rounded position lies inside
// [0,width) x [0,height), using the same rounding as the density writers.
func (s *Set) Bounds(width, height int) (in, out int) {
	if s.released {
		return 0, 0
	}
	for i := range s.PosX {
		x := Cell(s.PosX[i])
		y := Cell(s.PosY[i])
		if x >= 0 && x < width && y >= 0 && y < height {
			in++
		} else {
			out++
		}
	}
	return in, out
}

// Snapshot copies the arrays, for tests and reference comparisons.
func (s *Set) Snapshot() (px, py, vx, vy []float32) {
	clone := func(a []float32) []float32 {
		c := make([]float32, len(a))
		copy(c, a)
		return c
	}
	return clone(s.PosX), clone(s.PosY), clone(s.VelX), clone(s.VelY)
}
