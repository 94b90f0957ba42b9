package compute

import "github.com/san-kum/swarmsim/internal/partition"

// Lanes processes particles in fixed-width blocks, one arithmetic phase at a
// time across the whole block, so the compiler sees short independent loops
// with no cross-lane dependencies. Leftover particles go through the scalar
// loop.
type Lanes struct {
	width int
}

// NewLanes clamps width into [1, MaxLanes].
func NewLanes(width int) *Lanes {
	if width < 1 {
		width = 1
	}
	if width > MaxLanes {
		width = MaxLanes
	}
	return &Lanes{width: width}
}

func (k *Lanes) Name() string { return "lanes" }
func (k *Lanes) Lanes() int   { return k.width }

func (k *Lanes) Advance(px, py, vx, vy []float32, p Params) {
	w := k.width
	body, tail := partition.Aligned(partition.Range{End: len(px)}, w)

	var dx, dy, dist, g [MaxLanes]float32

	for i := body.Start; i < body.End; i += w {
		bx := px[i : i+w : i+w]
		by := py[i : i+w : i+w]
		bvx := vx[i : i+w : i+w]
		bvy := vy[i : i+w : i+w]

		for l := range bx {
			dx[l] = p.AttractorX - bx[l]
			dy[l] = p.AttractorY - by[l]
		}
		for l := 0; l < w; l++ {
			dist[l] = p.distance(dx[l], dy[l])
			g[l] = p.gain(dist[l])
		}
		for l := range bvx {
			nx := dx[l] / dist[l]
			ny := dy[l] / dist[l]
			bvx[l] = (bvx[l] + nx*g[l]) * p.Friction
			bvy[l] = (bvy[l] + ny*g[l]) * p.Friction
		}
		for l := range bx {
			bx[l] += bvx[l]
			by[l] += bvy[l]
		}
		if p.Wrap == WrapToroidal {
			for l := range bx {
				bx[l] = wrap(bx[l], p.Width)
				by[l] = wrap(by[l], p.Height)
			}
		}
	}

	if !tail.Empty() {
		lo, hi := tail.Start, tail.End
		advanceScalar(px[lo:hi], py[lo:hi], vx[lo:hi], vy[lo:hi], &p)
	}
}
