package compute

import "gonum.org/v1/gonum/blas/blas32"

// BLAS builds the per-particle pull into a direction buffer and hands the
// velocity and position updates to level-1 BLAS:
//
//	vel += A * dir
//	vel *= friction
//	pos += vel
//
// With inverse falloff the 1/dist factor is folded into dir, so results can
// differ from the scalar kernel in the last bit.
type BLAS struct {
	nx, ny []float32
}

func NewBLAS() *BLAS { return &BLAS{} }

func (k *BLAS) Name() string { return "blas" }
func (k *BLAS) Lanes() int   { return 1 }

func (k *BLAS) Advance(px, py, vx, vy []float32, p Params) {
	n := len(px)
	if n == 0 {
		return
	}
	k.grow(n)
	nx, ny := k.nx[:n], k.ny[:n]
	py, vx, vy = py[:n], vx[:n], vy[:n]

	for i := range nx {
		dx := p.AttractorX - px[i]
		dy := p.AttractorY - py[i]
		dist := p.distance(dx, dy)
		ux := dx / dist
		uy := dy / dist
		if p.Falloff == FalloffInverse {
			ux /= dist
			uy /= dist
		}
		nx[i] = ux
		ny[i] = uy
	}

	vecNX := blas32.Vector{N: n, Data: nx, Inc: 1}
	vecNY := blas32.Vector{N: n, Data: ny, Inc: 1}
	vecVX := blas32.Vector{N: n, Data: vx, Inc: 1}
	vecVY := blas32.Vector{N: n, Data: vy, Inc: 1}

	blas32.Axpy(p.Attraction, vecNX, vecVX)
	blas32.Axpy(p.Attraction, vecNY, vecVY)
	blas32.Scal(p.Friction, vecVX)
	blas32.Scal(p.Friction, vecVY)
	blas32.Axpy(1, vecVX, blas32.Vector{N: n, Data: px, Inc: 1})
	blas32.Axpy(1, vecVY, blas32.Vector{N: n, Data: py, Inc: 1})

	if p.Wrap == WrapToroidal {
		for i := range px {
			px[i] = wrap(px[i], p.Width)
			py[i] = wrap(py[i], p.Height)
		}
	}
}

func (k *BLAS) grow(n int) {
	if cap(k.nx) >= n {
		return
	}
	k.nx = make([]float32, n)
	k.ny = make([]float32, n)
}
