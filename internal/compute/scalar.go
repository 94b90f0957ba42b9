package compute

// Scalar advances one particle at a time. It is the reference every other
// kernel is checked against, and the tail loop of the lane kernels.
type Scalar struct{}

func NewScalar() *Scalar { return &Scalar{} }

func (s *Scalar) Name() string { return "scalar" }
func (s *Scalar) Lanes() int   { return 1 }

func (s *Scalar) Advance(px, py, vx, vy []float32, p Params) {
	advanceScalar(px, py, vx, vy, &p)
}

func advanceScalar(px, py, vx, vy []float32, p *Params) {
	n := len(px)
	py, vx, vy = py[:n], vx[:n], vy[:n]

	for i := 0; i < n; i++ {
		dx := p.AttractorX - px[i]
		dy := p.AttractorY - py[i]
		dist := p.distance(dx, dy)
		nx := dx / dist
		ny := dy / dist
		g := p.gain(dist)

		vxi := (vx[i] + nx*g) * p.Friction
		vyi := (vy[i] + ny*g) * p.Friction
		x := px[i] + vxi
		y := py[i] + vyi

		if p.Wrap == WrapToroidal {
			x = wrap(x, p.Width)
			y = wrap(y, p.Height)
		}

		vx[i], vy[i] = vxi, vyi
		px[i], py[i] = x, y
	}
}
