package sim

import (
	"github.com/san-kum/swarmsim/internal/compute"
	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/particle"
	"github.com/san-kum/swarmsim/internal/partition"
	"github.com/san-kum/swarmsim/internal/pool"
)

// The slots below live in arrays owned by the engine for its whole life.
// Each job closure is bound to its slot once, at construction; per frame
// the driver only rewrites the slot's inputs before submitting it. Nothing
// a job reads is reused until the phase's join returns.

type kinematicsSlot struct {
	set    *particle.Set
	r      partition.Range
	kernel compute.Kernel
	params compute.Params
	ok     bool
	run    func()
}

func (s *kinematicsSlot) bind() {
	s.run = func() {
		px, py, vx, vy := s.set.Chunk(s.r)
		s.kernel.Advance(px, py, vx, vy, s.params)
		s.ok = true
	}
}

type densitySlot struct {
	set     *particle.Set
	r       partition.Range
	buf     *density.Buffer
	written int
	ok      bool
	run     func()
}

func (s *densitySlot) bind() {
	s.run = func() {
		s.buf.Clear()
		px, py, _, _ := s.set.Chunk(s.r)
		s.written = s.buf.Write(px, py)
		s.ok = true
	}
}

type compositeSlot struct {
	combiner *density.Combiner
	bufs     []*density.Buffer
	r        partition.Range
	run      func()
}

func (s *compositeSlot) bind() {
	s.run = func() {
		s.combiner.Merge(s.bufs, s.r)
		s.combiner.Colorize(s.r)
	}
}

// dispatch submits one job per slot and joins. It reports how many ran
// inline and the joined job error, if any.
func dispatch(p *pool.Pool, b *pool.Batch, jobs []func()) (inline int, err error) {
	for _, run := range jobs {
		if p.Go(b, run) {
			inline++
		}
	}
	return inline, b.Wait()
}
