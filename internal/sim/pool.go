package sim

import (
	"sync"

	"github.com/san-kum/swarmsim/internal/density"
)

// FramePool recycles frame copies for consumers that hold a frame past the
// next Step, such as a UI goroutine.
type FramePool struct {
	pool   sync.Pool
	width  int
	height int
}

func NewFramePool(width, height int) *FramePool {
	return &FramePool{
		width:  width,
		height: height,
		pool: sync.Pool{
			New: func() interface{} {
				return &density.Frame{
					Width:  width,
					Height: height,
					Pixels: make([]uint32, width*height),
				}
			},
		},
	}
}

func (p *FramePool) Get() *density.Frame {
	return p.pool.Get().(*density.Frame)
}

// Put returns f to the pool. Frames of another size are dropped.
func (p *FramePool) Put(f *density.Frame) {
	if f == nil || f.Width != p.width || f.Height != p.height {
		return
	}
	p.pool.Put(f)
}

func (p *FramePool) Clone(src *density.Frame) *density.Frame {
	dst := p.Get()
	copy(dst.Pixels, src.Pixels)
	return dst
}
