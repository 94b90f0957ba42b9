package density

import (
	"fmt"
	"unsafe"

	"github.com/san-kum/swarmsim/internal/aligned"
	"github.com/san-kum/swarmsim/internal/partition"
)

// Op is how presence buffers are merged. Counted buffers are always summed.
type Op int

const (
	OpOr Op = iota
	OpXor
	OpAnd
	OpAdd
)

func (o Op) String() string {
	switch o {
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpAnd:
		return "and"
	case OpAdd:
		return "add"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

func ParseOp(s string) (Op, error) {
	switch s {
	case "or":
		return OpOr, nil
	case "xor":
		return OpXor, nil
	case "and":
		return OpAnd, nil
	case "add":
		return OpAdd, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidOp, s)
}

// DefaultOp is the merge used when none is configured.
func DefaultOp(m Mode) Op {
	if m == ModeCounted {
		return OpAdd
	}
	return OpOr
}

// Combiner owns the merged field and the output frame.
//
// Merge and Colorize take a cell range so several goroutines can composite
// disjoint row bands of the same frame.
type Combiner struct {
	mode       Mode
	op         Op
	width      int
	height     int
	palette    Palette
	maxDensity uint32

	presence []uint8
	counts   []uint32
	frame    Frame
}

func NewCombiner(mode Mode, op Op, width, height int, palette Palette, maxDensity int) (*Combiner, error) {
	if width <= 0 || height <= 0 || width > 1<<15 || height > 1<<15 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	switch mode {
	case ModePresence:
		if op != OpOr && op != OpXor && op != OpAnd {
			return nil, fmt.Errorf("%w: %v in %v mode", ErrInvalidOp, op, mode)
		}
	case ModeCounted:
		if op != OpAdd {
			return nil, fmt.Errorf("%w: %v in %v mode", ErrInvalidOp, op, mode)
		}
		if maxDensity < 1 {
			return nil, fmt.Errorf("%w: max density %d", ErrInvalidMode, maxDensity)
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}

	c := &Combiner{
		mode:       mode,
		op:         op,
		width:      width,
		height:     height,
		palette:    palette,
		maxDensity: uint32(maxDensity),
	}

	cells := width * height
	var err error
	if mode == ModePresence {
		c.presence, err = aligned.Make[uint8](cells)
	} else {
		c.counts, err = aligned.Make[uint32](cells)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResourceExhausted, err)
	}
	if c.frame.Pixels, err = aligned.Make[uint32](cells); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResourceExhausted, err)
	}
	c.frame.Width, c.frame.Height = width, height
	return c, nil
}

func (c *Combiner) Mode() Mode        { return c.mode }
func (c *Combiner) Op() Op            { return c.op }
func (c *Combiner) Cells() int        { return c.width * c.height }
func (c *Combiner) Frame() *Frame     { return &c.frame }
func (c *Combiner) Presence() []uint8 { return c.presence }
func (c *Combiner) Counts() []uint32  { return c.counts }

// Total is the sum over the merged field: occupied cells in presence mode,
// particles in counted mode.
func (c *Combiner) Total() int {
	return sum(c.presence, c.counts)
}

// Combine merges and colorizes the whole field.
func (c *Combiner) Combine(bufs []*Buffer) *Frame {
	all := partition.Range{Start: 0, End: c.Cells()}
	c.Merge(bufs, all)
	c.Colorize(all)
	return &c.frame
}

// Merge folds the cells in r of every buffer into the merged field. The
// first buffer seeds the range, so AND behaves as an intersection. With no
// buffers the range is cleared.
func (c *Combiner) Merge(bufs []*Buffer, r partition.Range) {
	if r.Empty() {
		return
	}
	switch c.mode {
	case ModePresence:
		dst := c.presence[r.Start:r.End]
		if len(bufs) == 0 {
			clear(dst)
			return
		}
		copy(dst, bufs[0].presence[r.Start:r.End])
		for _, b := range bufs[1:] {
			mergePresence(dst, b.presence[r.Start:r.End], r.Start, c.op)
		}
	case ModeCounted:
		dst := c.counts[r.Start:r.End]
		if len(bufs) == 0 {
			clear(dst)
			return
		}
		copy(dst, bufs[0].counts[r.Start:r.End])
		for _, b := range bufs[1:] {
			addCounts(dst, b.counts[r.Start:r.End])
		}
	}
}

// mergePresence works a uint64 word (eight cells) at a time. Both slices
// begin at the same cell index of identically aligned buffers, so the word
// boundary falls at the same offset in each.
func mergePresence(dst, src []uint8, start int, op Op) {
	head := (8 - start%8) % 8
	if head > len(dst) {
		head = len(dst)
	}
	mergeCells(dst[:head], src[:head], op)

	rest := len(dst) - head
	nw := rest / 8
	if nw > 0 {
		dw := unsafe.Slice((*uint64)(unsafe.Pointer(&dst[head])), nw)
		sw := unsafe.Slice((*uint64)(unsafe.Pointer(&src[head])), nw)
		switch op {
		case OpOr:
			for i := range dw {
				dw[i] |= sw[i]
			}
		case OpXor:
			for i := range dw {
				dw[i] ^= sw[i]
			}
		case OpAnd:
			for i := range dw {
				dw[i] &= sw[i]
			}
		}
	}

	tail := head + nw*8
	mergeCells(dst[tail:], src[tail:], op)
}

func mergeCells(dst, src []uint8, op Op) {
	src = src[:len(dst)]
	for i := range dst {
		switch op {
		case OpOr:
			dst[i] |= src[i]
		case OpXor:
			dst[i] ^= src[i]
		case OpAnd:
			dst[i] &= src[i]
		}
	}
}

func addCounts(dst, src []uint32) {
	n := len(dst)
	src = src[:n]
	body := n - n%8
	for i := 0; i < body; i += 8 {
		d := dst[i : i+8 : i+8]
		s := src[i : i+8 : i+8]
		d[0] += s[0]
		d[1] += s[1]
		d[2] += s[2]
		d[3] += s[3]
		d[4] += s[4]
		d[5] += s[5]
		d[6] += s[6]
		d[7] += s[7]
	}
	for i := body; i < n; i++ {
		dst[i] += src[i]
	}
}

// Colorize maps the merged cells in r to pixels.
func (c *Combiner) Colorize(r partition.Range) {
	if r.Empty() {
		return
	}
	pix := c.frame.Pixels[r.Start:r.End]

	switch c.mode {
	case ModePresence:
		cells := c.presence[r.Start:r.End]
		bg := c.palette.Background
		diff := bg ^ c.palette.Foreground
		for i, v := range cells {
			mask := -uint32(v & 1)
			pix[i] = bg ^ (diff & mask)
		}
	case ModeCounted:
		cells := c.counts[r.Start:r.End]
		for i, v := range cells {
			b := c.brightness(v)
			pix[i] = Pack(b, b, b, 255)
		}
	}
}

// brightness is min(255, round(count*255/maxDensity)).
func (c *Combiner) brightness(count uint32) uint8 {
	if count >= c.maxDensity {
		return 255
	}
	return uint8((uint64(count)*255 + uint64(c.maxDensity)/2) / uint64(c.maxDensity))
}
