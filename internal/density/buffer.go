// Package density turns particle positions into a per-cell occupancy field
// and that field into packed RGBA pixels.
//
// Each writer owns one Buffer, so writers never contend. A Combiner merges
// the buffers cell by cell and maps the result through a Palette.
package density

import (
	"errors"
	"fmt"

	"github.com/san-kum/swarmsim/internal/aligned"
	"github.com/san-kum/swarmsim/internal/particle"
)

var (
	ErrInvalidMode       = errors.New("density: invalid mode")
	ErrInvalidOp         = errors.New("density: invalid combine op")
	ErrInvalidDimensions = errors.New("density: invalid dimensions")
	ErrResourceExhausted = errors.New("density: buffer allocation failed")
)

type Mode int

const (
	// ModePresence stores one occupied flag per cell.
	ModePresence Mode = iota
	// ModeCounted stores the number of particles per cell.
	ModeCounted
)

func (m Mode) String() string {
	switch m {
	case ModePresence:
		return "presence"
	case ModeCounted:
		return "counted"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "presence":
		return ModePresence, nil
	case "counted":
		return ModeCounted, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Buffer is one writer's private density field, row-major, width*height
// cells.
type Buffer struct {
	mode   Mode
	width  int
	height int

	presence []uint8
	counts   []uint32
}

func NewBuffer(mode Mode, width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 || width > 1<<15 || height > 1<<15 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	b := &Buffer{mode: mode, width: width, height: height}
	cells := width * height

	var err error
	switch mode {
	case ModePresence:
		b.presence, err = aligned.Make[uint8](cells)
	case ModeCounted:
		b.counts, err = aligned.Make[uint32](cells)
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResourceExhausted, err)
	}
	return b, nil
}

func (b *Buffer) Mode() Mode  { return b.mode }
func (b *Buffer) Width() int  { return b.width }
func (b *Buffer) Height() int { return b.height }
func (b *Buffer) Cells() int  { return b.width * b.height }

// Presence returns the cell flags (0 or 1). Nil in counted mode.
func (b *Buffer) Presence() []uint8 { return b.presence }

// Counts returns the per-cell counters. Nil in presence mode.
func (b *Buffer) Counts() []uint32 { return b.counts }

// Clear zeroes every cell.
func (b *Buffer) Clear() {
	clear(b.presence)
	clear(b.counts)
}

// Write records every particle whose rounded position lies inside the field
// and returns how many it recorded. Particles outside are skipped; they are
// never wrapped or clamped in.
func (b *Buffer) Write(px, py []float32) int {
	n := len(px)
	py = py[:n]
	w, h := b.width, b.height
	written := 0

	switch b.mode {
	case ModePresence:
		cells := b.presence
		for i := 0; i < n; i++ {
			x := particle.Cell(px[i])
			y := particle.Cell(py[i])
			if x < 0 || x >= w || y < 0 || y >= h {
				continue
			}
			cells[y*w+x] = 1
			written++
		}
	case ModeCounted:
		cells := b.counts
		for i := 0; i < n; i++ {
			x := particle.Cell(px[i])
			y := particle.Cell(py[i])
			if x < 0 || x >= w || y < 0 || y >= h {
				continue
			}
			cells[y*w+x]++
			written++
		}
	}
	return written
}

// Sum is the number of occupied cells in presence mode and the total count
// in counted mode.
func (b *Buffer) Sum() int {
	return sum(b.presence, b.counts)
}

func sum(presence []uint8, counts []uint32) int {
	total := 0
	for _, v := range presence {
		total += int(v)
	}
	for _, v := range counts {
		total += int(v)
	}
	return total
}
