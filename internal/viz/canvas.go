package viz

import (
	"strings"

	"github.com/san-kum/swarmsim/internal/density"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
//
// offset from U+2800.
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of braille characters, 2x4 dots per character.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots is the canvas size in dots.
func (c *Canvas) Dots() (w, h int) {
	return c.Width * 2, c.Height * 4
}

// Set lights the dot at (x, y). Dots off the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// Plot downsamples a frame onto the canvas: a dot is lit when any pixel it
// covers differs from background.
func (c *Canvas) Plot(f *density.Frame, background uint32) {
	dw, dh := c.Dots()
	if f == nil || f.Width == 0 || f.Height == 0 {
		return
	}
	for dy := 0; dy < dh; dy++ {
		y0 := dy * f.Height / dh
		y1 := max((dy+1)*f.Height/dh, y0+1)
		for dx := 0; dx < dw; dx++ {
			x0 := dx * f.Width / dw
			x1 := max((dx+1)*f.Width/dw, x0+1)
			if lit(f, x0, x1, y0, y1, background) {
				c.Set(dx, dy)
			}
		}
	}
}

func lit(f *density.Frame, x0, x1, y0, y1 int, background uint32) bool {
	x1 = min(x1, f.Width)
	y1 = min(y1, f.Height)
	for y := y0; y < y1; y++ {
		row := f.Pixels[y*f.Width : (y+1)*f.Width]
		for x := x0; x < x1; x++ {
			if row[x] != background {
				return true
			}
		}
	}
	return false
}

// Cross marks a field position with a small plus, scaled from a
// fieldW x fieldH field.
func (c *Canvas) Cross(fx, fy float32, fieldW, fieldH int) {
	dw, dh := c.Dots()
	x := int(fx * float32(dw) / float32(fieldW))
	y := int(fy * float32(dh) / float32(fieldH))
	c.DrawLine(x-2, y, x+2, y)
	c.DrawLine(x, y-2, x, y+2)
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Height * (c.Width*3 + 1))
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
