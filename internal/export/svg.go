package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/swarmsim/internal/viz"
)

// CanvasToSVG draws every lit braille dot as a circle, scale units per dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64, background, foreground string) string {
	if canvas == nil {
		return ""
	}

	dw, dh := canvas.Dots()
	width := float64(dw) * scale
	height := float64(dh) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, width, height, width, height, background, foreground)

	bits := [4][2]rune{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	radius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			pattern := canvas.Grid[row][col] - 0x2800
			if pattern <= 0 {
				continue
			}
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&bits[dy][dx] == 0 {
						continue
					}
					cx := float64(col*2+dx)*scale + scale/2
					cy := float64(row*4+dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, radius)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG plots frame times as a polyline, with a dashed line at budget
// when budget > 0. Values share one scale from zero to the larger of the
// series maximum and the budget.
func SeriesToSVG(values []float64, budget float64, width, height int, stroke string) string {
	if len(values) < 2 {
		return ""
	}

	top := budget
	for _, v := range values {
		top = max(top, v)
	}
	if top <= 0 {
		top = 1
	}
	top *= 1.1

	x := func(i int) float64 { return float64(i) / float64(len(values)-1) * float64(width) }
	y := func(v float64) float64 { return float64(height) - v/top*float64(height) }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	if budget > 0 {
		fmt.Fprintf(&sb, "<line x1=\"0\" y1=\"%.1f\" x2=\"%d\" y2=\"%.1f\" stroke=\"#ff4444\" stroke-dasharray=\"4 4\"/>\n",
			y(budget), width, y(budget))
	}

	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)
	for i, v := range values {
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", x(i), y(v))
	}
	sb.WriteString("\"/>\n</svg>")
	return sb.String()
}
