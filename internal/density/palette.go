package density

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette holds the two packed colors of the presence color map.
type Palette struct {
	Background uint32
	Foreground uint32
}

// DefaultPalette is translucent black particles on an off-white field.
func DefaultPalette() Palette {
	return Palette{
		Background: Pack(245, 245, 245, 255),
		Foreground: Pack(0, 0, 0, 100),
	}
}

// NewPalette parses two hex colors ("#rrggbb" or "#rgb") and pairs them with
// explicit alpha values.
func NewPalette(background string, backgroundAlpha uint8, foreground string, foregroundAlpha uint8) (Palette, error) {
	bg, err := colorful.Hex(background)
	if err != nil {
		return Palette{}, fmt.Errorf("background: %w", err)
	}
	fg, err := colorful.Hex(foreground)
	if err != nil {
		return Palette{}, fmt.Errorf("foreground: %w", err)
	}

	br, bgG, bb := bg.RGB255()
	fr, fgG, fb := fg.RGB255()
	return Palette{
		Background: Pack(br, bgG, bb, backgroundAlpha),
		Foreground: Pack(fr, fgG, fb, foregroundAlpha),
	}, nil
}
