package export

import (
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/san-kum/swarmsim/internal/density"
)

// WritePNG encodes the frame at full resolution.
func WritePNG(w io.Writer, f *density.Frame) error {
	if f == nil || len(f.Pixels) == 0 {
		return fmt.Errorf("export: empty frame")
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, f.Image())
}

func SavePNG(path string, f *density.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePNG(file, f); err != nil {
		file.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return file.Close()
}
