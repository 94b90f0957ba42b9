package density

import (
	"image"
	"image/color"
	"unsafe"
)

// Frame is the composited output: one packed RGBA pixel per cell, laid out
// as R | G<<8 | B<<16 | A<<24 so that on little-endian hosts the bytes read
// R, G, B, A in order.
type Frame struct {
	Width  int
	Height int
	Pixels []uint32
}

func Pack(r, g, b, a uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}

func Unpack(p uint32) color.RGBA {
	return color.RGBA{R: uint8(p), G: uint8(p >> 8), B: uint8(p >> 16), A: uint8(p >> 24)}
}

// Bytes views the pixels as a byte slice without copying, ready for a
// texture upload.
func (f *Frame) Bytes() []byte {
	if len(f.Pixels) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(f.Pixels))), len(f.Pixels)*4)
}

func (f *Frame) At(x, y int) color.RGBA {
	return Unpack(f.Pixels[y*f.Width+x])
}

// Image copies the frame into a standard library image. Alpha is stored
// as given, not premultiplied.
func (f *Frame) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, p := range f.Pixels {
		o := i * 4
		img.Pix[o] = uint8(p)
		img.Pix[o+1] = uint8(p >> 8)
		img.Pix[o+2] = uint8(p >> 16)
		img.Pix[o+3] = uint8(p >> 24)
	}
	return img
}
