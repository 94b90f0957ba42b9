// Package stream serves engine frames over websockets and takes attractor
// input back from every connected client.
//
// Each binary frame message is a 12-byte header followed by the payload:
//
//	kind    u8   KindBits or KindBytes
//	_       u8
//	width   u16
//	height  u16
//	_       u16
//	frame   u32
//
// All fields are little-endian. KindBits payloads pack one presence bit per
// cell, LSB first, in row-major cell order. KindBytes payloads hold one
// brightness byte per cell.
//
// Clients send 8-byte binary messages (float32 x, float32 y) to move the
// attractor, or text messages naming a tuning nudge.
package stream

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/tuning"
)

const HeaderSize = 12

const (
	KindBits  uint8 = 0
	KindBytes uint8 = 1
)

var (
	ErrShortMessage = errors.New("stream: short message")
	ErrUnknownNudge = errors.New("stream: unknown nudge")
)

type Header struct {
	Kind   uint8
	Width  int
	Height int
	Frame  uint32
}

// PayloadSize is the payload length for the header's kind and dimensions.
func (h Header) PayloadSize() int {
	cells := h.Width * h.Height
	if h.Kind == KindBits {
		return (cells + 7) / 8
	}
	return cells
}

func ReadHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrShortMessage
	}
	return Header{
		Kind:   b[0],
		Width:  int(binary.LittleEndian.Uint16(b[2:])),
		Height: int(binary.LittleEndian.Uint16(b[4:])),
		Frame:  binary.LittleEndian.Uint32(b[8:]),
	}, nil
}

// MessageSize is the full message length for a combiner's output.
func MessageSize(c *density.Combiner) int {
	f := c.Frame()
	h := Header{Kind: kind(c), Width: f.Width, Height: f.Height}
	return HeaderSize + h.PayloadSize()
}

func kind(c *density.Combiner) uint8 {
	if c.Mode() == density.ModePresence {
		return KindBits
	}
	return KindBytes
}

// Encode appends the combiner's current output to dst[:0] and returns it.
func Encode(dst []byte, c *density.Combiner, frame uint64) []byte {
	f := c.Frame()
	k := kind(c)

	size := MessageSize(c)
	if cap(dst) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]

	dst[0], dst[1] = k, 0
	binary.LittleEndian.PutUint16(dst[2:], uint16(f.Width))
	binary.LittleEndian.PutUint16(dst[4:], uint16(f.Height))
	binary.LittleEndian.PutUint16(dst[6:], 0)
	binary.LittleEndian.PutUint32(dst[8:], uint32(frame))

	payload := dst[HeaderSize:]
	if k == KindBits {
		packBits(payload, c.Presence())
	} else {
		for i, p := range f.Pixels {
			payload[i] = uint8(p)
		}
	}
	return dst
}

func packBits(dst, presence []uint8) {
	full := len(presence) / 8
	for i := 0; i < full; i++ {
		p := presence[i*8 : i*8+8 : i*8+8]
		dst[i] = p[0]&1 | p[1]&1<<1 | p[2]&1<<2 | p[3]&1<<3 |
			p[4]&1<<4 | p[5]&1<<5 | p[6]&1<<6 | p[7]&1<<7
	}
	if rem := presence[full*8:]; len(rem) > 0 {
		var b uint8
		for j, v := range rem {
			b |= v & 1 << j
		}
		dst[full] = b
	}
}

// ParseInput decodes an attractor position message.
func ParseInput(b []byte) (x, y float32, err error) {
	if len(b) < 8 {
		return 0, 0, ErrShortMessage
	}
	x = math.Float32frombits(binary.LittleEndian.Uint32(b))
	y = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	return x, y, nil
}

var nudges = map[string]tuning.Event{
	"attraction_up":   tuning.AttractionUp,
	"attraction_down": tuning.AttractionDown,
	"friction_up":     tuning.FrictionUp,
	"friction_down":   tuning.FrictionDown,
}

func ParseNudge(b []byte) (tuning.Event, error) {
	ev, ok := nudges[string(b)]
	if !ok {
		return tuning.Event{}, ErrUnknownNudge
	}
	return ev, nil
}
