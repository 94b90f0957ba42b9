// Package aligned allocates slices whose first element sits on a fixed byte
// boundary, so lane-blocked loops and word-wide merges start on a register
// boundary.
package aligned

import (
	"errors"
	"fmt"
	"math"
	"unsafe"
)

// Boundary is the alignment, in bytes, of every slice returned by Make. It
// matches a 256-bit vector register.
const Boundary = 32

// ErrAlloc is returned when the backing array cannot be obtained.
var ErrAlloc = errors.New("aligned: allocation failed")

// Make returns a zeroed slice of n elements aligned to Boundary.
//
// The slice is carved out of a slightly larger backing array. Go's heap does
// not move objects, so the alignment holds for the lifetime of the slice.
func Make[T any](n int) (s []T, err error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrAlloc, n)
	}
	if n == 0 {
		return []T{}, nil
	}

	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 || Boundary%size != 0 {
		return nil, fmt.Errorf("%w: element size %d does not divide %d", ErrAlloc, size, Boundary)
	}

	pad := Boundary / size
	if n > math.MaxInt/size-pad {
		return nil, fmt.Errorf("%w: %d elements overflow", ErrAlloc, n)
	}

	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = fmt.Errorf("%w: %v", ErrAlloc, r)
		}
	}()

	buf := make([]T, n+pad)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	off := 0
	if rem := int(addr % Boundary); rem != 0 {
		off = (Boundary - rem) / size
	}
	return buf[off : off+n : off+n], nil
}

// IsAligned reports whether the first element of s sits on Boundary.
func IsAligned[T any](s []T) bool {
	if len(s) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&s[0]))%Boundary == 0
}
