package compute

import (
	"errors"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sys/cpu"
)

// Kernel advances one chunk of particles by one tick.
//
// The four slices share a length. A kernel may keep scratch space, so a
// single instance must not be used by two goroutines at once; the engine
// holds one instance per chunk slot.
type Kernel interface {
	Name() string
	// Lanes is the width of the kernel's block loop. Chunks whose length is
	// not a multiple of it are finished by the scalar tail.
	Lanes() int
	Advance(px, py, vx, vy []float32, p Params)
}

// Auto picks a kernel for the host architecture.
const Auto = "auto"

var ErrUnknownKernel = errors.New("unknown kernel")

// MaxLanes bounds the lane width the lane kernel can be built with.
const MaxLanes = 16

var registry = map[string]func() Kernel{
	"scalar": func() Kernel { return NewScalar() },
	"lanes":  func() Kernel { return NewLanes(DetectLanes()) },
	"blas":   func() Kernel { return NewBLAS() },
}

// New builds a fresh kernel instance by name.
func New(name string) (Kernel, error) {
	if name == "" || name == Auto {
		name = AutoSelect()
	}
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownKernel, name, Names())
	}
	return factory(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AutoSelect names the kernel expected to run fastest on this machine. The
// BLAS kernel's axpy has assembly on amd64; elsewhere the lane kernel wins.
func AutoSelect() string {
	if runtime.GOARCH == "amd64" {
		return "blas"
	}
	return "lanes"
}

// DetectLanes maps the widest float vector unit the CPU reports to a lane
// count: 16 for AVX-512, 8 for AVX2, 4 otherwise.
func DetectLanes() int {
	switch {
	case cpu.X86.HasAVX512F:
		return 16
	case cpu.X86.HasAVX2:
		return 8
	default:
		return 4
	}
}
