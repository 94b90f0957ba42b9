package pool

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/onsi/gomega"
)

func TestNewInvalidBounds(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		opts     []Option
	}{
		{"zero min", 0, 4, nil},
		{"max below min", 4, 2, nil},
		{"size above max", 1, 4, []Option{WithSize(8)}},
		{"size below min", 2, 4, []Option{WithSize(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.min, tt.max, tt.opts...)
			if !errors.Is(err, ErrInvalidSize) {
				t.Errorf("got %v, want ErrInvalidSize", err)
			}
			if p != nil {
				t.Error("expected nil pool")
			}
		})
	}
}

func TestNewSizeWithinBounds(t *testing.T) {
	p, err := New(3, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if p.Size() != 3 {
		t.Errorf("Size = %d, want 3", p.Size())
	}
}

func TestNewSpawnFailureBelowMinimum(t *testing.T) {
	started := 0
	spawn := func(fn func()) error {
		if started == 2 {
			return errors.New("no threads")
		}
		started++
		go fn()
		return nil
	}

	p, err := New(4, 4, withSpawn(spawn))
	if !errors.Is(err, ErrResourceExhausted) {
		t.Fatalf("got %v, want ErrResourceExhausted", err)
	}
	if p != nil {
		t.Error("expected nil pool")
	}
}

func TestNewSpawnFailureAboveMinimum(t *testing.T) {
	started := 0
	spawn := func(fn func()) error {
		if started == 2 {
			return errors.New("no threads")
		}
		started++
		go fn()
		return nil
	}

	p, err := New(1, 4, WithSize(4), withSpawn(spawn))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if p.Size() != 2 {
		t.Errorf("Size = %d, want 2", p.Size())
	}
}

func TestJoinVisibility(t *testing.T) {
	const maxWorkers = 16
	const cells = 1 << 12

	for workers := 1; workers <= maxWorkers; workers++ {
		p, err := New(1, maxWorkers, WithSize(workers))
		if err != nil {
			t.Fatal(err)
		}

		buffers := make([][]int, workers)
		for i := range buffers {
			buffers[i] = make([]int, cells)
		}

		b := NewBatch()
		for w := 0; w < workers; w++ {
			buf := buffers[w]
			val := w + 1
			p.Go(b, func() {
				for i := range buf {
					buf[i] = val
				}
			})
		}
		if err := b.Wait(); err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}

		for w, buf := range buffers {
			for i, v := range buf {
				if v != w+1 {
					t.Fatalf("workers=%d: buffer %d cell %d = %d after join", workers, w, i, v)
				}
			}
		}
		p.Close()
	}
}

func TestEmptyBatchWait(t *testing.T) {
	b := NewBatch()
	if err := b.Wait(); err != nil {
		t.Errorf("empty batch returned %v", err)
	}
}

func TestSaturationFallsBackInline(t *testing.T) {
	g := gomega.NewWithT(t)

	p, err := New(1, 1, WithQueueDepth(1))
	g.Expect(err).NotTo(gomega.HaveOccurred())
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	b := NewBatch()

	g.Expect(p.Submit(b, func() {
		close(started)
		<-release
	})).To(gomega.Succeed())
	<-started

	var ran atomic.Int32
	g.Expect(p.Submit(b, func() { ran.Add(1) })).To(gomega.Succeed())
	g.Expect(p.Submit(b, func() { ran.Add(1) })).To(gomega.MatchError(ErrSaturated))

	inline := p.Go(b, func() { ran.Add(1) })
	g.Expect(inline).To(gomega.BeTrue())
	g.Expect(ran.Load()).To(gomega.Equal(int32(1)))

	close(release)
	g.Expect(b.Wait()).To(gomega.Succeed())
	g.Expect(ran.Load()).To(gomega.Equal(int32(2)))

	stats := p.Stats()
	g.Expect(stats.Inline).To(gomega.Equal(int64(1)))
	g.Expect(stats.Submitted).To(gomega.Equal(int64(2)))
}

func TestPanicIsContained(t *testing.T) {
	p, err := New(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	var done atomic.Int32
	b := NewBatch()
	p.Go(b, func() { panic("boom") })
	for i := 0; i < 8; i++ {
		p.Go(b, func() { done.Add(1) })
	}

	err = b.Wait()
	var jobErr *JobError
	if !errors.As(err, &jobErr) {
		t.Fatalf("expected JobError, got %v", err)
	}
	if jobErr.Value != "boom" {
		t.Errorf("panic value = %v", jobErr.Value)
	}
	if done.Load() != 8 {
		t.Errorf("%d of 8 healthy jobs ran", done.Load())
	}
	if p.Stats().Panics != 1 {
		t.Errorf("Panics = %d, want 1", p.Stats().Panics)
	}

	// the batch is reusable and starts clean
	p.Go(b, func() {})
	if err := b.Wait(); err != nil {
		t.Errorf("reused batch returned %v", err)
	}
}

func TestInlinePanicIsContained(t *testing.T) {
	p, err := New(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	p.Close()

	b := NewBatch()
	if !p.Go(b, func() { panic("inline") }) {
		t.Fatal("closed pool should run inline")
	}
	var jobErr *JobError
	if err := b.Wait(); !errors.As(err, &jobErr) {
		t.Errorf("expected JobError, got %v", err)
	}
}

func TestCloseDrainsAndIsIdempotent(t *testing.T) {
	p, err := New(2, 2, WithQueueDepth(64))
	if err != nil {
		t.Fatal(err)
	}

	var n atomic.Int32
	b := NewBatch()
	for i := 0; i < 32; i++ {
		p.Go(b, func() { n.Add(1) })
	}

	p.Close()
	p.Close()

	if n.Load() != 32 {
		t.Errorf("%d of 32 jobs ran before Close returned", n.Load())
	}
	if err := p.Submit(b, func() {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit after Close = %v, want ErrClosed", err)
	}

	var nilPool *Pool
	nilPool.Close()
	if nilPool.Size() != 0 {
		t.Error("nil pool size should be 0")
	}
}
