package pool

import (
	"errors"
	"sync"
)

// Batch is the join handle for a group of jobs. A Batch may be reused once
// Wait has returned.
type Batch struct {
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

func NewBatch() *Batch { return &Batch{} }

func (b *Batch) fail(err error) {
	b.mu.Lock()
	b.errs = append(b.errs, err)
	b.mu.Unlock()
}

// Wait blocks until every job submitted against b has finished. Side effects
// of those jobs are visible to the caller once it returns. Failed jobs are
// reported as a joined error; the other jobs always run to completion.
func (b *Batch) Wait() error {
	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	err := errors.Join(b.errs...)
	b.errs = b.errs[:0]
	return err
}
