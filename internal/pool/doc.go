// Package pool provides a reusable fixed-size worker pool with a join barrier.
//
// Workers are started once by [New] and live until [Pool.Close]. Work is
// grouped into a [Batch]; the submitter calls [Batch.Wait] to block until the
// whole group has run.
//
//	p, err := pool.New(1, 8)
//	b := pool.NewBatch()
//	for i := range chunks {
//		c := &chunks[i]
//		p.Go(b, func() { process(c) })
//	}
//	err = b.Wait()
//
// [Pool.Submit] never blocks. When the queue is full it returns
// [ErrSaturated]; [Pool.Go] turns that into synchronous execution on the
// calling goroutine so no work is dropped.
//
// # Failure
//
// A job that panics is recovered inside the worker and reported from
// [Batch.Wait] as a [*JobError]. Other jobs in the batch are unaffected.
package pool
