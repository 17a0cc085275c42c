// Package pool implements the process-wide worker pool and the bounded
// FIFO queues that carry futures between the framing endpoints and the
// decode/encode workers (§4.E, §5 of the design). It is the Go analogue
// of a thread pool built on std::future/std::promise: a Future[T] here
// plays the role of both ends of that pair, since Go has no separate
// promise type — Resolve is called exactly once by the worker, Get may
// be called any number of times by the consumer.
package pool

import "sync"

// Future is a one-shot container for a value produced asynchronously by
// a worker. Get blocks until Resolve has been called and re-raises any
// error the worker returned, mirroring future::get's exception
// propagation.
type Future[T any] struct {
	once   sync.Once
	done   chan struct{}
	result T
	err    error
}

// NewFuture returns an unresolved Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve completes the future. Only the first call has any effect;
// later calls are ignored, matching a promise that can only be
// fulfilled once.
func (f *Future[T]) Resolve(v T, err error) {
	f.once.Do(func() {
		f.result = v
		f.err = err
		close(f.done)
	})
}

// Get blocks until the future is resolved and returns its value and
// error. A failed future never silently disappears: whoever calls Get
// observes the error exactly as the worker returned it.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.result, f.err
}

// Ready reports whether the future has already been resolved, without
// blocking.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
