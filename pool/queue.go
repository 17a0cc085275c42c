package pool

// DefaultMaxQueueSize is the default bound on the number of futures a
// Queue will hold before Push blocks (§4.E: max_queue_size, default 20).
const DefaultMaxQueueSize = 20

// Queue is a bounded FIFO of futures: producers block in Push when the
// queue is full, consumers block in Pop when it is empty. The producer
// marks end of stream by calling Close; Pop then returns the values
// still queued, followed by ok=false.
type Queue[T any] struct {
	ch chan T
}

// NewQueue creates a Queue with the given capacity. A capacity <= 0
// uses DefaultMaxQueueSize.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = DefaultMaxQueueSize
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

// Push enqueues v, blocking if the queue is full.
func (q *Queue[T]) Push(v T) {
	q.ch <- v
}

// TryPush attempts to enqueue v without blocking, returning false if the
// queue is full.
func (q *Queue[T]) TryPush(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// Pop blocks until a value is available or the queue is closed and
// drained, in which case ok is false.
func (q *Queue[T]) Pop() (v T, ok bool) {
	v, ok = <-q.ch
	return v, ok
}

// Close closes the underlying channel. Pending Push calls from other
// goroutines will panic, so Close must only be called once the producer
// side is known to be done. The Reader and Writer (§5, §7) close a
// queue from the producer side after its last Push; the consumer keeps
// popping until ok is false.
func (q *Queue[T]) Close() {
	close(q.ch)
}

// Drain reads and discards every remaining value in the queue without
// blocking once it is closed. Used by teardown paths that must not
// leave a failed future's error silently undelivered (§4.E).
func (q *Queue[T]) Drain() {
	for range q.ch {
	}
}
