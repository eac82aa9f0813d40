package queue

import (
	"sync"
	"time"
)

// EventKind identifies a diagnostic event emitted by a BlockingQueue.
type EventKind int

const (
	// EventEnqueued is emitted after an item is appended.
	EventEnqueued EventKind = iota

	// EventDequeued is emitted after an item is handed to a consumer.
	EventDequeued

	// EventDropped is emitted when an item is enqueued after cancellation.
	EventDropped

	// EventCancelled is emitted once, when the queue transitions to cancelled.
	EventCancelled
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case EventEnqueued:
		return "enqueued"
	case EventDequeued:
		return "dequeued"
	case EventDropped:
		return "dropped"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Event describes a state change of the queue. Depth is the number of items
// left in the queue right after the change. Discarded is only set for
// EventCancelled and counts queued items that will never be delivered.
type Event struct {
	Kind      EventKind
	Depth     int
	Discarded int
}

// Stats tracks queue throughput
type Stats struct {
	TotalEnqueued int64
	TotalDequeued int64
	Dropped       int64 // enqueued after cancel
	Discarded     int64 // queued at cancel, never delivered
	CurrentSize   int
	PeakSize      int
	Waiting       int
	Cancelled     bool
	LastEnqueue   time.Time
	LastDequeue   time.Time
}

type options struct {
	drainOnCancel bool
	observer      func(Event)
}

// Option configures a BlockingQueue.
type Option func(*options)

// WithDrainOnCancel makes items that are already queued when Cancel is called
// still get delivered, once each, before Dequeue starts reporting "no item".
func WithDrainOnCancel() Option {
	return func(o *options) {
		o.drainOnCancel = true
	}
}

// WithObserver registers a callback for diagnostic events. The callback runs
// on the goroutine that caused the event, after the queue lock is released.
func WithObserver(fn func(Event)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// BlockingQueue is a thread-safe FIFO with a blocking Dequeue and explicit,
// idempotent cancellation.
//
// Items and the cancelled flag are guarded by a single mutex, and the
// condition variable waits on that same mutex, so an item becoming visible
// and the wakeup of a waiting consumer happen under one critical section.
//
// By default cancellation is strict: consumers that call Dequeue after Cancel
// get "no item" even if items remain. Items that already had a consumer
// blocked on them when Cancel ran are still handed to those consumers.
type BlockingQueue[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	items     []T
	cancelled bool
	waiting   int

	opts  options
	stats Stats
}

// New creates an empty, active queue.
func New[T any](opts ...Option) *BlockingQueue[T] {
	q := &BlockingQueue[T]{}
	for _, opt := range opts {
		opt(&q.opts)
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends item to the tail and wakes one blocked consumer. It never
// blocks. Items enqueued after Cancel are dropped.
func (q *BlockingQueue[T]) Enqueue(item T) {
	q.mu.Lock()

	if q.cancelled {
		q.stats.Dropped++
		depth := len(q.items)
		q.mu.Unlock()
		q.notify(Event{Kind: EventDropped, Depth: depth})
		return
	}

	q.items = append(q.items, item)
	q.stats.TotalEnqueued++
	q.stats.LastEnqueue = time.Now()
	if len(q.items) > q.stats.PeakSize {
		q.stats.PeakSize = len(q.items)
	}
	depth := len(q.items)

	q.cond.Signal()
	q.mu.Unlock()

	q.notify(Event{Kind: EventEnqueued, Depth: depth})
}

// Dequeue blocks until an item is available and returns it with true, or
// until the queue is cancelled and returns the zero value with false.
func (q *BlockingQueue[T]) Dequeue() (T, bool) {
	var zero T

	q.mu.Lock()

	if q.cancelled && (!q.opts.drainOnCancel || len(q.items) == 0) {
		q.mu.Unlock()
		return zero, false
	}

	for len(q.items) == 0 && !q.cancelled {
		q.waiting++
		q.cond.Wait()
		q.waiting--
	}

	// Only reachable when cancelled.
	if len(q.items) == 0 {
		q.mu.Unlock()
		return zero, false
	}

	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]

	q.stats.TotalDequeued++
	q.stats.LastDequeue = time.Now()
	depth := len(q.items)
	q.mu.Unlock()

	q.notify(Event{Kind: EventDequeued, Depth: depth})
	return item, true
}

// Cancel marks the queue cancelled and wakes every blocked consumer. Calling
// it more than once has no further effect.
func (q *BlockingQueue[T]) Cancel() {
	q.mu.Lock()

	if q.cancelled {
		q.mu.Unlock()
		return
	}
	q.cancelled = true

	discarded := 0
	if !q.opts.drainOnCancel {
		// Keep one item per consumer already blocked on the queue.
		keep := min(q.waiting, len(q.items))
		discarded = len(q.items) - keep
		clear(q.items[keep:])
		q.items = q.items[:keep]
		q.stats.Discarded += int64(discarded)
	}

	q.cond.Broadcast()
	depth := len(q.items)
	q.mu.Unlock()

	q.notify(Event{Kind: EventCancelled, Depth: depth, Discarded: discarded})
}

// Cancelled reports whether Cancel has been called.
func (q *BlockingQueue[T]) Cancelled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.cancelled
}

// Len returns the number of items currently queued.
func (q *BlockingQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Stats returns a snapshot of the queue statistics.
func (q *BlockingQueue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := q.stats
	stats.CurrentSize = len(q.items)
	stats.Waiting = q.waiting
	stats.Cancelled = q.cancelled
	return stats
}

func (q *BlockingQueue[T]) notify(ev Event) {
	if q.opts.observer != nil {
		q.opts.observer(ev)
	}
}
