package bridge

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/creatures/console/internal/queue"
)

// EventKind identifies a bridge lifecycle event.
type EventKind int

const (
	// EventStarted is emitted when Run starts the source.
	EventStarted EventKind = iota

	// EventSourceEnded is emitted when the source returns. Err is set when
	// the source failed.
	EventSourceEnded

	// EventStopRequested is emitted the first time Stop is called or the
	// Run context is cancelled.
	EventStopRequested

	// EventHandlerFailed is emitted when the handler returns an error.
	EventHandlerFailed

	// EventFinished is emitted when Run returns. Discarded counts events that
	// were queued but never handled.
	EventFinished
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventSourceEnded:
		return "source-ended"
	case EventStopRequested:
		return "stop-requested"
	case EventHandlerFailed:
		return "handler-failed"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event is a diagnostic event emitted by a Bridge.
type Event struct {
	Kind      EventKind
	Err       error
	Handled   int64
	Discarded int
}

type options struct {
	observer      func(Event)
	queueObserver func(queue.Event)
}

// Option configures a Bridge.
type Option func(*options)

// WithObserver registers a callback for bridge lifecycle events.
func WithObserver(fn func(Event)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// WithQueueObserver registers a callback for the underlying queue's events.
func WithQueueObserver(fn func(queue.Event)) Option {
	return func(o *options) {
		o.queueObserver = fn
	}
}

// Bridge connects one Source to one consumer loop through a BlockingQueue.
//
// When the source ends on its own, events it already emitted are still
// handled before Run returns. When Stop is called or the context is
// cancelled, the consumer exits at the next event boundary and the rest of
// the queue is discarded. A Bridge runs once.
type Bridge[T any] struct {
	src   Source[T]
	queue *queue.BlockingQueue[T]
	opts  options

	started  atomic.Bool
	stopping atomic.Bool
	handled  atomic.Int64

	cancelOnce sync.Once
	stopOnce   sync.Once

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a bridge for src.
func New[T any](src Source[T], opts ...Option) *Bridge[T] {
	b := &Bridge[T]{src: src}
	for _, opt := range opts {
		opt(&b.opts)
	}

	qopts := []queue.Option{queue.WithDrainOnCancel()}
	if b.opts.queueObserver != nil {
		qopts = append(qopts, queue.WithObserver(b.opts.queueObserver))
	}
	b.queue = queue.New[T](qopts...)
	return b
}

// Run starts the source in the background and calls handle for every event,
// in arrival order, on the calling goroutine. It returns once the consumer
// loop has exited and the source has returned.
func (b *Bridge[T]) Run(ctx context.Context, handle func(T) error) error {
	if !b.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()
	if b.stopping.Load() {
		cancel()
	}

	b.notify(Event{Kind: EventStarted})

	g, gctx := errgroup.WithContext(ctx)

	// Set once the consumer loop is over, so the teardown cancel below is
	// not reported as a stop request.
	var finished atomic.Bool

	g.Go(func() error {
		defer b.cancelQueue()

		err := b.src.Stream(gctx, b.queue.Enqueue)
		if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			err = nil
		}
		b.notify(Event{Kind: EventSourceEnded, Err: err})

		if err != nil {
			return &UpstreamError{Err: err}
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil && !finished.Load() {
			b.requestStop()
		}
		b.cancelQueue()
		return nil
	})

	var handlerErr error
	discarded := 0
	for {
		item, ok := b.queue.Dequeue()
		if !ok {
			break
		}
		if b.stopping.Load() {
			discarded++
			break
		}
		if err := handle(item); err != nil {
			handlerErr = err
			b.notify(Event{Kind: EventHandlerFailed, Err: err})
			break
		}
		b.handled.Add(1)
	}

	finished.Store(true)
	cancel()
	b.cancelQueue()
	err := g.Wait()

	b.notify(Event{
		Kind:      EventFinished,
		Err:       errors.Join(handlerErr, err),
		Handled:   b.handled.Load(),
		Discarded: b.queue.Len() + discarded,
	})

	if handlerErr != nil {
		return handlerErr
	}
	return err
}

// Stop asks Run to return. Events still queued are discarded. Stop may be
// called before Run, concurrently with it, or more than once.
func (b *Bridge[T]) Stop() {
	b.requestStop()

	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	b.cancelQueue()
}

// Handled returns how many events the handler has processed successfully.
func (b *Bridge[T]) Handled() int64 {
	return b.handled.Load()
}

// Stats returns the underlying queue statistics.
func (b *Bridge[T]) Stats() queue.Stats {
	return b.queue.Stats()
}

func (b *Bridge[T]) requestStop() {
	b.stopOnce.Do(func() {
		b.stopping.Store(true)
		b.notify(Event{Kind: EventStopRequested})
	})
}

func (b *Bridge[T]) cancelQueue() {
	b.cancelOnce.Do(b.queue.Cancel)
}

func (b *Bridge[T]) notify(ev Event) {
	if b.opts.observer != nil {
		b.opts.observer(ev)
	}
}
