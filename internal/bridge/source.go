package bridge

import "context"

// Source produces events. Stream calls emit once per event, in the order the
// events should be consumed, until ctx is done or the source ends. emit is
// safe to call from several goroutines and never blocks.
//
// Stream returns nil (or io.EOF) when the source ended normally, and any
// other error when it failed. Errors returned after ctx is done are treated
// as a normal shutdown.
type Source[T any] interface {
	Stream(ctx context.Context, emit func(T)) error
}

// SourceFunc adapts a function to a Source.
type SourceFunc[T any] func(ctx context.Context, emit func(T)) error

// Stream calls f.
func (f SourceFunc[T]) Stream(ctx context.Context, emit func(T)) error {
	return f(ctx, emit)
}

// ChanSource emits every value received from a channel. It ends when the
// channel is closed.
type ChanSource[T any] <-chan T

// Stream implements Source.
func (c ChanSource[T]) Stream(ctx context.Context, emit func(T)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v, ok := <-c:
			if !ok {
				return nil
			}
			emit(v)
		}
	}
}
