package bridge

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runAsync runs b in the background and returns a channel with Run's result.
func runAsync[T any](ctx context.Context, b *Bridge[T], handle func(T) error) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx, handle)
	}()
	return done
}

func waitResult(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("bridge did not finish")
		return nil
	}
}

func TestBridge_DeliversInArrivalOrder(t *testing.T) {
	ch := make(chan int, 100)
	for i := 0; i < 100; i++ {
		ch <- i
	}
	close(ch)

	b := New[int](ChanSource[int](ch))

	var got []int
	err := b.Run(context.Background(), func(v int) error {
		got = append(got, v)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
	assert.Equal(t, int64(100), b.Handled())
}

func TestBridge_SourceEndOfStreamIsNotAnError(t *testing.T) {
	src := SourceFunc[string](func(_ context.Context, emit func(string)) error {
		emit("one")
		emit("two")
		return io.EOF
	})

	var got []string
	err := New[string](src).Run(context.Background(), func(s string) error {
		got = append(got, s)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestBridge_UpstreamFailure(t *testing.T) {
	errBoom := errors.New("connection reset")
	src := SourceFunc[int](func(_ context.Context, emit func(int)) error {
		emit(1)
		emit(2)
		emit(3)
		return errBoom
	})

	var got []int
	err := New[int](src).Run(context.Background(), func(v int) error {
		got = append(got, v)
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, errBoom)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, errBoom, upstream.Err)

	assert.Equal(t, []int{1, 2, 3}, got, "events emitted before the failure are still handled")
}

func TestBridge_StopEndsBlockedConsumer(t *testing.T) {
	sourceDone := make(chan struct{})
	src := SourceFunc[int](func(ctx context.Context, emit func(int)) error {
		defer close(sourceDone)
		emit(1)
		<-ctx.Done()
		return ctx.Err()
	})

	b := New[int](src)
	handled := make(chan int, 10)
	done := runAsync(context.Background(), b, func(v int) error {
		handled <- v
		return nil
	})

	select {
	case v := <-handled:
		assert.Equal(t, 1, v)
	case <-time.After(2 * time.Second):
		t.Fatal("first event was not handled")
	}

	b.Stop()
	b.Stop()

	assert.NoError(t, waitResult(t, done), "stopping is a normal shutdown")

	select {
	case <-sourceDone:
	case <-time.After(time.Second):
		t.Fatal("source was not told to stop")
	}
	assert.True(t, b.Stats().Cancelled)
}

func TestBridge_ContextCancellation(t *testing.T) {
	src := SourceFunc[int](func(ctx context.Context, _ func(int)) error {
		<-ctx.Done()
		return errors.New("read on closed connection")
	})

	ctx, cancel := context.WithCancel(context.Background())
	b := New[int](src)
	done := runAsync(ctx, b, func(int) error { return nil })

	cancel()
	assert.NoError(t, waitResult(t, done))
}

func TestBridge_StopBeforeRun(t *testing.T) {
	src := SourceFunc[int](func(ctx context.Context, _ func(int)) error {
		<-ctx.Done()
		return ctx.Err()
	})

	b := New[int](src)
	b.Stop()

	done := runAsync(context.Background(), b, func(int) error {
		t.Error("handler should not run")
		return nil
	})
	assert.NoError(t, waitResult(t, done))
}

func TestBridge_HandlerErrorStopsSource(t *testing.T) {
	errHandler := errors.New("track store unavailable")
	sourceCtxDone := make(chan struct{})
	src := SourceFunc[int](func(ctx context.Context, emit func(int)) error {
		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				close(sourceCtxDone)
				return ctx.Err()
			default:
			}
			emit(i)
			time.Sleep(time.Millisecond)
		}
	})

	b := New[int](src)
	err := b.Run(context.Background(), func(v int) error {
		if v == 3 {
			return errHandler
		}
		return nil
	})

	assert.Equal(t, errHandler, err)
	assert.NotErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int64(3), b.Handled())

	select {
	case <-sourceCtxDone:
	case <-time.After(time.Second):
		t.Fatal("source context was not cancelled")
	}
}

func TestBridge_RunOnlyOnce(t *testing.T) {
	ch := make(chan int)
	close(ch)

	b := New[int](ChanSource[int](ch))
	require.NoError(t, b.Run(context.Background(), func(int) error { return nil }))

	assert.ErrorIs(t, b.Run(context.Background(), func(int) error { return nil }), ErrAlreadyStarted)
}

func TestBridge_ConcurrentEmitters(t *testing.T) {
	const emitters, perEmitter = 4, 250

	src := SourceFunc[[2]int](func(_ context.Context, emit func([2]int)) error {
		var wg sync.WaitGroup
		for e := 0; e < emitters; e++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				for i := 0; i < perEmitter; i++ {
					emit([2]int{id, i})
				}
			}(e)
		}
		wg.Wait()
		return nil
	})

	last := make([]int, emitters)
	for i := range last {
		last[i] = -1
	}
	total := 0

	err := New[[2]int](src).Run(context.Background(), func(v [2]int) error {
		if v[1] != last[v[0]]+1 {
			return errors.New("out of order")
		}
		last[v[0]] = v[1]
		total++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, emitters*perEmitter, total)
}

func TestBridge_Observer(t *testing.T) {
	ch := make(chan string, 2)
	ch <- "a"
	ch <- "b"
	close(ch)

	var mu sync.Mutex
	var kinds []EventKind
	var finished Event

	b := New[string](ChanSource[string](ch), WithObserver(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, ev.Kind)
		if ev.Kind == EventFinished {
			finished = ev
		}
	}))

	require.NoError(t, b.Run(context.Background(), func(string) error { return nil }))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventKind{EventStarted, EventSourceEnded, EventFinished}, kinds)
	assert.Equal(t, int64(2), finished.Handled)
	assert.Zero(t, finished.Discarded)
	assert.NoError(t, finished.Err)
}
