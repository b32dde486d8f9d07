package reactor

import (
	"context"
	"sync"
	"time"
)

// DefaultTurn bounds a single [Loop.Turn] made by [Await].
const DefaultTurn = 100 * time.Millisecond

// Loop is a single-consumer callback queue.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

// NewLoop creates an empty [Loop].
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post schedules fn to run on the next turn. Safe for concurrent use.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Turn runs every queued callback. When the queue is empty it waits up to timeout for a post.
// It returns the number of callbacks run.
func (l *Loop) Turn(timeout time.Duration) int {
	if n := l.drain(); n > 0 {
		return n
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-l.wake:
		return l.drain()
	case <-timer.C:
		return 0
	}
}

// Pending reports the number of queued callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) drain() int {
	l.mu.Lock()
	queue := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range queue {
		fn()
	}
	return len(queue)
}

// Future is a one-shot result delivered through a [Loop].
//
// Its state is only touched by loop callbacks, so it must be awaited on the goroutine turning the loop.
type Future[T any] struct {
	loop  *Loop
	done  bool
	value T
	err   error
}

// NewFuture creates an unresolved [Future] bound to l.
func NewFuture[T any](l *Loop) *Future[T] {
	return &Future[T]{loop: l}
}

// Resolved creates a [Future] that resolves on the next turn of l.
func Resolved[T any](l *Loop, v T, err error) *Future[T] {
	f := NewFuture[T](l)
	f.Complete(v, err)
	return f
}

// Complete schedules the resolution of f. The first completion wins.
func (f *Future[T]) Complete(v T, err error) {
	f.loop.Post(func() {
		if f.done {
			return
		}
		f.done = true
		f.value = v
		f.err = err
	})
}

// Done reports whether f has been resolved by a loop turn.
func (f *Future[T]) Done() bool {
	return f.done
}

// Go runs fn on a new goroutine and resolves the returned future with its result.
func Go[T any](l *Loop, fn func() (T, error)) *Future[T] {
	f := NewFuture[T](l)
	go func() {
		v, err := fn()
		f.Complete(v, err)
	}()
	return f
}

// Await turns the loop until f resolves or ctx is done.
func Await[T any](ctx context.Context, f *Future[T]) (T, error) {
	for !f.done {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		f.loop.Turn(DefaultTurn)
	}
	return f.value, f.err
}
