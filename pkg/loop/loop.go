// Package loop runs posted functions one at a time on a single goroutine.
//
// Everything that mutates state owned by a Loop must run on it: timer ticks,
// network completions and user commands are all posted as functions. Post never
// blocks, so it is safe to call from the loop goroutine itself. Call waits for
// the function to finish and must not be used from the loop goroutine.
package loop

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned once the loop has exited.
var ErrStopped = errors.New("loop: stopped")

// Poster schedules work on a loop.
type Poster interface {
	Post(fn func()) bool
}

// Loop is a serial executor backed by an unbounded queue.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped chan struct{}
	running bool
	closed  bool
}

// New creates an idle loop. Run must be called to start processing.
func New() *Loop {
	return &Loop{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// Post enqueues fn. It returns false if the loop has already stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call runs fn on the loop and waits for it to return. When the loop stops
// first, fn either has completed (nil) or will never run (ErrStopped).
func (l *Loop) Call(fn func()) error {
	var (
		mu        sync.Mutex
		started   bool
		abandoned bool
	)
	done := make(chan struct{})
	if !l.Post(func() {
		mu.Lock()
		if abandoned {
			mu.Unlock()
			return
		}
		started = true
		mu.Unlock()

		defer close(done)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-l.stopped:
		mu.Lock()
		abandoned = !started
		mu.Unlock()
		if abandoned {
			return ErrStopped
		}
		<-done
		return nil
	}
}

// Run processes the queue until ctx is canceled or Close is called.
// Functions still queued at exit are discarded.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrStopped
	}
	if l.running {
		l.mu.Unlock()
		return errors.New("loop: already running")
	}
	l.running = true
	l.mu.Unlock()

	defer l.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stopped:
			return nil
		case <-l.wake:
		}

		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			fn()
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

// Close stops the loop after the function currently running returns.
func (l *Loop) Close() {
	l.shutdown()
}

// Done is closed when the loop has stopped.
func (l *Loop) Done() <-chan struct{} { return l.stopped }

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.queue = nil
	close(l.stopped)
}
