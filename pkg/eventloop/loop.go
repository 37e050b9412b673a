// Package eventloop runs every task of one planner session on a single goroutine, so session state
// (waypoints, route, animation, fields) needs no locking. Network completions and timers post back
// onto the loop instead of touching state directly.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var ErrClosed = errors.New("event loop closed")

type Loop struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
	log   *zap.Logger
}

func New(queueSize int, log *zap.Logger) *Loop {
	return &Loop{
		tasks: make(chan func(), queueSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
		log:   log,
	}
}

// Start runs the loop on a new goroutine.
func (l *Loop) Start() *Loop {
	go l.Run()
	return l
}

func (l *Loop) Run() {
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("event loop task panicked", zap.String("panic", fmt.Sprint(r)))
		}
	}()
	fn()
}

// Post enqueues fn. It returns false once the loop is closed.
// Never call Post from a task when the queue may be full; call the function directly instead.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case <-l.quit:
		return false
	case l.tasks <- fn:
		return true
	}
}

const (
	taskQueued int32 = iota
	taskRunning
	taskAbandoned
)

// Do runs fn on the loop and waits for it. Must not be called from a loop task.
// When ctx ends before fn starts, fn is skipped and ctx.Err() is returned; once fn has started Do
// waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	var state atomic.Int32
	finished := make(chan struct{})
	if !l.Post(func() {
		if !state.CompareAndSwap(taskQueued, taskRunning) {
			return
		}
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		if state.CompareAndSwap(taskQueued, taskAbandoned) {
			return ctx.Err()
		}
	case <-l.done:
		if state.CompareAndSwap(taskQueued, taskAbandoned) {
			return ErrClosed
		}
	}
	<-finished
	return nil
}

func (l *Loop) Close() {
	l.once.Do(func() {
		close(l.quit)
	})
}

func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Timer is a one-shot timer whose callback runs on the loop.
type Timer struct {
	t       *time.Timer
	stopped bool
}

// AfterFunc schedules fn on the loop after d. Must be called from a loop task.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	tm := &Timer{}
	tm.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if tm.stopped {
				return
			}
			tm.stopped = true
			fn()
		})
	})
	return tm
}

// Stop cancels the timer. A callback already queued on the loop is dropped as well.
// Must be called from a loop task. Returns false if the timer already ran or was stopped.
func (tm *Timer) Stop() bool {
	if tm == nil || tm.stopped {
		return false
	}
	tm.stopped = true
	tm.t.Stop()
	return true
}

// Pending reports whether the callback has neither run nor been stopped.
func (tm *Timer) Pending() bool {
	return tm != nil && !tm.stopped
}
