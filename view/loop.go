// Package view owns the view-mode state machine and the event loop that
// serializes every mutation of it.
package view

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/vista/errors"
)

// DefaultLoopBuffer is the task queue depth used by NewLoop when 0 is given
const DefaultLoopBuffer = 256

// Loop runs posted closures one at a time on a single goroutine. Ticks,
// websocket events and timer callbacks all go through it, so the Machine
// never sees concurrent calls.
type Loop struct {
	tasks    chan func()
	done     chan struct{}
	stopOnce sync.Once
	logger   *zap.SugaredLogger
}

// NewLoop creates a stopped loop; call Run to start processing
func NewLoop(buffer int, logger *zap.SugaredLogger) *Loop {
	if buffer <= 0 {
		buffer = DefaultLoopBuffer
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Loop{
		tasks:  make(chan func(), buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run processes tasks until ctx is cancelled or Stop is called
func (l *Loop) Run(ctx context.Context) {
	l.logger.Debugw("View loop started")
	defer l.logger.Debugw("View loop stopped")

	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return

		case <-l.done:
			return

		case task := <-l.tasks:
			l.run(task)
		}
	}
}

// run executes one task, keeping the loop alive if it panics
func (l *Loop) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Errorw("Recovered panic in view loop task", "panic", r)
		}
	}()
	task()
}

// Post queues fn. It blocks while the queue is full and returns ErrClosed
// once the loop is stopped. Never call Post from inside a task with a full
// queue.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return errors.Wrap(errors.ErrClosed, "view loop")
	default:
	}

	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return errors.Wrap(errors.ErrClosed, "view loop")
	}
}

// Do runs fn on the loop and waits for it to finish
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return errors.Wrap(errors.ErrClosed, "view loop")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop ends Run. Queued tasks are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// Done is closed once the loop stops
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
