package view

import (
	"time"

	"go.uber.org/zap"
)

// PostFunc hands a closure to the event loop
type PostFunc func(fn func()) error

// reprojectTask is the single pending deferred re-projection. Schedule
// replaces whatever was pending, so a burst of edits leaves one job. The
// job becomes ready once its debounce timer has elapsed and fires on the
// first settle observed after that.
//
// All methods run on the event loop. The timer goroutine only posts.
type reprojectTask struct {
	debounce  time.Duration
	scheduler Scheduler
	post      PostFunc
	onReady   func()

	generation uint64
	pending    bool
	ready      bool
	timer      Timer

	logger *zap.SugaredLogger
}

func newReprojectTask(debounce time.Duration, scheduler Scheduler, post PostFunc, onReady func(), logger *zap.SugaredLogger) *reprojectTask {
	if scheduler == nil {
		scheduler = RealScheduler
	}
	return &reprojectTask{
		debounce:  debounce,
		scheduler: scheduler,
		post:      post,
		onReady:   onReady,
		logger:    logger,
	}
}

// Schedule cancels any pending job and starts a new debounce window
func (t *reprojectTask) Schedule() {
	t.Cancel()
	t.generation++
	t.pending = true

	gen := t.generation
	t.timer = t.scheduler.AfterFunc(t.debounce, func() {
		if err := t.post(func() { t.elapsed(gen) }); err != nil {
			t.logger.Debugw("Dropped reproject timer", "generation", gen, "error", err)
		}
	})
}

// elapsed marks the job ready unless it was replaced or cancelled since
func (t *reprojectTask) elapsed(gen uint64) {
	if gen != t.generation || !t.pending {
		return
	}
	t.ready = true
	t.timer = nil
	if t.onReady != nil {
		t.onReady()
	}
}

// Cancel drops the pending job, if any
func (t *reprojectTask) Cancel() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.pending = false
	t.ready = false
}

// Settled runs fire if a job is pending and its debounce has elapsed.
// The job is consumed before fire runs.
func (t *reprojectTask) Settled(fire func()) bool {
	if !t.pending || !t.ready {
		return false
	}
	t.pending = false
	t.ready = false
	fire()
	return true
}

// Pending reports whether a job is waiting to fire
func (t *reprojectTask) Pending() bool {
	return t.pending
}

// Ready reports whether the pending job's debounce has elapsed
func (t *reprojectTask) Ready() bool {
	return t.pending && t.ready
}
