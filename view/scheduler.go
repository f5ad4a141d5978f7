package view

import "time"

// Timer is a cancellable pending callback
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d on its own goroutine. Tests substitute a
// manual scheduler to fire timers deterministically.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler is backed by time.AfterFunc
var RealScheduler Scheduler = realScheduler{}
