package session

import "time"

// Timer is a cancellable one-shot task.
type Timer interface {
	Stop() bool
}

// Scheduler runs functions after a delay on its own goroutines.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules tasks with the runtime timers.
type RealScheduler struct{}

// AfterFunc implements Scheduler
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
