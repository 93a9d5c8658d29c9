package auth

import "time"

// Timer is the handle of a scheduled task. Stop reports whether the task was
// still pending.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so the refresh schedule can be driven by a fake clock
// in tests instead of hidden timeouts captured in closures.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }
