package autosave

import "time"

// Clock schedules the debounce callback. It exists so tests can fire timers
// by hand.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	// Stop cancels the timer, reporting false if it already fired or was stopped.
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock is backed by time.AfterFunc.
func RealClock() Clock {
	return realClock{}
}
