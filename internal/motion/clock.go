package motion

import "time"

// Clock is the time source of the detector. Tests swap it for a manual one.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f in its own goroutine after d. The returned stop
	// func reports whether it prevented the call.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type systemClock struct{}

func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
