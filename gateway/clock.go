package gateway

import "time"

// Clock abstracts time for the gateway so tests can drive virtual time
// instead of sleeping through rate-limit windows.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the time after duration d.
	After(d time.Duration) <-chan time.Time
}

// realClock implements Clock with the system clock.
type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// SystemClock returns a Clock backed by the system clock.
func SystemClock() Clock {
	return realClock{}
}
