package service

import "time"

// Clock abstracts time so expiry checks and rate-limit windows can be
// exercised against simulated time in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns the production clock.
func SystemClock() Clock {
	return systemClock{}
}
