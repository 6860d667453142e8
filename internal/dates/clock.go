package dates

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// It is the single source of "today" for the whole pipeline.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}
