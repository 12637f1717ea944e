package clock

import "time"

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Fixed always returns the same instant. Useful for tests and replays.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }
