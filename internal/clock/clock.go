package clock

import "time"

// Clock allows injecting time in domain/services.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock that always returns the same instant (useful for tests).
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

type shiftClock struct {
	base   Clock
	offset time.Duration
}

// NewShifted returns a clock offset from base by d. Tests use it to move a
// fixed clock past hold expiry without rebuilding services.
func NewShifted(base Clock, d time.Duration) Clock {
	return shiftClock{base: base, offset: d}
}

func (s shiftClock) Now() time.Time {
	return s.base.Now().Add(s.offset)
}
