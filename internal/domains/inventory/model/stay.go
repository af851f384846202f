package model

import (
	"fmt"
	"time"
)

// StayRange is a half-open date range: check-in inclusive, check-out
// exclusive. A guest leaving on the check-out date does not occupy the room
// that night. Dates are normalized to midnight UTC.
type StayRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// NewStayRange builds a StayRange from two instants, truncating both to
// midnight UTC. The range must cover at least one night.
func NewStayRange(checkIn, checkOut time.Time) (StayRange, error) {
	in := Midnight(checkIn)
	out := Midnight(checkOut)

	if !out.After(in) {
		return StayRange{}, ErrInvalidStayRange
	}

	return StayRange{CheckIn: in, CheckOut: out}, nil
}

// ParseStayRange builds a StayRange from two YYYY-MM-DD strings.
func ParseStayRange(checkIn, checkOut string) (StayRange, error) {
	in, err := time.ParseInLocation("2006-01-02", checkIn, time.UTC)
	if err != nil {
		return StayRange{}, fmt.Errorf("invalid check-in date: %w", err)
	}

	out, err := time.ParseInLocation("2006-01-02", checkOut, time.UTC)
	if err != nil {
		return StayRange{}, fmt.Errorf("invalid check-out date: %w", err)
	}

	return NewStayRange(in, out)
}

// Midnight truncates t to midnight UTC.
func Midnight(t time.Time) time.Time {
	t = t.UTC()

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights returns the number of nights covered by the range.
func (s StayRange) Nights() int {
	return int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
}

// Dates returns every stay date in the range, check-out excluded, in order.
func (s StayRange) Dates() []time.Time {
	dates := make([]time.Time, 0, s.Nights())
	for d := s.CheckIn; d.Before(s.CheckOut); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	return dates
}

// Contains reports whether date (truncated to midnight UTC) is a stay date of
// the range.
func (s StayRange) Contains(date time.Time) bool {
	d := Midnight(date)

	return !d.Before(s.CheckIn) && d.Before(s.CheckOut)
}

func (s StayRange) String() string {
	return s.CheckIn.Format("2006-01-02") + ".." + s.CheckOut.Format("2006-01-02")
}
