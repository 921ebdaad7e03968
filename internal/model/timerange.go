package model

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when a range does not satisfy start < end
// within a single day.
var ErrInvalidRange = errors.New("invalid time range")

// TimeRange is a half-open interval [Start, End) on one calendar day.
type TimeRange struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// NewTimeRange validates and returns the range [start, end).
func NewTimeRange(start, end TimeOfDay) (TimeRange, error) {
	r := TimeRange{Start: start, End: end}
	if !r.Valid() {
		return TimeRange{}, fmt.Errorf("%w: %s-%s", ErrInvalidRange, start, end)
	}
	return r, nil
}

// MustTimeRange parses two "HH:MM" literals; it panics on bad input.
func MustTimeRange(start, end string) TimeRange {
	r, err := NewTimeRange(MustTimeOfDay(start), MustTimeOfDay(end))
	if err != nil {
		panic(err)
	}
	return r
}

func (r TimeRange) Valid() bool {
	return r.Start.Valid() && r.End.Valid() && r.Start < r.End
}

// Overlaps reports whether a and b share at least one minute.
// Back-to-back ranges (a.End == b.Start) do not overlap.
func Overlaps(a, b TimeRange) bool {
	return a.Start < b.End && b.Start < a.End
}

// DurationMinutes returns End-Start, or ErrInvalidRange when that is not positive.
func DurationMinutes(r TimeRange) (int, error) {
	if r.End <= r.Start {
		return 0, fmt.Errorf("%w: %s-%s", ErrInvalidRange, r.Start, r.End)
	}
	return int(r.End - r.Start), nil
}

// Contains reports whether t lies inside [Start, End).
func (r TimeRange) Contains(t TimeOfDay) bool {
	return r.Start <= t && t < r.End
}

func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}
