package availability

import (
	"errors"
	"time"
)

// TimeSlot is a time interval with a strictly positive length. It is used both
// for busy intervals derived from calendar occurrences and for the result of
// the free slot search.
type TimeSlot struct {
	StartDate time.Time
	EndDate   time.Time
}

var ErrInvalidSlot = errors.New("slot startDate must be before endDate")

// NewTimeSlot builds a TimeSlot, rejecting empty and inverted intervals.
func NewTimeSlot(startDate, endDate time.Time) (TimeSlot, error) {
	if !startDate.Before(endDate) {
		return TimeSlot{}, ErrInvalidSlot
	}
	return TimeSlot{StartDate: startDate, EndDate: endDate}, nil
}

// Duration returns the length of the slot.
func (s TimeSlot) Duration() time.Duration {
	return s.EndDate.Sub(s.StartDate)
}

// Overlaps reports whether the two slots share any instant.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.StartDate.Before(other.EndDate) && other.StartDate.Before(s.EndDate)
}
