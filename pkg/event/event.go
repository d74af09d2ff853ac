package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusDeclined Status = "DECLINED"
)

type Type string

const (
	TypeSingle    Type = "SINGLE"
	TypeRecurring Type = "RECURRING"
)

// Event is one participant's row for a logical calendar event: either a
// standalone booking or the anchor of a recurring series. Values are treated
// as immutable; state transitions return a modified copy.
type Event struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	EventDetailsID uuid.UUID
	Status         Status
	StartDate      time.Time
	EndDate        time.Time
	Duration       time.Duration
	Type           Type
	Recurrence     *Recurrence
}

// NewEvent validates e and returns it with defaults applied: a fresh id when
// none is set and status PENDING when none is set. All invariants are checked
// here so a constructed Event can be trusted everywhere else.
func NewEvent(e Event) (Event, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = StatusPending
	}
	if e.UserID == uuid.Nil {
		return Event{}, fmt.Errorf("%w: userId is required", ErrInvalidEvent)
	}
	if e.EventDetailsID == uuid.Nil {
		return Event{}, fmt.Errorf("%w: eventDetailsId is required", ErrInvalidEvent)
	}
	if e.StartDate.After(e.EndDate) {
		return Event{}, fmt.Errorf("%w: startDate must not be after endDate", ErrInvalidEvent)
	}
	if e.Duration < 0 {
		return Event{}, fmt.Errorf("%w: duration must not be negative", ErrInvalidEvent)
	}
	switch e.Type {
	case TypeSingle:
		if e.Recurrence != nil {
			return Event{}, fmt.Errorf("%w: recurrence must be empty for single events", ErrInvalidEvent)
		}
	case TypeRecurring:
		if e.Recurrence == nil {
			return Event{}, fmt.Errorf("%w: recurrence is required for recurring events", ErrInvalidEvent)
		}
		if !e.Recurrence.Frequency.Valid() {
			return Event{}, fmt.Errorf("%w: unknown recurrence frequency %q", ErrInvalidEvent, e.Recurrence.Frequency)
		}
	default:
		return Event{}, fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, e.Type)
	}
	return e, nil
}

// Accept returns the event with status ACCEPTED. Accepting an already
// accepted event returns the receiver unchanged.
func (e Event) Accept() Event {
	if e.Status == StatusAccepted {
		return e
	}
	e.Status = StatusAccepted
	return e
}

// Decline returns the event with status DECLINED. Declining an already
// declined event returns the receiver unchanged.
func (e Event) Decline() Event {
	if e.Status == StatusDeclined {
		return e
	}
	e.Status = StatusDeclined
	return e
}

// RecurringInstances expands a recurring series into the concrete occurrences
// that fall inside the query window. The walk starts at the series anchor and
// steps through Frequency.NextDate until it passes toDate or the series end.
//
// An occurrence is emitted only when its start or its end is strictly inside
// the open window (fromDate, toDate). Occurrences that merely touch a window
// boundary are excluded so that adjacent window queries never report the same
// occurrence twice.
//
// Instances are views over the anchor: same id, status, details and
// recurrence, with only the occurrence bounds replaced. They are never
// persisted on their own.
func (e Event) RecurringInstances(fromDate, toDate time.Time) ([]Event, error) {
	if e.Type != TypeRecurring {
		return nil, ErrNotRecurring
	}
	if e.EndDate.Before(fromDate) || e.StartDate.After(toDate) {
		return nil, nil
	}
	frequency := e.Recurrence.Frequency
	var instances []Event
	for start := e.StartDate; !start.After(toDate) && !start.After(e.EndDate); start = frequency.NextDate(start) {
		end := start.Add(e.Duration)
		if (start.After(fromDate) && start.Before(toDate)) || (end.After(fromDate) && end.Before(toDate)) {
			instance := e
			instance.StartDate = start
			instance.EndDate = end
			instances = append(instances, instance)
		}
	}
	return instances, nil
}
