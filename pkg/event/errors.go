package event

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrEventDetailsNotFound = errors.New("event details not found")
	ErrNotRecurring         = errors.New("event is not recurring")
	ErrRangeTooLarge        = fmt.Errorf("period should not be more than %d days", maxUserEventsPeriodDays)
	ErrOrganizerIsAttendee  = errors.New("attendees should not contain the organizer")
	ErrInvalidEvent         = errors.New("invalid event")
)

// AttendeesNotFoundError reports which requested attendee ids do not exist.
type AttendeesNotFoundError struct {
	AttendeeIDs []uuid.UUID
}

func (e *AttendeesNotFoundError) Error() string {
	return fmt.Sprintf("attendees not found: %v", e.AttendeeIDs)
}
