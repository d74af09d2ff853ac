package event_bus

import (
	"time"

	"github.com/google/uuid"
)

const (
	InvitationCreatedType EventType = "invitation.created"
	EventAcceptedType     EventType = "event.accepted"
	EventDeclinedType     EventType = "event.declined"
)

// InvitationCreated is published once per attendee row when a new calendar
// event is created.
type InvitationCreated struct {
	EventID        uuid.UUID
	EventDetailsID uuid.UUID
	UserID         uuid.UUID
	OrganizerID    uuid.UUID
	Name           string
	StartDate      time.Time
}

type StatusChanged struct {
	EventID uuid.UUID
	UserID  uuid.UUID
	Status  string
}
