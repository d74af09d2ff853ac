package event

import (
	"fmt"

	"github.com/google/uuid"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// EventDetails is the metadata shared by all participant rows of one logical
// event. It is created once and never modified.
type EventDetails struct {
	ID          uuid.UUID
	OrganizerID uuid.UUID
	Name        string
	Visibility  Visibility
	Description string
}

func NewEventDetails(d EventDetails) (EventDetails, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.OrganizerID == uuid.Nil {
		return EventDetails{}, fmt.Errorf("%w: organizerId is required", ErrInvalidEvent)
	}
	if d.Name == "" {
		return EventDetails{}, fmt.Errorf("%w: name is required", ErrInvalidEvent)
	}
	if d.Visibility != VisibilityPublic && d.Visibility != VisibilityPrivate {
		return EventDetails{}, fmt.Errorf("%w: unknown visibility %q", ErrInvalidEvent, d.Visibility)
	}
	return d, nil
}

func (d EventDetails) OrganizedBy(userID uuid.UUID) bool {
	return d.OrganizerID == userID
}
