package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// StubEventRepository is an in-memory Repository for tests. WithTransaction
// snapshots the state and restores it when the callback fails, mirroring a
// real rollback.
type StubEventRepository struct {
	Events  map[uuid.UUID]Event
	Details map[uuid.UUID]EventDetails

	// FailStoreEvent makes StoreEvent fail after the given number of
	// successful calls, for exercising rollback paths.
	FailStoreEvent      bool
	StoreEventSucceeded int
}

var errStubStoreFailed = errors.New("stub store failure")

func NewStubEventRepository() *StubEventRepository {
	return &StubEventRepository{
		Events:  map[uuid.UUID]Event{},
		Details: map[uuid.UUID]EventDetails{},
	}
}

func (s *StubEventRepository) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	eventsBackup := make(map[uuid.UUID]Event, len(s.Events))
	for id, e := range s.Events {
		eventsBackup[id] = e
	}
	detailsBackup := make(map[uuid.UUID]EventDetails, len(s.Details))
	for id, d := range s.Details {
		detailsBackup[id] = d
	}
	if err := fn(s); err != nil {
		s.Events = eventsBackup
		s.Details = detailsBackup
		return err
	}
	return nil
}

func (s *StubEventRepository) StoreEventDetails(ctx context.Context, details EventDetails) error {
	s.Details[details.ID] = details
	return nil
}

func (s *StubEventRepository) StoreEvent(ctx context.Context, event Event) error {
	if s.FailStoreEvent && s.StoreEventSucceeded <= 0 {
		return errStubStoreFailed
	}
	s.StoreEventSucceeded--
	s.Events[event.ID] = event
	return nil
}

func (s *StubEventRepository) UpdateEventStatus(ctx context.Context, event Event) error {
	stored, ok := s.Events[event.ID]
	if !ok {
		return ErrEventNotFound
	}
	stored.Status = event.Status
	s.Events[event.ID] = stored
	return nil
}

func (s *StubEventRepository) FindEventByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	e, ok := s.Events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *StubEventRepository) FindEventDetailsByID(ctx context.Context, id uuid.UUID) (*EventDetails, error) {
	d, ok := s.Details[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *StubEventRepository) FindEventsByDetailsID(ctx context.Context, detailsID uuid.UUID) ([]Event, error) {
	var events []Event
	for _, e := range s.Events {
		if e.EventDetailsID == detailsID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (s *StubEventRepository) FindSingleEvents(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Event, error) {
	var events []Event
	for _, e := range s.Events {
		if e.UserID != userID || e.Type != TypeSingle {
			continue
		}
		if between(e.StartDate, from, to) || between(e.EndDate, from, to) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (s *StubEventRepository) FindRecurringEvents(ctx context.Context, userID uuid.UUID, from time.Time) ([]Event, error) {
	var events []Event
	for _, e := range s.Events {
		if e.UserID == userID && e.Type == TypeRecurring && !e.EndDate.Before(from) {
			events = append(events, e)
		}
	}
	return events, nil
}

func between(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
