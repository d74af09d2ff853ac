package event

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/meetly/meetly/internal/event_bus"
	"github.com/meetly/meetly/pkg/availability"
	"github.com/meetly/meetly/pkg/user"
	log "github.com/sirupsen/logrus"
)

// Work on a window query is bounded by capping the window length; a daily
// series walk is O(days in window).
const maxUserEventsPeriodDays = 365

// CreateEventParams carries everything needed to create one logical event:
// the shared details plus one row per participant.
type CreateEventParams struct {
	OrganizerID uuid.UUID
	Name        string
	StartDate   time.Time
	Duration    time.Duration
	AttendeeIDs []uuid.UUID
	Visibility  Visibility
	Description string
	Recurrence  *Recurrence
}

// ParticipantStatus is one participant's acceptance status for a logical event.
type ParticipantStatus struct {
	UserID uuid.UUID
	Status Status
}

type Service interface {
	CreateEvent(ctx context.Context, params CreateEventParams) (Event, error)
	AcceptEvent(ctx context.Context, eventID uuid.UUID) (Event, error)
	DeclineEvent(ctx context.Context, eventID uuid.UUID) (Event, error)
	GetEventByID(ctx context.Context, eventID uuid.UUID) (Event, error)
	GetEventDetailsByID(ctx context.Context, detailsID uuid.UUID) (EventDetails, error)
	GetParticipantStatuses(ctx context.Context, detailsID uuid.UUID) ([]ParticipantStatus, error)
	GetUserEvents(ctx context.Context, userID uuid.UUID, fromDate, toDate time.Time) ([]Event, error)
	FindFreeTimeSlot(ctx context.Context, userIDs []uuid.UUID, duration time.Duration, fromDate, toDate time.Time) (*availability.TimeSlot, error)
}

type ServiceImpl struct {
	repo        Repository
	userService user.Service
	bus         *event_bus.EventBus
}

func NewEventService(repo Repository, userService user.Service, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, userService: userService, bus: bus}
}

// CreateEvent validates the participants, builds one shared EventDetails row
// and one Event row per participant (the organizer's row starts ACCEPTED, the
// attendees' rows PENDING) and persists all of them in a single transaction.
// The organizer's row is returned.
func (s *ServiceImpl) CreateEvent(ctx context.Context, params CreateEventParams) (Event, error) {
	attendeeIDs := dedupeIDs(params.AttendeeIDs)
	if err := s.validateOrganizer(ctx, params.OrganizerID); err != nil {
		return Event{}, err
	}
	if err := s.validateAttendees(ctx, attendeeIDs, params.OrganizerID); err != nil {
		return Event{}, err
	}

	details, err := NewEventDetails(EventDetails{
		OrganizerID: params.OrganizerID,
		Name:        params.Name,
		Visibility:  params.Visibility,
		Description: params.Description,
	})
	if err != nil {
		return Event{}, err
	}
	organizerEvent, err := buildEventFor(params.OrganizerID, details.ID, params)
	if err != nil {
		return Event{}, err
	}
	attendeeEvents := make([]Event, 0, len(attendeeIDs))
	for _, attendeeID := range attendeeIDs {
		attendeeEvent, err := buildEventFor(attendeeID, details.ID, params)
		if err != nil {
			return Event{}, err
		}
		attendeeEvents = append(attendeeEvents, attendeeEvent)
	}

	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		if err := repo.StoreEventDetails(ctx, details); err != nil {
			return err
		}
		if err := repo.StoreEvent(ctx, organizerEvent); err != nil {
			return err
		}
		for _, attendeeEvent := range attendeeEvents {
			if err := repo.StoreEvent(ctx, attendeeEvent); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Event{}, err
	}

	for _, attendeeEvent := range attendeeEvents {
		s.publish(ctx, event_bus.InvitationCreatedType, event_bus.InvitationCreated{
			EventID:        attendeeEvent.ID,
			EventDetailsID: details.ID,
			UserID:         attendeeEvent.UserID,
			OrganizerID:    params.OrganizerID,
			Name:           details.Name,
			StartDate:      attendeeEvent.StartDate,
		})
	}
	return organizerEvent, nil
}

func (s *ServiceImpl) AcceptEvent(ctx context.Context, eventID uuid.UUID) (Event, error) {
	e, err := s.GetEventByID(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	accepted := e.Accept()
	if err := s.repo.UpdateEventStatus(ctx, accepted); err != nil {
		return Event{}, err
	}
	s.publish(ctx, event_bus.EventAcceptedType, event_bus.StatusChanged{
		EventID: accepted.ID,
		UserID:  accepted.UserID,
		Status:  string(accepted.Status),
	})
	return accepted, nil
}

func (s *ServiceImpl) DeclineEvent(ctx context.Context, eventID uuid.UUID) (Event, error) {
	e, err := s.GetEventByID(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	declined := e.Decline()
	if err := s.repo.UpdateEventStatus(ctx, declined); err != nil {
		return Event{}, err
	}
	s.publish(ctx, event_bus.EventDeclinedType, event_bus.StatusChanged{
		EventID: declined.ID,
		UserID:  declined.UserID,
		Status:  string(declined.Status),
	})
	return declined, nil
}

func (s *ServiceImpl) GetEventByID(ctx context.Context, eventID uuid.UUID) (Event, error) {
	e, err := s.repo.FindEventByID(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	if e == nil {
		return Event{}, ErrEventNotFound
	}
	return *e, nil
}

func (s *ServiceImpl) GetEventDetailsByID(ctx context.Context, detailsID uuid.UUID) (EventDetails, error) {
	details, err := s.repo.FindEventDetailsByID(ctx, detailsID)
	if err != nil {
		return EventDetails{}, err
	}
	if details == nil {
		return EventDetails{}, ErrEventDetailsNotFound
	}
	return *details, nil
}

func (s *ServiceImpl) GetParticipantStatuses(ctx context.Context, detailsID uuid.UUID) ([]ParticipantStatus, error) {
	events, err := s.repo.FindEventsByDetailsID(ctx, detailsID)
	if err != nil {
		return nil, err
	}
	statuses := make([]ParticipantStatus, 0, len(events))
	for _, e := range events {
		statuses = append(statuses, ParticipantStatus{UserID: e.UserID, Status: e.Status})
	}
	return statuses, nil
}

// GetUserEvents returns every occurrence of the user's events inside the
// window: SINGLE events as stored, RECURRING series expanded into their
// in-window instances. The result is sorted by occurrence start; the order of
// occurrences with equal starts is unspecified.
func (s *ServiceImpl) GetUserEvents(ctx context.Context, userID uuid.UUID, fromDate, toDate time.Time) ([]Event, error) {
	if _, err := s.userService.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	if wholeDays(fromDate, toDate) > maxUserEventsPeriodDays {
		return nil, ErrRangeTooLarge
	}
	singleEvents, err := s.repo.FindSingleEvents(ctx, userID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	recurringEvents, err := s.repo.FindRecurringEvents(ctx, userID, fromDate)
	if err != nil {
		return nil, err
	}

	occurrences := append([]Event{}, singleEvents...)
	for _, recurring := range recurringEvents {
		instances, err := recurring.RecurringInstances(fromDate, toDate)
		if err != nil {
			return nil, err
		}
		occurrences = append(occurrences, instances...)
	}
	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].StartDate.Before(occurrences[j].StartDate)
	})
	return occurrences, nil
}

// FindFreeTimeSlot projects every user's in-window occurrences to busy
// intervals and finds the earliest common free slot of the given length.
func (s *ServiceImpl) FindFreeTimeSlot(ctx context.Context, userIDs []uuid.UUID, duration time.Duration, fromDate, toDate time.Time) (*availability.TimeSlot, error) {
	var busySlots []availability.TimeSlot
	for _, userID := range userIDs {
		occurrences, err := s.GetUserEvents(ctx, userID, fromDate, toDate)
		if err != nil {
			return nil, err
		}
		for _, occurrence := range occurrences {
			slot, err := availability.NewTimeSlot(occurrence.StartDate, occurrence.EndDate)
			if err != nil {
				return nil, err
			}
			busySlots = append(busySlots, slot)
		}
	}
	return availability.FreeTimeSlot(busySlots, duration, fromDate, toDate), nil
}

func (s *ServiceImpl) validateOrganizer(ctx context.Context, organizerID uuid.UUID) error {
	organizer, err := s.userService.FindUser(ctx, organizerID)
	if err != nil {
		return err
	}
	if organizer == nil {
		return user.ErrUserNotFound
	}
	return nil
}

func (s *ServiceImpl) validateAttendees(ctx context.Context, attendeeIDs []uuid.UUID, organizerID uuid.UUID) error {
	for _, attendeeID := range attendeeIDs {
		if attendeeID == organizerID {
			return ErrOrganizerIsAttendee
		}
	}
	attendees, err := s.userService.FindAllByIDs(ctx, attendeeIDs)
	if err != nil {
		return err
	}
	if len(attendees) != len(attendeeIDs) {
		existing := make(map[uuid.UUID]struct{}, len(attendees))
		for _, attendee := range attendees {
			existing[attendee.ID] = struct{}{}
		}
		var missing []uuid.UUID
		for _, attendeeID := range attendeeIDs {
			if _, ok := existing[attendeeID]; !ok {
				missing = append(missing, attendeeID)
			}
		}
		return &AttendeesNotFoundError{AttendeeIDs: missing}
	}
	return nil
}

func buildEventFor(userID, detailsID uuid.UUID, params CreateEventParams) (Event, error) {
	status := StatusPending
	if userID == params.OrganizerID {
		status = StatusAccepted
	}
	eventType := TypeSingle
	endDate := params.StartDate.Add(params.Duration)
	if params.Recurrence != nil {
		eventType = TypeRecurring
		endDate = params.Recurrence.EndDate
	}
	return NewEvent(Event{
		UserID:         userID,
		EventDetailsID: detailsID,
		Status:         status,
		StartDate:      params.StartDate,
		EndDate:        endDate,
		Duration:       params.Duration,
		Type:           eventType,
		Recurrence:     params.Recurrence,
	})
}

func (s *ServiceImpl) publish(ctx context.Context, eventType event_bus.EventType, payload any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event_bus.NewEvent(ctx, eventType, payload)); err != nil {
		log.Errorf("failed to publish %s: %v", eventType, err)
	}
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func wholeDays(fromDate, toDate time.Time) int {
	return int(toDate.Sub(fromDate) / (24 * time.Hour))
}
