package event

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/meetly/meetly/internal/rest"
	"github.com/meetly/meetly/internal/utils"
	"github.com/meetly/meetly/pkg/availability"
	"github.com/meetly/meetly/pkg/user"
	log "github.com/sirupsen/logrus"
)

// TimeLayout is the timestamp format of the API. The system runs in a single
// zone, so timestamps carry no offset.
const TimeLayout = "2006-01-02T15:04:05"

const defaultWindow = 7 * 24 * time.Hour

type RecurrenceDTO struct {
	Frequency string `json:"frequency"`
	EndDate   string `json:"endDate"`
}

type EventDetailsDTO struct {
	ID          string `json:"id"`
	OrganizerID string `json:"organizerId"`
	Name        string `json:"name"`
	Visibility  string `json:"visibility"`
	Description string `json:"description,omitempty"`
}

type ParticipantStatusDTO struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type EventDTO struct {
	ID             string                 `json:"id"`
	UserID         string                 `json:"userId"`
	EventDetailsID string                 `json:"eventDetailsId"`
	Status         string                 `json:"status"`
	StartDate      string                 `json:"startDate"`
	EndDate        string                 `json:"endDate"`
	Duration       int                    `json:"duration"`
	Type           string                 `json:"type"`
	Recurrence     *RecurrenceDTO         `json:"recurrence,omitempty"`
	Details        *EventDetailsDTO       `json:"details,omitempty"`
	Participants   []ParticipantStatusDTO `json:"participants,omitempty"`
}

type TimeSlotDTO struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type CreateEventRequest struct {
	Name        string         `json:"name"`
	StartDate   string         `json:"startDate"`
	Duration    int            `json:"duration"`
	AttendeeIDs []string       `json:"attendeeIds"`
	Visibility  string         `json:"visibility"`
	Description string         `json:"description"`
	Recurrence  *RecurrenceDTO `json:"recurrence"`
}

type FreeTimeSlotRequest struct {
	UserIDs  []string `json:"userIds"`
	Duration int      `json:"duration"`
	FromDate string   `json:"fromDate"`
	ToDate   string   `json:"toDate"`
}

type EventHandler struct {
	eventService Service
	clock        utils.Clock
}

func NewEventHandler(eventService Service, clock utils.Clock) *EventHandler {
	return &EventHandler{eventService: eventService, clock: clock}
}

// GetUserEvents godoc
// @Summary List a user's event occurrences in a window
// @Description Returns single events and expanded recurring occurrences, sorted by start
// @Tags Event
// @Produce json
// @Param userId path string true "User ID"
// @Param from query string false "Window start (defaults to 7 days ago)"
// @Param to query string false "Window end (defaults to 7 days ahead)"
// @Success 200 {array} EventDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid range"
// @Failure 404 {string} string "User not found"
// @Router /api/user/{userId}/event [get]
func (h *EventHandler) GetUserEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, err := uuid.Parse(mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid userId", "userId must be a UUID")
		return
	}

	now := h.clock.Now()
	fromDate, err := parseTimeOrDefault(r.URL.Query().Get("from"), now.Add(-defaultWindow))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date", "Timestamps must use the format "+TimeLayout)
		return
	}
	toDate, err := parseTimeOrDefault(r.URL.Query().Get("to"), now.Add(defaultWindow))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date", "Timestamps must use the format "+TimeLayout)
		return
	}
	if !fromDate.Before(toDate) {
		writeError(w, http.StatusBadRequest, "Incorrect date range", "from must be before to")
		return
	}

	occurrences, err := h.eventService.GetUserEvents(r.Context(), userID, fromDate, toDate)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrRangeTooLarge) {
			writeError(w, http.StatusBadRequest, "Incorrect date range", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := make([]EventDTO, 0, len(occurrences))
	for _, occurrence := range occurrences {
		dto, err := h.eventToDTOFor(r, occurrence)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		response = append(response, dto)
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetEvent godoc
// @Summary Get one event row
// @Tags Event
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} EventDTO
// @Failure 404 {string} string "Event not found"
// @Router /api/event/{eventId} [get]
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	eventID, err := uuid.Parse(mux.Vars(r)["eventId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid eventId", "eventId must be a UUID")
		return
	}
	e, err := h.eventService.GetEventByID(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	dto, err := h.eventToDTOFor(r, e)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// CreateEvent godoc
// @Summary Create an event for the caller and their attendees
// @Tags Event
// @Accept json
// @Produce json
// @Param event body CreateEventRequest true "Event"
// @Success 201 {object} EventDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "Attendee conflict"
// @Router /api/event [post]
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Creating new event")

	organizerID, err := user.CurrentID(r.Context())
	if err != nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var request CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	if request.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", "")
		return
	}
	if request.Duration < 1 {
		writeError(w, http.StatusBadRequest, "Duration must be at least one minute", "")
		return
	}
	startDate, err := time.Parse(TimeLayout, request.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid startDate format", "Timestamps must use the format "+TimeLayout)
		return
	}
	attendeeIDs := make([]uuid.UUID, 0, len(request.AttendeeIDs))
	for _, raw := range request.AttendeeIDs {
		attendeeID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid attendee id", raw)
			return
		}
		attendeeIDs = append(attendeeIDs, attendeeID)
	}
	var recurrence *Recurrence
	if request.Recurrence != nil {
		endDate, err := time.Parse(TimeLayout, request.Recurrence.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid recurrence endDate format", "Timestamps must use the format "+TimeLayout)
			return
		}
		recurrence = &Recurrence{
			Frequency: Frequency(request.Recurrence.Frequency),
			EndDate:   endDate,
		}
	}

	created, err := h.eventService.CreateEvent(r.Context(), CreateEventParams{
		OrganizerID: organizerID,
		Name:        request.Name,
		StartDate:   startDate,
		Duration:    time.Duration(request.Duration) * time.Minute,
		AttendeeIDs: attendeeIDs,
		Visibility:  Visibility(request.Visibility),
		Description: request.Description,
		Recurrence:  recurrence,
	})
	if err != nil {
		var attendeesErr *AttendeesNotFoundError
		switch {
		case errors.Is(err, ErrOrganizerIsAttendee):
			writeError(w, http.StatusConflict, err.Error(), "")
		case errors.As(err, &attendeesErr):
			writeError(w, http.StatusConflict, "Attendees not found", attendeesErr.Error())
		case errors.Is(err, user.ErrUserNotFound):
			writeError(w, http.StatusConflict, "Organizer not found", "")
		case errors.Is(err, ErrInvalidEvent):
			writeError(w, http.StatusBadRequest, err.Error(), "")
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	dto, err := h.eventToDTOFor(r, created)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// AcceptEvent godoc
// @Summary Accept an event invitation
// @Tags Event
// @Param eventId path string true "Event ID"
// @Success 202
// @Failure 404 {string} string "Event not found"
// @Router /api/event/{eventId}/accept [post]
func (h *EventHandler) AcceptEvent(w http.ResponseWriter, r *http.Request) {
	h.transitionEvent(w, r, h.eventService.AcceptEvent)
}

// DeclineEvent godoc
// @Summary Decline an event invitation
// @Tags Event
// @Param eventId path string true "Event ID"
// @Success 202
// @Failure 404 {string} string "Event not found"
// @Router /api/event/{eventId}/decline [post]
func (h *EventHandler) DeclineEvent(w http.ResponseWriter, r *http.Request) {
	h.transitionEvent(w, r, h.eventService.DeclineEvent)
}

func (h *EventHandler) transitionEvent(w http.ResponseWriter, r *http.Request, transition func(ctx context.Context, eventID uuid.UUID) (Event, error)) {
	eventID, err := uuid.Parse(mux.Vars(r)["eventId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid eventId", "eventId must be a UUID")
		return
	}
	if _, err := transition(r.Context(), eventID); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// FindFreeTimeSlot godoc
// @Summary Find the earliest common free slot for a group of users
// @Tags Event
// @Accept json
// @Produce json
// @Param request body FreeTimeSlotRequest true "Search parameters"
// @Success 200 {object} TimeSlotDTO
// @Success 204 "No free slot in the window"
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/event/free-slot [post]
func (h *EventHandler) FindFreeTimeSlot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var request FreeTimeSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	if len(request.UserIDs) == 0 {
		writeError(w, http.StatusBadRequest, "userIds can't be empty", "")
		return
	}
	if request.Duration < 1 {
		writeError(w, http.StatusBadRequest, "duration should be greater than 0", "")
		return
	}
	fromDate, err := time.Parse(TimeLayout, request.FromDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid fromDate format", "Timestamps must use the format "+TimeLayout)
		return
	}
	toDate, err := time.Parse(TimeLayout, request.ToDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid toDate format", "Timestamps must use the format "+TimeLayout)
		return
	}
	if !fromDate.Before(toDate) {
		writeError(w, http.StatusBadRequest, "Incorrect date range", "fromDate must be before toDate")
		return
	}
	userIDs := make([]uuid.UUID, 0, len(request.UserIDs))
	for _, raw := range request.UserIDs {
		userID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid user id", raw)
			return
		}
		userIDs = append(userIDs, userID)
	}

	slot, err := h.eventService.FindFreeTimeSlot(r.Context(), userIDs,
		time.Duration(request.Duration)*time.Minute, fromDate, toDate)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrRangeTooLarge) {
			writeError(w, http.StatusBadRequest, "Incorrect date range", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if slot == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := json.NewEncoder(w).Encode(timeSlotToDTO(*slot)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// eventToDTOFor serializes an event for the calling user. Shared details and
// participant statuses of a PRIVATE event are visible only to its organizer
// and participants; everyone else gets the bare occurrence.
func (h *EventHandler) eventToDTOFor(r *http.Request, e Event) (EventDTO, error) {
	dto := eventToDTO(e)
	details, err := h.eventService.GetEventDetailsByID(r.Context(), e.EventDetailsID)
	if err != nil {
		return EventDTO{}, err
	}
	statuses, err := h.eventService.GetParticipantStatuses(r.Context(), e.EventDetailsID)
	if err != nil {
		return EventDTO{}, err
	}
	callerID, err := user.CurrentID(r.Context())
	if err != nil {
		callerID = uuid.Nil
	}
	if details.Visibility == VisibilityPrivate && !details.OrganizedBy(callerID) && !isParticipant(statuses, callerID) {
		return dto, nil
	}
	dto.Details = &EventDetailsDTO{
		ID:          details.ID.String(),
		OrganizerID: details.OrganizerID.String(),
		Name:        details.Name,
		Visibility:  string(details.Visibility),
		Description: details.Description,
	}
	dto.Participants = make([]ParticipantStatusDTO, 0, len(statuses))
	for _, status := range statuses {
		dto.Participants = append(dto.Participants, ParticipantStatusDTO{
			UserID: status.UserID.String(),
			Status: string(status.Status),
		})
	}
	return dto, nil
}

func isParticipant(statuses []ParticipantStatus, userID uuid.UUID) bool {
	for _, status := range statuses {
		if status.UserID == userID {
			return true
		}
	}
	return false
}

func eventToDTO(e Event) EventDTO {
	dto := EventDTO{
		ID:             e.ID.String(),
		UserID:         e.UserID.String(),
		EventDetailsID: e.EventDetailsID.String(),
		Status:         string(e.Status),
		StartDate:      e.StartDate.Format(TimeLayout),
		EndDate:        e.EndDate.Format(TimeLayout),
		Duration:       int(e.Duration / time.Minute),
		Type:           string(e.Type),
	}
	if e.Recurrence != nil {
		dto.Recurrence = &RecurrenceDTO{
			Frequency: string(e.Recurrence.Frequency),
			EndDate:   e.Recurrence.EndDate.Format(TimeLayout),
		}
	}
	return dto
}

func timeSlotToDTO(slot availability.TimeSlot) TimeSlotDTO {
	return TimeSlotDTO{
		StartDate: slot.StartDate.Format(TimeLayout),
		EndDate:   slot.EndDate.Format(TimeLayout),
	}
}

func parseTimeOrDefault(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	return time.Parse(TimeLayout, value)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: message, Details: details}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
