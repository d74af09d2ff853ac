package event

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/meetly/meetly/internal/utils"
	"github.com/meetly/meetly/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFixture struct {
	*serviceFixture
	clock  *utils.MockClock
	router *mux.Router
}

func newHandlerFixture() *handlerFixture {
	f := newServiceFixture()
	clock := &utils.MockClock{FixedNow: date("2022-10-18T12:00:00")}
	handler := NewEventHandler(f.service, clock)

	router := mux.NewRouter()
	router.HandleFunc("/api/user/{userId}/event", handler.GetUserEvents).Methods("GET")
	router.HandleFunc("/api/event", handler.CreateEvent).Methods("POST")
	router.HandleFunc("/api/event/free-slot", handler.FindFreeTimeSlot).Methods("POST")
	router.HandleFunc("/api/event/{eventId}", handler.GetEvent).Methods("GET")
	router.HandleFunc("/api/event/{eventId}/accept", handler.AcceptEvent).Methods("POST")
	router.HandleFunc("/api/event/{eventId}/decline", handler.DeclineEvent).Methods("POST")

	return &handlerFixture{serviceFixture: f, clock: clock, router: router}
}

// do performs a request as the given caller; uuid.Nil means unauthenticated.
func (f *handlerFixture) do(method, target string, callerID uuid.UUID, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	if callerID != uuid.Nil {
		req = req.WithContext(user.WithUser(req.Context(), user.User{ID: callerID, Username: "caller"}))
	}
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&value))
	return value
}

func TestCreateEventHandler(t *testing.T) {
	t.Run("creates an event for the caller", func(t *testing.T) {
		f := newHandlerFixture()
		organizerID := f.addUser(t, "alice")
		bobID := f.addUser(t, "bob")

		recorder := f.do(http.MethodPost, "/api/event", organizerID, CreateEventRequest{
			Name:        "standup",
			StartDate:   "2022-10-19T09:00:00",
			Duration:    30,
			AttendeeIDs: []string{bobID.String()},
			Visibility:  string(VisibilityPublic),
		})

		require.Equal(t, http.StatusCreated, recorder.Code)
		dto := decodeBody[EventDTO](t, recorder)
		assert.Equal(t, organizerID.String(), dto.UserID)
		assert.Equal(t, string(StatusAccepted), dto.Status)
		assert.Equal(t, "2022-10-19T09:00:00", dto.StartDate)
		assert.Equal(t, "2022-10-19T09:30:00", dto.EndDate)
		assert.Equal(t, 30, dto.Duration)
		require.NotNil(t, dto.Details)
		assert.Equal(t, "standup", dto.Details.Name)
		assert.Len(t, dto.Participants, 2)
		assert.Len(t, f.repo.Events, 2)
	})

	t.Run("creates a recurring event", func(t *testing.T) {
		f := newHandlerFixture()
		organizerID := f.addUser(t, "alice")

		recorder := f.do(http.MethodPost, "/api/event", organizerID, CreateEventRequest{
			Name:       "daily",
			StartDate:  "2022-10-19T09:00:00",
			Duration:   15,
			Visibility: string(VisibilityPublic),
			Recurrence: &RecurrenceDTO{Frequency: string(FrequencyDaily), EndDate: "2022-11-19T09:15:00"},
		})

		require.Equal(t, http.StatusCreated, recorder.Code)
		dto := decodeBody[EventDTO](t, recorder)
		assert.Equal(t, string(TypeRecurring), dto.Type)
		require.NotNil(t, dto.Recurrence)
		assert.Equal(t, "2022-11-19T09:15:00", dto.Recurrence.EndDate)
	})

	t.Run("requires authentication", func(t *testing.T) {
		f := newHandlerFixture()
		recorder := f.do(http.MethodPost, "/api/event", uuid.Nil, CreateEventRequest{
			Name: "anonymous", StartDate: "2022-10-19T09:00:00", Duration: 30,
		})
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects missing name and bad duration", func(t *testing.T) {
		f := newHandlerFixture()
		organizerID := f.addUser(t, "alice")

		recorder := f.do(http.MethodPost, "/api/event", organizerID, CreateEventRequest{
			StartDate: "2022-10-19T09:00:00", Duration: 30,
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		recorder = f.do(http.MethodPost, "/api/event", organizerID, CreateEventRequest{
			Name: "x", StartDate: "2022-10-19T09:00:00", Duration: 0,
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("rejects the organizer as attendee with a conflict", func(t *testing.T) {
		f := newHandlerFixture()
		organizerID := f.addUser(t, "alice")

		recorder := f.do(http.MethodPost, "/api/event", organizerID, CreateEventRequest{
			Name:        "solo",
			StartDate:   "2022-10-19T09:00:00",
			Duration:    30,
			AttendeeIDs: []string{organizerID.String()},
			Visibility:  string(VisibilityPublic),
		})
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("reports unknown attendees with a conflict", func(t *testing.T) {
		f := newHandlerFixture()
		organizerID := f.addUser(t, "alice")

		recorder := f.do(http.MethodPost, "/api/event", organizerID, CreateEventRequest{
			Name:        "seance",
			StartDate:   "2022-10-19T09:00:00",
			Duration:    30,
			AttendeeIDs: []string{uuid.NewString()},
			Visibility:  string(VisibilityPublic),
		})
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})
}

func TestGetUserEventsHandler(t *testing.T) {
	t.Run("returns occurrences inside an explicit window", func(t *testing.T) {
		f := newHandlerFixture()
		userID := f.addUser(t, "alice")
		f.do(http.MethodPost, "/api/event", userID, CreateEventRequest{
			Name: "dentist", StartDate: "2022-10-19T10:00:00", Duration: 60,
			Visibility: string(VisibilityPublic),
		})

		recorder := f.do(http.MethodGet,
			"/api/user/"+userID.String()+"/event?from=2022-10-19T00:00:00&to=2022-10-20T00:00:00",
			userID, nil)

		require.Equal(t, http.StatusOK, recorder.Code)
		events := decodeBody[[]EventDTO](t, recorder)
		require.Len(t, events, 1)
		assert.Equal(t, "2022-10-19T10:00:00", events[0].StartDate)
	})

	t.Run("defaults the window to a week around now", func(t *testing.T) {
		f := newHandlerFixture()
		userID := f.addUser(t, "alice")
		f.do(http.MethodPost, "/api/event", userID, CreateEventRequest{
			Name: "soon", StartDate: "2022-10-20T10:00:00", Duration: 60,
			Visibility: string(VisibilityPublic),
		})
		f.do(http.MethodPost, "/api/event", userID, CreateEventRequest{
			Name: "next month", StartDate: "2022-11-20T10:00:00", Duration: 60,
			Visibility: string(VisibilityPublic),
		})

		recorder := f.do(http.MethodGet, "/api/user/"+userID.String()+"/event", userID, nil)

		require.Equal(t, http.StatusOK, recorder.Code)
		events := decodeBody[[]EventDTO](t, recorder)
		require.Len(t, events, 1)
		assert.Equal(t, "2022-10-20T10:00:00", events[0].StartDate)
	})

	t.Run("rejects an inverted window", func(t *testing.T) {
		f := newHandlerFixture()
		userID := f.addUser(t, "alice")
		recorder := f.do(http.MethodGet,
			"/api/user/"+userID.String()+"/event?from=2022-10-20T00:00:00&to=2022-10-19T00:00:00",
			userID, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("rejects a window longer than a year", func(t *testing.T) {
		f := newHandlerFixture()
		userID := f.addUser(t, "alice")
		recorder := f.do(http.MethodGet,
			"/api/user/"+userID.String()+"/event?from=2022-01-01T00:00:00&to=2023-06-01T00:00:00",
			userID, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("unknown user yields not found", func(t *testing.T) {
		f := newHandlerFixture()
		callerID := f.addUser(t, "alice")
		recorder := f.do(http.MethodGet, "/api/user/"+uuid.NewString()+"/event", callerID, nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestGetEventHandler(t *testing.T) {
	t.Run("returns the stored event", func(t *testing.T) {
		f := newHandlerFixture()
		organizerID := f.addUser(t, "alice")
		created := decodeBody[EventDTO](t, f.do(http.MethodPost, "/api/event", organizerID, CreateEventRequest{
			Name: "kickoff", StartDate: "2022-10-19T09:00:00", Duration: 60,
			Visibility: string(VisibilityPublic),
		}))

		recorder := f.do(http.MethodGet, "/api/event/"+created.ID, organizerID, nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		dto := decodeBody[EventDTO](t, recorder)
		assert.Equal(t, created.ID, dto.ID)
	})

	t.Run("unknown event yields not found", func(t *testing.T) {
		f := newHandlerFixture()
		callerID := f.addUser(t, "alice")
		recorder := f.do(http.MethodGet, "/api/event/"+uuid.NewString(), callerID, nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("hides private details from strangers", func(t *testing.T) {
		f := newHandlerFixture()
		organizerID := f.addUser(t, "alice")
		strangerID := f.addUser(t, "mallory")
		created := decodeBody[EventDTO](t, f.do(http.MethodPost, "/api/event", organizerID, CreateEventRequest{
			Name: "secret", StartDate: "2022-10-19T09:00:00", Duration: 60,
			Visibility: string(VisibilityPrivate),
		}))

		recorder := f.do(http.MethodGet, "/api/event/"+created.ID, strangerID, nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		dto := decodeBody[EventDTO](t, recorder)
		assert.Nil(t, dto.Details)
		assert.Empty(t, dto.Participants)

		recorder = f.do(http.MethodGet, "/api/event/"+created.ID, organizerID, nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		dto = decodeBody[EventDTO](t, recorder)
		require.NotNil(t, dto.Details)
		assert.Equal(t, "secret", dto.Details.Name)
	})
}

func TestTransitionHandlers(t *testing.T) {
	createInvitation := func(t *testing.T, f *handlerFixture) (attendeeEventID uuid.UUID, attendeeID uuid.UUID) {
		t.Helper()
		organizerID := f.addUser(t, "alice")
		attendeeID = f.addUser(t, "bob")
		recorder := f.do(http.MethodPost, "/api/event", organizerID, CreateEventRequest{
			Name: "1:1", StartDate: "2022-10-19T09:00:00", Duration: 30,
			AttendeeIDs: []string{attendeeID.String()},
			Visibility:  string(VisibilityPublic),
		})
		require.Equal(t, http.StatusCreated, recorder.Code)
		for id, stored := range f.repo.Events {
			if stored.UserID == attendeeID {
				return id, attendeeID
			}
		}
		t.Fatal("attendee row not stored")
		return uuid.Nil, uuid.Nil
	}

	t.Run("accept responds accepted and persists", func(t *testing.T) {
		f := newHandlerFixture()
		eventID, attendeeID := createInvitation(t, f)

		recorder := f.do(http.MethodPost, "/api/event/"+eventID.String()+"/accept", attendeeID, nil)
		assert.Equal(t, http.StatusAccepted, recorder.Code)
		assert.Equal(t, StatusAccepted, f.repo.Events[eventID].Status)
	})

	t.Run("decline responds accepted and persists", func(t *testing.T) {
		f := newHandlerFixture()
		eventID, attendeeID := createInvitation(t, f)

		recorder := f.do(http.MethodPost, "/api/event/"+eventID.String()+"/decline", attendeeID, nil)
		assert.Equal(t, http.StatusAccepted, recorder.Code)
		assert.Equal(t, StatusDeclined, f.repo.Events[eventID].Status)
	})

	t.Run("unknown event yields not found", func(t *testing.T) {
		f := newHandlerFixture()
		callerID := f.addUser(t, "alice")
		recorder := f.do(http.MethodPost, "/api/event/"+uuid.NewString()+"/accept", callerID, nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("malformed event id is a bad request", func(t *testing.T) {
		f := newHandlerFixture()
		callerID := f.addUser(t, "alice")
		recorder := f.do(http.MethodPost, "/api/event/not-a-uuid/accept", callerID, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestFindFreeTimeSlotHandler(t *testing.T) {
	t.Run("returns the earliest common slot", func(t *testing.T) {
		f := newHandlerFixture()
		aliceID := f.addUser(t, "alice")
		bobID := f.addUser(t, "bob")
		f.do(http.MethodPost, "/api/event", aliceID, CreateEventRequest{
			Name: "focus", StartDate: "2022-10-19T09:00:00", Duration: 120,
			Visibility: string(VisibilityPublic),
		})
		f.do(http.MethodPost, "/api/event", bobID, CreateEventRequest{
			Name: "review", StartDate: "2022-10-19T11:00:00", Duration: 60,
			Visibility: string(VisibilityPublic),
		})

		recorder := f.do(http.MethodPost, "/api/event/free-slot", aliceID, FreeTimeSlotRequest{
			UserIDs:  []string{aliceID.String(), bobID.String()},
			Duration: 60,
			FromDate: "2022-10-19T09:00:00",
			ToDate:   "2022-10-19T17:00:00",
		})

		require.Equal(t, http.StatusOK, recorder.Code)
		slot := decodeBody[TimeSlotDTO](t, recorder)
		assert.Equal(t, "2022-10-19T12:00:00", slot.StartDate)
		assert.Equal(t, "2022-10-19T13:00:00", slot.EndDate)
	})

	t.Run("responds no content when nothing fits", func(t *testing.T) {
		f := newHandlerFixture()
		aliceID := f.addUser(t, "alice")
		f.do(http.MethodPost, "/api/event", aliceID, CreateEventRequest{
			Name: "offsite", StartDate: "2022-10-19T09:00:00", Duration: 480,
			Visibility: string(VisibilityPublic),
		})

		recorder := f.do(http.MethodPost, "/api/event/free-slot", aliceID, FreeTimeSlotRequest{
			UserIDs:  []string{aliceID.String()},
			Duration: 60,
			FromDate: "2022-10-19T09:00:00",
			ToDate:   "2022-10-19T17:00:00",
		})
		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})

	t.Run("validates the request", func(t *testing.T) {
		f := newHandlerFixture()
		aliceID := f.addUser(t, "alice")

		recorder := f.do(http.MethodPost, "/api/event/free-slot", aliceID, FreeTimeSlotRequest{
			UserIDs: nil, Duration: 60,
			FromDate: "2022-10-19T09:00:00", ToDate: "2022-10-19T17:00:00",
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		recorder = f.do(http.MethodPost, "/api/event/free-slot", aliceID, FreeTimeSlotRequest{
			UserIDs: []string{aliceID.String()}, Duration: 0,
			FromDate: "2022-10-19T09:00:00", ToDate: "2022-10-19T17:00:00",
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		recorder = f.do(http.MethodPost, "/api/event/free-slot", aliceID, FreeTimeSlotRequest{
			UserIDs: []string{aliceID.String()}, Duration: 60,
			FromDate: "2022-10-19T17:00:00", ToDate: "2022-10-19T09:00:00",
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}
