package event

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meetly/meetly/internal/test_utils"
	"github.com/meetly/meetly/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertUser(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()
	u := user.User{ID: uuid.New(), Username: "user-" + uuid.NewString(), PasswordHash: "x"}
	require.NoError(t, user.NewUserRepo(db).CreateUser(context.Background(), u))
	return u.ID
}

func insertDetails(t *testing.T, repo Repository, organizerID uuid.UUID) EventDetails {
	t.Helper()
	details, err := NewEventDetails(EventDetails{
		OrganizerID: organizerID,
		Name:        "meeting",
		Visibility:  VisibilityPublic,
	})
	require.NoError(t, err)
	require.NoError(t, repo.StoreEventDetails(context.Background(), details))
	return details
}

func TestEventRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and reads back a single event", func(t *testing.T) {
		db := test_utils.SetupTestDB(t)
		repo := NewEventRepo(db)
		userID := insertUser(t, db)
		details := insertDetails(t, repo, userID)

		stored, err := NewEvent(Event{
			UserID:         userID,
			EventDetailsID: details.ID,
			StartDate:      date("2022-10-18T05:00:00"),
			EndDate:        date("2022-10-18T06:00:00"),
			Duration:       time.Hour,
			Type:           TypeSingle,
		})
		require.NoError(t, err)
		require.NoError(t, repo.StoreEvent(ctx, stored))

		found, err := repo.FindEventByID(ctx, stored.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, stored, *found)
	})

	t.Run("round-trips the recurrence", func(t *testing.T) {
		db := test_utils.SetupTestDB(t)
		repo := NewEventRepo(db)
		userID := insertUser(t, db)
		details := insertDetails(t, repo, userID)

		stored, err := NewEvent(Event{
			UserID:         userID,
			EventDetailsID: details.ID,
			StartDate:      date("2022-10-18T05:00:00"),
			EndDate:        date("2022-11-18T06:00:00"),
			Duration:       time.Hour,
			Type:           TypeRecurring,
			Recurrence:     &Recurrence{Frequency: FrequencyWeekly, EndDate: date("2022-11-18T06:00:00")},
		})
		require.NoError(t, err)
		require.NoError(t, repo.StoreEvent(ctx, stored))

		found, err := repo.FindEventByID(ctx, stored.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		require.NotNil(t, found.Recurrence)
		assert.Equal(t, FrequencyWeekly, found.Recurrence.Frequency)
		assert.Equal(t, date("2022-11-18T06:00:00"), found.Recurrence.EndDate)
	})

	t.Run("missing event reads as nil", func(t *testing.T) {
		db := test_utils.SetupTestDB(t)
		repo := NewEventRepo(db)

		found, err := repo.FindEventByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)

		details, err := repo.FindEventDetailsByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, details)
	})

	t.Run("reads back event details", func(t *testing.T) {
		db := test_utils.SetupTestDB(t)
		repo := NewEventRepo(db)
		userID := insertUser(t, db)
		details := insertDetails(t, repo, userID)

		found, err := repo.FindEventDetailsByID(ctx, details.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, details, *found)
	})

	t.Run("updates the event status", func(t *testing.T) {
		db := test_utils.SetupTestDB(t)
		repo := NewEventRepo(db)
		userID := insertUser(t, db)
		details := insertDetails(t, repo, userID)

		stored, err := NewEvent(Event{
			UserID:         userID,
			EventDetailsID: details.ID,
			StartDate:      date("2022-10-18T05:00:00"),
			EndDate:        date("2022-10-18T06:00:00"),
			Duration:       time.Hour,
			Type:           TypeSingle,
		})
		require.NoError(t, err)
		require.NoError(t, repo.StoreEvent(ctx, stored))

		require.NoError(t, repo.UpdateEventStatus(ctx, stored.Accept()))
		found, err := repo.FindEventByID(ctx, stored.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusAccepted, found.Status)
	})

	t.Run("updating a missing event reports not found", func(t *testing.T) {
		db := test_utils.SetupTestDB(t)
		repo := NewEventRepo(db)

		err := repo.UpdateEventStatus(ctx, Event{ID: uuid.New(), Status: StatusAccepted})
		assert.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("finds events by details id", func(t *testing.T) {
		db := test_utils.SetupTestDB(t)
		repo := NewEventRepo(db)
		aliceID := insertUser(t, db)
		bobID := insertUser(t, db)
		details := insertDetails(t, repo, aliceID)

		for _, userID := range []uuid.UUID{aliceID, bobID} {
			e, err := NewEvent(Event{
				UserID:         userID,
				EventDetailsID: details.ID,
				StartDate:      date("2022-10-18T05:00:00"),
				EndDate:        date("2022-10-18T06:00:00"),
				Duration:       time.Hour,
				Type:           TypeSingle,
			})
			require.NoError(t, err)
			require.NoError(t, repo.StoreEvent(ctx, e))
		}

		events, err := repo.FindEventsByDetailsID(ctx, details.ID)
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("window query picks single events by start or end", func(t *testing.T) {
		db := test_utils.SetupTestDB(t)
		repo := NewEventRepo(db)
		userID := insertUser(t, db)
		details := insertDetails(t, repo, userID)

		store := func(start, end string) Event {
			e, err := NewEvent(Event{
				UserID:         userID,
				EventDetailsID: details.ID,
				StartDate:      date(start),
				EndDate:        date(end),
				Duration:       time.Hour,
				Type:           TypeSingle,
			})
			require.NoError(t, err)
			require.NoError(t, repo.StoreEvent(ctx, e))
			return e
		}

		inside := store("2022-10-18T05:00:00", "2022-10-18T06:00:00")
		endsInside := store("2022-10-17T23:30:00", "2022-10-18T00:30:00")
		before := store("2022-10-10T05:00:00", "2022-10-10T06:00:00")
		after := store("2022-10-25T05:00:00", "2022-10-25T06:00:00")

		events, err := repo.FindSingleEvents(ctx, userID, date("2022-10-18T00:00:00"), date("2022-10-19T00:00:00"))
		require.NoError(t, err)
		ids := make([]uuid.UUID, 0, len(events))
		for _, e := range events {
			ids = append(ids, e.ID)
		}
		assert.ElementsMatch(t, []uuid.UUID{inside.ID, endsInside.ID}, ids)
		assert.NotContains(t, ids, before.ID)
		assert.NotContains(t, ids, after.ID)
	})

	t.Run("recurring query skips series that already ended", func(t *testing.T) {
		db := test_utils.SetupTestDB(t)
		repo := NewEventRepo(db)
		userID := insertUser(t, db)
		details := insertDetails(t, repo, userID)

		storeRecurring := func(start, seriesEnd string) Event {
			e, err := NewEvent(Event{
				UserID:         userID,
				EventDetailsID: details.ID,
				StartDate:      date(start),
				EndDate:        date(seriesEnd),
				Duration:       time.Hour,
				Type:           TypeRecurring,
				Recurrence:     &Recurrence{Frequency: FrequencyDaily, EndDate: date(seriesEnd)},
			})
			require.NoError(t, err)
			require.NoError(t, repo.StoreEvent(ctx, e))
			return e
		}

		active := storeRecurring("2022-10-01T05:00:00", "2022-12-01T06:00:00")
		ended := storeRecurring("2022-09-01T05:00:00", "2022-09-15T06:00:00")

		events, err := repo.FindRecurringEvents(ctx, userID, date("2022-10-18T00:00:00"))
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, active.ID, events[0].ID)
		assert.NotEqual(t, ended.ID, events[0].ID)
	})

	t.Run("a failing transaction leaves no rows behind", func(t *testing.T) {
		db := test_utils.SetupTestDB(t)
		repo := NewEventRepo(db)
		userID := insertUser(t, db)

		details, err := NewEventDetails(EventDetails{
			OrganizerID: userID,
			Name:        "doomed",
			Visibility:  VisibilityPublic,
		})
		require.NoError(t, err)
		e, err := NewEvent(Event{
			UserID:         userID,
			EventDetailsID: details.ID,
			StartDate:      date("2022-10-18T05:00:00"),
			EndDate:        date("2022-10-18T06:00:00"),
			Duration:       time.Hour,
			Type:           TypeSingle,
		})
		require.NoError(t, err)

		boom := errors.New("boom")
		err = repo.WithTransaction(ctx, func(txRepo Repository) error {
			if err := txRepo.StoreEventDetails(ctx, details); err != nil {
				return err
			}
			if err := txRepo.StoreEvent(ctx, e); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		found, err := repo.FindEventByID(ctx, e.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
		foundDetails, err := repo.FindEventDetailsByID(ctx, details.ID)
		require.NoError(t, err)
		assert.Nil(t, foundDetails)
	})

	t.Run("a committed transaction is fully visible", func(t *testing.T) {
		db := test_utils.SetupTestDB(t)
		repo := NewEventRepo(db)
		userID := insertUser(t, db)

		details, err := NewEventDetails(EventDetails{
			OrganizerID: userID,
			Name:        "kept",
			Visibility:  VisibilityPublic,
		})
		require.NoError(t, err)
		e, err := NewEvent(Event{
			UserID:         userID,
			EventDetailsID: details.ID,
			StartDate:      date("2022-10-18T05:00:00"),
			EndDate:        date("2022-10-18T06:00:00"),
			Duration:       time.Hour,
			Type:           TypeSingle,
		})
		require.NoError(t, err)

		err = repo.WithTransaction(ctx, func(txRepo Repository) error {
			if err := txRepo.StoreEventDetails(ctx, details); err != nil {
				return err
			}
			return txRepo.StoreEvent(ctx, e)
		})
		require.NoError(t, err)

		found, err := repo.FindEventByID(ctx, e.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, e, *found)
	})
}
