package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	StoreEventDetails(ctx context.Context, details EventDetails) error
	StoreEvent(ctx context.Context, event Event) error
	UpdateEventStatus(ctx context.Context, event Event) error
	FindEventByID(ctx context.Context, id uuid.UUID) (*Event, error)
	FindEventDetailsByID(ctx context.Context, id uuid.UUID) (*EventDetails, error)
	FindEventsByDetailsID(ctx context.Context, detailsID uuid.UUID) ([]Event, error)
	FindSingleEvents(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Event, error)
	FindRecurringEvents(ctx context.Context, userID uuid.UUID, from time.Time) ([]Event, error)
}

type RepositoryImpl struct {
	db *sql.DB
	tx *sql.Tx
}

func NewEventRepo(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db, tx: nil}
}

// getQueryer returns the appropriate database interface for queries (either tx or db)
func (r *RepositoryImpl) getQueryer() interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// WithTransaction runs fn against a repository bound to a single database
// transaction. The transaction is rolled back when fn returns an error, so a
// multi-row write is either fully visible or not at all.
func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// The Rollback will be a no-op if the transaction was already committed
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	txRepo := &RepositoryImpl{db: r.db, tx: tx}
	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) StoreEventDetails(ctx context.Context, details EventDetails) error {
	query := `INSERT INTO event_details (id, organizer_id, name, visibility, description)
              VALUES (?, ?, ?, ?, ?)`
	_, err := r.getQueryer().ExecContext(ctx, query,
		details.ID.String(),
		details.OrganizerID.String(),
		details.Name,
		string(details.Visibility),
		details.Description,
	)
	if err != nil {
		err := fmt.Errorf("could not insert event details: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) StoreEvent(ctx context.Context, event Event) error {
	query := `INSERT INTO event (id, user_id, event_details_id, status, start_date, end_date, duration_ms, type,
                                 recurrence_frequency, recurrence_end_date)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var frequency *string
	var recurrenceEnd *int64
	if event.Recurrence != nil {
		f := string(event.Recurrence.Frequency)
		frequency = &f
		end := event.Recurrence.EndDate.UnixMilli()
		recurrenceEnd = &end
	}
	_, err := r.getQueryer().ExecContext(ctx, query,
		event.ID.String(),
		event.UserID.String(),
		event.EventDetailsID.String(),
		string(event.Status),
		event.StartDate.UnixMilli(),
		event.EndDate.UnixMilli(),
		event.Duration.Milliseconds(),
		string(event.Type),
		frequency,
		recurrenceEnd,
	)
	if err != nil {
		err := fmt.Errorf("could not insert event: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) UpdateEventStatus(ctx context.Context, event Event) error {
	query := "UPDATE event SET status = ? WHERE id = ?"
	result, err := r.getQueryer().ExecContext(ctx, query, string(event.Status), event.ID.String())
	if err != nil {
		err := fmt.Errorf("could not update event status: %w", err)
		log.Error(err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *RepositoryImpl) FindEventByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	query := selectEvent + " WHERE id = ?"
	rows, err := r.getQueryer().QueryContext(ctx, query, id.String())
	if err != nil {
		err := fmt.Errorf("could not query event: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()
	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

func (r *RepositoryImpl) FindEventDetailsByID(ctx context.Context, id uuid.UUID) (*EventDetails, error) {
	query := "SELECT id, organizer_id, name, visibility, description FROM event_details WHERE id = ?"
	row := r.getQueryer().QueryRowContext(ctx, query, id.String())

	var details EventDetails
	var rawID, rawOrganizerID string
	var description sql.NullString
	err := row.Scan(&rawID, &rawOrganizerID, &details.Name, &details.Visibility, &description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		err := fmt.Errorf("could not scan event details: %w", err)
		log.Error(err)
		return nil, err
	}
	if details.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("invalid event details id in database: %w", err)
	}
	if details.OrganizerID, err = uuid.Parse(rawOrganizerID); err != nil {
		return nil, fmt.Errorf("invalid organizer id in database: %w", err)
	}
	if description.Valid {
		details.Description = description.String
	}
	return &details, nil
}

func (r *RepositoryImpl) FindEventsByDetailsID(ctx context.Context, detailsID uuid.UUID) ([]Event, error) {
	query := selectEvent + " WHERE event_details_id = ?"
	rows, err := r.getQueryer().QueryContext(ctx, query, detailsID.String())
	if err != nil {
		err := fmt.Errorf("could not query events by details id: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// FindSingleEvents returns the user's SINGLE events that have the start or
// the end inside the window.
func (r *RepositoryImpl) FindSingleEvents(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Event, error) {
	query := selectEvent + ` WHERE user_id = ?
                AND type = ?
                AND ((start_date BETWEEN ? AND ?) OR (end_date BETWEEN ? AND ?))
              ORDER BY start_date`
	rows, err := r.getQueryer().QueryContext(ctx, query,
		userID.String(), string(TypeSingle),
		from.UnixMilli(), to.UnixMilli(), from.UnixMilli(), to.UnixMilli())
	if err != nil {
		err := fmt.Errorf("could not query single events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// FindRecurringEvents returns the user's RECURRING series anchors whose
// series end has not passed before from.
func (r *RepositoryImpl) FindRecurringEvents(ctx context.Context, userID uuid.UUID, from time.Time) ([]Event, error) {
	query := selectEvent + ` WHERE user_id = ?
                AND type = ?
                AND end_date >= ?
              ORDER BY start_date`
	rows, err := r.getQueryer().QueryContext(ctx, query,
		userID.String(), string(TypeRecurring), from.UnixMilli())
	if err != nil {
		err := fmt.Errorf("could not query recurring events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

const selectEvent = `SELECT id, user_id, event_details_id, status, start_date, end_date, duration_ms, type,
                            recurrence_frequency, recurrence_end_date
                     FROM event`

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		var rawID, rawUserID, rawDetailsID string
		var startMilli, endMilli, durationMilli int64
		var frequency sql.NullString
		var recurrenceEnd sql.NullInt64
		err := rows.Scan(&rawID, &rawUserID, &rawDetailsID, &e.Status, &startMilli, &endMilli, &durationMilli,
			&e.Type, &frequency, &recurrenceEnd)
		if err != nil {
			err := fmt.Errorf("could not scan event row: %w", err)
			log.Error(err)
			return nil, err
		}
		if e.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("invalid event id in database: %w", err)
		}
		if e.UserID, err = uuid.Parse(rawUserID); err != nil {
			return nil, fmt.Errorf("invalid user id in database: %w", err)
		}
		if e.EventDetailsID, err = uuid.Parse(rawDetailsID); err != nil {
			return nil, fmt.Errorf("invalid event details id in database: %w", err)
		}
		e.StartDate = time.UnixMilli(startMilli).UTC()
		e.EndDate = time.UnixMilli(endMilli).UTC()
		e.Duration = time.Duration(durationMilli) * time.Millisecond
		if frequency.Valid {
			e.Recurrence = &Recurrence{
				Frequency: Frequency(frequency.String),
				EndDate:   time.UnixMilli(recurrenceEnd.Int64).UTC(),
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
