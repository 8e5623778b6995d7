package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is part of the seeded catalog. There is no write path; events never
// change at runtime.
type Event struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	InstitutionID int64     `json:"institution_id"`
	Kind          string    `json:"kind"` // school or college
	Date          time.Time `json:"date"`
}

type EventsStore struct {
	db *pgxpool.Pool
}

func (s *EventsStore) GetByID(ctx context.Context, eventID int64) (*Event, error) {
	query := `
        SELECT id, name, institution_id, kind, event_date
        FROM events
        WHERE id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var event Event
	err := s.db.QueryRow(ctx, query, eventID).Scan(
		&event.ID,
		&event.Name,
		&event.InstitutionID,
		&event.Kind,
		&event.Date,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// ListByInstitution returns the institution's events in catalog order. An
// empty kind matches both school and college events.
func (s *EventsStore) ListByInstitution(ctx context.Context, institutionID int64, kind string) ([]Event, error) {
	query := `
        SELECT id, name, institution_id, kind, event_date
        FROM events
        WHERE institution_id = $1 AND ($2 = '' OR kind = $2)
        ORDER BY id
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, institutionID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		err := rows.Scan(
			&event.ID,
			&event.Name,
			&event.InstitutionID,
			&event.Kind,
			&event.Date,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
