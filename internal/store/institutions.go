package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Institution is a school or college tenant. The catalog is seeded at startup
// and immutable at runtime.
type Institution struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"` // school or college
}

type InstitutionsStore struct {
	db *pgxpool.Pool
}

func (s *InstitutionsStore) List(ctx context.Context) ([]Institution, error) {
	query := `
        SELECT id, name, kind
        FROM institutions
        ORDER BY id
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var institutions []Institution
	for rows.Next() {
		var inst Institution
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.Kind); err != nil {
			return nil, err
		}
		institutions = append(institutions, inst)
	}
	return institutions, rows.Err()
}

func (s *InstitutionsStore) GetByID(ctx context.Context, institutionID int64) (*Institution, error) {
	query := `
        SELECT id, name, kind
        FROM institutions
        WHERE id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var inst Institution
	err := s.db.QueryRow(ctx, query, institutionID).Scan(&inst.ID, &inst.Name, &inst.Kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inst, nil
}
