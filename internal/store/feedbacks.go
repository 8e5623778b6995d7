package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Feedback is one entry of the append-only feedback log. Rows are never
// updated or deleted. SentimentScore is computed from Description at
// submission time and stored alongside the entry.
type Feedback struct {
	ID             string    `json:"id"`
	RefCode        string    `json:"ref_code"`
	UserID         int64     `json:"user_id"`
	EventID        int64     `json:"event_id"`
	Rating         int       `json:"rating"` // 1-5
	Description    string    `json:"description"`
	Improvement    string    `json:"improvement,omitempty"`
	SentimentScore float64   `json:"sentiment_score"`
	CreatedAt      time.Time `json:"created_at"`
}

type FeedbackStore struct {
	db *pgxpool.Pool
}

func (s *FeedbackStore) Create(ctx context.Context, feedback *Feedback) error {
	query := `
        INSERT INTO feedbacks (id, ref_code, user_id, event_id, rating, description, improvement, sentiment_score, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, query,
		feedback.ID,
		feedback.RefCode,
		feedback.UserID,
		feedback.EventID,
		feedback.Rating,
		feedback.Description,
		feedback.Improvement,
		feedback.SentimentScore,
		feedback.CreatedAt,
	)
	return err
}

func (s *FeedbackStore) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Feedback, error) {
	query := `
        SELECT id, ref_code, user_id, event_id, rating, description, improvement, sentiment_score, created_at
        FROM feedbacks
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFeedbacks(rows)
}

func (s *FeedbackStore) CountByUser(ctx context.Context, userID int64) (int, error) {
	query := `
        SELECT COUNT(*)
        FROM feedbacks
        WHERE user_id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	err := s.db.QueryRow(ctx, query, userID).Scan(&total)
	return total, err
}

// ListByInstitution returns the full feedback log for every event of the
// institution, in append order. Aggregation happens in the analytics package
// on every call; nothing is cached or maintained incrementally.
func (s *FeedbackStore) ListByInstitution(ctx context.Context, institutionID int64) ([]Feedback, error) {
	query := `
        SELECT f.id, f.ref_code, f.user_id, f.event_id, f.rating, f.description, f.improvement, f.sentiment_score, f.created_at
        FROM feedbacks f
        JOIN events e ON e.id = f.event_id
        WHERE e.institution_id = $1
        ORDER BY f.created_at
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFeedbacks(rows)
}

func scanFeedbacks(rows pgx.Rows) ([]Feedback, error) {
	var feedbacks []Feedback
	for rows.Next() {
		var f Feedback
		err := rows.Scan(
			&f.ID,
			&f.RefCode,
			&f.UserID,
			&f.EventID,
			&f.Rating,
			&f.Description,
			&f.Improvement,
			&f.SentimentScore,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		feedbacks = append(feedbacks, f)
	}
	return feedbacks, rows.Err()
}
