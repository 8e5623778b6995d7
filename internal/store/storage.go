package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicateUsername = errors.New("an account with that username already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Institutions interface {
		List(context.Context) ([]Institution, error)
		GetByID(context.Context, int64) (*Institution, error)
	}
	Accounts interface {
		Create(context.Context, *Account) error
		GetByID(context.Context, int64) (*Account, error)
		GetByUsername(context.Context, string) (*Account, error)
		UpdatePassword(ctx context.Context, accountID int64, hash []byte) error
		SaveRefreshToken(ctx context.Context, accountID int64, token string) error
		GetRefreshToken(ctx context.Context, accountID int64) (string, error)
		DeleteRefreshToken(ctx context.Context, accountID int64) error
		SetResetCode(ctx context.Context, accountID int64, codeHash string, expires time.Time) error
		MarkResetVerified(ctx context.Context, accountID int64) error
		ClearReset(ctx context.Context, accountID int64) error
	}
	Events interface {
		GetByID(context.Context, int64) (*Event, error)
		ListByInstitution(ctx context.Context, institutionID int64, kind string) ([]Event, error)
	}
	Feedbacks interface {
		Create(context.Context, *Feedback) error
		ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Feedback, error)
		CountByUser(ctx context.Context, userID int64) (int, error)
		ListByInstitution(ctx context.Context, institutionID int64) ([]Feedback, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Institutions: &InstitutionsStore{db},
		Accounts:     &AccountsStore{db},
		Events:       &EventsStore{db},
		Feedbacks:    &FeedbackStore{db},
	}
}
