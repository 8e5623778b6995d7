package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type Account struct {
	ID            int64    `json:"id"`
	Username      string   `json:"username"`
	Password      password `json:"-"`
	FullName      string   `json:"full_name"`
	Email         string   `json:"email"`
	MobileNumber  string   `json:"-"` // never sent to clients
	InstitutionID int64    `json:"institution_id"`
	Role          string   `json:"role"` // student or admin

	// Joined from institutions
	InstitutionName string `json:"institution_name"`
	InstitutionKind string `json:"institution_kind"`

	RefreshToken     string    `json:"-"`
	ResetCodeHash    string    `json:"-"`
	ResetCodeExpires time.Time `json:"-"`
	ResetVerified    bool      `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// password keeps the bcrypt hash next to the plaintext it was derived from so
// handlers can hash once and compare later without re-reading the row.
type password struct {
	text *string
	hash []byte
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.text = &text
	p.hash = hash
	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

func (p *password) Hash() []byte {
	return p.hash
}

// SetHash installs an already computed hash, used when loading stored rows.
func (p *password) SetHash(hash []byte) {
	p.hash = hash
}

type AccountsStore struct {
	db *pgxpool.Pool
}

func (s *AccountsStore) Create(ctx context.Context, account *Account) error {
	query := `
        INSERT INTO accounts (username, password_hash, full_name, email, mobile_number, institution_id, role)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		account.Username,
		account.Password.hash,
		account.FullName,
		account.Email,
		account.MobileNumber,
		account.InstitutionID,
		account.Role,
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

const accountColumns = `
        a.id, a.username, a.password_hash, a.full_name, a.email, a.mobile_number,
        a.institution_id, i.name, i.kind, a.role, a.refresh_token,
        a.reset_code_hash, a.reset_code_expires, a.reset_verified, a.created_at
`

func (s *AccountsStore) GetByID(ctx context.Context, accountID int64) (*Account, error) {
	query := `
        SELECT ` + accountColumns + `
        FROM accounts a
        JOIN institutions i ON i.id = a.institution_id
        WHERE a.id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.scanAccount(s.db.QueryRow(ctx, query, accountID))
}

func (s *AccountsStore) GetByUsername(ctx context.Context, username string) (*Account, error) {
	query := `
        SELECT ` + accountColumns + `
        FROM accounts a
        JOIN institutions i ON i.id = a.institution_id
        WHERE a.username = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.scanAccount(s.db.QueryRow(ctx, query, username))
}

func (s *AccountsStore) scanAccount(row pgx.Row) (*Account, error) {
	var account Account
	var resetExpires *time.Time
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Password.hash,
		&account.FullName,
		&account.Email,
		&account.MobileNumber,
		&account.InstitutionID,
		&account.InstitutionName,
		&account.InstitutionKind,
		&account.Role,
		&account.RefreshToken,
		&account.ResetCodeHash,
		&resetExpires,
		&account.ResetVerified,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if resetExpires != nil {
		account.ResetCodeExpires = *resetExpires
	}
	return &account, nil
}

func (s *AccountsStore) UpdatePassword(ctx context.Context, accountID int64, hash []byte) error {
	query := `
        UPDATE accounts
        SET password_hash = $2, updated_at = now()
        WHERE id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.exec(ctx, query, accountID, hash)
}

func (s *AccountsStore) SaveRefreshToken(ctx context.Context, accountID int64, token string) error {
	query := `
        UPDATE accounts
        SET refresh_token = $2, updated_at = now()
        WHERE id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.exec(ctx, query, accountID, token)
}

func (s *AccountsStore) GetRefreshToken(ctx context.Context, accountID int64) (string, error) {
	query := `
        SELECT refresh_token
        FROM accounts
        WHERE id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var token string
	err := s.db.QueryRow(ctx, query, accountID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return token, nil
}

func (s *AccountsStore) DeleteRefreshToken(ctx context.Context, accountID int64) error {
	query := `
        UPDATE accounts
        SET refresh_token = '', updated_at = now()
        WHERE id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.exec(ctx, query, accountID)
}

func (s *AccountsStore) SetResetCode(ctx context.Context, accountID int64, codeHash string, expires time.Time) error {
	query := `
        UPDATE accounts
        SET reset_code_hash = $2, reset_code_expires = $3, reset_verified = false, updated_at = now()
        WHERE id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.exec(ctx, query, accountID, codeHash, expires)
}

func (s *AccountsStore) MarkResetVerified(ctx context.Context, accountID int64) error {
	query := `
        UPDATE accounts
        SET reset_verified = true, updated_at = now()
        WHERE id = $1 AND reset_code_hash <> ''
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.exec(ctx, query, accountID)
}

func (s *AccountsStore) ClearReset(ctx context.Context, accountID int64) error {
	query := `
        UPDATE accounts
        SET reset_code_hash = '', reset_code_expires = NULL, reset_verified = false, updated_at = now()
        WHERE id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.exec(ctx, query, accountID)
}

func (s *AccountsStore) exec(ctx context.Context, query string, args ...any) error {
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
