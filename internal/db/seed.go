package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type seedInstitution struct {
	id   int64
	name string
	kind string
}

type seedEvent struct {
	id            int64
	name          string
	institutionID int64
	kind          string
	date          string
}

type seedAccount struct {
	username      string
	password      string
	fullName      string
	email         string
	mobileNumber  string
	institutionID int64
	role          string
}

var seedInstitutions = []seedInstitution{
	{1, "Springfield High School", "school"},
	{2, "Riverside Academy", "school"},
	{3, "State University", "college"},
	{4, "City College", "college"},
}

var seedEvents = []seedEvent{
	{1, "Annual Sports Day", 1, "school", "2025-06-15"},
	{2, "Science Fair", 1, "school", "2025-07-20"},
	{3, "College Fest", 3, "college", "2025-08-10"},
}

var seedAccounts = []seedAccount{
	{"student1", "password", "John Doe", "john@example.com", "1234567890", 1, "student"},
	{"college_student1", "password", "Jane Smith", "jane@example.com", "0987654321", 3, "student"},
	{"admin1", "admin123", "Admin User", "admin@school.com", "5555555555", 1, "admin"},
	{"college_admin1", "admin123", "College Admin", "admin@college.com", "6666666666", 3, "admin"},
}

// Seed loads the fixed institution and event catalogs plus the demo accounts.
// Inserts are conflict-free so a populated database is left untouched.
func Seed(ctx context.Context, db *pgxpool.Pool) error {
	for _, inst := range seedInstitutions {
		_, err := db.Exec(ctx, `
			INSERT INTO institutions (id, name, kind)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO NOTHING
		`, inst.id, inst.name, inst.kind)
		if err != nil {
			return fmt.Errorf("seed institutions: %w", err)
		}
	}

	for _, event := range seedEvents {
		_, err := db.Exec(ctx, `
			INSERT INTO events (id, name, institution_id, kind, event_date)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`, event.id, event.name, event.institutionID, event.kind, event.date)
		if err != nil {
			return fmt.Errorf("seed events: %w", err)
		}
	}

	for _, account := range seedAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(account.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("seed accounts: %w", err)
		}
		_, err = db.Exec(ctx, `
			INSERT INTO accounts (username, password_hash, full_name, email, mobile_number, institution_id, role)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (username) DO NOTHING
		`, account.username, hash, account.fullName, account.email, account.mobileNumber, account.institutionID, account.role)
		if err != nil {
			return fmt.Errorf("seed accounts: %w", err)
		}
	}

	// Keep the sequences ahead of the explicitly numbered seed rows.
	for _, stmt := range []string{
		`SELECT setval('institutions_id_seq', (SELECT MAX(id) FROM institutions))`,
		`SELECT setval('events_id_seq', (SELECT MAX(id) FROM events))`,
	} {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("seed sequences: %w", err)
		}
	}

	return nil
}
