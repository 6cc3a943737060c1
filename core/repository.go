package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the pgx surface the repositories need. *pgxpool.Pool satisfies it,
// and so does pgxmock's pool in tests.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgDirectory implements Directory against a Postgres employees table.
type PgDirectory struct {
	db DBTX
}

func NewPgDirectory(db DBTX) *PgDirectory {
	return &PgDirectory{db: db}
}

func (d *PgDirectory) FindEmployee(ctx context.Context, username string) (EmployeeRecord, error) {
	rows, err := d.db.Query(ctx, fmt.Sprintf(employeeQuery, "$1"), username)
	if err != nil {
		return EmployeeRecord{}, fmt.Errorf("query employee: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return EmployeeRecord{}, fmt.Errorf("query employee: %w", err)
		}
		return EmployeeRecord{}, ErrUnknownUser
	}

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	cells, err := rows.Values()
	if err != nil {
		return EmployeeRecord{}, fmt.Errorf("read employee row: %w", err)
	}
	cols, err := ZipColumns(names, cells)
	if err != nil {
		return EmployeeRecord{}, err
	}
	return EmployeeFromRow(cols)
}

// CredentialRepository stores password hashes for the local provider.
type CredentialRepository interface {
	FindHash(ctx context.Context, username string) (string, error)
	SetHash(ctx context.Context, username, hash string) error
	HasCredential(ctx context.Context, username string) (bool, error)
}

// PgCredentialRepository implements CredentialRepository using pgx.
type PgCredentialRepository struct {
	db DBTX
}

func NewPgCredentialRepository(db DBTX) *PgCredentialRepository {
	return &PgCredentialRepository{db: db}
}

func (r *PgCredentialRepository) FindHash(ctx context.Context, username string) (string, error) {
	const q = `SELECT password_hash FROM employee_credentials WHERE username=$1`
	var hash string
	if err := r.db.QueryRow(ctx, q, username).Scan(&hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return hash, nil
}

func (r *PgCredentialRepository) SetHash(ctx context.Context, username, hash string) error {
	const q = `
INSERT INTO employee_credentials (username, password_hash) VALUES ($1,$2)
ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = now()
`
	_, err := r.db.Exec(ctx, q, username, hash)
	return err
}

func (r *PgCredentialRepository) HasCredential(ctx context.Context, username string) (bool, error) {
	const q = `SELECT 1 FROM employee_credentials WHERE username=$1`
	var one int
	if err := r.db.QueryRow(ctx, q, username).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
