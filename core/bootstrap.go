package core

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS employees (
    employee_id BIGSERIAL PRIMARY KEY,
    username    VARCHAR(100) UNIQUE NOT NULL,
    email       VARCHAR(255) UNIQUE NOT NULL,
    name        VARCHAR(100) NOT NULL,
    department  VARCHAR(100),
    title       VARCHAR(100),
    phone       VARCHAR(50),
    manager_id  BIGINT REFERENCES employees(employee_id),
    hire_date   DATE DEFAULT CURRENT_DATE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS notices (
    id         BIGSERIAL PRIMARY KEY,
    title      VARCHAR(255) NOT NULL,
    content    TEXT,
    author_id  BIGINT NOT NULL REFERENCES employees(employee_id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS approvals (
    id           BIGSERIAL PRIMARY KEY,
    title        VARCHAR(255) NOT NULL,
    content      TEXT,
    status       VARCHAR(50) NOT NULL DEFAULT 'pending',
    requester_id BIGINT NOT NULL REFERENCES employees(employee_id),
    approver_id  BIGINT REFERENCES employees(employee_id),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS employee_credentials (
    username      VARCHAR(100) PRIMARY KEY REFERENCES employees(username),
    password_hash TEXT NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_employees_department ON employees(department)`,
	`CREATE INDEX IF NOT EXISTS idx_notices_created_at ON notices(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_approvals_status ON approvals(status)`,
	`CREATE INDEX IF NOT EXISTS idx_approvals_requester_id ON approvals(requester_id)`,
}

// Seed rows reference each other by username so they stay valid whatever ids
// the sequence hands out.
var seedStatements = []string{
	`INSERT INTO employees (username, email, name, department, title, phone, hire_date) VALUES
    ('ceo', 'ceo@company.com', 'Hong Gildong', 'Executive', 'CEO', '02-1234-5678', '2020-01-01'),
    ('cto', 'cto@company.com', 'Kim Cheolsu', 'Technology', 'CTO', '02-1234-5679', '2020-03-01'),
    ('hr', 'hr@company.com', 'Jeong Suhyeon', 'People', 'Team Lead', '02-1234-5680', '2020-06-01'),
    ('manager1', 'manager1@company.com', 'Lee Younghee', 'Engineering', 'Team Lead', '02-1234-5681', '2021-01-01'),
    ('dev1', 'dev1@company.com', 'Park Minsu', 'Engineering', 'Senior Engineer', '02-1234-5682', '2021-06-01'),
    ('dev2', 'dev2@company.com', 'Choi Jihye', 'Engineering', 'Engineer', '02-1234-5683', '2022-03-01')
ON CONFLICT (username) DO NOTHING`,
	`UPDATE employees e SET manager_id = m.employee_id
FROM (VALUES ('cto','ceo'), ('hr','ceo'), ('manager1','cto'), ('dev1','manager1'), ('dev2','manager1')) AS v(emp, mgr)
JOIN employees m ON m.username = v.mgr
WHERE e.username = v.emp AND e.manager_id IS NULL`,
	`INSERT INTO notices (title, content, author_id)
SELECT v.title, v.content, e.employee_id
FROM (VALUES
    ('System maintenance', 'Maintenance is scheduled today from 18:00 to 20:00.', 'ceo'),
    ('Project kickoff', 'The new project kickoff meeting is next Monday at 10:00.', 'cto'),
    ('Vacation requests', 'Please submit summer vacation requests by Friday.', 'hr')
) AS v(title, content, author)
JOIN employees e ON e.username = v.author
WHERE NOT EXISTS (SELECT 1 FROM notices)`,
	`INSERT INTO approvals (title, content, status, requester_id, approver_id)
SELECT v.title, v.content, v.status, r.employee_id, a.employee_id
FROM (VALUES
    ('Leave request', 'Annual leave from Dec 24 to Dec 26.', 'pending', 'dev1', 'manager1'),
    ('Business trip', 'Customer visit in Busan.', 'approved', 'dev2', 'manager1'),
    ('Training', 'Cloud training attendance.', 'pending', 'dev1', 'cto')
) AS v(title, content, status, requester, approver)
JOIN employees r ON r.username = v.requester
JOIN employees a ON a.username = v.approver
WHERE NOT EXISTS (SELECT 1 FROM approvals)`,
}

// BootstrapSchema creates the portal tables and, when seed is true, inserts the
// sample rows. Every statement is idempotent.
func BootstrapSchema(ctx context.Context, db DBTX, seed bool) error {
	stmts := schemaStatements
	if seed {
		stmts = append(append([]string{}, schemaStatements...), seedStatements...)
	}
	for i, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap statement %d: %w", i, err)
		}
	}
	return nil
}

// BootstrapLocalCredential gives cfg.BootstrapUsername a generated password for
// the local provider when it has none. It does nothing if bootstrap is
// disabled, no username is configured, or a credential already exists.
func BootstrapLocalCredential(ctx context.Context, repo CredentialRepository, cfg Config) error {
	if !cfg.BootstrapEnabled || cfg.BootstrapUsername == "" {
		return nil
	}

	has, err := repo.HasCredential(ctx, cfg.BootstrapUsername)
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	password, err := generatePassword(24)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := repo.SetHash(ctx, cfg.BootstrapUsername, string(hash)); err != nil {
		return err
	}

	if cfg.BootstrapPasswordPath != "" {
		if err := os.WriteFile(cfg.BootstrapPasswordPath, []byte(password+"\n"), 0o600); err != nil {
			return err
		}
		log.Info().Str("username", cfg.BootstrapUsername).Str("path", cfg.BootstrapPasswordPath).Msg("local credential created")
	} else {
		log.Info().Str("username", cfg.BootstrapUsername).Str("password", password).Msg("local credential created")
	}
	return nil
}
