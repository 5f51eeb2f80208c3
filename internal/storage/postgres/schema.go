package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id               BIGSERIAL PRIMARY KEY,
		email            TEXT NOT NULL UNIQUE,
		password_hash    TEXT NOT NULL,
		full_name        TEXT NOT NULL DEFAULT '',
		role             TEXT NOT NULL CHECK (role IN ('job_seeker', 'employer', 'admin')),
		telegram_chat_id BIGINT UNIQUE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS companies (
		id          BIGSERIAL PRIMARY KEY,
		owner_id    BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id          BIGSERIAL PRIMARY KEY,
		company_id  BIGINT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		category_id BIGINT NOT NULL REFERENCES categories(id),
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		location    TEXT NOT NULL,
		job_type    TEXT NOT NULL CHECK (job_type IN ('full_time', 'part_time', 'contract', 'remote')),
		salary_min  INTEGER,
		salary_max  INTEGER,
		deadline    DATE NOT NULL,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS jobs_active_created_idx ON jobs (is_active, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id           BIGSERIAL PRIMARY KEY,
		job_id       BIGINT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		applicant_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		cover_letter TEXT NOT NULL DEFAULT '',
		note         TEXT,
		resume_url   TEXT NOT NULL,
		resume_key   TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected')),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (job_id, applicant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS saved_jobs (
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		job_id     BIGINT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, job_id)
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id      BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		full_name    TEXT,
		title        TEXT,
		bio          TEXT,
		skills       TEXT[] NOT NULL DEFAULT '{}',
		experience   JSONB NOT NULL DEFAULT '[]',
		education    JSONB NOT NULL DEFAULT '[]',
		location     TEXT,
		linkedin_url TEXT,
		github_url   TEXT,
		website      TEXT,
		resume_url   TEXT,
		resume_key   TEXT,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

var defaultCategories = []string{
	"Engineering",
	"Design",
	"Marketing",
	"Sales",
	"Customer Support",
	"Finance",
	"Operations",
}

// Migrate creates the schema and seeds the default categories
func (s *Store) Migrate(ctx context.Context) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.RollbackUnlessCommitted()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			s.logger.Error("failed to apply schema statement", zap.Error(err))
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	for _, name := range defaultCategories {
		_, err := tx.
			InsertBySql(`INSERT INTO categories (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name).
			ExecContext(ctx)
		if err != nil {
			s.logger.Error("failed to seed category",
				zap.String("category", name),
				zap.Error(err),
			)
			return fmt.Errorf("seed categories: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}

	s.logger.Info("schema migrated", zap.Int("statements", len(schema)))
	return nil
}
