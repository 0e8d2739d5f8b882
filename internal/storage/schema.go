// internal/storage/schema.go
package storage

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id UUID PRIMARY KEY,
		name TEXT,
		email TEXT,
		voice_part TEXT,
		locality TEXT,
		role TEXT NOT NULL CHECK (role IN ('member', 'director', 'admin')),
		choir_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS concerts (
		id UUID PRIMARY KEY,
		choir_id UUID NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		venue TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		repertoire JSONB NOT NULL DEFAULT '[]',
		is_cancelled BOOLEAN NOT NULL DEFAULT FALSE,
		scheduled_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS concerts_choir_created_idx ON concerts (choir_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS concert_attendance (
		concert_id UUID NOT NULL REFERENCES concerts (id),
		member_id UUID NOT NULL,
		attending BOOLEAN NOT NULL,
		responded_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (concert_id, member_id)
	)`,
	`CREATE TABLE IF NOT EXISTS choir_configuration (
		choir_id UUID PRIMARY KEY,
		theme_color TEXT NOT NULL,
		logo_url TEXT NOT NULL DEFAULT '',
		revision BIGINT NOT NULL DEFAULT 1,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		name TEXT,
		email TEXT,
		voice_part TEXT,
		locality TEXT,
		role TEXT NOT NULL CHECK (role IN ('member', 'director', 'admin')),
		choir_id TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS concerts (
		id TEXT PRIMARY KEY,
		choir_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		venue TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		repertoire TEXT NOT NULL DEFAULT '[]',
		is_cancelled BOOLEAN NOT NULL DEFAULT 0,
		scheduled_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS concerts_choir_created_idx ON concerts (choir_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS concert_attendance (
		concert_id TEXT NOT NULL REFERENCES concerts (id),
		member_id TEXT NOT NULL,
		attending BOOLEAN NOT NULL,
		responded_at TIMESTAMP NOT NULL,
		PRIMARY KEY (concert_id, member_id)
	)`,
	`CREATE TABLE IF NOT EXISTS choir_configuration (
		choir_id TEXT PRIMARY KEY,
		theme_color TEXT NOT NULL,
		logo_url TEXT NOT NULL DEFAULT '',
		revision INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// Migrate creates the tables when they do not exist yet.
func (s *Storage) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if s.dialect == SQLite {
		schema = sqliteSchema
	}
	for _, stmt := range schema {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
