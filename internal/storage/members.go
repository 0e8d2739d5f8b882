// internal/storage/members.go
package storage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"choir-dashboard/internal/model"
)

func (s *Storage) GetMember(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	query := s.rebind(`
		SELECT id, name, email, voice_part, locality, role, choir_id, created_at
		FROM members
		WHERE id = ?
	`)

	var m model.Member
	err := s.read(ctx, "get member", func(ctx context.Context) error {
		var name, email, voice, locality sql.NullString
		var choir uuid.NullUUID
		err := s.DB.QueryRowContext(ctx, query, id).Scan(
			&m.ID, &name, &email, &voice, &locality, &m.Role, &choir, scanTime(&m.CreatedAt),
		)
		if err != nil {
			return err
		}
		m.Name, m.Email, m.VoicePart, m.Locality = name.String, email.String, voice.String, locality.String
		m.ChoirID = nil
		if choir.Valid {
			id := choir.UUID
			m.ChoirID = &id
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpsertMember writes a membership record. Registration and profile edits
// live outside this service; this is used for seeding and tests.
func (s *Storage) UpsertMember(ctx context.Context, m *model.Member) error {
	query := s.rebind(`
		INSERT INTO members (id, name, email, voice_part, locality, role, choir_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			voice_part = excluded.voice_part,
			locality = excluded.locality,
			role = excluded.role,
			choir_id = excluded.choir_id
	`)
	var choir uuid.NullUUID
	if m.ChoirID != nil {
		choir = uuid.NullUUID{UUID: *m.ChoirID, Valid: true}
	}
	return s.write(ctx, "upsert member", func(ctx context.Context) error {
		_, err := s.DB.ExecContext(ctx, query,
			m.ID,
			nullString(m.Name),
			nullString(m.Email),
			nullString(m.VoicePart),
			nullString(m.Locality),
			m.Role,
			choir,
			m.CreatedAt,
		)
		return err
	})
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
