// internal/storage/configuration.go
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"choir-dashboard/internal/model"
)

const configurationColumns = `choir_id, theme_color, logo_url, revision, updated_at`

func (s *Storage) GetConfiguration(ctx context.Context, choirID uuid.UUID) (*model.TenantConfiguration, error) {
	query := s.rebind(`SELECT ` + configurationColumns + ` FROM choir_configuration WHERE choir_id = ?`)

	var c model.TenantConfiguration
	err := s.read(ctx, "get configuration", func(ctx context.Context) error {
		return s.DB.QueryRowContext(ctx, query, choirID).
			Scan(&c.ChoirID, &c.ThemeColor, &c.LogoURL, &c.Revision, scanTime(&c.UpdatedAt))
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertConfiguration creates the row and fails with model.ErrDuplicate when
// another session created it first.
func (s *Storage) InsertConfiguration(ctx context.Context, c model.TenantConfiguration) error {
	query := s.rebind(`INSERT INTO choir_configuration (` + configurationColumns + `) VALUES (?, ?, ?, ?, ?)`)
	return s.write(ctx, "insert configuration", func(ctx context.Context) error {
		_, err := s.DB.ExecContext(ctx, query, c.ChoirID, c.ThemeColor, c.LogoURL, c.Revision, c.UpdatedAt)
		return err
	})
}

// UpsertConfiguration overwrites the branding fields and bumps the revision
// in a single statement. Concurrent saves resolve last-write-wins.
func (s *Storage) UpsertConfiguration(ctx context.Context, choirID uuid.UUID, f model.ConfigurationFields, at time.Time) (model.TenantConfiguration, error) {
	query := s.rebind(`
		INSERT INTO choir_configuration (` + configurationColumns + `)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (choir_id) DO UPDATE SET
			theme_color = excluded.theme_color,
			logo_url = excluded.logo_url,
			revision = choir_configuration.revision + 1,
			updated_at = excluded.updated_at
		RETURNING ` + configurationColumns)

	var c model.TenantConfiguration
	err := s.write(ctx, "upsert configuration", func(ctx context.Context) error {
		return s.DB.QueryRowContext(ctx, query, choirID, f.ThemeColor, f.LogoURL, at).
			Scan(&c.ChoirID, &c.ThemeColor, &c.LogoURL, &c.Revision, scanTime(&c.UpdatedAt))
	})
	return c, err
}
