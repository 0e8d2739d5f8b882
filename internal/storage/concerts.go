// internal/storage/concerts.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"choir-dashboard/internal/model"
)

const concertColumns = `id, choir_id, title, description, venue, address, repertoire, is_cancelled, scheduled_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConcert(row rowScanner) (model.Concert, error) {
	var (
		c          model.Concert
		repertoire []byte
		scheduled  time.Time
	)
	scheduledScan := scanTime(&scheduled)
	err := row.Scan(&c.ID, &c.ChoirID, &c.Title, &c.Description, &c.Venue, &c.Address,
		&repertoire, &c.IsCancelled, scheduledScan, scanTime(&c.CreatedAt))
	if err != nil {
		return c, err
	}
	c.Repertoire = []string{}
	if len(repertoire) > 0 {
		if err := json.Unmarshal(repertoire, &c.Repertoire); err != nil {
			return c, fmt.Errorf("decode repertoire of concert %s: %w", c.ID, err)
		}
	}
	if scheduledScan.valid {
		c.ScheduledAt = &scheduled
	}
	return c, nil
}

func (s *Storage) InsertConcert(ctx context.Context, c *model.Concert) error {
	repertoire, err := json.Marshal(c.Repertoire)
	if err != nil {
		return fmt.Errorf("encode repertoire: %w", err)
	}
	var scheduled sql.NullTime
	if c.ScheduledAt != nil {
		scheduled = sql.NullTime{Time: *c.ScheduledAt, Valid: true}
	}
	query := s.rebind(`INSERT INTO concerts (` + concertColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	return s.write(ctx, "insert concert", func(ctx context.Context) error {
		_, err := s.DB.ExecContext(ctx, query,
			c.ID, c.ChoirID, c.Title, c.Description, c.Venue, c.Address,
			string(repertoire), c.IsCancelled, scheduled, c.CreatedAt,
		)
		return err
	})
}

// GetConcert reads a concert only if it belongs to the given choir.
func (s *Storage) GetConcert(ctx context.Context, choirID, id uuid.UUID) (*model.Concert, error) {
	query := s.rebind(`SELECT ` + concertColumns + ` FROM concerts WHERE choir_id = ? AND id = ?`)

	var c model.Concert
	err := s.read(ctx, "get concert", func(ctx context.Context) error {
		var err error
		c, err = scanConcert(s.DB.QueryRowContext(ctx, query, choirID, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConcerts returns a choir's concerts in creation order.
func (s *Storage) ListConcerts(ctx context.Context, choirID uuid.UUID, activeOnly bool) ([]model.Concert, error) {
	query := `SELECT ` + concertColumns + ` FROM concerts WHERE choir_id = ?`
	args := []any{choirID}
	if activeOnly {
		query += ` AND is_cancelled = ?`
		args = append(args, false)
	}
	query = s.rebind(query + ` ORDER BY created_at ASC, id ASC`)

	var concerts []model.Concert
	err := s.read(ctx, "list concerts", func(ctx context.Context) error {
		rows, err := s.DB.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		concerts = make([]model.Concert, 0)
		for rows.Next() {
			c, err := scanConcert(rows)
			if err != nil {
				return err
			}
			concerts = append(concerts, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return concerts, nil
}

// CancelConcert flips is_cancelled to true. changed reports whether this
// call performed the transition.
func (s *Storage) CancelConcert(ctx context.Context, choirID, id uuid.UUID) (changed bool, err error) {
	query := s.rebind(`
		UPDATE concerts
		SET is_cancelled = ?
		WHERE choir_id = ? AND id = ? AND is_cancelled = ?
	`)
	err = s.write(ctx, "cancel concert", func(ctx context.Context) error {
		res, err := s.DB.ExecContext(ctx, query, true, choirID, id, false)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		changed = n > 0
		return nil
	})
	return changed, err
}
