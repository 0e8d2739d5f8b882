// internal/model/concert.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Concert struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ChoirID     uuid.UUID  `db:"choir_id" json:"choir_id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Venue       string     `db:"venue" json:"venue"`
	Address     string     `db:"address" json:"address"`
	Repertoire  []string   `db:"repertoire" json:"repertoire"`
	IsCancelled bool       `db:"is_cancelled" json:"is_cancelled"`
	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// SplitRepertoire turns the comma-delimited form input into an ordered piece
// list, dropping blank entries.
func SplitRepertoire(raw string) []string {
	pieces := []string{}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}
