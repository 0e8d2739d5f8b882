// internal/model/member.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Member is a principal's membership record. ChoirID stays nil until the
// join/create flow assigns a choir.
type Member struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Email     string     `db:"email" json:"email"`
	VoicePart string     `db:"voice_part" json:"voice_part"`
	Locality  string     `db:"locality" json:"locality"`
	Role      Role       `db:"role" json:"role"`
	ChoirID   *uuid.UUID `db:"choir_id" json:"choir_id,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

func (m *Member) Onboarded() bool {
	return m.ChoirID != nil && *m.ChoirID != uuid.Nil
}
