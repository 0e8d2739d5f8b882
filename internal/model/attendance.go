// internal/model/attendance.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceRecord is unique per (ConcertID, MemberID). A missing record means
// the member has not answered yet.
type AttendanceRecord struct {
	ConcertID   uuid.UUID `db:"concert_id" json:"concert_id"`
	MemberID    uuid.UUID `db:"member_id" json:"member_id"`
	Attending   bool      `db:"attending" json:"attending"`
	RespondedAt time.Time `db:"responded_at" json:"responded_at"`
}

// Attendee is a confirmed attendance joined to the member profile. Profile
// fields hold "-" when the joined value is missing.
type Attendee struct {
	MemberID    uuid.UUID `json:"member_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	VoicePart   string    `json:"voice_part"`
	Locality    string    `json:"locality"`
	RespondedAt time.Time `json:"responded_at"`
}

const MissingField = "-"
