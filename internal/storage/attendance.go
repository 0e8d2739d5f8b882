// internal/storage/attendance.go
package storage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"choir-dashboard/internal/model"
)

// UpsertAttendance inserts or overwrites the (concert, member) row in one
// statement and returns the row as committed.
func (s *Storage) UpsertAttendance(ctx context.Context, r model.AttendanceRecord) (model.AttendanceRecord, error) {
	query := s.rebind(`
		INSERT INTO concert_attendance (concert_id, member_id, attending, responded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (concert_id, member_id) DO UPDATE SET
			attending = excluded.attending,
			responded_at = excluded.responded_at
		RETURNING concert_id, member_id, attending, responded_at
	`)

	var out model.AttendanceRecord
	err := s.write(ctx, "upsert attendance", func(ctx context.Context) error {
		return s.DB.QueryRowContext(ctx, query, r.ConcertID, r.MemberID, r.Attending, r.RespondedAt).
			Scan(&out.ConcertID, &out.MemberID, &out.Attending, scanTime(&out.RespondedAt))
	})
	return out, err
}

// ListAttendanceByMember returns the member's own answers for concerts of
// the given choir.
func (s *Storage) ListAttendanceByMember(ctx context.Context, choirID, memberID uuid.UUID) ([]model.AttendanceRecord, error) {
	query := s.rebind(`
		SELECT a.concert_id, a.member_id, a.attending, a.responded_at
		FROM concert_attendance a
		JOIN concerts c ON c.id = a.concert_id
		WHERE a.member_id = ? AND c.choir_id = ?
		ORDER BY a.responded_at ASC
	`)

	var records []model.AttendanceRecord
	err := s.read(ctx, "list member attendance", func(ctx context.Context) error {
		rows, err := s.DB.QueryContext(ctx, query, memberID, choirID)
		if err != nil {
			return err
		}
		defer rows.Close()

		records = make([]model.AttendanceRecord, 0)
		for rows.Next() {
			var r model.AttendanceRecord
			if err := rows.Scan(&r.ConcertID, &r.MemberID, &r.Attending, scanTime(&r.RespondedAt)); err != nil {
				return err
			}
			records = append(records, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Storage) CountConfirmed(ctx context.Context, concertID uuid.UUID) (int, error) {
	query := s.rebind(`SELECT COUNT(*) FROM concert_attendance WHERE concert_id = ? AND attending = ?`)

	var n int
	err := s.read(ctx, "count confirmed", func(ctx context.Context) error {
		return s.DB.QueryRowContext(ctx, query, concertID, true).Scan(&n)
	})
	return n, err
}

// ListConfirmedAttendees joins confirmed rows to member profiles, earliest
// response first. A missing profile never drops the row.
func (s *Storage) ListConfirmedAttendees(ctx context.Context, concertID uuid.UUID) ([]model.Attendee, error) {
	query := s.rebind(`
		SELECT a.member_id, m.name, m.email, m.voice_part, m.locality, a.responded_at
		FROM concert_attendance a
		LEFT JOIN members m ON m.id = a.member_id
		WHERE a.concert_id = ? AND a.attending = ?
		ORDER BY a.responded_at ASC, a.member_id ASC
	`)

	var attendees []model.Attendee
	err := s.read(ctx, "list attendees", func(ctx context.Context) error {
		rows, err := s.DB.QueryContext(ctx, query, concertID, true)
		if err != nil {
			return err
		}
		defer rows.Close()

		attendees = make([]model.Attendee, 0)
		for rows.Next() {
			var (
				a                             model.Attendee
				name, email, voice, locality sql.NullString
			)
			if err := rows.Scan(&a.MemberID, &name, &email, &voice, &locality, scanTime(&a.RespondedAt)); err != nil {
				return err
			}
			a.Name = orPlaceholder(name)
			a.Email = orPlaceholder(email)
			a.VoicePart = orPlaceholder(voice)
			a.Locality = orPlaceholder(locality)
			attendees = append(attendees, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return attendees, nil
}

func orPlaceholder(v sql.NullString) string {
	if !v.Valid || v.String == "" {
		return model.MissingField
	}
	return v.String
}
