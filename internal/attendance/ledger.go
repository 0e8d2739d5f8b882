// Package attendance owns members' concert responses and the counts derived
// from them.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"choir-dashboard/internal/feed"
	"choir-dashboard/internal/logger"
	"choir-dashboard/internal/metrics"
	"choir-dashboard/internal/model"
	"choir-dashboard/internal/tenant"
	"choir-dashboard/internal/views"
)

type Store interface {
	GetConcert(ctx context.Context, choirID, id uuid.UUID) (*model.Concert, error)
	UpsertAttendance(ctx context.Context, r model.AttendanceRecord) (model.AttendanceRecord, error)
	ListAttendanceByMember(ctx context.Context, choirID, memberID uuid.UUID) ([]model.AttendanceRecord, error)
	CountConfirmed(ctx context.Context, concertID uuid.UUID) (int, error)
	ListConfirmedAttendees(ctx context.Context, concertID uuid.UUID) ([]model.Attendee, error)
}

type Ledger struct {
	store Store
	feed  feed.Feed
	log   *zap.Logger
	now   func() time.Time
}

func NewLedger(store Store, f feed.Feed, log *zap.Logger) *Ledger {
	return &Ledger{
		store: store,
		feed:  f,
		log:   logger.OrNop(log).Named("attendance"),
		now:   time.Now,
	}
}

// SetClock replaces the response timestamp source.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// SetAttendance records the acting member's answer for a concert. Only the
// member themself may write their row, whatever their role.
func (l *Ledger) SetAttendance(ctx context.Context, scope tenant.Scope, concertID, memberID uuid.UUID, attending bool) (model.AttendanceRecord, error) {
	choir := scope.ChoirID.String()
	if memberID != scope.MemberID {
		metrics.AttendanceWrites.WithLabelValues(choir, "forbidden").Inc()
		return model.AttendanceRecord{}, model.Forbidden("member %s cannot answer for %s", scope.MemberID, memberID)
	}
	if !views.CanMutate(scope.Role, views.SetOwnAttendance) {
		metrics.AttendanceWrites.WithLabelValues(choir, "forbidden").Inc()
		return model.AttendanceRecord{}, model.Forbidden("role %s cannot answer concerts", scope.Role)
	}

	concert, err := l.store.GetConcert(ctx, scope.ChoirID, concertID)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	if concert.IsCancelled {
		return model.AttendanceRecord{}, model.InvalidInput("concert %s is cancelled", concertID)
	}

	rec, err := l.store.UpsertAttendance(ctx, model.AttendanceRecord{
		ConcertID:   concertID,
		MemberID:    memberID,
		Attending:   attending,
		RespondedAt: l.now().UTC(),
	})
	if err != nil {
		metrics.AttendanceWrites.WithLabelValues(choir, "error").Inc()
		return model.AttendanceRecord{}, err
	}
	metrics.AttendanceWrites.WithLabelValues(choir, "ok").Inc()

	l.publish(ctx, scope.ChoirID, rec)
	return rec, nil
}

func (l *Ledger) publish(ctx context.Context, choirID uuid.UUID, rec model.AttendanceRecord) {
	if l.feed == nil {
		return
	}
	err := l.feed.Publish(ctx, feed.Event{
		ChoirID: choirID,
		Table:   feed.TableAttendance,
		Fields: map[string]string{
			"concert_id": rec.ConcertID.String(),
			"member_id":  rec.MemberID.String(),
			"attending":  strconv.FormatBool(rec.Attending),
		},
		CommittedAt: rec.RespondedAt,
	})
	if err != nil {
		// the row is committed; readers catch up on their next read
		l.log.Warn("attendance change not published", zap.Stringer("concert", rec.ConcertID), zap.Error(err))
	}
}

// MyAttendance maps concert id to the caller's own answer.
func (l *Ledger) MyAttendance(ctx context.Context, scope tenant.Scope) (map[uuid.UUID]bool, error) {
	records, err := l.store.ListAttendanceByMember(ctx, scope.ChoirID, scope.MemberID)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]bool, len(records))
	for _, r := range records {
		out[r.ConcertID] = r.Attending
	}
	return out, nil
}

// CountConfirmed is recomputed from the store on every call.
func (l *Ledger) CountConfirmed(ctx context.Context, scope tenant.Scope, concertID uuid.UUID) (int, error) {
	if _, err := l.store.GetConcert(ctx, scope.ChoirID, concertID); err != nil {
		return 0, err
	}
	return l.store.CountConfirmed(ctx, concertID)
}

// ListAttendees is the admin roster of confirmed members, earliest first.
func (l *Ledger) ListAttendees(ctx context.Context, scope tenant.Scope, concertID uuid.UUID) ([]model.Attendee, error) {
	if !views.CanMutate(scope.Role, views.ListAttendees) {
		return nil, model.Forbidden("role %s cannot list attendees", scope.Role)
	}
	if _, err := l.store.GetConcert(ctx, scope.ChoirID, concertID); err != nil {
		return nil, err
	}
	return l.store.ListConfirmedAttendees(ctx, concertID)
}

// WatchCount calls onCount with the current confirmed count and again after
// every committed attendance change for the concert, until dispose is called
// or ctx ends. If the feed goes away first, onEnd (when not nil) is called
// once with an ErrUnreachable error.
func (l *Ledger) WatchCount(ctx context.Context, scope tenant.Scope, concertID uuid.UUID, onCount func(int), onEnd func(error)) (dispose func(), err error) {
	if l.feed == nil {
		return nil, errors.New("attendance ledger has no feed")
	}
	sub, err := l.feed.Subscribe(ctx, scope.ChoirID, feed.TableAttendance)
	if err != nil {
		return nil, fmt.Errorf("subscribe attendance: %w", err)
	}

	n, err := l.CountConfirmed(ctx, scope, concertID)
	if err != nil {
		sub.Close()
		return nil, err
	}
	onCount(n)

	go func() {
		want := concertID.String()
		for ev := range sub.Events() {
			if ev.Fields["concert_id"] != want {
				continue
			}
			metrics.FeedDelivered.WithLabelValues(string(ev.Table)).Inc()
			n, err := l.CountConfirmed(ctx, scope, concertID)
			if err != nil {
				l.log.Warn("recount failed", zap.Stringer("concert", concertID), zap.Error(err))
				continue
			}
			onCount(n)
		}
		if err := sub.Err(); err != nil {
			l.log.Warn("attendance feed ended", zap.Stringer("concert", concertID), zap.Error(err))
			if onEnd != nil {
				onEnd(err)
			}
		}
	}()
	return sub.Close, nil
}
