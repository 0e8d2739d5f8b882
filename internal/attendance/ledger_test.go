package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"choir-dashboard/internal/feed"
	"choir-dashboard/internal/model"
	"choir-dashboard/internal/storage"
	"choir-dashboard/internal/tenant"
)

type fixture struct {
	store   *storage.Storage
	hub     *feed.Hub
	ledger  *Ledger
	choir   uuid.UUID
	concert model.Concert
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	s, err := storage.NewSQLite(":memory:", storage.Options{Timeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })

	hub := feed.NewHub(16, nil)
	t.Cleanup(func() { _ = hub.Close() })

	f := &fixture{store: s, hub: hub, choir: uuid.New()}
	f.concert = f.addConcert(t, "Concierto de Navidad")

	clock := time.Date(2026, 12, 1, 10, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	f.ledger = NewLedger(s, hub, nil)
	f.ledger.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	})
	return f
}

func (f *fixture) addConcert(t *testing.T, title string) model.Concert {
	t.Helper()
	c := model.Concert{ID: uuid.New(), ChoirID: f.choir, Title: title, Repertoire: []string{}, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.store.InsertConcert(context.Background(), &c))
	return c
}

func (f *fixture) member(t *testing.T, name string, role model.Role) tenant.Scope {
	t.Helper()
	m := &model.Member{ID: uuid.New(), Name: name, Role: role, ChoirID: &f.choir, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.store.UpsertMember(context.Background(), m))
	return tenant.Scope{MemberID: m.ID, ChoirID: f.choir, Role: role}
}

func TestSetAttendanceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	maria := f.member(t, "María", model.RoleMember)

	for i := 0; i < 2; i++ {
		rec, err := f.ledger.SetAttendance(ctx, maria, f.concert.ID, maria.MemberID, true)
		require.NoError(t, err)
		assert.True(t, rec.Attending)
	}

	var rows int
	require.NoError(t, f.store.DB.QueryRow(
		`SELECT COUNT(*) FROM concert_attendance WHERE concert_id = ? AND member_id = ?`,
		f.concert.ID, maria.MemberID).Scan(&rows))
	assert.Equal(t, 1, rows)

	n, err := f.ledger.CountConfirmed(ctx, maria, f.concert.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLastWriteWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	laura := f.member(t, "Laura", model.RoleMember)

	_, err := f.ledger.SetAttendance(ctx, laura, f.concert.ID, laura.MemberID, true)
	require.NoError(t, err)
	_, err = f.ledger.SetAttendance(ctx, laura, f.concert.ID, laura.MemberID, false)
	require.NoError(t, err)

	mine, err := f.ledger.MyAttendance(ctx, laura)
	require.NoError(t, err)
	attending, ok := mine[f.concert.ID]
	require.True(t, ok)
	assert.False(t, attending)

	// Declined -> Confirmed is allowed again
	_, err = f.ledger.SetAttendance(ctx, laura, f.concert.ID, laura.MemberID, true)
	require.NoError(t, err)
	mine, err = f.ledger.MyAttendance(ctx, laura)
	require.NoError(t, err)
	assert.True(t, mine[f.concert.ID])
}

func TestOwnershipIsEnforcedForEveryRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.member(t, "Ana", model.RoleMember)

	for _, role := range model.Roles {
		other := f.member(t, "Other "+role.String(), role)
		_, err := f.ledger.SetAttendance(ctx, other, f.concert.ID, ana.MemberID, true)
		assert.ErrorIs(t, err, model.ErrForbidden, role.String())
	}

	mine, err := f.ledger.MyAttendance(ctx, ana)
	require.NoError(t, err)
	assert.Empty(t, mine)

	n, err := f.ledger.CountConfirmed(ctx, ana, f.concert.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSetAttendanceRejectsForeignAndCancelledConcerts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carmen := f.member(t, "Carmen", model.RoleMember)

	_, err := f.ledger.SetAttendance(ctx, carmen, uuid.New(), carmen.MemberID, true)
	assert.ErrorIs(t, err, model.ErrNotFound)

	foreign := carmen
	foreign.ChoirID = uuid.New()
	_, err = f.ledger.SetAttendance(ctx, foreign, f.concert.ID, carmen.MemberID, true)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.store.CancelConcert(ctx, f.choir, f.concert.ID)
	require.NoError(t, err)
	_, err = f.ledger.SetAttendance(ctx, carmen, f.concert.ID, carmen.MemberID, true)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestCountMatchesAttendeeList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.member(t, "Directora", model.RoleAdmin)

	var confirmed []uuid.UUID
	for i, name := range []string{"Elena", "Sofía", "Lucía", "Isabel"} {
		s := f.member(t, name, model.RoleMember)
		attending := i%2 == 0
		_, err := f.ledger.SetAttendance(ctx, s, f.concert.ID, s.MemberID, attending)
		require.NoError(t, err)
		if attending {
			confirmed = append(confirmed, s.MemberID)
		}
	}

	attendees, err := f.ledger.ListAttendees(ctx, admin, f.concert.ID)
	require.NoError(t, err)
	n, err := f.ledger.CountConfirmed(ctx, admin, f.concert.ID)
	require.NoError(t, err)
	assert.Equal(t, len(attendees), n)

	require.Len(t, attendees, len(confirmed))
	for i, a := range attendees {
		assert.Equal(t, confirmed[i], a.MemberID, "ordered by response time")
	}
	assert.Equal(t, "Elena", attendees[0].Name)
	assert.Equal(t, model.MissingField, attendees[0].Email)
}

func TestListAttendeesIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	for _, role := range []model.Role{model.RoleMember, model.RoleDirector} {
		s := f.member(t, role.String(), role)
		_, err := f.ledger.ListAttendees(context.Background(), s, f.concert.ID)
		assert.ErrorIs(t, err, model.ErrForbidden)
	}
}

func TestWatchCountFollowsCommittedChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.member(t, "Directora", model.RoleAdmin)
	david := f.member(t, "David", model.RoleMember)
	other := f.addConcert(t, "Primavera")

	counts := make(chan int, 8)
	dispose, err := f.ledger.WatchCount(ctx, admin, f.concert.ID, func(n int) { counts <- n }, nil)
	require.NoError(t, err)
	defer dispose()

	next := func() int {
		select {
		case n := <-counts:
			return n
		case <-time.After(time.Second):
			t.Fatal("no count delivered")
		}
		return -1
	}
	assert.Equal(t, 0, next())

	_, err = f.ledger.SetAttendance(ctx, david, other.ID, david.MemberID, true)
	require.NoError(t, err)
	_, err = f.ledger.SetAttendance(ctx, david, f.concert.ID, david.MemberID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, next())

	_, err = f.ledger.SetAttendance(ctx, david, f.concert.ID, david.MemberID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, next())
}

func TestWatchCountReportsFeedEnd(t *testing.T) {
	f := newFixture(t)
	admin := f.member(t, "Directora", model.RoleAdmin)

	ended := make(chan error, 1)
	dispose, err := f.ledger.WatchCount(context.Background(), admin, f.concert.ID,
		func(int) {},
		func(err error) { ended <- err },
	)
	require.NoError(t, err)
	defer dispose()

	require.NoError(t, f.hub.Close())
	select {
	case err := <-ended:
		assert.ErrorIs(t, err, model.ErrUnreachable)
	case <-time.After(time.Second):
		t.Fatal("feed end never reported")
	}
}
