package concert

import (
	"context"
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

func newManager(t *testing.T) (*Manager, *feed.Hub) {
	t.Helper()
	s, err := storage.NewSQLite(":memory:", storage.Options{Timeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	hub := feed.NewHub(8, nil)
	t.Cleanup(func() { _ = hub.Close() })

	m := NewManager(s, hub, nil)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	return m, hub
}

func adminScope() tenant.Scope {
	return tenant.Scope{MemberID: uuid.New(), ChoirID: uuid.New(), Role: model.RoleAdmin}
}

func TestCreateSplitsRepertoire(t *testing.T) {
	m, _ := newManager(t)
	scope := adminScope()

	c, err := m.Create(context.Background(), scope, CreateInput{
		Title:      "  Concierto de Navidad ",
		Venue:      "Auditorio Municipal",
		Repertoire: "Noche de Paz, Adeste Fideles,, ,El Tamborilero",
	})
	require.NoError(t, err)
	assert.Equal(t, "Concierto de Navidad", c.Title)
	assert.Equal(t, []string{"Noche de Paz", "Adeste Fideles", "El Tamborilero"}, c.Repertoire)
	assert.False(t, c.IsCancelled)

	got, err := m.Get(context.Background(), scope, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Repertoire, got.Repertoire)
}

func TestCreateValidation(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.Create(context.Background(), adminScope(), CreateInput{Title: "   "})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	member := tenant.Scope{MemberID: uuid.New(), ChoirID: uuid.New(), Role: model.RoleDirector}
	_, err = m.Create(context.Background(), member, CreateInput{Title: "Ensayo"})
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestCancelIsIdempotentAndSticky(t *testing.T) {
	m, hub := newManager(t)
	ctx := context.Background()
	scope := adminScope()

	sub, err := hub.Subscribe(ctx, scope.ChoirID, feed.TableConcerts)
	require.NoError(t, err)
	defer sub.Close()

	first, err := m.Create(ctx, scope, CreateInput{Title: "Navidad"})
	require.NoError(t, err)
	second, err := m.Create(ctx, scope, CreateInput{Title: "Primavera"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		c, err := m.Cancel(ctx, scope, first.ID)
		require.NoError(t, err)
		assert.True(t, c.IsCancelled)
	}

	upcoming, err := m.ListUpcoming(ctx, scope)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, second.ID, upcoming[0].ID)

	all, err := m.ListAll(ctx, scope)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)

	// two creates and a single cancellation
	changes := []string{}
	for i := 0; i < 3; i++ {
		ev := <-sub.Events()
		changes = append(changes, ev.Fields["change"])
	}
	assert.Equal(t, []string{"created", "created", "cancelled"}, changes)
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected extra event %+v", ev)
	default:
	}
}

func TestListUpcomingKeepsCreationOrder(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	scope := adminScope()

	later := time.Date(2027, 6, 1, 20, 0, 0, 0, time.UTC)
	a, err := m.Create(ctx, scope, CreateInput{Title: "A", ScheduledAt: &later})
	require.NoError(t, err)
	b, err := m.Create(ctx, scope, CreateInput{Title: "B"})
	require.NoError(t, err)

	list, err := m.ListUpcoming(ctx, scope)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, []uuid.UUID{list[0].ID, list[1].ID})
	require.NotNil(t, list[0].ScheduledAt)
	assert.True(t, list[0].ScheduledAt.Equal(later))
}

func TestCancelForeignConcert(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	owner := adminScope()

	c, err := m.Create(ctx, owner, CreateInput{Title: "Navidad"})
	require.NoError(t, err)

	_, err = m.Cancel(ctx, adminScope(), c.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	got, err := m.Get(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCancelled)

	member := tenant.Scope{MemberID: uuid.New(), ChoirID: owner.ChoirID, Role: model.RoleMember}
	_, err = m.Cancel(ctx, member, c.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
}
