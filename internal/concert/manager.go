// internal/concert/manager.go
package concert

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"choir-dashboard/internal/feed"
	"choir-dashboard/internal/logger"
	"choir-dashboard/internal/model"
	"choir-dashboard/internal/tenant"
	"choir-dashboard/internal/views"
)

type Store interface {
	InsertConcert(ctx context.Context, c *model.Concert) error
	GetConcert(ctx context.Context, choirID, id uuid.UUID) (*model.Concert, error)
	ListConcerts(ctx context.Context, choirID uuid.UUID, activeOnly bool) ([]model.Concert, error)
	CancelConcert(ctx context.Context, choirID, id uuid.UUID) (bool, error)
}

// CreateInput mirrors the admin form. Repertoire is comma separated.
type CreateInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Venue       string     `json:"venue"`
	Address     string     `json:"address"`
	Repertoire  string     `json:"repertoire"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type Manager struct {
	store Store
	feed  feed.Feed
	log   *zap.Logger
	now   func() time.Time
}

func NewManager(store Store, f feed.Feed, log *zap.Logger) *Manager {
	return &Manager{
		store: store,
		feed:  f,
		log:   logger.OrNop(log).Named("concert"),
		now:   time.Now,
	}
}

// SetClock replaces the creation timestamp source.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// Create adds a concert to the admin's choir.
func (m *Manager) Create(ctx context.Context, scope tenant.Scope, in CreateInput) (model.Concert, error) {
	if !views.CanMutate(scope.Role, views.CreateConcert) {
		return model.Concert{}, model.Forbidden("role %s cannot create concerts", scope.Role)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Concert{}, model.InvalidInput("title is required")
	}

	c := model.Concert{
		ID:          uuid.New(),
		ChoirID:     scope.ChoirID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Venue:       strings.TrimSpace(in.Venue),
		Address:     strings.TrimSpace(in.Address),
		Repertoire:  model.SplitRepertoire(in.Repertoire),
		ScheduledAt: in.ScheduledAt,
		CreatedAt:   m.now().UTC(),
	}
	if c.ScheduledAt != nil {
		t := c.ScheduledAt.UTC()
		c.ScheduledAt = &t
	}
	if err := m.store.InsertConcert(ctx, &c); err != nil {
		return model.Concert{}, err
	}

	m.log.Info("concert created", zap.Stringer("choir", c.ChoirID), zap.Stringer("concert", c.ID))
	m.publish(ctx, c, "created")
	return c, nil
}

// Cancel is one-way and idempotent.
func (m *Manager) Cancel(ctx context.Context, scope tenant.Scope, concertID uuid.UUID) (model.Concert, error) {
	if !views.CanMutate(scope.Role, views.CancelConcert) {
		return model.Concert{}, model.Forbidden("role %s cannot cancel concerts", scope.Role)
	}
	changed, err := m.store.CancelConcert(ctx, scope.ChoirID, concertID)
	if err != nil {
		return model.Concert{}, err
	}
	c, err := m.store.GetConcert(ctx, scope.ChoirID, concertID)
	if err != nil {
		return model.Concert{}, err
	}
	if changed {
		m.log.Info("concert cancelled", zap.Stringer("choir", c.ChoirID), zap.Stringer("concert", c.ID))
		m.publish(ctx, *c, "cancelled")
	}
	return *c, nil
}

// ListUpcoming returns the choir's concerts that are not cancelled, in
// creation order.
func (m *Manager) ListUpcoming(ctx context.Context, scope tenant.Scope) ([]model.Concert, error) {
	return m.store.ListConcerts(ctx, scope.ChoirID, true)
}

// ListAll includes cancelled concerts.
func (m *Manager) ListAll(ctx context.Context, scope tenant.Scope) ([]model.Concert, error) {
	return m.store.ListConcerts(ctx, scope.ChoirID, false)
}

func (m *Manager) Get(ctx context.Context, scope tenant.Scope, concertID uuid.UUID) (model.Concert, error) {
	c, err := m.store.GetConcert(ctx, scope.ChoirID, concertID)
	if err != nil {
		return model.Concert{}, err
	}
	return *c, nil
}

func (m *Manager) publish(ctx context.Context, c model.Concert, change string) {
	if m.feed == nil {
		return
	}
	err := m.feed.Publish(ctx, feed.Event{
		ChoirID:     c.ChoirID,
		Table:       feed.TableConcerts,
		Fields:      map[string]string{"concert_id": c.ID.String(), "change": change},
		CommittedAt: m.now().UTC(),
	})
	if err != nil {
		m.log.Warn("concert change not published", zap.Stringer("concert", c.ID), zap.Error(err))
	}
}
