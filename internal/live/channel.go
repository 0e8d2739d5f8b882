// Package live keeps every session's choir branding in step with the stored
// configuration.
package live

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"choir-dashboard/internal/feed"
	"choir-dashboard/internal/logger"
	"choir-dashboard/internal/metrics"
	"choir-dashboard/internal/model"
	"choir-dashboard/internal/tenant"
	"choir-dashboard/internal/views"
)

type Store interface {
	GetConfiguration(ctx context.Context, choirID uuid.UUID) (*model.TenantConfiguration, error)
	InsertConfiguration(ctx context.Context, c model.TenantConfiguration) error
	UpsertConfiguration(ctx context.Context, choirID uuid.UUID, f model.ConfigurationFields, at time.Time) (model.TenantConfiguration, error)
}

type Channel struct {
	store Store
	feed  feed.Feed
	log   *zap.Logger
	now   func() time.Time
	loads singleflight.Group
}

func NewChannel(store Store, f feed.Feed, log *zap.Logger) *Channel {
	return &Channel{
		store: store,
		feed:  f,
		log:   logger.OrNop(log).Named("live"),
		now:   time.Now,
	}
}

// SetClock replaces the updated_at source.
func (c *Channel) SetClock(now func() time.Time) { c.now = now }

// Load returns the choir's configuration. The first admin visit creates the
// default row; other roles see the defaults until then, with revision 0.
//
// Concurrent loads for one choir share a single store round trip. The shared
// call outlives any one caller's context; each caller stops waiting when its
// own ctx ends. The store's per-call timeout still bounds it.
func (c *Channel) Load(ctx context.Context, scope tenant.Scope) (model.TenantConfiguration, error) {
	key := scope.ChoirID.String()
	if scope.IsAdmin() {
		key += "/admin"
	}
	shared := context.WithoutCancel(ctx)
	res := c.loads.DoChan(key, func() (any, error) {
		return c.load(shared, scope)
	})
	select {
	case <-ctx.Done():
		return model.TenantConfiguration{}, ctx.Err()
	case r := <-res:
		if r.Err != nil {
			return model.TenantConfiguration{}, r.Err
		}
		return r.Val.(model.TenantConfiguration), nil
	}
}

func (c *Channel) load(ctx context.Context, scope tenant.Scope) (model.TenantConfiguration, error) {
	cfg, err := c.store.GetConfiguration(ctx, scope.ChoirID)
	if err == nil {
		return *cfg, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.TenantConfiguration{}, err
	}

	def := model.DefaultConfiguration(scope.ChoirID)
	if !scope.IsAdmin() {
		def.Revision = 0
		return def, nil
	}

	def.UpdatedAt = c.now().UTC()
	err = c.store.InsertConfiguration(ctx, def)
	switch {
	case err == nil:
		c.log.Info("created default configuration", zap.Stringer("choir", scope.ChoirID))
		return def, nil
	case errors.Is(err, model.ErrDuplicate):
		// another session created it first
		cfg, err := c.store.GetConfiguration(ctx, scope.ChoirID)
		if err != nil {
			return model.TenantConfiguration{}, err
		}
		return *cfg, nil
	default:
		return model.TenantConfiguration{}, err
	}
}

// Save overwrites the branding in one upsert and notifies every subscriber.
func (c *Channel) Save(ctx context.Context, scope tenant.Scope, fields model.ConfigurationFields) (model.TenantConfiguration, error) {
	if !views.CanMutate(scope.Role, views.SaveConfiguration) {
		return model.TenantConfiguration{}, model.Forbidden("role %s cannot change configuration", scope.Role)
	}
	if err := fields.Validate(); err != nil {
		return model.TenantConfiguration{}, err
	}

	cfg, err := c.store.UpsertConfiguration(ctx, scope.ChoirID, fields, c.now().UTC())
	if err != nil {
		return model.TenantConfiguration{}, err
	}
	metrics.ConfigurationSaves.WithLabelValues(scope.ChoirID.String()).Inc()

	if c.feed != nil {
		if err := c.feed.Publish(ctx, eventFor(cfg)); err != nil {
			c.log.Warn("configuration change not published",
				zap.Stringer("choir", cfg.ChoirID), zap.Int64("revision", cfg.Revision), zap.Error(err))
		}
	}
	return cfg, nil
}

// Subscribe delivers every configuration change newer than any delivered
// before. The returned dispose func must be called when the consumer goes
// away; cancelling ctx has the same effect. If the feed itself goes away
// first, onEnd (when not nil) is called once with an ErrUnreachable error and
// nothing more is delivered.
func (c *Channel) Subscribe(ctx context.Context, scope tenant.Scope, onChange func(model.TenantConfiguration), onEnd func(error)) (dispose func(), err error) {
	return c.SubscribeFrom(ctx, scope, 0, onChange, onEnd)
}

// SubscribeFrom is Subscribe for a caller already holding revision since.
func (c *Channel) SubscribeFrom(ctx context.Context, scope tenant.Scope, since int64, onChange func(model.TenantConfiguration), onEnd func(error)) (dispose func(), err error) {
	if c.feed == nil {
		return nil, errors.New("live channel has no feed")
	}
	sub, err := c.feed.Subscribe(ctx, scope.ChoirID, feed.TableConfiguration)
	if err != nil {
		return nil, fmt.Errorf("subscribe configuration: %w", err)
	}

	go func() {
		last := since
		for ev := range sub.Events() {
			if ev.Revision <= last {
				metrics.FeedDiscarded.WithLabelValues(string(ev.Table), "stale").Inc()
				c.log.Debug("discarded stale configuration event",
					zap.Int64("revision", ev.Revision), zap.Int64("held", last))
				continue
			}
			last = ev.Revision
			metrics.FeedDelivered.WithLabelValues(string(ev.Table)).Inc()
			onChange(configFromEvent(ev))
		}
		if err := sub.Err(); err != nil {
			c.log.Warn("configuration feed ended", zap.Stringer("choir", scope.ChoirID), zap.Error(err))
			if onEnd != nil {
				onEnd(err)
			}
		}
	}()
	return sub.Close, nil
}

func eventFor(cfg model.TenantConfiguration) feed.Event {
	return feed.Event{
		ChoirID:  cfg.ChoirID,
		Table:    feed.TableConfiguration,
		Revision: cfg.Revision,
		Fields: map[string]string{
			"theme_color": cfg.ThemeColor,
			"logo_url":    cfg.LogoURL,
		},
		CommittedAt: cfg.UpdatedAt,
	}
}

func configFromEvent(ev feed.Event) model.TenantConfiguration {
	return model.TenantConfiguration{
		ChoirID:    ev.ChoirID,
		ThemeColor: ev.Fields["theme_color"],
		LogoURL:    ev.Fields["logo_url"],
		Revision:   ev.Revision,
		UpdatedAt:  ev.CommittedAt,
	}
}
