// internal/feed/hub.go
package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"choir-dashboard/internal/logger"
	"choir-dashboard/internal/metrics"
	"choir-dashboard/internal/model"
)

// Hub is the in-process feed. Publish never blocks: a subscriber that falls
// behind loses its oldest pending event.
type Hub struct {
	buffer int
	log    *zap.Logger

	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

func NewHub(buffer int, log *zap.Logger) *Hub {
	return &Hub{
		buffer: buffer,
		log:    logger.OrNop(log).Named("feed.hub"),
		subs:   make(map[string]map[*Subscription]struct{}),
	}
}

func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	metrics.FeedPublished.WithLabelValues(string(ev.Table)).Inc()
	for sub := range h.subs[topic(ev.ChoirID, ev.Table)] {
		select {
		case sub.events <- ev:
			continue
		default:
		}
		select {
		case <-sub.events:
			metrics.FeedDiscarded.WithLabelValues(string(ev.Table), "overflow").Inc()
			h.log.Warn("subscriber lagging, dropped oldest event", zap.String("topic", topic(ev.ChoirID, ev.Table)))
		default:
		}
		select {
		case sub.events <- ev:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, choirID uuid.UUID, table Table) (*Subscription, error) {
	key := topic(choirID, table)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, fmt.Errorf("hub closed: %w", model.ErrUnreachable)
	}

	var sub *Subscription
	sub = newSubscription(ctx, table, h.buffer, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[key]; ok {
			if _, ok := set[sub]; ok {
				delete(set, sub)
				close(sub.events)
			}
			if len(set) == 0 {
				delete(h.subs, key)
			}
		}
	})
	if h.subs[key] == nil {
		h.subs[key] = make(map[*Subscription]struct{})
	}
	h.subs[key][sub] = struct{}{}
	h.log.Debug("subscribed", zap.String("topic", key))
	return sub, nil
}

// Close ends every open subscription.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	var open []*Subscription
	for _, set := range h.subs {
		for sub := range set {
			open = append(open, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range open {
		sub.end(fmt.Errorf("hub closed: %w", model.ErrUnreachable))
		sub.Close()
	}
	return nil
}
