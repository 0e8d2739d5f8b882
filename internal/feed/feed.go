// internal/feed/feed.go

// Package feed carries committed record changes to every subscribed session
// of a choir.
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"choir-dashboard/internal/metrics"
)

// Table names the record kind an event refers to.
type Table string

const (
	TableConfiguration Table = "choir_configuration"
	TableAttendance    Table = "concert_attendance"
	TableConcerts      Table = "concerts"
)

// Event is one committed change. Revision is only meaningful for tables
// that carry a per-row revision (configuration).
type Event struct {
	ChoirID     uuid.UUID         `json:"choir_id"`
	Table       Table             `json:"table"`
	Revision    int64             `json:"revision"`
	Fields      map[string]string `json:"fields"`
	CommittedAt time.Time         `json:"committed_at"`
}

type Feed interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, choirID uuid.UUID, table Table) (*Subscription, error)
	Close() error
}

// Subscription is a standing feed of events. Close must be called once the
// consumer is gone; it is also called when the subscribe context ends.
type Subscription struct {
	events  chan Event
	done    chan struct{}
	once    sync.Once
	table   Table
	release func()

	mu  sync.Mutex
	err error
}

func newSubscription(ctx context.Context, table Table, buffer int, release func()) *Subscription {
	if buffer <= 0 {
		buffer = 1
	}
	s := &Subscription{
		events:  make(chan Event, buffer),
		done:    make(chan struct{}),
		table:   table,
		release: release,
	}
	metrics.ActiveSubscriptions.WithLabelValues(string(table)).Inc()
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
	return s
}

// Events is closed after Close.
func (s *Subscription) Events() <-chan Event { return s.events }

// Done is closed as soon as Close is called.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err reports why the feed ended the subscription. It is nil when the
// subscription ended through Close or its context, and is set before Events
// is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// end records that the feed itself went away.
func (s *Subscription) end(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.release != nil {
			s.release()
		}
		metrics.ActiveSubscriptions.WithLabelValues(string(s.table)).Dec()
	})
}

func topic(choirID uuid.UUID, table Table) string {
	return fmt.Sprintf("choir_%s_%s", choirID, table)
}
