package live

import (
	"context"
	"sync"

	"choir-dashboard/internal/model"
	"choir-dashboard/internal/tenant"
)

// Session is one connected session's view of the choir configuration. The
// channel is its only writer; views read Current or Watch.
type Session struct {
	mu       sync.RWMutex
	current  model.TenantConfiguration
	watchers map[chan model.TenantConfiguration]struct{}
	dispose  func()
	closed   bool
	err      error
}

// OpenSession subscribes first and loads second, so a save landing in
// between is never lost. The session closes itself when the feed goes away;
// Err then says why.
func OpenSession(ctx context.Context, ch *Channel, scope tenant.Scope) (*Session, error) {
	s := &Session{
		current:  model.TenantConfiguration{Revision: -1},
		watchers: make(map[chan model.TenantConfiguration]struct{}),
	}
	dispose, err := ch.Subscribe(ctx, scope,
		func(cfg model.TenantConfiguration) { s.apply(cfg) },
		s.end,
	)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.dispose = dispose
	s.mu.Unlock()

	cfg, err := ch.Load(ctx, scope)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.apply(cfg)
	if err := s.Err(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Err is non-nil once the session was closed because its feed ended.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Session) Current() model.TenantConfiguration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Watch returns a channel that always holds the latest configuration not yet
// received. stop releases it.
func (s *Session) Watch() (<-chan model.TenantConfiguration, func()) {
	ch := make(chan model.TenantConfiguration, 1)
	s.mu.Lock()
	if s.closed {
		close(ch)
	} else {
		s.watchers[ch] = struct{}{}
	}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.watchers[ch]; ok {
				delete(s.watchers, ch)
				close(ch)
			}
		})
	}
}

// apply replaces the held configuration when cfg is newer.
func (s *Session) apply(cfg model.TenantConfiguration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || cfg.Revision <= s.current.Revision {
		return false
	}
	s.current = cfg
	for ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- cfg
	}
	return true
}

func (s *Session) Close() { s.shut(nil) }

func (s *Session) end(err error) { s.shut(err) }

func (s *Session) shut(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	for ch := range s.watchers {
		close(ch)
	}
	s.watchers = nil
	dispose := s.dispose
	s.mu.Unlock()

	if dispose != nil {
		dispose()
	}
}
