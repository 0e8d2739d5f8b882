// internal/storage/storage.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"choir-dashboard/internal/logger"
	"choir-dashboard/internal/metrics"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

type Options struct {
	// Timeout bounds every single store call.
	Timeout time.Duration
	// ReadRetries is how many extra attempts a read gets after an
	// unreachable error. Writes are never retried.
	ReadRetries uint64
	Logger      *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	o.Logger = logger.OrNop(o.Logger)
	return o
}

// Storage is the record store client shared by every service.
type Storage struct {
	DB      *sql.DB
	dialect Dialect
	opts    Options
	log     *zap.Logger
}

// NewStorage opens the store for the configured driver name.
func NewStorage(driver, dsn string, opts Options) (*Storage, error) {
	switch driver {
	case "postgres":
		return NewPostgres(dsn, opts)
	case "pgx":
		return NewPgx(dsn, opts)
	case "sqlite":
		return NewSQLite(dsn, opts)
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

func newStorage(db *sql.DB, dialect Dialect, opts Options) *Storage {
	opts = opts.withDefaults()
	return &Storage{
		DB:      db,
		dialect: dialect,
		opts:    opts,
		log:     opts.Logger.Named("storage").With(zap.Stringer("dialect", dialect)),
	}
}

func (s *Storage) Dialect() Dialect { return s.dialect }

func (s *Storage) Close() error { return s.DB.Close() }

// rebind rewrites '?' placeholders to the dialect's form.
func (s *Storage) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// read runs fn under the call timeout, retrying with exponential backoff
// while the store is unreachable.
func (s *Storage) read(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = time.Second
	b := backoff.WithContext(backoff.WithMaxRetries(policy, s.opts.ReadRetries), ctx)

	err := backoff.RetryNotify(func() error {
		err := s.attempt(ctx, fn)
		if err == nil || isUnreachable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b, func(err error, wait time.Duration) {
		s.log.Warn("store read failed, retrying", zap.String("op", op), zap.Duration("wait", wait), zap.Error(err))
	})
	return s.finish(op, err)
}

// write runs fn exactly once under the call timeout.
func (s *Storage) write(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return s.finish(op, s.attempt(ctx, fn))
}

func (s *Storage) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	err := fn(cctx)
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		// drivers report a cancelled statement in their own words
		return fmt.Errorf("%w: %v", context.Canceled, err)
	}
	return classify(err)
}

func (s *Storage) finish(op string, err error) error {
	if err == nil {
		return nil
	}
	err = classify(err)
	switch {
	case errors.Is(err, context.Canceled):
		s.log.Debug("store call abandoned by caller", zap.String("op", op), zap.Error(err))
	case isUnreachable(err):
		metrics.StoreErrors.WithLabelValues(op).Inc()
		s.log.Error("store unreachable", zap.String("op", op), zap.Error(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
