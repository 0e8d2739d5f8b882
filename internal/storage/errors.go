// internal/storage/errors.go
package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"choir-dashboard/internal/model"
)

const pqUniqueViolation = "23505"

// classify maps driver errors onto the model taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		// the caller left; the store itself is fine
		return err
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrDuplicate),
		errors.Is(err, model.ErrUnreachable):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return model.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET):
		return unreachable(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return unreachable(err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == pqUniqueViolation:
			return fmt.Errorf("%w: %s", model.ErrDuplicate, pqErr.Constraint)
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "57":
			return unreachable(err)
		}
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pqUniqueViolation:
			return fmt.Errorf("%w: %s", model.ErrDuplicate, pgErr.ConstraintName)
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57"):
			return unreachable(err)
		}
		return err
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return unreachable(err)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE,
			code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
			code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE"):
			return fmt.Errorf("%w: %v", model.ErrDuplicate, err)
		case code&0xff == sqlite3.SQLITE_BUSY, code&0xff == sqlite3.SQLITE_LOCKED:
			return unreachable(err)
		}
	}
	return err
}

func unreachable(err error) error {
	return fmt.Errorf("%w: %v", model.ErrUnreachable, err)
}

func isUnreachable(err error) bool {
	return errors.Is(err, model.ErrUnreachable)
}
