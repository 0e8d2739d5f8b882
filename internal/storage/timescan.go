// internal/storage/timescan.go
package storage

import (
	"fmt"
	"strings"
	"time"
)

// sqlite hands back TEXT for timestamps it cannot type (RETURNING columns,
// expressions); these are the encodings seen across both drivers.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timeScanner scans any driver timestamp representation into dst.
type timeScanner struct {
	dst   *time.Time
	valid bool
}

func scanTime(dst *time.Time) *timeScanner { return &timeScanner{dst: dst} }

func (ts *timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		ts.valid = false
		return nil
	case time.Time:
		*ts.dst = v.UTC()
	case string:
		t, err := parseTime(v)
		if err != nil {
			return err
		}
		*ts.dst = t
	case []byte:
		t, err := parseTime(string(v))
		if err != nil {
			return err
		}
		*ts.dst = t
	case int64:
		*ts.dst = time.Unix(v, 0).UTC()
	default:
		return fmt.Errorf("cannot scan %T into time.Time", src)
	}
	ts.valid = true
	return nil
}

func parseTime(s string) (time.Time, error) {
	// drop a monotonic clock suffix if one was persisted
	if i := strings.Index(s, " m="); i >= 0 {
		s = s[:i]
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
