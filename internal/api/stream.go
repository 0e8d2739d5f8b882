package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"choir-dashboard/internal/live"
)

type eventStream struct {
	w http.ResponseWriter
	f http.Flusher
}

func openStream(w http.ResponseWriter) (*eventStream, bool) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &eventStream{w: w, f: f}, true
}

func (s *eventStream) send(event, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if id != "" {
		if _, err := fmt.Fprintf(s.w, "id: %s\n", id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// fail tells the client the stream is over for a retryable reason. The
// browser's EventSource reconnects after the response ends.
func (s *eventStream) fail(err error) error {
	return s.send("error", "", ErrorResponse{Error: err.Error()})
}

func (s *eventStream) ping() error {
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

func (a *API) heartbeat() *time.Ticker {
	d := a.Heartbeat
	if d <= 0 {
		d = DefaultHeartbeat
	}
	return time.NewTicker(d)
}

// @Summary Stream configuration changes
// @Description Server-sent events. The first event is the current configuration.
// @Tags Configuration
// @Security ApiKeyAuth
// @Produce text/event-stream
// @Success 200 {object} model.TenantConfiguration
// @Router /config/stream [get]
func (a *API) StreamConfiguration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := live.OpenSession(ctx, a.Live, scopeOf(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer sess.Close()
	updates, stop := sess.Watch()
	defer stop()

	stream, ok := openStream(w)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ticker := a.heartbeat()
	defer ticker.Stop()

	sent := int64(-1)
	emit := func(rev int64, v any) bool {
		if rev <= sent {
			return true
		}
		sent = rev
		if err := stream.send("configuration", strconv.FormatInt(rev, 10), v); err != nil {
			a.Log.Debug("configuration stream closed", zap.Error(err))
			return false
		}
		return true
	}

	cur := sess.Current()
	if !emit(cur.Revision, cur) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-updates:
			if !ok {
				if err := sess.Err(); err != nil {
					a.Log.Warn("configuration stream lost its feed", zap.Error(err))
					_ = stream.fail(err)
				}
				return
			}
			if !emit(cfg.Revision, cfg) {
				return
			}
		case <-ticker.C:
			if err := stream.ping(); err != nil {
				return
			}
		}
	}
}

// @Summary Stream the confirmed count of a concert
// @Description Server-sent events. The first event is the current count.
// @Tags Attendance
// @Security ApiKeyAuth
// @Produce text/event-stream
// @Param id path string true "Concert UUID"
// @Success 200 {object} CountResponse
// @Router /concerts/{id}/attendance/stream [get]
func (a *API) StreamCount(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	ctx := r.Context()

	// latest count only; WatchCount calls push from one goroutine at a time
	counts := make(chan int, 1)
	push := func(n int) {
		select {
		case <-counts:
		default:
		}
		counts <- n
	}
	ended := make(chan error, 1)
	dispose, err := a.Ledger.WatchCount(ctx, scopeOf(r), id, push, func(err error) { ended <- err })
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer dispose()

	stream, ok := openStream(w)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ticker := a.heartbeat()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-counts:
			if err := stream.send("count", "", CountResponse{ConcertID: id, Confirmed: n}); err != nil {
				return
			}
		case err := <-ended:
			a.Log.Warn("count stream lost its feed", zap.Stringer("concert", id), zap.Error(err))
			_ = stream.fail(err)
			return
		case <-ticker.C:
			if err := stream.ping(); err != nil {
				return
			}
		}
	}
}
