package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"choir-dashboard/internal/attendance"
	"choir-dashboard/internal/auth"
	"choir-dashboard/internal/concert"
	"choir-dashboard/internal/feed"
	"choir-dashboard/internal/live"
	"choir-dashboard/internal/model"
	"choir-dashboard/internal/storage"
	"choir-dashboard/internal/tenant"
	"choir-dashboard/internal/views"
)

type testEnv struct {
	srv    *httptest.Server
	store  *storage.Storage
	hub    *feed.Hub
	choir  uuid.UUID
	admin  *model.Member
	member *model.Member
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	prev := auth.JWTSecret
	auth.SetSecret("test-secret")
	t.Cleanup(func() { auth.JWTSecret = prev })

	s, err := storage.NewSQLite(":memory:", storage.Options{Timeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })

	hub := feed.NewHub(16, nil)
	t.Cleanup(func() { _ = hub.Close() })

	a := NewAPI(
		tenant.NewResolver(s, nil),
		attendance.NewLedger(s, hub, nil),
		concert.NewManager(s, hub, nil),
		live.NewChannel(s, hub, nil),
		nil,
	)
	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)

	env := &testEnv{srv: srv, store: s, hub: hub, choir: uuid.New()}
	env.admin = env.addMember(t, "Lucía", model.RoleAdmin, &env.choir)
	env.member = env.addMember(t, "María", model.RoleMember, &env.choir)
	return env
}

func (e *testEnv) addMember(t *testing.T, name string, role model.Role, choir *uuid.UUID) *model.Member {
	t.Helper()
	m := &model.Member{ID: uuid.New(), Name: name, Email: strings.ToLower(name) + "@example.org", Role: role, ChoirID: choir, CreatedAt: time.Now().UTC()}
	require.NoError(t, e.store.UpsertMember(context.Background(), m))
	return m
}

func token(t *testing.T, m *model.Member) string {
	t.Helper()
	tok, err := auth.GenerateToken(m.ID, m.Email)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path string, as *model.Member, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	require.NoError(t, err)
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, as))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.ErrNotOnboarded, http.StatusConflict},
		{model.Forbidden("no"), http.StatusForbidden},
		{model.ErrUnreachable, http.StatusServiceUnavailable},
		{model.ErrNotFound, http.StatusNotFound},
		{model.InvalidInput("bad"), http.StatusBadRequest},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestCancelledRequestWritesNothing(t *testing.T) {
	a := NewAPI(nil, nil, nil, nil, nil)
	err := fmt.Errorf("load configuration: %w", context.Canceled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	a.writeError(rec, httptest.NewRequest(http.MethodGet, "/config", nil).WithContext(ctx), err)
	assert.Zero(t, rec.Body.Len())

	rec = httptest.NewRecorder()
	a.writeError(rec, httptest.NewRequest(http.MethodGet, "/config", nil), err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPublicAndUnauthenticated(t *testing.T) {
	env := newEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil, nil).StatusCode)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/metrics", nil, nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/concerts", nil, nil).StatusCode)
}

func TestMemberWithoutChoirIsStopped(t *testing.T) {
	env := newEnv(t)
	drifter := env.addMember(t, "Pablo", model.RoleMember, nil)

	resp := env.do(t, http.MethodGet, "/config", drifter, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	ghost := &model.Member{ID: uuid.New()}
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/config", ghost, nil).StatusCode)
}

func TestViewsFollowRole(t *testing.T) {
	env := newEnv(t)

	sel := decodeBody[views.Selection](t, env.do(t, http.MethodGet, "/me/views?active=settings", env.member, nil))
	assert.Equal(t, views.Concerts, sel.Active)
	assert.NotContains(t, sel.Permitted, views.Settings)

	sel = decodeBody[views.Selection](t, env.do(t, http.MethodGet, "/me/views?active=settings", env.admin, nil))
	assert.Equal(t, views.Settings, sel.Active)
}

func TestConcertAndAttendanceFlow(t *testing.T) {
	env := newEnv(t)

	resp := env.do(t, http.MethodPost, "/concerts", env.member, CreateConcertRequest{Title: "Gala"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/concerts", env.admin, CreateConcertRequest{
		Title: "Gala de primavera", Venue: "Auditorio", Repertoire: "Ave Maria, Cantate Domino,",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c := decodeBody[model.Concert](t, resp)
	assert.Equal(t, []string{"Ave Maria", "Cantate Domino"}, c.Repertoire)

	path := "/concerts/" + c.ID.String()
	resp = env.do(t, http.MethodPut, path+"/attendance/"+env.member.ID.String(), env.member, map[string]bool{"attending": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPut, path+"/attendance/"+env.admin.ID.String(), env.member, map[string]bool{"attending": true})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPut, path+"/attendance/"+env.member.ID.String(), env.member, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	count := decodeBody[CountResponse](t, env.do(t, http.MethodGet, path+"/attendance/count", env.member, nil))
	assert.Equal(t, 1, count.Confirmed)

	mine := decodeBody[map[uuid.UUID]bool](t, env.do(t, http.MethodGet, "/me/attendance", env.member, nil))
	assert.Equal(t, map[uuid.UUID]bool{c.ID: true}, mine)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, path+"/attendees", env.member, nil).StatusCode)
	roster := decodeBody[[]model.Attendee](t, env.do(t, http.MethodGet, path+"/attendees", env.admin, nil))
	require.Len(t, roster, 1)
	assert.Equal(t, "María", roster[0].Name)

	resp = env.do(t, http.MethodPost, path+"/cancel", env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeBody[model.Concert](t, resp).IsCancelled)

	upcoming := decodeBody[[]model.Concert](t, env.do(t, http.MethodGet, "/concerts", env.member, nil))
	assert.Empty(t, upcoming)
	history := decodeBody[[]model.Concert](t, env.do(t, http.MethodGet, "/concerts/history", env.member, nil))
	assert.Len(t, history, 1)

	resp = env.do(t, http.MethodPut, path+"/attendance/"+env.member.ID.String(), env.member, map[string]bool{"attending": false})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/concerts/not-a-uuid", env.member, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/concerts/"+uuid.NewString(), env.member, nil).StatusCode)
}

func TestConcertsAreScopedToChoir(t *testing.T) {
	env := newEnv(t)
	other := uuid.New()
	outsider := env.addMember(t, "Jordi", model.RoleAdmin, &other)

	c := decodeBody[model.Concert](t, env.do(t, http.MethodPost, "/concerts", env.admin, CreateConcertRequest{Title: "Local"}))
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/concerts/"+c.ID.String(), outsider, nil).StatusCode)
	assert.Empty(t, decodeBody[[]model.Concert](t, env.do(t, http.MethodGet, "/concerts", outsider, nil)))
}

func TestConfiguration(t *testing.T) {
	env := newEnv(t)

	cfg := decodeBody[model.TenantConfiguration](t, env.do(t, http.MethodGet, "/config", env.admin, nil))
	assert.Equal(t, model.DefaultThemeColor, cfg.ThemeColor)

	fields := model.ConfigurationFields{ThemeColor: "#10b981"}
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPut, "/config", env.member, fields).StatusCode)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/config", env.admin, model.ConfigurationFields{ThemeColor: "teal"}).StatusCode)

	resp := env.do(t, http.MethodPut, "/config", env.admin, fields)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cfg = decodeBody[model.TenantConfiguration](t, env.do(t, http.MethodGet, "/config", env.member, nil))
	assert.Equal(t, "#10b981", cfg.ThemeColor)
}

type sseEvent struct {
	name string
	data string
}

func openEvents(t *testing.T, env *testEnv, path string, as *model.Member) (*bufio.Reader, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.srv.URL+path+"?access_token="+token(t, as), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	t.Cleanup(func() {
		cancel()
		_ = resp.Body.Close()
	})
	return bufio.NewReader(resp.Body), cancel
}

func nextEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestConfigurationStream(t *testing.T) {
	env := newEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/config", env.admin, nil).StatusCode)

	events, _ := openEvents(t, env, "/config/stream", env.member)

	first := nextEvent(t, events)
	assert.Equal(t, "configuration", first.name)
	assert.Contains(t, first.data, model.DefaultThemeColor)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/config", env.admin, model.ConfigurationFields{ThemeColor: "#10b981"}).StatusCode)

	next := nextEvent(t, events)
	var cfg model.TenantConfiguration
	require.NoError(t, json.Unmarshal([]byte(next.data), &cfg))
	assert.Equal(t, "#10b981", cfg.ThemeColor)
	assert.Equal(t, int64(2), cfg.Revision)
}

func TestCountStream(t *testing.T) {
	env := newEnv(t)
	c := decodeBody[model.Concert](t, env.do(t, http.MethodPost, "/concerts", env.admin, CreateConcertRequest{Title: "Gala"}))
	path := "/concerts/" + c.ID.String()

	events, _ := openEvents(t, env, path+"/attendance/stream", env.admin)

	var got CountResponse
	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events).data), &got))
	assert.Equal(t, 0, got.Confirmed)

	resp := env.do(t, http.MethodPut, path+"/attendance/"+env.member.ID.String(), env.member, map[string]bool{"attending": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events).data), &got))
	assert.Equal(t, 1, got.Confirmed)
}

func TestStreamsEndWhenFeedEnds(t *testing.T) {
	env := newEnv(t)
	c := decodeBody[model.Concert](t, env.do(t, http.MethodPost, "/concerts", env.admin, CreateConcertRequest{Title: "Gala"}))

	configEvents, _ := openEvents(t, env, "/config/stream", env.member)
	countEvents, _ := openEvents(t, env, "/concerts/"+c.ID.String()+"/attendance/stream", env.admin)
	assert.Equal(t, "configuration", nextEvent(t, configEvents).name)
	assert.Equal(t, "count", nextEvent(t, countEvents).name)

	require.NoError(t, env.hub.Close())

	for _, events := range []*bufio.Reader{configEvents, countEvents} {
		ev := nextEvent(t, events)
		assert.Equal(t, "error", ev.name)
		assert.Contains(t, ev.data, model.ErrUnreachable.Error())

		_, err := events.ReadString('\n')
		assert.ErrorIs(t, err, io.EOF)
	}
}
