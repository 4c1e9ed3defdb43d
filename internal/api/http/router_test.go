package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/staff-scheduler/internal/api/http/handlers"
	"github.com/shiftdesk/staff-scheduler/internal/auth"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/observability"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
	"github.com/shiftdesk/staff-scheduler/internal/service"
)

type memStaff struct {
	mu      sync.Mutex
	members map[string]domain.StaffMember
}

func (r *memStaff) Create(_ context.Context, s *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[s.ID] = *s
	return nil
}

func (r *memStaff) Update(ctx context.Context, s *domain.StaffMember) error {
	return r.Create(ctx, s)
}

func (r *memStaff) UpdateWarningLevel(_ context.Context, id string, level domain.WarningLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return pgx.ErrNoRows
	}
	m.WarningLevel = level
	r.members[id] = m
	return nil
}

func (r *memStaff) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &m, nil
}

func (r *memStaff) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.Email == email {
			return &m, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memStaff) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StaffMember
	for _, m := range r.members {
		if filter.Role != nil && m.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && m.Active != *filter.Active {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memStaff) Count(ctx context.Context, filter repository.StaffFilter) (int, error) {
	items, err := r.List(ctx, filter)
	return len(items), err
}

type memAlerts struct {
	mu     sync.Mutex
	alerts map[string]domain.Alert
}

func (r *memAlerts) Create(_ context.Context, a *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.NewString()
	r.alerts[a.ID] = *a
	return nil
}

func (r *memAlerts) GetByID(_ context.Context, id string) (*domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (r *memAlerts) List(_ context.Context, filter repository.AlertFilter) ([]domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Alert{}
	for _, a := range r.alerts {
		if a.RecipientID != filter.RecipientID || (filter.UnreadOnly && a.ReadAt != nil) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memAlerts) CountUnread(ctx context.Context, recipientID string) (int, error) {
	items, err := r.List(ctx, repository.AlertFilter{RecipientID: recipientID, UnreadOnly: true})
	return len(items), err
}

func (r *memAlerts) MarkRead(_ context.Context, id, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok || a.RecipientID != recipientID {
		return pgx.ErrNoRows
	}
	if a.ReadAt == nil {
		now := time.Now()
		a.ReadAt = &now
	}
	r.alerts[id] = a
	return nil
}

func (r *memAlerts) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	now := time.Now()
	for id, a := range r.alerts {
		if a.RecipientID == recipientID && a.ReadAt == nil {
			a.ReadAt = &now
			r.alerts[id] = a
			n++
		}
	}
	return n, nil
}

func (r *memAlerts) Delete(_ context.Context, id, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok || a.RecipientID != recipientID {
		return pgx.ErrNoRows
	}
	delete(r.alerts, id)
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubLimiter struct {
	mu      sync.Mutex
	allowed int
	retry   time.Duration
	err     error
	hits    int
}

func (l *stubLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits++
	if l.err != nil {
		return true, 0, l.err
	}
	if l.hits > l.allowed {
		return false, l.retry, nil
	}
	return true, 0, nil
}

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T, limiter Limiter, deps map[string]handlers.Pinger) *testServer {
	t.Helper()
	staff := &memStaff{members: map[string]domain.StaffMember{
		"admin-1": {ID: "admin-1", Name: "Ada", Email: "ada@example.com", Role: domain.StaffRoleAdmin, Active: true},
		"emp-1":   {ID: "emp-1", Name: "Eve", Email: "eve@example.com", Role: domain.StaffRoleEmployee, Active: true},
	}}
	alertService := service.NewAlertService(service.AlertDependencies{
		AlertRepo: &memAlerts{alerts: map[string]domain.Alert{}},
		StaffRepo: staff,
	})
	tokens := auth.NewTokenManager("test-secret", 60)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})
	RegisterMiddlewares(app, MiddlewareConfig{Metrics: metrics, Timeout: 5 * time.Second})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("staff-scheduler", "test", deps, metrics),
		Auth:           handlers.NewAuthHandler(nil, false),
		Staff:          handlers.NewStaffHandler(nil),
		Tasks:          handlers.NewTaskHandler(nil),
		Schedule:       handlers.NewScheduleHandler(nil),
		Performance:    handlers.NewPerformanceHandler(nil),
		Discipline:     handlers.NewDisciplineHandler(nil),
		Alerts:         handlers.NewAlertHandler(alertService),
		Verification:   handlers.NewVerificationHandler(nil),
		Dashboard:      handlers.NewDashboardHandler(nil),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, staff, nil, nil),
		Limiter:        limiter,
	})
	return &testServer{app: app, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, staffID, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if staffID != "" {
		role := domain.StaffRoleEmployee
		if staffID == "admin-1" {
			role = domain.StaffRoleAdmin
		}
		tok, _, err := s.tokens.GenerateToken(staffID, role)
		require.NoError(t, err)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func errorCode(body map[string]any) string {
	envelope, _ := body["error"].(map[string]any)
	code, _ := envelope["code"].(string)
	return code
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, nil, map[string]handlers.Pinger{"postgres": stubPinger{}, "redis": stubPinger{}})

	resp, body := srv.do(t, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])

	resp, body = srv.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body["status"])

	resp, body = srv.do(t, http.MethodGet, "/health/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ := body["data"].(map[string]any)
	requests, _ := data["requests"].(map[string]any)
	assert.Contains(t, requests, "/health/live|GET|200")

	down := newTestServer(t, nil, map[string]handlers.Pinger{"redis": stubPinger{err: errors.New("connection refused")}})
	resp, body = down.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(body))
}

func TestErrorEnvelopeAndRequestID(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp, body := srv.do(t, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
	_, err := uuid.Parse(resp.Header.Get("X-Request-ID"))
	assert.NoError(t, err, "a request id is generated when none is sent")

	resp, body = srv.do(t, http.MethodGet, "/api/alerts", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", id)
	r, err := srv.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, id, r.Header.Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid")
	r, err = srv.app.Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", r.Header.Get("X-Request-ID"))
}

func TestRoleGuards(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"create alert", http.MethodPost, "/api/alerts", `{"title":"x"}`},
		{"list staff", http.MethodGet, "/api/staff", ""},
		{"create department", http.MethodPost, "/api/departments", `{"name":"Ops"}`},
		{"revoke warning", http.MethodPost, "/api/discipline/warnings/w-1/revoke", ""},
		{"admin dashboard", http.MethodGet, "/api/dashboard/admin", ""},
		{"export schedule", http.MethodGet, "/api/schedule/export", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := srv.do(t, tt.method, tt.path, "emp-1", tt.body)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Equal(t, "FORBIDDEN", errorCode(body))
		})
	}
}

func TestAlertEndpoints(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp, body := srv.do(t, http.MethodPost, "/api/alerts", "admin-1", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	resp, body = srv.do(t, http.MethodPost, "/api/alerts", "admin-1",
		`{"recipient_id":"emp-1","type":"SHIFT","severity":"WARNING","title":"Cover needed","message":"Friday night"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created, _ := body["data"].([]any)
	require.Len(t, created, 1)
	alertID := created[0].(map[string]any)["id"].(string)

	resp, body = srv.do(t, http.MethodPost, "/api/alerts", "admin-1", `{"title":"Holiday hours"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	broadcast, _ := body["data"].([]any)
	assert.Len(t, broadcast, 2, "broadcast reaches every active staff member")

	_, body = srv.do(t, http.MethodGet, "/api/alerts/unread-count", "emp-1", "")
	assert.Equal(t, map[string]any{"unread": float64(2)}, body["data"])

	_, body = srv.do(t, http.MethodGet, "/api/alerts?page_size=1", "emp-1", "")
	items, _ := body["data"].([]any)
	assert.Len(t, items, 2, "the in-memory repository ignores paging")
	meta, _ := body["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["page_size"])

	resp, _ = srv.do(t, http.MethodPatch, "/api/alerts/"+alertID+"/read", "admin-1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "other recipients cannot touch the alert")

	resp, _ = srv.do(t, http.MethodPatch, "/api/alerts/"+alertID+"/read", "emp-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = srv.do(t, http.MethodGet, "/api/alerts?unread=true", "emp-1", "")
	items, _ = body["data"].([]any)
	assert.Len(t, items, 1)

	resp, _ = srv.do(t, http.MethodGet, "/api/alerts?unread=maybe", "emp-1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body = srv.do(t, http.MethodPatch, "/api/alerts/read-all", "emp-1", "")
	assert.Equal(t, map[string]any{"updated": float64(1)}, body["data"])

	resp, body = srv.do(t, http.MethodPatch, "/api/alerts/not-an-id/read", "emp-1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "malformed ids never reach the store")
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	resp, _ = srv.do(t, http.MethodDelete, "/api/alerts/"+alertID, "emp-1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = srv.do(t, http.MethodDelete, "/api/alerts/"+alertID, "emp-1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	limiter := &stubLimiter{allowed: 1, retry: 1500 * time.Millisecond}
	srv := newTestServer(t, limiter, nil)

	resp, _ := srv.do(t, http.MethodGet, "/api/alerts", "emp-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := srv.do(t, http.MethodGet, "/api/alerts", "emp-1", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", errorCode(body))
	assert.Equal(t, "2", resp.Header.Get(fiber.HeaderRetryAfter))

	resp, _ = srv.do(t, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health probes are not rate limited")
}

func TestRateLimitFailsOpen(t *testing.T) {
	srv := newTestServer(t, &stubLimiter{err: errors.New("redis down")}, nil)

	resp, _ := srv.do(t, http.MethodGet, "/api/alerts", "emp-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
