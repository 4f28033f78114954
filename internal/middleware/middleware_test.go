package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/reliefhub/relief-server/internal/auth"
	"github.com/reliefhub/relief-server/internal/models"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func okHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func tokenFor(t *testing.T, id string, roles ...models.Role) string {
	t.Helper()
	token, _, err := auth.Issue(testSecret, &models.User{ID: id, Roles: roles}, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestRequireAuth(t *testing.T) {
	var seen models.Actor
	h := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + tokenFor(t, "vol-1", models.RoleVolunteer), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
	if seen.ID != "vol-1" || !seen.HasRole(models.RoleVolunteer) {
		t.Fatalf("actor not propagated: %+v", seen)
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleVolunteer, models.RoleAdmin)(okHandler(t))

	cases := []struct {
		name  string
		actor *models.Actor
		want  int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"donor", &models.Actor{ID: "d", Roles: []models.Role{models.RoleDonor}}, http.StatusForbidden},
		{"volunteer", &models.Actor{ID: "v", Roles: []models.Role{models.RoleVolunteer}}, http.StatusNoContent},
		{"admin", &models.Actor{ID: "a", Roles: []models.Role{models.RoleAdmin}}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.actor != nil {
				req = req.WithContext(WithActor(req.Context(), *tc.actor))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestMemoryLimiterWindow(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		if ok, _ := l.Allow(ctx, "10.0.0.1"); ok != want {
			t.Fatalf("request %d: expected %v", i, want)
		}
	}
	if ok, _ := l.Allow(ctx, "10.0.0.2"); !ok {
		t.Fatalf("other clients have their own budget")
	}
	now = now.Add(time.Minute)
	if ok, _ := l.Allow(ctx, "10.0.0.1"); !ok {
		t.Fatalf("expected a fresh window")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimit(NewMemoryLimiter(1, time.Minute), zap.NewNop().Sugar())(okHandler(t))

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("first request: %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", code)
	}
}

func TestRateLimitFailsOpenWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	h := RateLimit(NewRedisLimiter(client, 1, time.Minute), zap.NewNop().Sugar())(okHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected request through, got %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders()(okHandler(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Referrer-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Fatalf("missing %s", h)
		}
	}
}
