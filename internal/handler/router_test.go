package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

func newTestRouter(deps *RouterDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if deps.AuthService == nil {
		deps.AuthService = &mockAuthService{}
	}
	if deps.WaitlistService == nil {
		deps.WaitlistService = &mockWaitlistService{}
	}
	if deps.CookieVerifier == nil {
		deps.AuthConfig = testAuthConfig()
		deps.CookieVerifier = deps.AuthConfig.Cookies
	}
	if deps.SessionFinder == nil {
		deps.SessionFinder = newMemSessionRepo()
	}
	deps.CORSAllowedOrigin = testFrontendURL
	return NewRouter(deps)
}

func TestRouter_PublicRoutes(t *testing.T) {
	router := newTestRouter(&RouterDeps{
		HealthChecker:  &mockHealthChecker{},
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "metrics") }),
	})

	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{http.MethodGet, "/api/user/u1/stats", http.StatusOK, `{"followers":0,"collabs":0}`},
		{http.MethodGet, "/health", http.StatusOK, `{"status":"ok"}`},
		{http.MethodGet, "/metrics", http.StatusOK, "metrics"},
		{http.MethodGet, "/api/login", http.StatusFound, ""},
		{http.MethodGet, "/api/me", http.StatusUnauthorized, "null"},
		{http.MethodGet, "/api/logout", http.StatusFound, ""},
		{http.MethodGet, "/api/unknown", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && strings.TrimSpace(w.Body.String()) != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if w.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("security headers should be applied to every route")
			}
		})
	}
}

func TestRouter_ProtectedRoutesRequireSession(t *testing.T) {
	router := newTestRouter(&RouterDeps{})

	for _, tt := range []struct{ method, path string }{
		{http.MethodPost, "/api/waitlist"},
		{http.MethodGet, "/api/waitlist/user"},
	} {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader(janeBody)))
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
			if !strings.Contains(w.Body.String(), `"code":"UNAUTHORIZED"`) {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestRouter_HealthUnavailable(t *testing.T) {
	router := newTestRouter(&RouterDeps{HealthChecker: &mockHealthChecker{err: errors.New("db down")}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestRouter_MetricsNotMountedWithoutHandler(t *testing.T) {
	router := newTestRouter(&RouterDeps{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRouter_CORSPreflightForWaitlist(t *testing.T) {
	router := newTestRouter(&RouterDeps{})

	req := httptest.NewRequest(http.MethodOptions, "/api/waitlist", nil)
	req.Header.Set("Origin", testFrontendURL)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}
}
