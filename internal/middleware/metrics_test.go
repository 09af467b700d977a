package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type recordedRequest struct {
	method string
	route  string
	status int
}

type mockHTTPRecorder struct {
	requests []recordedRequest
}

func (m *mockHTTPRecorder) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	m.requests = append(m.requests, recordedRequest{method, route, statusCode})
}

var _ HTTPRecorder = (*mockHTTPRecorder)(nil)

func TestMetricsMiddleware_RecordsRoutePattern(t *testing.T) {
	rec := &mockHTTPRecorder{}
	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware(rec))
	r.Get("/api/user/{id}/stats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/user/u1/stats", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if len(rec.requests) != 2 {
		t.Fatalf("recorded = %d, want 2", len(rec.requests))
	}
	want := recordedRequest{"GET", "/api/user/{id}/stats", 200}
	if rec.requests[0] != want {
		t.Errorf("first = %+v, want %+v", rec.requests[0], want)
	}
	if rec.requests[1].status != http.StatusNotFound {
		t.Errorf("second status = %d, want 404", rec.requests[1].status)
	}
}
