package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dlog "debtplan/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	m := NewMiddleware(func(*http.Request) string { return "127.0.0.1" })
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r)
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/loans", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("request id = %q, want generated req_ prefix", seen)
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Errorf("response header = %q, want %q", rec.Header().Get(HeaderRequestID), seen)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if m.TotalRequests() != 1 {
		t.Errorf("TotalRequests = %d", m.TotalRequests())
	}
}

func TestMiddlewareKeepsValidIncomingID(t *testing.T) {
	h := NewMiddleware(nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		incoming string
		keep     bool
	}{
		{"abc-123", true},
		{"has spaces", false},
		{strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		r.Header.Set(HeaderRequestID, tt.incoming)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		got := rec.Header().Get(HeaderRequestID)
		if (got == tt.incoming) != tt.keep {
			t.Errorf("incoming %q: got %q, keep=%v", tt.incoming, got, tt.keep)
		}
	}
}

func TestMiddlewareLogsCompletion(t *testing.T) {
	var buf bytes.Buffer
	logger := dlog.New(dlog.Config{Level: slog.LevelInfo, Component: dlog.ComponentHTTP, Output: &buf})

	h := dlog.Middleware(logger)(NewMiddleware(nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})))

	r := httptest.NewRequest(http.MethodGet, "/plans/latest", nil)
	r.Header.Set(HeaderRequestID, "trace-1")
	h.ServeHTTP(httptest.NewRecorder(), r)

	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=404", "request_id=trace-1", "path=/plans/latest"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}
