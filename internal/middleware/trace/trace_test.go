package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"scadenze/internal/log"
)

func newTestMiddleware(buf *bytes.Buffer) *Middleware {
	logger := log.New(log.Config{Output: buf})
	return NewMiddleware(logger, func(*http.Request) string { return "10.0.0.7" })
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		if log.FromContext(r.Context()) == nil {
			t.Error("no logger in request context")
		}
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/entries", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("request id = %q, want req_ prefix", seen)
	}
	if got := rr.Header().Get(HeaderRequestID); got != seen {
		t.Errorf("response header = %q, want %q", got, seen)
	}

	out := buf.String()
	for _, want := range []string{"HTTP request started", "HTTP request completed", "status_code=201", "client_ip=10.0.0.7"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestMiddleware_IncomingRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"plain id", "abc-123", true},
		{"with spaces", "abc 123", false},
		{"too long", strings.Repeat("a", 65), false},
		{"control char", "abc\x01", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := newTestMiddleware(&buf).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set(HeaderRequestID, tt.header)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			got := rr.Header().Get(HeaderRequestID)
			if tt.keep && got != tt.header {
				t.Errorf("request id = %q, want %q", got, tt.header)
			}
			if !tt.keep && got == tt.header {
				t.Errorf("request id %q should have been replaced", got)
			}
		})
	}
}

func TestMiddleware_Metrics(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))

	for _, path := range []string{"/a", "/boom", "/b"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 3 || got.ServerErrors != 1 {
		t.Errorf("metrics = %+v, want 3 requests and 1 server error", got)
	}
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Error("5xx completion should log at error level")
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	if id := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); id != "" {
		t.Errorf("GetRequestID = %q, want empty", id)
	}
}
