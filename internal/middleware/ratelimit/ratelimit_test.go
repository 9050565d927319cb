package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, Clock: clock.Now})
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestLimiter_Allow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("fourth request in the window was allowed")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients must not share the budget")
	}

	clock.Advance(20 * time.Second)
	if got := rl.RetryAfter("1.2.3.4"); got != 40 {
		t.Errorf("RetryAfter = %d, want 40", got)
	}

	clock.Advance(40 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Error("request after the window reset was rejected")
	}
	if got := rl.GetMetrics(); got.TotalHits != 1 || got.ClientCount != 2 {
		t.Errorf("metrics = %+v", got)
	}
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(t, 10)
	rl.Allow("a")
	clock.Advance(5 * time.Minute)
	rl.Allow("b")
	clock.Advance(6 * time.Minute)

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("ActiveClients = %d, want 1", rl.ActiveClients())
	}
}

func TestLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	ip := func(*http.Request) string { return "9.9.9.9" }
	h := rl.Middleware(ip, MutatingOnly, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodDelete, http.StatusTooManyRequests},
		{http.MethodPut, http.StatusTooManyRequests},
	}
	for i, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tt.method, "/entries", nil))
		if rr.Code != tt.want {
			t.Errorf("#%d %s status = %d, want %d", i, tt.method, rr.Code, tt.want)
		}
		if rr.Code == http.StatusTooManyRequests && rr.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After = %q, want 60", rr.Header().Get("Retry-After"))
		}
	}
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
	if rl.requestsPerMinute != 60 {
		t.Errorf("default requests per minute = %d, want 60", rl.requestsPerMinute)
	}
}
