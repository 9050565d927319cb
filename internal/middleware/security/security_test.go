package security

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"scadenze/internal/log"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct", "203.0.113.9:5555", nil, "203.0.113.9"},
		{"untrusted peer ignores XFF", "203.0.113.9:5555", map[string]string{"X-Forwarded-For": "1.1.1.1"}, "203.0.113.9"},
		{"trusted proxy XFF", "10.0.0.2:5555", map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.2"}, "198.51.100.4"},
		{"trusted proxy X-Real-IP", "127.0.0.1:5555", map[string]string{"X-Real-IP": "198.51.100.5"}, "198.51.100.5"},
		{"trusted proxy garbage XFF", "192.168.1.1:80", map[string]string{"X-Forwarded-For": "not-an-ip"}, "192.168.1.1"},
		{"no port", "198.51.100.7", nil, "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		target string
		agent  string
		want   bool
	}{
		{"/entries?type=expense", "curl/8.0", false},
		{"/.env", "", true},
		{"/entries?q=union%20select", "", false},
		{"/entries?q=union+select", "", false},
		{"/reports", "sqlmap/1.7", true},
		{"/wp-admin/install.php", "", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.target, nil)
		r.Header.Set("User-Agent", tt.agent)
		if got := d.DetectSuspiciousRequest(r) != ""; got != tt.want {
			t.Errorf("DetectSuspiciousRequest(%s, %q) = %v, want %v", tt.target, tt.agent, got, tt.want)
		}
	}
	if got := d.GetMetrics().SuspiciousRequests; got != 3 {
		t.Errorf("SuspiciousRequests = %d, want 3", got)
	}
}

func TestDetectorMiddleware(t *testing.T) {
	d := NewDetector()
	h := d.Middleware(log.New(log.Config{Output: io.Discard}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("TRACE", "/entries", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("TRACE status = %d, want 405", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/.git/config", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("suspicious GET status = %d, want 200 (logged, not blocked)", rr.Code)
	}

	m := d.GetMetrics()
	if m.RejectedMethods != 1 || m.SuspiciousRequests != 1 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Error("expected error for invalid CIDR")
	}
	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatalf("AddTrustedProxy: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.1:1"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := d.ExtractClientIP(r); got != "198.51.100.1" {
		t.Errorf("ExtractClientIP() = %q", got)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name     string
		hsts     bool
		tls      bool
		proto    string
		wantHSTS bool
	}{
		{"hsts disabled", false, true, "", false},
		{"plain http", true, false, "", false},
		{"direct tls", true, true, "", true},
		{"behind tls proxy", true, false, "https", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultHeadersConfig()
			cfg.EnableHSTS = tt.hsts
			h := NewHeadersMiddleware(cfg).Middleware(next)

			r := httptest.NewRequest(http.MethodGet, "/entries", nil)
			if tt.tls {
				r.TLS = &tls.ConnectionState{}
			}
			if tt.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, r)

			if got := rr.Header().Get("Strict-Transport-Security") != ""; got != tt.wantHSTS {
				t.Errorf("HSTS present = %v, want %v", got, tt.wantHSTS)
			}
			for _, name := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "Cache-Control"} {
				if rr.Header().Get(name) == "" {
					t.Errorf("missing header %s", name)
				}
			}
		})
	}
}
