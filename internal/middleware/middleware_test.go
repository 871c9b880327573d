package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.POST("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func serve(r http.Handler, method, origin, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSMiddleware(t *testing.T) {
	cases := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		wantStatus  int
		wantAllowed string
	}{
		{"preflight from allowed origin", []string{"http://localhost:3000"}, http.MethodOptions, "http://localhost:3000", http.StatusNoContent, "http://localhost:3000"},
		{"preflight from unknown origin", []string{"http://localhost:3000"}, http.MethodOptions, "http://evil.test", http.StatusNoContent, ""},
		{"simple request from allowed origin", []string{"http://localhost:3000"}, http.MethodGet, "http://localhost:3000", http.StatusOK, "http://localhost:3000"},
		{"simple request from unknown origin", []string{"http://localhost:3000"}, http.MethodGet, "http://evil.test", http.StatusOK, ""},
		{"wildcard echoes the origin", []string{"*"}, http.MethodGet, "http://any.test", http.StatusOK, "http://any.test"},
		{"no origin header", []string{"*"}, http.MethodGet, "", http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(newEngine(CORSMiddleware(tc.allowed)), tc.method, tc.origin, "")
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantAllowed {
				t.Fatalf("Access-Control-Allow-Origin = %q, want %q", got, tc.wantAllowed)
			}
			if tc.method == http.MethodOptions && rec.Body.Len() != 0 {
				t.Fatalf("preflight must not reach the handler, body %q", rec.Body.String())
			}
		})
	}
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"http://localhost:3000", "https://demo.example.org"}
	cases := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"https://demo.example.org", true},
		{"http://localhost:3001", false},
		{"https://evil.test", false},
	}
	for _, tc := range cases {
		if got := OriginAllowed(allowed, tc.origin); got != tc.want {
			t.Fatalf("OriginAllowed(%q) = %v, want %v", tc.origin, got, tc.want)
		}
	}
	if !OriginAllowed([]string{"*"}, "https://evil.test") {
		t.Fatal("wildcard should allow every origin")
	}
	if OriginAllowed(nil, "https://evil.test") {
		t.Fatal("empty allow list should reject cross-origin streams")
	}
}

func TestRateLimiterRejectsWithRetryAfter(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewRateLimiter(2)
	limiter.clock = clock
	r := newEngine(limiter.Middleware())

	for i := 0; i < 2; i++ {
		if rec := serve(r, http.MethodPost, "", "10.0.0.1:1000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}

	rec := serve(r, http.MethodPost, "", "10.0.0.1:1000")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("Retry-After = %q, want 30", got)
	}

	if rec := serve(r, http.MethodPost, "", "10.0.0.2:1000"); rec.Code != http.StatusOK {
		t.Fatalf("other client should have its own bucket, got %d", rec.Code)
	}

	clock.Advance(31 * time.Second)
	if rec := serve(r, http.MethodPost, "", "10.0.0.1:1000"); rec.Code != http.StatusOK {
		t.Fatalf("expected a refilled token, got %d", rec.Code)
	}
}

func TestRateLimiterRetryAfter(t *testing.T) {
	cases := []struct {
		perMinute int
		want      int
	}{
		{60, 1},
		{30, 2},
		{7, 9},
		{1, 60},
	}
	for _, tc := range cases {
		if got := NewRateLimiter(tc.perMinute).retryAfter(); got != tc.want {
			t.Fatalf("retryAfter at %d/min = %d, want %d", tc.perMinute, got, tc.want)
		}
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewRateLimiter(10)
	limiter.clock = clock
	r := newEngine(limiter.Middleware())

	serve(r, http.MethodPost, "", "10.0.0.1:1000")
	serve(r, http.MethodPost, "", "10.0.0.2:1000")
	if got := limiter.visitorCount(); got != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", got)
	}

	clock.Advance(visitorTTL)
	serve(r, http.MethodPost, "", "10.0.0.3:1000")
	if got := limiter.visitorCount(); got != 1 {
		t.Fatalf("expected idle clients to be evicted, %d tracked", got)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	r := newEngine(NewRateLimiter(0).Middleware())
	for i := 0; i < 100; i++ {
		if rec := serve(r, http.MethodPost, "", "10.0.0.1:1000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
}

func TestRequestID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := newEngine(RequestID(), AccessLog(logger))

	rec := serve(r, http.MethodGet, "", "")
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Fatalf("expected incoming request id to be kept, got %q", got)
	}
}
