package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func hit(e *echo.Echo, h echo.HandlerFunc, ip string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimit_RequestsWithinBurst(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 5})
	h := rl.Middleware()(ok)

	for i := 0; i < 5; i++ {
		rec, err := hit(e, h, "10.0.0.1")
		if err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "1" {
			t.Errorf("expected X-RateLimit-Limit 1, got %q", rec.Header().Get("X-RateLimit-Limit"))
		}
	}
}

func TestRateLimit_ExceedsBurst(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	h := rl.Middleware()(ok)

	hit(e, h, "10.0.0.1")
	hit(e, h, "10.0.0.1")
	rec, err := hit(e, h, "10.0.0.1")

	he, isHTTP := err.(*echo.HTTPError)
	if !isHTTP || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimit_PerClient(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})
	h := rl.Middleware()(ok)

	if _, err := hit(e, h, "10.0.0.1"); err != nil {
		t.Fatalf("first client: %v", err)
	}
	if _, err := hit(e, h, "10.0.0.2"); err != nil {
		t.Errorf("second client should have its own budget: %v", err)
	}
	if _, err := hit(e, h, "10.0.0.1"); err == nil {
		t.Error("first client should be limited")
	}
}

func TestRateLimit_SweepDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.get("a")
	now = now.Add(30 * time.Second)
	rl.get("b")

	now = now.Add(45 * time.Second)
	if n := rl.Sweep(); n != 1 {
		t.Errorf("expected 1 client left, got %d", n)
	}
	if _, ok := rl.clients["b"]; !ok {
		t.Error("expected recently seen client to be kept")
	}
}
