package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleTTL is how long an unused client limiter is kept.
	IdleTTL time.Duration
}

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter holds one token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	cfg     RateLimitConfig
	now     func() time.Time
}

// NewRateLimiter creates a new per-IP rate limiter.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 3 * time.Minute
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		cfg:     cfg,
		now:     time.Now,
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if c, ok := rl.clients[key]; ok {
		c.seen = rl.now()
		return c.lim
	}
	l := rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.BurstSize)
	rl.clients[key] = &client{lim: l, seen: rl.now()}
	return l
}

// Sweep drops limiters idle for longer than IdleTTL and returns how many
// remain.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, c := range rl.clients {
		if rl.now().Sub(c.seen) > rl.cfg.IdleTTL {
			delete(rl.clients, key)
		}
	}
	return len(rl.clients)
}

// Run sweeps once a minute until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// Middleware rejects requests over the per-IP budget with 429.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	limit := strconv.FormatFloat(rl.cfg.RequestsPerSecond, 'f', -1, 64)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-RateLimit-Limit", limit)
			if !rl.get(c.RealIP()).Allow() {
				c.Response().Header().Set("Retry-After", "1")
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
