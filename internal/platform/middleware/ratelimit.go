package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medcalc/medcalc/internal/platform/auth"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// sweepInterval is how often idle callers are forgotten.
const sweepInterval = time.Minute

// allowance is one caller's remaining request budget as of at.
type allowance struct {
	level float64
	at    time.Time
}

// verdict is the outcome of charging one request to a caller.
type verdict struct {
	allowed   bool
	remaining int
	wait      time.Duration
}

// limiter tracks a refilling request budget per caller key. Callers whose
// budget has refilled completely carry no state and are dropped on sweep.
type limiter struct {
	rate  float64
	burst float64

	mu    sync.Mutex
	keys  map[string]*allowance
	swept time.Time
	now   func() time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	return &limiter{
		rate:  cfg.RequestsPerSecond,
		burst: float64(cfg.BurstSize),
		keys:  make(map[string]*allowance),
		now:   time.Now,
	}
}

// refillTime is how long an empty budget takes to become full again.
func (l *limiter) refillTime() time.Duration {
	return time.Duration(l.burst / l.rate * float64(time.Second))
}

func (l *limiter) take(key string) verdict {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.swept) >= sweepInterval {
		l.sweep(now)
	}

	a, ok := l.keys[key]
	if !ok {
		a = &allowance{level: l.burst, at: now}
		l.keys[key] = a
	}
	a.level = math.Min(l.burst, a.level+now.Sub(a.at).Seconds()*l.rate)
	a.at = now

	if a.level < 1 {
		wait := time.Duration((1 - a.level) / l.rate * float64(time.Second))
		return verdict{wait: wait}
	}
	a.level--
	return verdict{allowed: true, remaining: int(a.level)}
}

func (l *limiter) sweep(now time.Time) {
	full := l.refillTime()
	for key, a := range l.keys {
		if now.Sub(a.at) >= full {
			delete(l.keys, key)
		}
	}
	l.swept = now
}

// retryAfterSeconds rounds wait up to whole seconds, never below one.
func retryAfterSeconds(wait time.Duration) int {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// rateLimitKey buckets authenticated callers by user and everyone else by
// client IP.
func rateLimitKey(c echo.Context) string {
	if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.RealIP()
}

// RateLimit returns a rate limiting middleware. A non-positive rate disables it.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return rateLimit(newLimiter(cfg))
}

func rateLimit(l *limiter) echo.MiddlewareFunc {
	limit := strconv.FormatFloat(l.rate, 'f', -1, 64)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v := l.take(rateLimitKey(c))
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
			if !v.allowed {
				h.Set("Retry-After", strconv.Itoa(retryAfterSeconds(v.wait)))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
