package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"MarketPulse/internal/service/metrics"
	xhttp "MarketPulse/pkg/http"
)

const defaultIdleTTL = 10 * time.Minute

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter keeps one token bucket per client key. Buckets idle longer than the
// idle TTL are dropped, so the map only holds recently active clients.
type Limiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

type Option func(*Limiter)

func WithIdleTTL(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.idle = d
		}
	}
}

// New allows burst requests at once per key, refilled at perSec tokens per second.
// A burst below 1 disables limiting.
func New(perSec float64, burst int, opts ...Option) *Limiter {
	l := &Limiter{
		limit:    rate.Limit(perSec),
		burst:    burst,
		idle:     defaultIdleTTL,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.now()
	return l
}

func (l *Limiter) Enabled() bool { return l != nil && l.burst >= 1 }

// Allow reports whether key may make one more request now.
func (l *Limiter) Allow(key string) bool {
	if !l.Enabled() {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.seen = now
	return v.lim.AllowN(now, 1)
}

// Len is the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

func (l *Limiter) sweep(now time.Time) {
	for k, v := range l.visitors {
		if now.Sub(v.seen) >= l.idle {
			delete(l.visitors, k)
		}
	}
	l.lastSweep = now
}

// Middleware rejects requests with 429 once a client IP exhausts its bucket.
// The key is c.RealIP(), so the server's IP extractor decides which headers are trusted.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	retryAfter := "1"
	if l.limit > 0 && !math.IsInf(float64(l.limit), 1) {
		retryAfter = strconv.Itoa(int(1/float64(l.limit)) + 1)
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l.Allow(c.RealIP()) {
				return next(c)
			}
			metrics.RateLimited.Inc()
			c.Response().Header().Set("Retry-After", retryAfter)
			return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "too many requests", http.StatusTooManyRequests))
		}
	}
}
