package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"MarketPulse/internal/domain/models"
	xhttp "MarketPulse/pkg/http"
	"MarketPulse/pkg/logger"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultAttempts = 3
	retryStep       = 200 * time.Millisecond
)

// Base is the shared foundation of the REST market-data clients:
// base URL, static headers, a token-bucket limiter and retry on transient failures.
type Base struct {
	name     string
	baseURL  string
	headers  map[string]string
	client   *xhttp.Client
	limiter  *rate.Limiter
	attempts int
	log      *logger.Logger
}

type Option func(*Base)

func WithHeader(key, value string) Option {
	return func(b *Base) {
		if value != "" {
			b.headers[key] = value
		}
	}
}

// WithRateLimit allows perMinute requests per minute with the given burst.
func WithRateLimit(perMinute, burst int) Option {
	return func(b *Base) {
		if perMinute <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60), burst)
	}
}

func WithAttempts(n int) Option {
	return func(b *Base) {
		if n > 0 {
			b.attempts = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(b *Base) {
		if d > 0 {
			b.client = xhttp.NewClient(xhttp.WithTimeout(d))
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(b *Base) {
		if l != nil {
			b.log = l
		}
	}
}

func New(name, baseURL string, opts ...Option) *Base {
	b := &Base{
		name:     name,
		baseURL:  strings.TrimRight(baseURL, "/"),
		headers:  map[string]string{"Accept": "application/json"},
		client:   xhttp.NewClient(xhttp.WithTimeout(defaultTimeout)),
		limiter:  rate.NewLimiter(rate.Inf, 1),
		attempts: defaultAttempts,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Base) Name() string { return b.name }

// GetJSON fetches path under the base URL and decodes the response into dest.
func (b *Base) GetJSON(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("%s: http client not initialized", b.name)
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return &models.UpstreamError{Source: b.name, Err: fmt.Errorf("rate limit: %w", err)}
	}
	if err := b.client.GetJSON(ctx, b.baseURL+path, query, b.headers, dest); err != nil {
		ue := &models.UpstreamError{Source: b.name, Err: fmt.Errorf("get %s: %w", path, err)}
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			ue.Status = se.Code
		}
		return ue
	}
	return nil
}

// GetJSONWithRetry retries transient failures with a linear backoff.
func (b *Base) GetJSONWithRetry(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	var err error
	for i := 1; i <= b.attempts; i++ {
		err = b.GetJSON(ctx, path, query, dest)
		if err == nil || !Retryable(err) || i == b.attempts {
			return err
		}
		b.log.Debug("retrying upstream request",
			logger.String("source", b.name),
			logger.String("path", path),
			logger.Int("attempt", i),
			logger.Error(err),
		)
		select {
		case <-time.After(time.Duration(i) * retryStep):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Retryable reports whether a request error is worth another attempt.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var ne net.Error
	return errors.As(err, &ne)
}
