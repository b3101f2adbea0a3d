package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/telegram"
	"MarketPulse/pkg/logger"
)

// DeliveryPipeline sits between the digest cycle and the notifier.
// It sends messages in order, spaces them out, retries transient failures and splits oversized texts.
type DeliveryPipeline struct {
	notifier    domrepo.Notifier
	metrics     domrepo.Metrics
	log         *logger.Logger
	spacing     time.Duration
	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	maxLen      int
	sleep       func(ctx context.Context, d time.Duration) error
}

type PipelineOption func(*DeliveryPipeline)

// WithSpacing sets the pause between two consecutive messages.
func WithSpacing(d time.Duration) PipelineOption {
	return func(p *DeliveryPipeline) {
		if d >= 0 {
			p.spacing = d
		}
	}
}

// WithMaxAttempts sets how many times one message is tried.
func WithMaxAttempts(n int) PipelineOption {
	return func(p *DeliveryPipeline) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

func WithBackoff(base, max time.Duration) PipelineOption {
	return func(p *DeliveryPipeline) {
		if base > 0 {
			p.baseBackoff = base
		}
		if max >= base {
			p.maxBackoff = max
		}
	}
}

func WithMaxMessageLength(n int) PipelineOption {
	return func(p *DeliveryPipeline) {
		if n > 0 {
			p.maxLen = n
		}
	}
}

func WithPipelineLogger(l *logger.Logger) PipelineOption {
	return func(p *DeliveryPipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewDeliveryPipeline creates a new pipeline.
func NewDeliveryPipeline(notifier domrepo.Notifier, metrics domrepo.Metrics, opts ...PipelineOption) *DeliveryPipeline {
	p := &DeliveryPipeline{
		notifier:    notifier,
		metrics:     metrics,
		log:         logger.Nop(),
		spacing:     5 * time.Second,
		maxAttempts: 3,
		baseBackoff: time.Second,
		maxBackoff:  30 * time.Second,
		maxLen:      telegram.MaxMessageLength,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Deliver sends texts in order and returns how many messages reached the channel.
// A message that fails permanently does not stop the ones after it; all failures are joined.
func (p *DeliveryPipeline) Deliver(ctx context.Context, texts ...string) (int, error) {
	var (
		sent int
		errs []error
	)
	first := true
	for _, text := range texts {
		for _, part := range SplitMessage(text, p.maxLen) {
			if !first {
				if err := p.sleep(ctx, p.spacing); err != nil {
					return sent, errors.Join(append(errs, err)...)
				}
			}
			first = false

			start := time.Now()
			if err := p.sendWithRetry(ctx, part); err != nil {
				if ctx.Err() != nil {
					return sent, errors.Join(append(errs, err)...)
				}
				p.metrics.RecordError("delivery")
				errs = append(errs, err)
				continue
			}
			sent++
			p.metrics.RecordLatency("delivery_send", time.Since(start).Seconds())
		}
	}
	return sent, errors.Join(errs...)
}

func (p *DeliveryPipeline) sendWithRetry(ctx context.Context, text string) error {
	backoff := p.baseBackoff
	var err error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err = p.notifier.Send(ctx, text); err == nil {
			return nil
		}
		if attempt == p.maxAttempts || !retryable(err) {
			break
		}

		wait := backoff
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			wait = apiErr.RetryAfter
		}
		p.log.Warn("delivery attempt failed",
			logger.Int("attempt", attempt),
			logger.Duration("retry_in", wait),
			logger.Error(err),
		)
		p.metrics.RecordError("delivery_retry")
		if sleepErr := p.sleep(ctx, wait); sleepErr != nil {
			return sleepErr
		}
		// exponential backoff with cap
		if backoff *= 2; backoff > p.maxBackoff {
			backoff = p.maxBackoff
		}
	}
	return fmt.Errorf("deliver message: %w", err)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, telegram.ErrNotConfigured) {
		return false
	}
	var t interface{ Temporary() bool }
	if errors.As(err, &t) {
		return t.Temporary()
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// SplitMessage cuts text into parts of at most limit characters, breaking at line boundaries.
// A single line longer than limit is cut hard.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		parts []string
		cur   strings.Builder
		n     int
	)
	flush := func() {
		if n > 0 {
			parts = append(parts, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
			n = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		ln := utf8.RuneCountInString(line)
		if n+ln > limit {
			flush()
		}
		for ln > limit {
			r := []rune(line)
			parts = append(parts, string(r[:limit]))
			line = string(r[limit:])
			ln -= limit
		}
		cur.WriteString(line)
		n += ln
	}
	flush()
	return parts
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
