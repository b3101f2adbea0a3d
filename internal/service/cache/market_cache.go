package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	pcache "MarketPulse/pkg/cache"
	"MarketPulse/pkg/logger"
)

const keyPrefix = "upstream"

// Policy says how long a cached upstream answer is served without refetching (Fresh)
// and how long it stays usable as a fallback when the upstream fails (Stale).
type Policy struct {
	Fresh time.Duration
	Stale time.Duration
}

type envelope[T any] struct {
	Value    T         `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

type readThrough struct {
	store  pcache.Service
	policy Policy
	log    *logger.Logger
	now    func() time.Time
}

func newReadThrough(store pcache.Service, policy Policy, log *logger.Logger) readThrough {
	if log == nil {
		log = logger.Nop()
	}
	if policy.Stale < policy.Fresh {
		policy.Stale = policy.Fresh
	}
	return readThrough{store: store, policy: policy, log: log, now: time.Now}
}

func load[T any](ctx context.Context, rt readThrough, key string, fetch func(context.Context) (T, error)) (T, error) {
	key = pcache.GenerateKey(keyPrefix, key)

	cached, cacheErr := pcache.GetTyped[envelope[T]](ctx, rt.store, key)
	hit := cacheErr == nil
	if cacheErr != nil && !errors.Is(cacheErr, pcache.ErrCacheMiss) {
		rt.log.Warn("cache read failed", logger.String("key", key), logger.Error(cacheErr))
	}
	if hit && rt.policy.Fresh > 0 && rt.now().Sub(cached.StoredAt) < rt.policy.Fresh {
		return cached.Value, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		if hit {
			rt.log.Warn("serving stale upstream value",
				logger.String("key", key),
				logger.Duration("age", rt.now().Sub(cached.StoredAt)),
				logger.Error(err),
			)
			return cached.Value, nil
		}
		return v, err
	}

	if rt.policy.Stale > 0 {
		if setErr := rt.store.Set(ctx, key, envelope[T]{Value: v, StoredAt: rt.now()}, rt.policy.Stale); setErr != nil {
			rt.log.Warn("cache write failed", logger.String("key", key), logger.Error(setErr))
		}
	}
	return v, nil
}

// CryptoSource caches global metrics and single quotes. The listing always goes upstream:
// movement detection needs current prices.
type CryptoSource struct {
	next drepo.CryptoSource
	rt   readThrough
}

func NewCryptoSource(next drepo.CryptoSource, store pcache.Service, policy Policy, log *logger.Logger) *CryptoSource {
	return &CryptoSource{next: next, rt: newReadThrough(store, policy, log)}
}

func (c *CryptoSource) Listings(ctx context.Context, limit int) ([]models.AssetQuote, error) {
	return c.next.Listings(ctx, limit)
}

func (c *CryptoSource) GlobalMetrics(ctx context.Context) (models.GlobalMetrics, error) {
	return load(ctx, c.rt, "global", c.next.GlobalMetrics)
}

func (c *CryptoSource) Quote(ctx context.Context, symbol string) (models.AssetQuote, error) {
	return load(ctx, c.rt, pcache.GenerateKey("quote", strings.ToUpper(symbol)), func(ctx context.Context) (models.AssetQuote, error) {
		return c.next.Quote(ctx, symbol)
	})
}

type SentimentSource struct {
	next drepo.SentimentSource
	rt   readThrough
}

func NewSentimentSource(next drepo.SentimentSource, store pcache.Service, policy Policy, log *logger.Logger) *SentimentSource {
	return &SentimentSource{next: next, rt: newReadThrough(store, policy, log)}
}

func (s *SentimentSource) FearGreed(ctx context.Context) (models.SentimentIndex, error) {
	return load(ctx, s.rt, "feargreed", s.next.FearGreed)
}

type EquitySource struct {
	next drepo.EquitySource
	rt   readThrough
}

func NewEquitySource(next drepo.EquitySource, store pcache.Service, policy Policy, log *logger.Logger) *EquitySource {
	return &EquitySource{next: next, rt: newReadThrough(store, policy, log)}
}

func (e *EquitySource) Quotes(ctx context.Context, symbols []string) ([]models.EquityQuote, error) {
	key := pcache.GenerateKey("equities", strings.ToUpper(strings.Join(symbols, ",")))
	return load(ctx, e.rt, key, func(ctx context.Context) ([]models.EquityQuote, error) {
		return e.next.Quotes(ctx, symbols)
	})
}

var (
	_ drepo.CryptoSource    = (*CryptoSource)(nil)
	_ drepo.SentimentSource = (*SentimentSource)(nil)
	_ drepo.EquitySource    = (*EquitySource)(nil)
)
