package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/pkg/logger"
)

const (
	srcListing   = "listing"
	srcGlobal    = "global"
	srcSentiment = "sentiment"
	srcGold      = "gold"
	srcEquities  = "equities"
)

// MarketCollector fetches all upstream sources of one cycle concurrently.
type MarketCollector struct {
	crypto    drepo.CryptoSource
	sentiment drepo.SentimentSource
	equities  drepo.EquitySource
	metrics   drepo.Metrics
	log       *logger.Logger

	listingLimit  int
	fetchTimeout  time.Duration
	watchList     []string
	goldSymbol    string
	equitySymbols []string
	now           func() time.Time
}

type CollectorOption func(*MarketCollector)

func WithListingLimit(n int) CollectorOption {
	return func(c *MarketCollector) {
		if n > 0 {
			c.listingLimit = n
		}
	}
}

// WithFetchTimeout bounds every single upstream call.
func WithFetchTimeout(d time.Duration) CollectorOption {
	return func(c *MarketCollector) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// WithWatchList selects the symbols whose last price is exported as a metric.
func WithWatchList(symbols []string) CollectorOption {
	return func(c *MarketCollector) { c.watchList = symbols }
}

// WithOverviewSources enables the gold quote and equities fetches. Empty values skip them.
func WithOverviewSources(goldSymbol string, equities []string) CollectorOption {
	return func(c *MarketCollector) {
		c.goldSymbol = goldSymbol
		c.equitySymbols = equities
	}
}

func NewMarketCollector(crypto drepo.CryptoSource, sentiment drepo.SentimentSource, equities drepo.EquitySource, metrics drepo.Metrics, log *logger.Logger, opts ...CollectorOption) *MarketCollector {
	if log == nil {
		log = logger.Nop()
	}
	c := &MarketCollector{
		crypto:       crypto,
		sentiment:    sentiment,
		equities:     equities,
		metrics:      metrics,
		log:          log,
		listingLimit: 30,
		fetchTimeout: 15 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type fetchItem struct {
	name string
	val  interface{}
	err  error
}

// Collect never fails as a whole: each source's outcome is carried in its SourceResult.
// Callers check data.Listing before analysis.
func (c *MarketCollector) Collect(ctx context.Context) models.MarketData {
	data := models.MarketData{
		FetchedAt: c.now().UTC(),
		Gold:      models.Skipped[models.AssetQuote](),
		Equities:  models.Skipped[[]models.EquityQuote](),
	}

	ch := make(chan fetchItem, 5)
	var wg sync.WaitGroup
	fetch := func(name string, fn func(ctx context.Context) (interface{}, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
			defer cancel()
			start := time.Now()
			v, err := fn(callCtx)
			c.metrics.RecordLatency("fetch_"+name, time.Since(start).Seconds())
			ch <- fetchItem{name, v, err}
		}()
	}

	fetch(srcListing, func(ctx context.Context) (interface{}, error) {
		return c.crypto.Listings(ctx, c.listingLimit)
	})
	fetch(srcGlobal, func(ctx context.Context) (interface{}, error) {
		return c.crypto.GlobalMetrics(ctx)
	})
	fetch(srcSentiment, func(ctx context.Context) (interface{}, error) {
		return c.sentiment.FearGreed(ctx)
	})
	if c.goldSymbol != "" {
		fetch(srcGold, func(ctx context.Context) (interface{}, error) {
			return c.crypto.Quote(ctx, c.goldSymbol)
		})
	}
	if c.equities != nil && len(c.equitySymbols) > 0 {
		fetch(srcEquities, func(ctx context.Context) (interface{}, error) {
			return c.equities.Quotes(ctx, c.equitySymbols)
		})
	}

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			c.log.Warn("upstream fetch failed", logger.String("source", it.name), logger.Error(it.err))
		}
		switch it.name {
		case srcListing:
			data.Listing = listingResult(it)
		case srcGlobal:
			if it.err != nil {
				data.Global = models.Unavailable[models.GlobalMetrics](it.err)
			} else {
				data.Global = models.Fetched(it.val.(models.GlobalMetrics))
			}
		case srcSentiment:
			if it.err != nil {
				data.Sentiment = models.Defaulted(models.DefaultSentiment(), it.err)
			} else {
				data.Sentiment = models.Fetched(it.val.(models.SentimentIndex))
			}
		case srcGold:
			if it.err != nil {
				data.Gold = models.Unavailable[models.AssetQuote](it.err)
			} else {
				data.Gold = models.Fetched(it.val.(models.AssetQuote))
			}
		case srcEquities:
			if it.err != nil {
				data.Equities = models.Unavailable[[]models.EquityQuote](it.err)
			} else {
				data.Equities = models.Fetched(it.val.([]models.EquityQuote))
			}
		}
	}

	c.record(data)
	return data
}

func listingResult(it fetchItem) models.SourceResult[[]models.AssetQuote] {
	if it.err != nil {
		return models.Unavailable[[]models.AssetQuote](it.err)
	}
	assets, _ := it.val.([]models.AssetQuote)
	if len(assets) == 0 {
		return models.Unavailable[[]models.AssetQuote](models.ErrEmptyListing)
	}
	return models.Fetched(assets)
}

func (c *MarketCollector) record(data models.MarketData) {
	for name, status := range data.Statuses() {
		if status == models.SourceSkipped {
			continue
		}
		c.metrics.RecordSource(name, status)
	}
	if data.Sentiment.Status == models.SourceFetched {
		c.metrics.RecordSentiment(data.Sentiment.Value.Value)
	}
	if !data.Listing.Available() || len(c.watchList) == 0 {
		return
	}
	prices := models.PriceIndex(data.Listing.Value)
	for _, sym := range c.watchList {
		if p, ok := prices[strings.ToUpper(sym)]; ok {
			c.metrics.RecordLastPrice(sym, p)
		}
	}
}
