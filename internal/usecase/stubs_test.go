package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/services/analytics"
	"MarketPulse/internal/services/report"
	"MarketPulse/pkg/metrics"
)

type stubCrypto struct {
	listings func(ctx context.Context) ([]models.AssetQuote, error)
	global   func(ctx context.Context) (models.GlobalMetrics, error)
	quote    func(ctx context.Context, symbol string) (models.AssetQuote, error)
}

func (s *stubCrypto) Listings(ctx context.Context, _ int) ([]models.AssetQuote, error) {
	return s.listings(ctx)
}

func (s *stubCrypto) GlobalMetrics(ctx context.Context) (models.GlobalMetrics, error) {
	return s.global(ctx)
}

func (s *stubCrypto) Quote(ctx context.Context, symbol string) (models.AssetQuote, error) {
	if s.quote == nil {
		return models.AssetQuote{}, context.Canceled
	}
	return s.quote(ctx, symbol)
}

type stubSentiment struct {
	idx models.SentimentIndex
	err error
}

func (s stubSentiment) FearGreed(context.Context) (models.SentimentIndex, error) {
	return s.idx, s.err
}

type stubEquities struct {
	quotes []models.EquityQuote
	err    error
}

func (s stubEquities) Quotes(context.Context, []string) ([]models.EquityQuote, error) {
	return s.quotes, s.err
}

func listing(btc float64) []models.AssetQuote {
	return []models.AssetQuote{
		{Symbol: "BTC", Name: "Bitcoin", Rank: 1, Price: btc, Change24h: 2.5, MarketCap: 1e12},
		{Symbol: "ETH", Name: "Ethereum", Rank: 2, Price: 3000, Change24h: -1.2, MarketCap: 4e11},
		{Symbol: "SOL", Name: "Solana", Rank: 3, Price: 150, Change24h: 4, MarketCap: 7e10},
	}
}

func global() models.GlobalMetrics {
	return models.GlobalMetrics{TotalMarketCap: 2.5e12, MarketCapChange: 1.4, TotalVolume24h: 1.2e11}
}

func marketData(btc float64) models.MarketData {
	return models.MarketData{
		FetchedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Listing:   models.Fetched(listing(btc)),
		Global:    models.Fetched(global()),
		Sentiment: models.Fetched(models.SentimentIndex{Value: 62, Classification: "Greed"}),
		Gold:      models.Skipped[models.AssetQuote](),
		Equities:  models.Skipped[[]models.EquityQuote](),
	}
}

func newRecorder() *metrics.Recorder {
	return metrics.New(prometheus.NewRegistry())
}

func newComposer(t *testing.T) *DigestComposer {
	t.Helper()
	return NewDigestComposer(
		analytics.NewClassifier(),
		analytics.NewDetector(analytics.DefaultWatchList, analytics.DefaultMovementThreshold),
		analytics.NewEngine(),
		report.NewRenderer("MarketPulse"),
	)
}
