//go:generate mockgen -destination=mock/interfaces.go -package=mock MarketPulse/internal/domain/repository Notifier,EventPublisher

package repository

import (
	"context"

	"MarketPulse/internal/domain/models"
)

// CryptoSource provides the ranked listing, global metrics and single-symbol quotes.
type CryptoSource interface {
	Listings(ctx context.Context, limit int) ([]models.AssetQuote, error)
	GlobalMetrics(ctx context.Context) (models.GlobalMetrics, error)
	Quote(ctx context.Context, symbol string) (models.AssetQuote, error)
}

type SentimentSource interface {
	FearGreed(ctx context.Context) (models.SentimentIndex, error)
}

type EquitySource interface {
	Quotes(ctx context.Context, symbols []string) ([]models.EquityQuote, error)
}

// Notifier delivers one rendered message to the channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// EventPublisher emits cycle events to downstream consumers.
type EventPublisher interface {
	PublishCycle(ctx context.Context, evt models.CycleEvent) error
	Close() error
}

// DigestStore keeps the last delivered digest for the HTTP API.
type DigestStore interface {
	Save(rec models.DigestRecord)
	Latest() (models.DigestRecord, bool)
}

type Metrics interface {
	RecordCycle(status string)
	RecordError(kind string)
	RecordSource(source string, status models.SourceStatus)
	RecordLastPrice(symbol string, price float64)
	RecordSentiment(value int)
	RecordLatency(op string, seconds float64)
}
