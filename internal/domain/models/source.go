package models

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUpstreamUnavailable means a critical source (the crypto listing) returned no data.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrEmptyListing is returned by sources that answered with zero assets.
	ErrEmptyListing = errors.New("empty crypto listing")
)

// SourceStatus is the outcome of one upstream fetch.
type SourceStatus string

const (
	SourceFetched     SourceStatus = "fetched"
	SourceDefaulted   SourceStatus = "defaulted"
	SourceUnavailable SourceStatus = "unavailable"
	SourceSkipped     SourceStatus = "skipped"
)

// SourceResult carries a fetched value together with how it was obtained.
type SourceResult[T any] struct {
	Value  T
	Status SourceStatus
	Err    error
}

func Fetched[T any](v T) SourceResult[T] {
	return SourceResult[T]{Value: v, Status: SourceFetched}
}

// Defaulted records a failed fetch recovered with a fallback value.
func Defaulted[T any](v T, err error) SourceResult[T] {
	return SourceResult[T]{Value: v, Status: SourceDefaulted, Err: err}
}

func Unavailable[T any](err error) SourceResult[T] {
	return SourceResult[T]{Status: SourceUnavailable, Err: err}
}

func Skipped[T any]() SourceResult[T] {
	return SourceResult[T]{Status: SourceSkipped}
}

// Available reports whether Value can be used.
func (r SourceResult[T]) Available() bool {
	return r.Status == SourceFetched || r.Status == SourceDefaulted
}

// MarketData bundles the per-source results of one collection round.
type MarketData struct {
	FetchedAt time.Time
	Listing   SourceResult[[]AssetQuote]
	Global    SourceResult[GlobalMetrics]
	Sentiment SourceResult[SentimentIndex]
	Gold      SourceResult[AssetQuote]
	Equities  SourceResult[[]EquityQuote]
}

// GlobalPtr returns the global metrics when available, nil otherwise.
func (d MarketData) GlobalPtr() *GlobalMetrics {
	if !d.Global.Available() {
		return nil
	}
	g := d.Global.Value
	return &g
}

// SentimentOrDefault never fails: a missing index yields DefaultSentiment.
func (d MarketData) SentimentOrDefault() SentimentIndex {
	if d.Sentiment.Available() {
		return d.Sentiment.Value
	}
	return DefaultSentiment()
}

// Statuses summarizes source outcomes keyed by source name.
func (d MarketData) Statuses() map[string]SourceStatus {
	return map[string]SourceStatus{
		"listing":   d.Listing.Status,
		"global":    d.Global.Status,
		"sentiment": d.Sentiment.Status,
		"gold":      d.Gold.Status,
		"equities":  d.Equities.Status,
	}
}

// UpstreamError tags a failed upstream request with the source that served it.
// Status is the HTTP status code, 0 when no response arrived.
type UpstreamError struct {
	Source string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Brief is safe to publish: it carries no request path or response body.
func (e *UpstreamError) Brief() string {
	switch {
	case e.Status > 0:
		return fmt.Sprintf("%s: HTTP %d", e.Source, e.Status)
	case errors.Is(e.Err, context.DeadlineExceeded):
		return e.Source + ": timeout"
	default:
		return e.Source + ": request failed"
	}
}
