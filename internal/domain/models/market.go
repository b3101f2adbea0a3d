package models

import (
	"sort"
	"time"
)

// AssetQuote is one ranked crypto asset from the listing.
type AssetQuote struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Rank      int     `json:"rank"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"percent_change_24h"`
	MarketCap float64 `json:"market_cap"`
	Volume24h float64 `json:"volume_24h"`
}

// GlobalMetrics describes the whole crypto market.
type GlobalMetrics struct {
	TotalMarketCap  float64 `json:"total_market_cap"`
	MarketCapChange float64 `json:"total_market_cap_change_24h"`
	TotalVolume24h  float64 `json:"total_volume_24h"`
}

// SentimentIndex is the fear/greed score in [0,100].
type SentimentIndex struct {
	Value          int       `json:"value"`
	Classification string    `json:"classification"`
	Timestamp      time.Time `json:"timestamp,omitempty"`
}

// DefaultSentiment is used when the index cannot be fetched.
func DefaultSentiment() SentimentIndex {
	return SentimentIndex{Value: 50, Classification: "Neutral"}
}

// EquityQuote is a stock quote for the equities overview.
type EquityQuote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change_percent"`
	MarketCap float64 `json:"market_cap"`
}

// MarketSnapshot is one point-in-time observation used as the unit of comparison between cycles.
// Assets are unique by symbol and ordered by rank ascending.
type MarketSnapshot struct {
	Timestamp time.Time
	Assets    []AssetQuote
	Global    *GlobalMetrics
	Sentiment SentimentIndex
}

// NewMarketSnapshot orders assets by rank and drops repeated symbols, keeping the best ranked entry.
func NewMarketSnapshot(ts time.Time, assets []AssetQuote, global *GlobalMetrics, sentiment SentimentIndex) *MarketSnapshot {
	ordered := make([]AssetQuote, len(assets))
	copy(ordered, assets)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Rank < ordered[j].Rank })

	seen := make(map[string]struct{}, len(ordered))
	out := ordered[:0]
	for _, a := range ordered {
		if _, dup := seen[a.Symbol]; dup {
			continue
		}
		seen[a.Symbol] = struct{}{}
		out = append(out, a)
	}

	var g *GlobalMetrics
	if global != nil {
		v := *global
		g = &v
	}
	return &MarketSnapshot{Timestamp: ts, Assets: out, Global: g, Sentiment: sentiment}
}

// Top returns at most n leading assets.
func (s *MarketSnapshot) Top(n int) []AssetQuote {
	if s == nil {
		return nil
	}
	if n > len(s.Assets) {
		n = len(s.Assets)
	}
	return s.Assets[:n]
}

// PriceIndex maps symbol to price.
func PriceIndex(assets []AssetQuote) map[string]float64 {
	idx := make(map[string]float64, len(assets))
	for _, a := range assets {
		idx[a.Symbol] = a.Price
	}
	return idx
}
