package coinmarketcap

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/upstream"
)

const (
	DefaultBaseURL = "https://pro-api.coinmarketcap.com"

	listingsPath = "/v1/cryptocurrency/listings/latest"
	globalPath   = "/v1/global-metrics/quotes/latest"
	quotesPath   = "/v1/cryptocurrency/quotes/latest"

	apiKeyHeader = "X-CMC_PRO_API_KEY"
	convert      = "USD"
)

// Client implements drepo.CryptoSource against the CoinMarketCap Pro API.
type Client struct {
	base *upstream.Base
}

func New(baseURL, apiKey string, opts ...upstream.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	opts = append([]upstream.Option{upstream.WithHeader(apiKeyHeader, apiKey)}, opts...)
	return &Client{base: upstream.New("coinmarketcap", baseURL, opts...)}
}

type status struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (s status) err() error {
	if s.ErrorCode == 0 {
		return nil
	}
	return fmt.Errorf("coinmarketcap error %d: %s", s.ErrorCode, s.ErrorMessage)
}

type usdQuote struct {
	Price            float64 `json:"price"`
	Volume24h        float64 `json:"volume_24h"`
	PercentChange24h float64 `json:"percent_change_24h"`
	MarketCap        float64 `json:"market_cap"`
}

type coin struct {
	Name    string              `json:"name"`
	Symbol  string              `json:"symbol"`
	CMCRank int                 `json:"cmc_rank"`
	Quote   map[string]usdQuote `json:"quote"`
}

func (c coin) toModel() models.AssetQuote {
	q := c.Quote[convert]
	return models.AssetQuote{
		Symbol:    c.Symbol,
		Name:      c.Name,
		Rank:      c.CMCRank,
		Price:     q.Price,
		Change24h: q.PercentChange24h,
		MarketCap: q.MarketCap,
		Volume24h: q.Volume24h,
	}
}

type listingsResponse struct {
	Status status `json:"status"`
	Data   []coin `json:"data"`
}

type globalResponse struct {
	Status status `json:"status"`
	Data   struct {
		Quote map[string]struct {
			TotalMarketCap                         float64 `json:"total_market_cap"`
			TotalVolume24h                         float64 `json:"total_volume_24h"`
			TotalMarketCapYesterdayPercentageChange float64 `json:"total_market_cap_yesterday_percentage_change"`
		} `json:"quote"`
	} `json:"data"`
}

type quotesResponse struct {
	Status status          `json:"status"`
	Data   map[string]coin `json:"data"`
}

// Listings returns the top `limit` assets by rank.
func (c *Client) Listings(ctx context.Context, limit int) ([]models.AssetQuote, error) {
	q := map[string][]string{
		"limit":   {strconv.Itoa(limit)},
		"convert": {convert},
	}
	var resp listingsResponse
	if err := c.base.GetJSONWithRetry(ctx, listingsPath, q, &resp); err != nil {
		return nil, err
	}
	if err := resp.Status.err(); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, models.ErrEmptyListing
	}
	out := make([]models.AssetQuote, 0, len(resp.Data))
	for _, d := range resp.Data {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (c *Client) GlobalMetrics(ctx context.Context) (models.GlobalMetrics, error) {
	var resp globalResponse
	q := map[string][]string{"convert": {convert}}
	if err := c.base.GetJSONWithRetry(ctx, globalPath, q, &resp); err != nil {
		return models.GlobalMetrics{}, err
	}
	if err := resp.Status.err(); err != nil {
		return models.GlobalMetrics{}, err
	}
	usd, ok := resp.Data.Quote[convert]
	if !ok {
		return models.GlobalMetrics{}, fmt.Errorf("coinmarketcap: global metrics without %s quote", convert)
	}
	return models.GlobalMetrics{
		TotalMarketCap:  usd.TotalMarketCap,
		MarketCapChange: usd.TotalMarketCapYesterdayPercentageChange,
		TotalVolume24h:  usd.TotalVolume24h,
	}, nil
}

// Quote fetches one asset by symbol, e.g. PAXG for gold.
func (c *Client) Quote(ctx context.Context, symbol string) (models.AssetQuote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	q := map[string][]string{
		"symbol":  {symbol},
		"convert": {convert},
	}
	var resp quotesResponse
	if err := c.base.GetJSONWithRetry(ctx, quotesPath, q, &resp); err != nil {
		return models.AssetQuote{}, err
	}
	if err := resp.Status.err(); err != nil {
		return models.AssetQuote{}, err
	}
	d, ok := resp.Data[symbol]
	if !ok {
		return models.AssetQuote{}, fmt.Errorf("coinmarketcap: no quote for %s", symbol)
	}
	return d.toModel(), nil
}

var _ drepo.CryptoSource = (*Client)(nil)
