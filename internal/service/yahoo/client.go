package yahoo

import (
	"context"
	"fmt"
	"strings"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/upstream"
	"MarketPulse/pkg/util"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	quotePath      = "/v7/finance/quote"
	quoteFields    = "symbol,regularMarketPrice,regularMarketChangePercent,marketCap"
	userAgent      = "Mozilla/5.0 (compatible; MarketPulse/1.0)"
)

// Client reads equity quotes from the Yahoo Finance quote endpoint.
type Client struct {
	base *upstream.Base
}

func New(baseURL string, opts ...upstream.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	opts = append([]upstream.Option{upstream.WithHeader("User-Agent", userAgent)}, opts...)
	return &Client{base: upstream.New("yahoo", baseURL, opts...)}
}

type quote struct {
	Symbol                     string   `json:"symbol"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketChangePercent float64  `json:"regularMarketChangePercent"`
	MarketCap                  float64  `json:"marketCap"`
}

type response struct {
	QuoteResponse struct {
		Result []quote `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// Quotes returns quotes in the order of symbols; symbols without a price are dropped.
func (c *Client) Quotes(ctx context.Context, symbols []string) ([]models.EquityQuote, error) {
	symbols = util.NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		return nil, nil
	}
	q := map[string][]string{
		"symbols": {strings.Join(symbols, ",")},
		"fields":  {quoteFields},
	}
	var resp response
	if err := c.base.GetJSONWithRetry(ctx, quotePath, q, &resp); err != nil {
		return nil, err
	}
	if e := resp.QuoteResponse.Error; e != nil {
		return nil, fmt.Errorf("yahoo: %s: %s", e.Code, e.Description)
	}

	bySymbol := make(map[string]quote, len(resp.QuoteResponse.Result))
	for _, r := range resp.QuoteResponse.Result {
		bySymbol[strings.ToUpper(r.Symbol)] = r
	}
	out := make([]models.EquityQuote, 0, len(symbols))
	for _, s := range symbols {
		r, ok := bySymbol[s]
		if !ok || r.RegularMarketPrice == nil {
			continue
		}
		out = append(out, models.EquityQuote{
			Symbol:    s,
			Price:     *r.RegularMarketPrice,
			Change:    r.RegularMarketChangePercent,
			MarketCap: r.MarketCap,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("yahoo: no quotes for %s", strings.Join(symbols, ","))
	}
	return out, nil
}

var _ drepo.EquitySource = (*Client)(nil)
