package coinmarketcap_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/service/coinmarketcap"
	"MarketPulse/internal/service/upstream"
	xhttp "MarketPulse/pkg/http"
)

const listingsBody = `{
  "status": {"error_code": 0, "error_message": null},
  "data": [
    {"id": 1, "name": "Bitcoin", "symbol": "BTC", "cmc_rank": 1,
     "quote": {"USD": {"price": 67000.5, "volume_24h": 3.1e10, "percent_change_24h": 2.5, "market_cap": 1.32e12}}},
    {"id": 1027, "name": "Ethereum", "symbol": "ETH", "cmc_rank": 2,
     "quote": {"USD": {"price": 3500, "volume_24h": 1.5e10, "percent_change_24h": -1.2, "market_cap": 4.2e11}}}
  ]
}`

func TestListings(t *testing.T) {
	t.Parallel()

	// Arrange: a server that checks the key header and query.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/cryptocurrency/listings/latest", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-CMC_PRO_API_KEY"))
		assert.Equal(t, "30", r.URL.Query().Get("limit"))
		assert.Equal(t, "USD", r.URL.Query().Get("convert"))
		_, _ = w.Write([]byte(listingsBody))
	}))
	defer srv.Close()

	// Act
	got, err := coinmarketcap.New(srv.URL, "secret").Listings(t.Context(), 30)

	// Assert
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.AssetQuote{
		Symbol: "BTC", Name: "Bitcoin", Rank: 1, Price: 67000.5, Change24h: 2.5, MarketCap: 1.32e12, Volume24h: 3.1e10,
	}, got[0])
	assert.Equal(t, "ETH", got[1].Symbol)
}

func TestListingsEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":{"error_code":0},"data":[]}`))
	}))
	defer srv.Close()

	_, err := coinmarketcap.New(srv.URL, "k").Listings(t.Context(), 30)
	assert.ErrorIs(t, err, models.ErrEmptyListing)
}

func TestListingsAPIErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":{"error_code":1002,"error_message":"API key missing."}}`))
	}))
	defer srv.Close()

	_, err := coinmarketcap.New(srv.URL, "").Listings(t.Context(), 30)

	var se *xhttp.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Contains(t, se.Body, "API key missing")
	assert.EqualValues(t, 1, calls.Load())
}

func TestListingsRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(listingsBody))
	}))
	defer srv.Close()

	got, err := coinmarketcap.New(srv.URL, "k", upstream.WithAttempts(3)).Listings(t.Context(), 30)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGlobalMetrics(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/global-metrics/quotes/latest", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":{"error_code":0},"data":{"quote":{"USD":{
			"total_market_cap": 2.4e12, "total_volume_24h": 9.6e10,
			"total_market_cap_yesterday_percentage_change": -1.75}}}}`))
	}))
	defer srv.Close()

	got, err := coinmarketcap.New(srv.URL, "k").GlobalMetrics(t.Context())
	require.NoError(t, err)
	assert.Equal(t, models.GlobalMetrics{TotalMarketCap: 2.4e12, MarketCapChange: -1.75, TotalVolume24h: 9.6e10}, got)
}

func TestQuote(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		symbols []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		symbols = append(symbols, r.URL.Query().Get("symbol"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"status":{"error_code":0},"data":{"PAXG":{"name":"PAX Gold","symbol":"PAXG","cmc_rank":80,
			"quote":{"USD":{"price":2345.6,"percent_change_24h":0.4,"market_cap":5e8}}}}}`))
	}))
	defer srv.Close()

	c := coinmarketcap.New(srv.URL, "k")
	got, err := c.Quote(t.Context(), "paxg")
	require.NoError(t, err)
	assert.Equal(t, "PAXG", got.Symbol)
	assert.InDelta(t, 2345.6, got.Price, 1e-9)
	assert.InDelta(t, 0.4, got.Change24h, 1e-9)

	// the payload has no entry for the requested symbol
	_, err = c.Quote(t.Context(), "XAUT")
	assert.Error(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"PAXG", "XAUT"}, symbols)
}
