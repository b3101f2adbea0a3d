package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalrepo "MarketPulse/internal/repository"
	icache "MarketPulse/internal/service/cache"
	pcache "MarketPulse/pkg/cache"
	"MarketPulse/pkg/config"
	"MarketPulse/pkg/logger"
)

func TestProvideKafkaDisabled(t *testing.T) {
	cfg := config.Default()

	producer, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	assert.Nil(t, producer)

	assert.IsType(t, internalrepo.NoopPublisher{}, ProvideEventPublisher(cfg, producer))
}

func TestProvideCacheBackends(t *testing.T) {
	cfg := config.Default()

	cfg.Cache.Backend = "none"
	store, err := ProvideCacheStore(cfg)
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &pcache.MemoryCache{}, store)
	assert.Equal(t, icache.Policy{}, ProvideCachePolicy(cfg))

	cfg.Cache.Backend = "memory"
	assert.Equal(t, icache.Policy{Fresh: cfg.Cache.FreshTTL, Stale: cfg.Cache.StaleTTL}, ProvideCachePolicy(cfg))
}

func TestProvideEquitySourceDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Stocks.Enabled = false

	src := ProvideEquitySource(cfg, pcache.NewMemoryCache(), icache.Policy{}, logger.Nop())

	// must be an untyped nil so the collector skips equities
	assert.True(t, src == nil)
}

func TestProvideEquitySourceEnabled(t *testing.T) {
	cfg := config.Default()

	src := ProvideEquitySource(cfg, pcache.NewMemoryCache(), icache.Policy{}, logger.Nop())
	assert.NotNil(t, src)
}
