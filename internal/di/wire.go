//go:build wireinject
// +build wireinject

package di

import (
	"MarketPulse/pkg/config"
	"MarketPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideCacheStore,
		ProvideCachePolicy,

		// Upstream sources
		ProvideCryptoSource,
		ProvideSentimentSource,
		ProvideEquitySource,

		// Repositories
		ProvideNotifier,
		ProvideEventPublisher,
		ProvideDigestStore,

		// Use cases
		ProvideRenderer,
		ProvideDeliveryPipeline,
		ProvideMarketCollector,
		ProvideDigestComposer,
		ProvideDigestCycle,
		ProvideScheduler,

		// Application server
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
