package di

import (
	"fmt"

	"MarketPulse/internal/domain/repository"
	domsvc "MarketPulse/internal/domain/service"
	"MarketPulse/internal/handler/api"
	mid "MarketPulse/internal/middleware"
	internalrepo "MarketPulse/internal/repository"
	icache "MarketPulse/internal/service/cache"
	"MarketPulse/internal/service/coinmarketcap"
	"MarketPulse/internal/service/feargreed"
	apimetrics "MarketPulse/internal/service/metrics"
	"MarketPulse/internal/service/ratelimit"
	"MarketPulse/internal/service/telegram"
	"MarketPulse/internal/service/upstream"
	"MarketPulse/internal/service/yahoo"
	"MarketPulse/internal/services/analytics"
	"MarketPulse/internal/services/report"
	"MarketPulse/internal/usecase"
	pcache "MarketPulse/pkg/cache"
	"MarketPulse/pkg/config"
	xhttp "MarketPulse/pkg/http"
	pkgkafka "MarketPulse/pkg/kafka"
	"MarketPulse/pkg/logger"
	"MarketPulse/pkg/metrics"
	"MarketPulse/pkg/server"
	"MarketPulse/pkg/util"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithAutoCreateTopics(cfg.Environment != "production"),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger creates the root logger. Errors and warnings are aggregated to kafka when a producer exists.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   cfg.Logging.CollectInterval,
			CountThreshold: cfg.Logging.CollectThreshold,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideEventPublisher publishes cycle events to kafka, or drops them when kafka is disabled.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NoopPublisher{}
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.CycleTopic)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	apimetrics.Register()
	return metrics.New(nil)
}

// ProvideCacheStore builds the upstream response cache backend.
func ProvideCacheStore(cfg *config.Config) (pcache.Service, error) {
	switch cfg.Cache.Backend {
	case "redis", "layered":
		rc, err := pcache.NewRedisCache(
			pcache.WithRedisHost(cfg.Cache.Redis.Host),
			pcache.WithRedisPort(cfg.Cache.Redis.Port),
			pcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pcache.WithRedisDB(cfg.Cache.Redis.DB),
			pcache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if cfg.Cache.Backend == "redis" {
			return rc, nil
		}
		return pcache.NewLayeredCache(rc,
			pcache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
			pcache.WithLayeredMemoryTTL(cfg.Cache.FreshTTL),
		), nil
	default:
		return pcache.NewMemoryCache(pcache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize)), nil
	}
}

// ProvideCachePolicy turns caching off entirely for backend "none".
func ProvideCachePolicy(cfg *config.Config) icache.Policy {
	if cfg.Cache.Backend == "none" {
		return icache.Policy{}
	}
	return icache.Policy{Fresh: cfg.Cache.FreshTTL, Stale: cfg.Cache.StaleTTL}
}

func upstreamOptions(cfg *config.Config, log *logger.Logger, perMinute int) []upstream.Option {
	return []upstream.Option{
		upstream.WithTimeout(cfg.Scheduler.FetchTimeout),
		upstream.WithRateLimit(perMinute, 2),
		upstream.WithLogger(log),
	}
}

func ProvideCryptoSource(cfg *config.Config, store pcache.Service, policy icache.Policy, log *logger.Logger) repository.CryptoSource {
	l := log.With("coinmarketcap")
	client := coinmarketcap.New(cfg.CoinMarketCap.BaseURL, cfg.CoinMarketCap.APIKey, upstreamOptions(cfg, l, cfg.CoinMarketCap.RatePerMin)...)
	return icache.NewCryptoSource(client, store, policy, l)
}

func ProvideSentimentSource(cfg *config.Config, store pcache.Service, policy icache.Policy, log *logger.Logger) repository.SentimentSource {
	l := log.With("feargreed")
	return icache.NewSentimentSource(feargreed.New(cfg.FearGreed.BaseURL, upstreamOptions(cfg, l, 60)...), store, policy, l)
}

// ProvideEquitySource returns nil when stocks are disabled.
func ProvideEquitySource(cfg *config.Config, store pcache.Service, policy icache.Policy, log *logger.Logger) repository.EquitySource {
	if !cfg.Stocks.Enabled {
		return nil
	}
	l := log.With("yahoo")
	return icache.NewEquitySource(yahoo.New(cfg.Stocks.BaseURL, upstreamOptions(cfg, l, 30)...), store, policy, l)
}

func ProvideNotifier(cfg *config.Config) repository.Notifier {
	return telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChannelID, telegram.WithAPIURL(cfg.Telegram.APIURL))
}

func ProvideDeliveryPipeline(cfg *config.Config, notifier repository.Notifier, m repository.Metrics, log *logger.Logger) *mid.DeliveryPipeline {
	return mid.NewDeliveryPipeline(notifier, m,
		mid.WithSpacing(cfg.Telegram.MessageSpacing),
		mid.WithMaxAttempts(cfg.Telegram.MaxAttempts),
		mid.WithPipelineLogger(log.With("delivery")),
	)
}

func ProvideRenderer(cfg *config.Config) domsvc.ReportRenderer {
	return report.NewRenderer(cfg.Brand)
}

func ProvideDigestComposer(cfg *config.Config, renderer domsvc.ReportRenderer) *usecase.DigestComposer {
	watch := util.NormalizeSymbols(cfg.Analysis.WatchList)
	return usecase.NewDigestComposer(
		analytics.NewClassifier(),
		analytics.NewDetector(watch, cfg.Analysis.MoveThreshold),
		analytics.NewEngine(),
		renderer,
	)
}

func ProvideMarketCollector(
	cfg *config.Config,
	crypto repository.CryptoSource,
	sentiment repository.SentimentSource,
	equities repository.EquitySource,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.MarketCollector {
	opts := []usecase.CollectorOption{
		usecase.WithListingLimit(cfg.CoinMarketCap.ListingLimit),
		usecase.WithFetchTimeout(cfg.Scheduler.FetchTimeout),
		usecase.WithWatchList(util.NormalizeSymbols(cfg.Analysis.WatchList)),
	}
	if cfg.Analysis.EquitiesOverview {
		opts = append(opts, usecase.WithOverviewSources(cfg.Gold.Symbol, util.NormalizeSymbols(cfg.Stocks.Symbols)))
	}
	return usecase.NewMarketCollector(crypto, sentiment, equities, m, log.With("collector"), opts...)
}

func ProvideDigestStore() repository.DigestStore {
	return internalrepo.NewMemoryDigestStore()
}

func ProvideDigestCycle(
	cfg *config.Config,
	collector *usecase.MarketCollector,
	composer *usecase.DigestComposer,
	renderer domsvc.ReportRenderer,
	delivery *mid.DeliveryPipeline,
	store repository.DigestStore,
	publisher repository.EventPublisher,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.DigestCycle {
	overviews := report.NewOverviewBuilder(util.NormalizeSymbols(cfg.Analysis.MustInclude), cfg.Analysis.TopN)
	return usecase.NewDigestCycle(collector, composer, renderer, delivery, store, publisher, m, log.With("cycle"),
		usecase.WithOverviews(overviews, cfg.Analysis.CryptoOverview, cfg.Analysis.EquitiesOverview),
	)
}

func ProvideScheduler(cfg *config.Config, cycle *usecase.DigestCycle, log *logger.Logger) *usecase.Scheduler {
	return usecase.NewScheduler(cycle, cfg.Scheduler.Interval, cfg.Scheduler.RetryInterval, log.With("scheduler"))
}

func ProvideHTTPServer(cfg *config.Config, store repository.DigestStore, log *logger.Logger) *xhttp.Server {
	limiter := ratelimit.New(cfg.Server.RateLimit.RefillPerSec, cfg.Server.RateLimit.Burst)
	h := api.NewDigestEchoHandler(log.With("api"), store, limiter, cfg.Brand)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithCORS(cfg.Server.CORSOrigins),
		xhttp.WithTrustedProxies(cfg.Server.TrustedProxies),
		xhttp.WithLogger(log.With("http")),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	scheduler *usecase.Scheduler,
	httpServer *xhttp.Server,
	publisher repository.EventPublisher,
	store pcache.Service,
) *server.App {
	return server.New(cfg, log, scheduler, httpServer, publisher, store)
}
