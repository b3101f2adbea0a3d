package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is loaded in layers: Default(), optional YAML file, optional .env, then environment.
// envconfig tags name the plain environment variables the bot has always used.
type Config struct {
	Environment string `yaml:"environment" envconfig:"ENVIRONMENT" validate:"required"`
	Brand       string `yaml:"brand" envconfig:"BRAND" validate:"required"`

	Scheduler struct {
		Interval      time.Duration `yaml:"interval" envconfig:"UPDATE_INTERVAL" validate:"gt=0"`
		RetryInterval time.Duration `yaml:"retry_interval" envconfig:"RETRY_INTERVAL" validate:"gt=0"`
		FetchTimeout  time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" validate:"gt=0"`
	} `yaml:"scheduler"`

	CoinMarketCap struct {
		APIKey       string `yaml:"api_key" envconfig:"CMC_API_KEY" validate:"required"`
		BaseURL      string `yaml:"base_url" envconfig:"CMC_BASE_URL" validate:"required,url"`
		ListingLimit int    `yaml:"listing_limit" validate:"gte=10,lte=5000"`
		RatePerMin   int    `yaml:"rate_per_min" validate:"gte=0"`
	} `yaml:"coinmarketcap"`

	FearGreed struct {
		BaseURL string `yaml:"base_url" envconfig:"FNG_BASE_URL" validate:"required,url"`
	} `yaml:"fear_greed"`

	Stocks struct {
		Enabled bool     `yaml:"enabled" envconfig:"STOCKS_ENABLED"`
		BaseURL string   `yaml:"base_url" envconfig:"YAHOO_BASE_URL" validate:"required,url"`
		Symbols []string `yaml:"symbols" envconfig:"STOCK_SYMBOLS"`
	} `yaml:"stocks"`

	Gold struct {
		Symbol string `yaml:"symbol" envconfig:"GOLD_SYMBOL"`
	} `yaml:"gold"`

	Telegram struct {
		BotToken       string        `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN" validate:"required"`
		ChannelID      string        `yaml:"channel_id" envconfig:"CHANNEL_ID" validate:"required"`
		APIURL         string        `yaml:"api_url" envconfig:"TELEGRAM_API_URL" validate:"required,url"`
		MessageSpacing time.Duration `yaml:"message_spacing" validate:"gte=0"`
		MaxAttempts    int           `yaml:"max_attempts" validate:"gte=1,lte=10"`
	} `yaml:"telegram"`

	Analysis struct {
		WatchList        []string `yaml:"watch_list" envconfig:"WATCH_LIST" validate:"min=1"`
		MoveThreshold    float64  `yaml:"move_threshold" envconfig:"MOVE_THRESHOLD" validate:"gt=0"`
		CryptoOverview   bool     `yaml:"crypto_overview" envconfig:"CRYPTO_OVERVIEW"`
		EquitiesOverview bool     `yaml:"equities_overview" envconfig:"EQUITIES_OVERVIEW"`
		MustInclude      []string `yaml:"must_include"`
		TopN             int      `yaml:"top_n" validate:"gte=1,lte=50"`
	} `yaml:"analysis"`

	Cache struct {
		Backend       string        `yaml:"backend" envconfig:"CACHE_BACKEND" validate:"oneof=none memory redis layered"`
		FreshTTL      time.Duration `yaml:"fresh_ttl" validate:"gte=0"`
		StaleTTL      time.Duration `yaml:"stale_ttl" validate:"gte=0"`
		MemoryMaxSize int           `yaml:"memory_max_size" validate:"gte=1"`
		Redis         struct {
			Host     string `yaml:"host" envconfig:"REDIS_HOST"`
			Port     int    `yaml:"port" envconfig:"REDIS_PORT"`
			Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
			DB       int    `yaml:"db" envconfig:"REDIS_DB"`
			Prefix   string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Kafka struct {
		Enabled      bool     `yaml:"enabled" envconfig:"KAFKA_ENABLED"`
		Brokers      []string `yaml:"brokers" envconfig:"KAFKA_BROKERS"`
		CycleTopic   string   `yaml:"cycle_topic" envconfig:"KAFKA_CYCLE_TOPIC"`
		LogTopic     string   `yaml:"log_topic" envconfig:"KAFKA_LOG_TOPIC"`
		RequiredAcks int      `yaml:"required_acks" validate:"oneof=-1 0 1"`
		Compression  string   `yaml:"compression" validate:"oneof=gzip snappy lz4 zstd"`
		MaxAttempts  int      `yaml:"max_attempts" validate:"gte=1"`
	} `yaml:"kafka"`

	Server struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port" envconfig:"PORT" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins" envconfig:"CORS_ORIGINS"`
		TrustedProxies  []string      `yaml:"trusted_proxies" envconfig:"TRUSTED_PROXIES" validate:"dive,cidr"`
		RateLimit       struct {
			Burst        int     `yaml:"burst" validate:"gte=0"`
			RefillPerSec float64 `yaml:"refill_per_sec" validate:"gte=0"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" envconfig:"METRICS_ENABLED"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Logging struct {
		Level            string        `yaml:"level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
		Format           string        `yaml:"format" envconfig:"LOG_FORMAT" validate:"oneof=json console"`
		Output           string        `yaml:"output"`
		CollectInterval  time.Duration `yaml:"collect_interval"`
		CollectThreshold int           `yaml:"collect_threshold"`
	} `yaml:"logging"`
}

// Default returns the settings the bot runs with when nothing is configured.
func Default() *Config {
	c := &Config{Environment: "production", Brand: "MarvelMarket"}

	c.Scheduler.Interval = time.Hour
	c.Scheduler.RetryInterval = 5 * time.Minute
	c.Scheduler.FetchTimeout = 15 * time.Second

	c.CoinMarketCap.BaseURL = "https://pro-api.coinmarketcap.com"
	c.CoinMarketCap.ListingLimit = 30
	c.CoinMarketCap.RatePerMin = 30

	c.FearGreed.BaseURL = "https://api.alternative.me"

	c.Stocks.Enabled = true
	c.Stocks.BaseURL = "https://query1.finance.yahoo.com"
	c.Stocks.Symbols = []string{"NVDA", "AAPL", "MSFT", "GOOGL", "AMZN", "META", "TSLA"}
	c.Gold.Symbol = "PAXG"

	c.Telegram.APIURL = "https://api.telegram.org"
	c.Telegram.MessageSpacing = 5 * time.Second
	c.Telegram.MaxAttempts = 3

	c.Analysis.WatchList = []string{"BTC", "ETH", "SOL", "BNB", "XRP", "ADA", "DOGE", "AVAX", "DOT", "LINK"}
	c.Analysis.MoveThreshold = 8
	c.Analysis.CryptoOverview = true
	c.Analysis.EquitiesOverview = true
	c.Analysis.MustInclude = []string{"BTC", "ETH", "SOL"}
	c.Analysis.TopN = 10

	c.Cache.Backend = "memory"
	c.Cache.FreshTTL = 2 * time.Minute
	c.Cache.StaleTTL = 30 * time.Minute
	c.Cache.MemoryMaxSize = 256
	c.Cache.Redis.Host = "localhost"
	c.Cache.Redis.Port = 6379

	c.Kafka.CycleTopic = "market-pulse.cycles"
	c.Kafka.LogTopic = "market-pulse.logs"
	c.Kafka.RequiredAcks = -1
	c.Kafka.Compression = "gzip"
	c.Kafka.MaxAttempts = 3

	c.Server.Host = "0.0.0.0"
	c.Server.Port = 10000
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 10 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.RateLimit.Burst = 20
	c.Server.RateLimit.RefillPerSec = 1

	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"

	c.Logging.Level = "info"
	c.Logging.Format = "json"
	c.Logging.Output = "stdout"
	c.Logging.CollectInterval = 30 * time.Second
	c.Logging.CollectThreshold = 100
	return c
}

// Load reads and parses a YAML configuration file on top of Default(). Missing files are an error.
func Load(path string) (*Config, error) {
	c := Default()
	if err := c.mergeFile(path); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv layers the optional YAML file, an optional .env file and the process environment.
// Either path may be empty.
func LoadWithEnv(path, dotenv string) (*Config, error) {
	c := Default()
	if path != "" {
		if err := c.mergeFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if dotenv != "" {
		// .env is optional: deployments set real environment variables instead
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate checks field rules and the cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Scheduler.RetryInterval > c.Scheduler.Interval {
		return fmt.Errorf("scheduler.retry_interval (%s) must not exceed scheduler.interval (%s)", c.Scheduler.RetryInterval, c.Scheduler.Interval)
	}
	if c.Cache.StaleTTL > 0 && c.Cache.StaleTTL < c.Cache.FreshTTL {
		return fmt.Errorf("cache.stale_ttl must be >= cache.fresh_ttl")
	}
	if (c.Cache.Backend == "redis" || c.Cache.Backend == "layered") && c.Cache.Redis.Host == "" {
		return fmt.Errorf("cache.redis.host is required for backend %q", c.Cache.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Analysis.EquitiesOverview && c.Stocks.Enabled && len(c.Stocks.Symbols) == 0 {
		return fmt.Errorf("stocks.symbols cannot be empty when the equities overview is on")
	}
	return nil
}
