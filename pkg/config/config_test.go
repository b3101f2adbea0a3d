package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCredentials(t *testing.T) {
	t.Setenv("CMC_API_KEY", "cmc-key")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("CHANNEL_ID", "@pulse")
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefaults(t *testing.T) {
	c := Default()

	assert.Equal(t, time.Hour, c.Scheduler.Interval)
	assert.Equal(t, 5*time.Minute, c.Scheduler.RetryInterval)
	assert.Equal(t, 5*time.Second, c.Telegram.MessageSpacing)
	assert.Equal(t, 10000, c.Server.Port)
	assert.Len(t, c.Analysis.WatchList, 10)
	assert.Equal(t, 8.0, c.Analysis.MoveThreshold)

	// credentials are the only thing missing
	assert.Error(t, c.Validate())
	c.CoinMarketCap.APIKey, c.Telegram.BotToken, c.Telegram.ChannelID = "k", "t", "c"
	assert.NoError(t, c.Validate())
}

func TestLoadWithEnvOverrides(t *testing.T) {
	setCredentials(t)
	t.Setenv("PORT", "8080")
	t.Setenv("WATCH_LIST", "BTC,ETH")
	t.Setenv("UPDATE_INTERVAL", "30m")

	c, err := LoadWithEnv("", "")

	require.NoError(t, err)
	assert.Equal(t, "cmc-key", c.CoinMarketCap.APIKey)
	assert.Equal(t, "@pulse", c.Telegram.ChannelID)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, []string{"BTC", "ETH"}, c.Analysis.WatchList)
	assert.Equal(t, 30*time.Minute, c.Scheduler.Interval)
}

func TestLoadWithEnvMissingToken(t *testing.T) {
	t.Setenv("CMC_API_KEY", "cmc-key")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("CHANNEL_ID", "@pulse")

	_, err := LoadWithEnv("", "")
	assert.ErrorContains(t, err, "BotToken")
}

func TestLoadYAMLThenEnv(t *testing.T) {
	setCredentials(t)
	t.Setenv("LOG_LEVEL", "debug")
	path := writeFile(t, "config.yaml", `
environment: staging
scheduler:
  interval: 2h
  retry_interval: 10m
cache:
  backend: layered
  redis:
    host: redis
logging:
  level: warn
`)

	c, err := LoadWithEnv(path, "")

	require.NoError(t, err)
	assert.Equal(t, "staging", c.Environment)
	assert.Equal(t, 2*time.Hour, c.Scheduler.Interval)
	assert.Equal(t, 10*time.Minute, c.Scheduler.RetryInterval)
	assert.Equal(t, 15*time.Second, c.Scheduler.FetchTimeout)
	assert.Equal(t, "redis", c.Cache.Redis.Host)
	assert.Equal(t, "debug", c.Logging.Level)
}

func TestLoadMissingYAMLIsOptional(t *testing.T) {
	setCredentials(t)

	_, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"), filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	for _, k := range []string{"CMC_API_KEY", "TELEGRAM_BOT_TOKEN", "CHANNEL_ID"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	dotenv := writeFile(t, ".env", "CMC_API_KEY=from-file\nTELEGRAM_BOT_TOKEN=1:x\nCHANNEL_ID=-100\n")

	c, err := LoadWithEnv("", dotenv)

	require.NoError(t, err)
	assert.Equal(t, "from-file", c.CoinMarketCap.APIKey)
	assert.Equal(t, "-100", c.Telegram.ChannelID)
}

func TestValidateCrossField(t *testing.T) {
	base := func() *Config {
		c := Default()
		c.CoinMarketCap.APIKey, c.Telegram.BotToken, c.Telegram.ChannelID = "k", "t", "c"
		return c
	}

	c := base()
	c.Scheduler.RetryInterval = 2 * time.Hour
	assert.ErrorContains(t, c.Validate(), "retry_interval")

	c = base()
	c.Kafka.Enabled = true
	c.Kafka.Brokers = nil
	assert.ErrorContains(t, c.Validate(), "kafka.brokers")

	c = base()
	c.Cache.Backend = "disk"
	assert.Error(t, c.Validate())

	c = base()
	c.Cache.FreshTTL, c.Cache.StaleTTL = time.Hour, time.Minute
	assert.ErrorContains(t, c.Validate(), "stale_ttl")

	c = base()
	c.Server.TrustedProxies = []string{"10.0.0.0/8", "proxy.local"}
	assert.ErrorContains(t, c.Validate(), "TrustedProxies")
}
