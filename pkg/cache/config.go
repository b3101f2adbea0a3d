package cache

import "time"

type (
	RedisOption   func(*RedisConfig)
	MemoryOption  func(*MemoryConfig)
	LayeredOption func(*LayeredConfig)
)

// RedisConfig addresses one Redis database. Prefix namespaces every key,
// so several environments can share a server.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

func WithRedisHost(host string) RedisOption { return func(c *RedisConfig) { c.Host = host } }

func WithRedisPort(port int) RedisOption { return func(c *RedisConfig) { c.Port = port } }

func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) { c.Password = password }
}

func WithRedisDB(db int) RedisOption { return func(c *RedisConfig) { c.DB = db } }

// WithRedisPrefix replaces the default "marketpulse" key namespace. Empty keeps the default.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		if prefix != "" {
			c.Prefix = prefix
		}
	}
}

// MemoryConfig bounds the in-process LRU.
type MemoryConfig struct {
	MaxSize int
}

// WithMemoryMaxSize caps the number of entries; values below 1 keep the default.
func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		if size > 0 {
			c.MaxSize = size
		}
	}
}

// LayeredConfig sizes the L1 copy kept in front of an L2 store.
// MemoryTTL bounds how long an L1 copy lives; L2 keeps its own expiration.
type LayeredConfig struct {
	MemoryMaxSize int
	MemoryTTL     time.Duration
}

func WithLayeredMemorySize(size int) LayeredOption {
	return func(c *LayeredConfig) {
		if size > 0 {
			c.MemoryMaxSize = size
		}
	}
}

func WithLayeredMemoryTTL(ttl time.Duration) LayeredOption {
	return func(c *LayeredConfig) {
		if ttl > 0 {
			c.MemoryTTL = ttl
		}
	}
}
