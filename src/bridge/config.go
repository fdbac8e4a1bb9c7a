package bridge

import (
	"os"
	"strconv"
)

// RedisConfig holds connection settings for the Redis activity bridge.
type RedisConfig struct {
	Enabled  bool   // REDIS_ENABLED, default false
	Addr     string // Redis address, default "localhost:6379"
	Password string // Redis password, default ""
	DB       int    // Redis database number, default 0
	Prefix   string // Channel prefix, default "relay:"
}

// DefaultRedisConfig returns a RedisConfig with sensible defaults.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "relay:",
	}
}

// RedisConfigFromEnv loads Redis configuration from environment variables.
// Falls back to defaults for any missing values. Setting REDIS_ADDR alone
// enables the bridge.
func RedisConfigFromEnv() *RedisConfig {
	cfg := DefaultRedisConfig()

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
		cfg.Enabled = true
	}
	if enabled := os.Getenv("REDIS_ENABLED"); enabled != "" {
		if v, err := strconv.ParseBool(enabled); err == nil {
			cfg.Enabled = v
		}
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Password = pw
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			cfg.DB = db
		}
	}
	if prefix := os.Getenv("REDIS_RELAY_PREFIX"); prefix != "" {
		cfg.Prefix = prefix
	}
	return cfg
}

// Channel returns the pub/sub channel activity for roomID is published on.
func (c *RedisConfig) Channel(roomID string) string {
	return c.Prefix + "rooms:" + roomID + ":activity"
}
