package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// RelayConfig holds HTTP and WebSocket server configuration.
type RelayConfig struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	PublicDir       string `json:"public_dir"`
	PingInterval    int    `json:"ping_interval_seconds"`
	PongWait        int    `json:"pong_wait_seconds"`
	WriteTimeout    int    `json:"write_timeout_seconds"`
	ReadBufferSize  int    `json:"read_buffer_size"`
	WriteBufferSize int    `json:"write_buffer_size"`
	MaxMessageSize  int64  `json:"max_message_size"`
	SendBuffer      int    `json:"send_buffer"`
	LogLevel        string `json:"log_level"`
	LogPretty       bool   `json:"log_pretty"`
}

// DefaultConfig returns the default relay configuration.
func DefaultConfig() *RelayConfig {
	return &RelayConfig{
		Port:            3000,
		PublicDir:       "public",
		PingInterval:    25,
		PongWait:        60,
		WriteTimeout:    10,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		MaxMessageSize:  100 << 20,
		SendBuffer:      256,
		LogLevel:        "info",
	}
}

// FromEnv loads configuration from environment variables on top of the
// defaults. Values that fail to parse keep their default.
func FromEnv() *RelayConfig {
	cfg := DefaultConfig()

	cfg.Host = os.Getenv("HOST")
	envInt("PORT", &cfg.Port)
	if dir := os.Getenv("PUBLIC_DIR"); dir != "" {
		cfg.PublicDir = dir
	}
	envInt("WS_PING_INTERVAL", &cfg.PingInterval)
	envInt("WS_PONG_WAIT", &cfg.PongWait)
	envInt("WS_WRITE_TIMEOUT", &cfg.WriteTimeout)
	envInt("WS_READ_BUFFER", &cfg.ReadBufferSize)
	envInt("WS_WRITE_BUFFER", &cfg.WriteBufferSize)
	envInt("WS_SEND_BUFFER", &cfg.SendBuffer)
	if v := os.Getenv("WS_MAX_MESSAGE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxMessageSize = n
		}
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = strings.ToLower(lvl)
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogPretty = b
		}
	}
	return cfg
}

func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*dst = n
	}
}

// Addr returns the listen address.
func (c *RelayConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *RelayConfig) PingEvery() time.Duration { return time.Duration(c.PingInterval) * time.Second }
func (c *RelayConfig) PongTimeout() time.Duration { return time.Duration(c.PongWait) * time.Second }
func (c *RelayConfig) WriteDeadline() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}
