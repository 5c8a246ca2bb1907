package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Desktop   DesktopConfig   `toml:"desktop"`
	Chat      ChatConfig      `toml:"chat"`
	Relay     RelayConfig     `toml:"relay"`
	Storage   StorageConfig   `toml:"storage"`
	Logging   LogConfig       `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" toml:"port"`
	Host string `envconfig:"HOST" toml:"host"`
}

// DesktopConfig holds desktop surface configuration.
type DesktopConfig struct {
	// Fallback drag bounds when the shell does not supply surface size.
	MaxX int `envconfig:"DESKTOP_MAX_X" toml:"max_x"`
	MaxY int `envconfig:"DESKTOP_MAX_Y" toml:"max_y"`
}

// ChatConfig holds chat application configuration.
type ChatConfig struct {
	DefaultChannel string `envconfig:"CHAT_DEFAULT_CHANNEL" toml:"default_channel"`
}

// RelayConfig holds chat relay connection configuration.
type RelayConfig struct {
	URL       string `envconfig:"RELAY_URL" toml:"url"`        // ws:// endpoint
	HealthURL string `envconfig:"RELAY_HEALTH" toml:"health"`  // optional http:// probe
	Key       string `envconfig:"RELAY_KEY" toml:"key"`        // shared static credential
}

// StorageConfig holds durable storage configuration.
type StorageConfig struct {
	Path string `envconfig:"STORAGE_PATH" toml:"path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" toml:"enabled"`
}

// Load builds configuration in three layers: defaults, then an optional
// TOML file named by WEBTOP_CONFIG, then environment variables. envconfig
// only assigns fields whose variables are present, so the file layer
// survives unless explicitly overridden.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("WEBTOP_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or falls back to defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Desktop: DesktopConfig{
			MaxX: 1920,
			MaxY: 1080,
		},
		Chat: ChatConfig{
			DefaultChannel: "general",
		},
		Relay: RelayConfig{
			URL: "ws://localhost:9000/chat",
		},
		Storage: StorageConfig{
			Path: "/tmp/webtop-storage",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
