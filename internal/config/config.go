package config

import "roomy-listing/pkg/logger"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    logger.Config   `mapstructure:"logger"`
}

type ServerConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	ShutdownTimeoutMs int    `mapstructure:"shutdown_timeout_ms"`
}

type FetcherConfig struct {
	TimeoutMs    int `mapstructure:"timeout_ms"`
	MaxRedirects int `mapstructure:"max_redirects"`
	MaxBodyBytes int `mapstructure:"max_body_bytes"`
}

type CacheConfig struct {
	Backend    string `mapstructure:"backend"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	MaxEntries int    `mapstructure:"max_entries"`
	RedisURL   string `mapstructure:"redis_url"`
}

// RateLimitConfig bounds outbound requests to airbnb.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
}
