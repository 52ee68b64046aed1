package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"roomy-listing/pkg/storage"
)

type manager struct {
	mu     sync.RWMutex
	config *Config
	viper  *viper.Viper
}

func NewManager() Manager {
	return &manager{
		viper: viper.New(),
	}
}

// Load reads configPath and applies ROOMY_* environment overrides. An empty
// path or a missing file leaves the defaults in place.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setupViper(configPath)

	if err := m.readConfig(configPath); err != nil {
		return nil, err
	}

	config, err := m.decode()
	if err != nil {
		return nil, err
	}

	m.config = config
	return config, nil
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}

	if err := m.readConfig(m.viper.ConfigFileUsed()); err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	config, err := m.decode()
	if err != nil {
		return err
	}

	m.config = config
	return nil
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) setupViper(configPath string) {
	if configPath != "" {
		m.viper.SetConfigFile(configPath)
	}

	m.viper.SetEnvPrefix("ROOMY")
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	setDefaults(m.viper)
}

func (m *manager) readConfig(configPath string) error {
	if configPath == "" {
		return nil
	}
	if err := m.viper.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func (m *manager) decode() (*Config, error) {
	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout_ms", 10000)

	v.SetDefault("fetcher.timeout_ms", 10000)
	v.SetDefault("fetcher.max_redirects", 5)
	v.SetDefault("fetcher.max_body_bytes", 5<<20)

	v.SetDefault("cache.backend", storage.BackendMemory)
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.redis_url", "")

	v.SetDefault("ratelimit.rps", 1.0)
	v.SetDefault("ratelimit.burst", 3)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.time_format", "")
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Fetcher.TimeoutMs <= 0 {
		return fmt.Errorf("fetcher.timeout_ms must be positive")
	}

	if config.Fetcher.MaxRedirects == 0 {
		return fmt.Errorf("fetcher.max_redirects must be positive, or negative to disable redirects")
	}

	if config.Fetcher.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetcher.max_body_bytes must be positive")
	}

	switch config.Cache.Backend {
	case storage.BackendMemory, storage.BackendNone:
	case storage.BackendRedis:
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("%w: %q", storage.ErrUnknownBackend, config.Cache.Backend)
	}

	if config.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds cannot be negative")
	}

	if config.RateLimit.RPS <= 0 {
		return fmt.Errorf("ratelimit.rps must be positive")
	}

	if config.RateLimit.Burst <= 0 {
		return fmt.Errorf("ratelimit.burst must be positive")
	}

	return nil
}
