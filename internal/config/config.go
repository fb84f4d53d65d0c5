// Package config provides configuration management for the routing service
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/llm-router/router/pkg/types"
)

// Manager handles configuration loading and management
type Manager struct {
	config *types.Config
	viper  *viper.Viper
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		viper: viper.New(),
	}
}

// Load loads configuration from various sources
func (m *Manager) Load() error {
	// Set default values
	m.setDefaults()

	// Configure viper
	m.viper.SetConfigName("config")
	m.viper.SetConfigType("yaml")
	m.viper.AddConfigPath("./configs")
	m.viper.AddConfigPath(".")

	// Enable environment variable support
	m.viper.AutomaticEnv()
	m.viper.SetEnvPrefix("ROUTER")
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Try to read config file
	if err := m.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Unmarshal into config struct
	config := &types.Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	m.viper.SetDefault("server.host", "0.0.0.0")
	m.viper.SetDefault("server.port", 8080)
	m.viper.SetDefault("server.read_timeout", "30s")
	m.viper.SetDefault("server.write_timeout", "30s")
	m.viper.SetDefault("server.idle_timeout", "120s")

	// Database defaults
	m.viper.SetDefault("database.host", "localhost")
	m.viper.SetDefault("database.port", 5432)
	m.viper.SetDefault("database.username", "router")
	m.viper.SetDefault("database.password", "password")
	m.viper.SetDefault("database.database", "router")
	m.viper.SetDefault("database.max_open_conns", 100)
	m.viper.SetDefault("database.max_idle_conns", 10)

	// Redis defaults
	m.viper.SetDefault("redis.host", "localhost")
	m.viper.SetDefault("redis.port", 6379)
	m.viper.SetDefault("redis.password", "")
	m.viper.SetDefault("redis.database", 0)

	// Response cache defaults
	m.viper.SetDefault("cache.ttl", "1h")
	m.viper.SetDefault("cache.key_prefix", "resp:")

	// Circuit breaker defaults
	m.viper.SetDefault("breaker.failure_threshold", 5)
	m.viper.SetDefault("breaker.reset_timeout", "60s")
	m.viper.SetDefault("breaker.monitoring_period", "60s")

	// Auth defaults
	m.viper.SetDefault("auth.jwt_secret", "your-secret-key")
	m.viper.SetDefault("auth.jwt_expiration", "24h")
	m.viper.SetDefault("auth.master_key", "")

	// Logging defaults
	m.viper.SetDefault("logging.level", "info")
	m.viper.SetDefault("logging.format", "json")
	m.viper.SetDefault("logging.output", "stdout")
}

// Get returns the current configuration
func (m *Manager) Get() *types.Config {
	return m.config
}

// Watch starts watching for configuration changes
func (m *Manager) Watch(callback func(*types.Config)) error {
	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(e fsnotify.Event) {
		config := &types.Config{}
		if err := m.viper.Unmarshal(config); err != nil {
			// Log error but don't crash
			return
		}
		m.config = config
		if callback != nil {
			callback(config)
		}
	})
	return nil
}

// Validate validates the configuration. Malformed configuration is a
// programming/deployment error and is expected to be fatal at startup.
func (m *Manager) Validate() error {
	if m.config == nil {
		return fmt.Errorf("configuration not loaded")
	}

	if m.config.Server.Port <= 0 || m.config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", m.config.Server.Port)
	}

	if m.config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if m.config.Auth.JWTSecret == "" || m.config.Auth.JWTSecret == "your-secret-key" {
		return fmt.Errorf("jwt secret must be set to a secure value")
	}

	if key, err := hex.DecodeString(m.config.Auth.MasterKey); err != nil || len(key) != 32 {
		return fmt.Errorf("auth.master_key must be 32 hex-encoded bytes")
	}

	if m.config.Breaker.FailureThreshold <= 0 {
		return fmt.Errorf("breaker failure threshold must be positive")
	}
	if m.config.Breaker.ResetTimeout <= 0 {
		return fmt.Errorf("breaker reset timeout must be positive")
	}

	if m.config.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	return nil
}

// GetString returns a string configuration value
func (m *Manager) GetString(key string) string {
	return m.viper.GetString(key)
}

var (
	defaultManager *Manager
	defaultOnce    sync.Once
)

// InitDefault initializes the process-wide default manager.
func InitDefault() error {
	var err error
	defaultOnce.Do(func() {
		defaultManager = NewManager()
		err = defaultManager.Load()
	})
	return err
}

// Default returns the process-wide default manager.
func Default() *Manager {
	return defaultManager
}

// Get returns the configuration held by the default manager.
func Get() *types.Config {
	if defaultManager == nil {
		return nil
	}
	return defaultManager.Get()
}
