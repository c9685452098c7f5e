package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/yatis-tahmin-server/internal/domain"
)

// Manager loads and holds the application configuration using Viper
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// Set configuration file name and paths
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/yatis-tahmin-server/")

	// Set environment variable prefix and enable automatic env binding
	viper.SetEnvPrefix("YATIS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	m.setDefaults()

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	// Unmarshal configuration into struct
	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8500)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Data workbook defaults
	viper.SetDefault("data.primary_path", "Veri2024.xlsx")
	viper.SetDefault("data.fallback_path", "PRED_LOS.xlsx")

	// Model service defaults
	viper.SetDefault("model.base_url", "http://localhost:8600")
	viper.SetDefault("model.timeout", "10s")
	viper.SetDefault("model.default_blend_weight", 0.50)
	viper.SetDefault("model.breaker_max_requests", 5)
	viper.SetDefault("model.breaker_interval", "30s")
	viper.SetDefault("model.breaker_timeout", "60s")

	// Cache defaults
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.max_items", 1000)
	viper.SetDefault("cache.ttl", "1h")
	viper.SetDefault("cache.redis_url", "redis://localhost:6379")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetDataConfig returns data workbook configuration
func (m *Manager) GetDataConfig() *domain.DataConfig {
	return &m.config.Data
}

// GetModelConfig returns model service configuration
func (m *Manager) GetModelConfig() *domain.ModelConfig {
	return &m.config.Model
}

// GetCacheConfig returns prediction cache configuration
func (m *Manager) GetCacheConfig() *domain.CacheConfig {
	return &m.config.Cache
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// Validate model service configuration
	if config.Model.BaseURL == "" {
		return fmt.Errorf("model base URL is required")
	}
	if config.Model.DefaultBlendWeight < 0 || config.Model.DefaultBlendWeight > 1 {
		return fmt.Errorf("invalid default blend weight: %f", config.Model.DefaultBlendWeight)
	}

	// Validate cache configuration
	switch strings.ToLower(config.Cache.Backend) {
	case "memory", "redis", "off":
	default:
		return fmt.Errorf("invalid cache backend: %s", config.Cache.Backend)
	}
	if strings.ToLower(config.Cache.Backend) == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required for the redis cache backend")
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}
