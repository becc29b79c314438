// Package config loads service configuration from files, environment
// variables and defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/psi-indicator-engine/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. PSI_SERVER_PORT
const EnvPrefix = "PSI"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v      *viper.Viper
	file   string
	config *domain.Config
}

// NewManager creates a configuration manager that searches the default
// config paths for config.yaml
func NewManager() (*Manager, error) {
	return NewManagerFromFile("")
}

// NewManagerFromFile creates a configuration manager reading an explicit
// file. An empty path falls back to the default search paths.
func NewManagerFromFile(path string) (*Manager, error) {
	m := &Manager{file: path}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.file != "" {
		v.SetConfigFile(m.file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/psi-indicator-engine/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || m.file != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.rate_limit", 50)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("server.max_batch_size", 10000)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "psi")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_items", 10000)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.default_ttl", "24h")
	v.SetDefault("cache.max_retries", 3)
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.pool_timeout", "4s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Engine defaults
	v.SetDefault("engine.workers", 0)

	// Reference defaults
	v.SetDefault("reference.source", "file")
	v.SetDefault("reference.file", "configs/reference/psi_2024.yaml")
	v.SetDefault("reference.version", "2024")

	// MCP defaults
	v.SetDefault("mcp.server_name", "psi-indicator-engine")
	v.SetDefault("mcp.server_version", "1.0.0")
	v.SetDefault("mcp.request_timeout", "60s")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// validLogLevels are the levels logrus accepts
var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "warning": true, "error": true, "fatal": true, "panic": true,
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit: %v", config.Server.RateLimit)
	}
	if config.Server.MaxBatchSize <= 0 {
		return fmt.Errorf("invalid max batch size: %d", config.Server.MaxBatchSize)
	}

	if config.Engine.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", config.Engine.Workers)
	}

	switch config.Reference.Source {
	case "file":
		if config.Reference.File == "" {
			return fmt.Errorf("reference file is required when reference source is file")
		}
	case "postgres":
		if !config.Database.Enabled {
			return fmt.Errorf("reference source postgres requires database.enabled")
		}
		if config.Reference.Version == "" {
			return fmt.Errorf("reference version is required when reference source is postgres")
		}
	default:
		return fmt.Errorf("invalid reference source: %q", config.Reference.Source)
	}

	if config.Database.Enabled {
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if config.Database.Username == "" {
			return fmt.Errorf("database username is required")
		}
	}

	if config.Cache.Enabled && config.Cache.MaxItems < 0 {
		return fmt.Errorf("invalid cache size: %d", config.Cache.MaxItems)
	}

	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	switch strings.ToLower(config.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	return nil
}

// GetDatabaseConnectionString returns a postgres URL for lib/pq and migrate
func (m *Manager) GetDatabaseConnectionString() string {
	db := m.config.Database
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.Username, db.Password, db.Host, db.Port, db.Database, db.SSLMode)
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.v.GetString("environment")) == "production"
}
