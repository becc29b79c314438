package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Reference ReferenceConfig `mapstructure:"reference"`
	MCP       MCPConfig       `mapstructure:"mcp"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst       int           `mapstructure:"rate_burst"`
	MaxBatchSize    int           `mapstructure:"max_batch_size"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// CacheConfig represents verdict cache configuration
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxItems    int           `mapstructure:"max_items"`
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// EngineConfig controls batch evaluation
type EngineConfig struct {
	Workers int `mapstructure:"workers"` // 0 means runtime.NumCPU()
}

// ReferenceConfig selects where code-set reference data is loaded from
type ReferenceConfig struct {
	Source  string `mapstructure:"source"` // "file" or "postgres"
	File    string `mapstructure:"file"`
	Version string `mapstructure:"version"` // version row to load from postgres
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName     string        `mapstructure:"server_name"`
	ServerVersion  string        `mapstructure:"server_version"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}
