package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// LiteConfig is the configuration of the standalone MCP server.
// It requires no external services and reads only environment variables.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for the results database

	// Reference bundle
	ReferenceFile string // YAML bundle loaded at startup

	// Evaluation
	Workers       int // Concurrent encounters, 0 means one per CPU
	CacheMaxItems int // Maximum entries in the verdict cache, 0 disables it

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".psi-indicator-engine")

	return &LiteConfig{
		DataDir:       dataDir,
		ReferenceFile: filepath.Join(dataDir, "reference.yaml"),
		CacheMaxItems: 1000,
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// LoadLiteConfig loads configuration from PSI_* environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("PSI_DATA_DIR"); v != "" {
		cfg.DataDir = v
		cfg.ReferenceFile = filepath.Join(v, "reference.yaml")
	}
	if v := os.Getenv("PSI_REFERENCE_FILE"); v != "" {
		cfg.ReferenceFile = v
	}

	if v := os.Getenv("PSI_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("PSI_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CacheMaxItems = n
		}
	}

	if v := os.Getenv("PSI_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PSI_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// ResultsDBPath returns the path to the results SQLite database.
func (c *LiteConfig) ResultsDBPath() string {
	return filepath.Join(c.DataDir, "results.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}
