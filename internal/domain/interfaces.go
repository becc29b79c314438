package domain

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	Reload() error
	Validate() error
}

// CodeSetLookup is the read-only view of reference data the indicator rules consume
type CodeSetLookup interface {
	Version() string
	Lookup(setName, code string) (bool, error)
	LookupRange(setName, code string, dayOffset int, window DayWindow) (bool, error)
	Has(setName string) bool
}
