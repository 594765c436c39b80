package relationaldb

import (
	"fmt"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Config contains history database settings
type Config struct {
	Driver string `mapstructure:"driver"`

	// DSN is a file path for sqlite or a connection string for postgres
	DSN string `mapstructure:"dsn"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	DefaultTimeout  time.Duration `mapstructure:"default_timeout"`

	// CacheSize is the number of transactions kept by CachedRepository.
	// Zero disables the cache.
	CacheSize int `mapstructure:"cache_size"`
}

// NewConfig creates a new Config with sensible defaults
func NewConfig() *Config {
	return &Config{
		Driver:          DriverSQLite,
		DSN:             "history.db",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		DefaultTimeout:  30 * time.Second,
		CacheSize:       1024,
	}
}

// SQLiteConfig creates a SQLite-specific configuration
func SQLiteConfig(path string) *Config {
	config := NewConfig()
	config.DSN = path
	return config
}

// PostgresConfig creates a PostgreSQL-specific configuration
func PostgresConfig(dsn string) *Config {
	config := NewConfig()
	config.Driver = DriverPostgres
	config.DSN = dsn
	config.MaxOpenConns = 25
	config.MaxIdleConns = 5
	return config
}

// Validate checks the configuration for common errors
func (c *Config) Validate() error {
	switch c.Driver {
	case "sqlite", "sqlite3":
		c.Driver = DriverSQLite
	case "postgres", "postgresql":
		c.Driver = DriverPostgres
	case DriverNone:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDriver, c.Driver)
	}

	if c.DSN == "" {
		return ErrMissingDSN
	}
	if c.MaxOpenConns < 0 {
		return ErrInvalidMaxOpenConns
	}
	if c.MaxIdleConns < 0 {
		return ErrInvalidMaxIdleConns
	}
	if c.DefaultTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CacheSize < 0 {
		return ErrInvalidCacheSize
	}
	return nil
}

// Enabled reports whether history is recorded at all.
func (c *Config) Enabled() bool {
	return c.Driver != DriverNone && c.Driver != ""
}
