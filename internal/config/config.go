package config

import (
	"time"

	"github.com/LeJamon/goMarketd/internal/storage/relationaldb"
)

// Config represents the complete marketd configuration
type Config struct {
	Server   ServerConfig        `toml:"server" mapstructure:"server"`
	Database DatabaseConfig      `toml:"database" mapstructure:"database"`
	History  relationaldb.Config `toml:"history" mapstructure:"history"`
	Engine   EngineConfig        `toml:"engine" mapstructure:"engine"`
	Log      LogConfig           `toml:"log" mapstructure:"log"`

	// GenesisFile seeds an empty ledger. Optional.
	GenesisFile string `toml:"genesis_file" mapstructure:"genesis_file"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig represents the [server] section
type ServerConfig struct {
	Bind            string        `toml:"bind" mapstructure:"bind"`
	Port            int           `toml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `toml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// WebsocketPingInterval is how often idle stream subscribers are pinged
	WebsocketPingInterval time.Duration `toml:"websocket_ping_interval" mapstructure:"websocket_ping_interval"`
}

// DatabaseConfig represents the [database] section holding ledger state
type DatabaseConfig struct {
	Backend     string `toml:"backend" mapstructure:"backend"` // pebble, leveldb or memory
	Path        string `toml:"path" mapstructure:"path"`
	Compression string `toml:"compression" mapstructure:"compression"` // lz4 or none
}

// EngineConfig represents the [engine] section
type EngineConfig struct {
	EntryRent        uint64 `toml:"entry_rent" mapstructure:"entry_rent"`
	VerifySignatures bool   `toml:"verify_signatures" mapstructure:"verify_signatures"`
}

// LogConfig represents the [log] section
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"` // json or console
	File   string `toml:"file" mapstructure:"file"`
}

// GetConfigPath returns the path the configuration was loaded from
func (c *Config) GetConfigPath() string {
	return c.configPath
}
