package config

import (
	"fmt"
	"strings"

	"github.com/LeJamon/goMarketd/internal/storage/compression"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := validateDatabaseConfig(&config.Database); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}
	if err := config.History.Validate(); err != nil {
		return fmt.Errorf("history config validation failed: %w", err)
	}
	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}
	return nil
}

func validateServerConfig(server *ServerConfig) error {
	if server.Port < 1 || server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", server.Port)
	}
	if server.Bind == "" {
		return fmt.Errorf("bind address is required")
	}
	if server.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}
	if server.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}
	if server.WebsocketPingInterval <= 0 {
		return fmt.Errorf("websocket_ping_interval must be positive")
	}
	return nil
}

func validateDatabaseConfig(db *DatabaseConfig) error {
	db.Backend = strings.ToLower(db.Backend)
	switch db.Backend {
	case "pebble", "leveldb":
		if db.Path == "" {
			return fmt.Errorf("path is required for the %s backend", db.Backend)
		}
	case "memory":
	default:
		return fmt.Errorf("backend must be one of: pebble, leveldb, memory; got %q", db.Backend)
	}

	if _, err := compression.Get(db.Compression); err != nil {
		return fmt.Errorf("compression: %w", err)
	}
	return nil
}

func validateLogConfig(log *LogConfig) error {
	switch strings.ToLower(log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be one of: debug, info, warn, error; got %q", log.Level)
	}
	switch log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("format must be json or console, got %q", log.Format)
	}
	return nil
}
