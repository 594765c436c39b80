package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marketd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", config.Server.Bind)
	assert.Equal(t, 5005, config.Server.Port)
	assert.Equal(t, 10*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, "pebble", config.Database.Backend)
	assert.Equal(t, "lz4", config.Database.Compression)
	assert.Equal(t, "sqlite", config.History.Driver)
	assert.Equal(t, 1024, config.History.CacheSize)
	assert.True(t, config.Engine.VerifySignatures)
	assert.Zero(t, config.Engine.EntryRent)
	assert.Equal(t, "info", config.Log.Level)
	assert.Empty(t, config.GenesisFile)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
genesis_file = "genesis.json"

[server]
port = 6006
read_timeout = "3s"

[database]
backend = "LevelDB"
path = "/tmp/marketd/state"
compression = "none"

[history]
driver = "postgresql"
dsn = "postgres://marketd@localhost/marketd?sslmode=disable"

[engine]
entry_rent = 10
verify_signatures = false

[log]
level = "debug"
format = "json"
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, path, config.GetConfigPath())
	assert.Equal(t, 6006, config.Server.Port)
	assert.Equal(t, 3*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, "leveldb", config.Database.Backend)
	assert.Equal(t, "none", config.Database.Compression)
	assert.Equal(t, "postgres", config.History.Driver)
	assert.Equal(t, uint64(10), config.Engine.EntryRent)
	assert.False(t, config.Engine.VerifySignatures)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, "genesis.json", config.GenesisFile)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("MARKETD_SERVER_PORT", "7007")
	t.Setenv("MARKETD_ENGINE_ENTRY_RENT", "25")
	t.Setenv("MARKETD_HISTORY_DRIVER", "none")

	config, err := LoadConfig(writeConfig(t, "[server]\nport = 6006\n"))
	require.NoError(t, err)
	assert.Equal(t, 7007, config.Server.Port)
	assert.Equal(t, uint64(25), config.Engine.EntryRent)
	assert.False(t, config.History.Enabled())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorContains(t, err, "config file does not exist")
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		config, err := LoadConfig("")
		require.NoError(t, err)
		return config
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"memory needs no path", func(c *Config) { c.Database.Backend = "memory"; c.Database.Path = "" }, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "port must be between"},
		{"empty bind", func(c *Config) { c.Server.Bind = "" }, "bind address is required"},
		{"ping interval", func(c *Config) { c.Server.WebsocketPingInterval = 0 }, "websocket_ping_interval"},
		{"unknown backend", func(c *Config) { c.Database.Backend = "bolt" }, "backend must be one of"},
		{"pebble without path", func(c *Config) { c.Database.Path = "" }, "path is required"},
		{"unknown compression", func(c *Config) { c.Database.Compression = "zstd" }, "compression"},
		{"unknown history driver", func(c *Config) { c.History.Driver = "mysql" }, "history config validation failed"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "level must be one of"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "format must be json or console"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			err := ValidateConfig(config)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
