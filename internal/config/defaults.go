package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets every default value
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.bind", "127.0.0.1")
	v.SetDefault("server.port", 5005)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.websocket_ping_interval", 30*time.Second)

	v.SetDefault("database.backend", "pebble")
	v.SetDefault("database.path", "data/state")
	v.SetDefault("database.compression", "lz4")

	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.dsn", "data/history.db")
	v.SetDefault("history.max_open_conns", 1)
	v.SetDefault("history.max_idle_conns", 1)
	v.SetDefault("history.conn_max_lifetime", time.Hour)
	v.SetDefault("history.default_timeout", 30*time.Second)
	v.SetDefault("history.cache_size", 1024)

	v.SetDefault("engine.entry_rent", 0)
	v.SetDefault("engine.verify_signatures", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")

	v.SetDefault("genesis_file", "")
}
