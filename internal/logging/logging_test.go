package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"console info", Config{Level: "info", Format: "console"}, ""},
		{"json debug", Config{Level: "DEBUG", Format: "json"}, ""},
		{"bad level", Config{Level: "loud", Format: "json"}, "log level"},
		{"bad format", Config{Level: "info", Format: "xml"}, "unknown log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketd.log")
	logger, err := New(Config{Level: "warn", Format: "console", File: path})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", zap.String("component", "test"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"message":"kept"`)
	assert.Contains(t, string(data), `"component":"test"`)
}
