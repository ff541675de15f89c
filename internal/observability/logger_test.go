package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/opendata-catalog-etl/internal/config"
)

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestNewLogger_InstallsDefault(t *testing.T) {
	restoreDefaultLogger(t)

	logger := NewLogger(&config.Config{LogLevel: "info", LogFormat: "json"})

	assert.Same(t, logger, slog.Default())
}

func TestNewLogger_Levels(t *testing.T) {
	restoreDefaultLogger(t)
	ctx := context.Background()

	tests := []struct {
		level      string
		enabled    slog.Level
		suppressed slog.Level
	}{
		{level: "debug", enabled: slog.LevelDebug},
		{level: "info", enabled: slog.LevelInfo, suppressed: slog.LevelDebug},
		{level: "warn", enabled: slog.LevelWarn, suppressed: slog.LevelInfo},
		{level: "warning", enabled: slog.LevelWarn, suppressed: slog.LevelInfo},
		{level: "error", enabled: slog.LevelError, suppressed: slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: "text"})

			assert.True(t, logger.Enabled(ctx, tt.enabled))
			if tt.level != "debug" {
				assert.False(t, logger.Enabled(ctx, tt.suppressed))
			}
		})
	}
}
