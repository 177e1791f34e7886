package cli

import (
	"log/slog"
	"testing"

	"dailymeow/internal/log"
)

func TestLoggerConfig(t *testing.T) {
	tests := []struct {
		level, format string
		wantLevel     slog.Level
		wantJSON      bool
	}{
		{"", "", slog.LevelInfo, false},
		{"debug", "json", slog.LevelDebug, true},
		{"WARN", "JSON", slog.LevelWarn, true},
		{"error", "text", slog.LevelError, false},
	}
	for _, tt := range tests {
		cfg := loggerConfig(log.ComponentWorker, tt.level, tt.format)
		if cfg.Level != tt.wantLevel || cfg.JSON != tt.wantJSON {
			t.Errorf("loggerConfig(%q, %q) = level %v json %v", tt.level, tt.format, cfg.Level, cfg.JSON)
		}
		if cfg.Component != log.ComponentWorker {
			t.Errorf("component not applied: %q", cfg.Component)
		}
	}
}
