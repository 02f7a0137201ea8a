package logging

import (
	"log/slog"
	"testing"

	"github.com/nerrad567/gray-switch/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	logger := New(config.LoggingConfig{
		Level:  "debug",
		Format: "text",
		Output: "stderr",
	}, "1.0.0")
	if logger == nil || logger.Logger == nil {
		t.Fatal("New() returned nil logger")
	}
	if !logger.Enabled(nil, slog.LevelDebug) {
		t.Error("debug level not enabled for debug configuration")
	}
}

func TestNew_DefaultLevelFiltersDebug(t *testing.T) {
	logger := New(config.LoggingConfig{Level: "info"}, "dev")
	if logger.Enabled(nil, slog.LevelDebug) {
		t.Error("debug enabled at info level")
	}
	if !logger.Enabled(nil, slog.LevelInfo) {
		t.Error("info not enabled at info level")
	}
}

func TestWith(t *testing.T) {
	logger := Default()
	child := logger.With("component", "router")
	if child == nil || child.Logger == nil {
		t.Fatal("With() returned nil logger")
	}
	if child == logger {
		t.Error("With() returned the same logger, want a new one")
	}
}
