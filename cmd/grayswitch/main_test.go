package main

import (
	"testing"

	"github.com/nerrad567/gray-switch/internal/infrastructure/config"
)

func TestParseArgs_Defaults(t *testing.T) {
	opts, err := parseArgs(nil)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if opts.bridgePath != defaultBridgePath {
		t.Errorf("bridgePath = %q, want %q", opts.bridgePath, defaultBridgePath)
	}
	if opts.settingsPath != defaultSettingsPath {
		t.Errorf("settingsPath = %q, want %q", opts.settingsPath, defaultSettingsPath)
	}
	if opts.verbose != 0 {
		t.Errorf("verbose = %d, want 0", opts.verbose)
	}
}

func TestParseArgs_Flags(t *testing.T) {
	opts, err := parseArgs([]string{"-c", "/tmp/bridge.conf", "-s", "/tmp/settings.yaml", "-V", "-V"})
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if opts.bridgePath != "/tmp/bridge.conf" {
		t.Errorf("bridgePath = %q, want /tmp/bridge.conf", opts.bridgePath)
	}
	if opts.settingsPath != "/tmp/settings.yaml" {
		t.Errorf("settingsPath = %q, want /tmp/settings.yaml", opts.settingsPath)
	}
	if opts.verbose != 2 {
		t.Errorf("verbose = %d, want 2", opts.verbose)
	}
}

func TestParseArgs_EnvOverrides(t *testing.T) {
	t.Setenv("GRAYSWITCH_CONFIG", "/env/bridge.conf")
	t.Setenv("GRAYSWITCH_SETTINGS", "/env/settings.yaml")

	opts, err := parseArgs(nil)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if opts.bridgePath != "/env/bridge.conf" {
		t.Errorf("bridgePath = %q, want env override", opts.bridgePath)
	}
	if opts.settingsPath != "/env/settings.yaml" {
		t.Errorf("settingsPath = %q, want env override", opts.settingsPath)
	}

	// The command line wins over the environment.
	opts, err = parseArgs([]string{"-c", "/cli/bridge.conf"})
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if opts.bridgePath != "/cli/bridge.conf" {
		t.Errorf("bridgePath = %q, want command line override", opts.bridgePath)
	}
}

func TestParseArgs_RejectsPositionalArgs(t *testing.T) {
	if _, err := parseArgs([]string{"stray"}); err == nil {
		t.Error("parseArgs() error = nil, want error for positional args")
	}
}

func TestParseArgs_RejectsUnknownFlags(t *testing.T) {
	if _, err := parseArgs([]string{"--bogus"}); err == nil {
		t.Error("parseArgs() error = nil, want error for unknown flag")
	}
}

func TestApplyVerbosity(t *testing.T) {
	tests := []struct {
		verbose    int
		wantLevel  string
		wantFormat string
	}{
		{0, "info", "json"},
		{1, "debug", "json"},
		{2, "debug", "text"},
		{3, "debug", "text"},
	}
	for _, tt := range tests {
		cfg := &config.Config{
			Logging: config.LoggingConfig{Level: "info", Format: "json"},
		}
		applyVerbosity(cfg, tt.verbose)
		if cfg.Logging.Level != tt.wantLevel {
			t.Errorf("verbose=%d: Level = %q, want %q", tt.verbose, cfg.Logging.Level, tt.wantLevel)
		}
		if cfg.Logging.Format != tt.wantFormat {
			t.Errorf("verbose=%d: Format = %q, want %q", tt.verbose, cfg.Logging.Format, tt.wantFormat)
		}
	}
}
