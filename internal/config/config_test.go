package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "DATA_DIR", "SESSION_TTL", "STRICT_VISIBILITY"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Expected environment development, got %s", cfg.Environment)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("Expected info level, got %v", cfg.LogLevel)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("Unexpected redis URL %s", cfg.RedisURL)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("Unexpected data dir %s", cfg.DataDir)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("Expected 24h TTL, got %v", cfg.SessionTTL)
	}
	if cfg.StrictVisibility {
		t.Error("Expected strict visibility off by default")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	t.Setenv("DATA_DIR", "/srv/stories")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("STRICT_VISIBILITY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Port != "9000" || cfg.Environment != "production" {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Errorf("Expected warn level, got %v", cfg.LogLevel)
	}
	if cfg.RedisURL != "redis://cache:6379/2" || cfg.DataDir != "/srv/stories" {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.SessionTTL != 90*time.Minute {
		t.Errorf("Expected 90m TTL, got %v", cfg.SessionTTL)
	}
	if !cfg.StrictVisibility {
		t.Error("Expected strict visibility on")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad duration", key: "SESSION_TTL", value: "a day"},
		{name: "negative duration", key: "SESSION_TTL", value: "-1h"},
		{name: "bad bool", key: "STRICT_VISIBILITY", value: "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for input, expected := range tests {
		if got := parseLogLevel(input); got != expected {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, got, expected)
		}
	}
}
