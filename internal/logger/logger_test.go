package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jhin-exe/weave/internal/config"
)

func TestSetupWriter_Production(t *testing.T) {
	var buf bytes.Buffer
	log := SetupWriter(&config.Config{Environment: "production", LogLevel: slog.LevelInfo}, &buf)

	WithError(WithSessionID(log, "abc"), errors.New("boom")).Info("Choice activated", "scene", "hall")
	log.Debug("Hidden below level")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "Choice activated" || entry["session_id"] != "abc" || entry["error"] != "boom" || entry["scene"] != "hall" {
		t.Errorf("Unexpected entry %v", entry)
	}
}

func TestSetupWriter_Development(t *testing.T) {
	var buf bytes.Buffer
	log := SetupWriter(&config.Config{Environment: "development", LogLevel: slog.LevelDebug}, &buf)

	WithRequestID(log, "req-1").Debug("Request handled")

	out := buf.String()
	if !strings.Contains(out, "msg=\"Request handled\"") || !strings.Contains(out, "request_id=req-1") {
		t.Errorf("Unexpected text output %q", out)
	}
	if slog.Default() != log {
		t.Error("Expected Setup to install the default logger")
	}
}
