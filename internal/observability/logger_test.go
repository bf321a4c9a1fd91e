package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "info", Format: "json", Output: &buf, Service: "gridocr"})

	log.Debug().Msg("hidden")
	log.Info().Int("rows", 3).Msg("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["service"] != "gridocr" || entry["message"] != "done" || entry["rows"] != float64(3) {
		t.Errorf("entry = %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("entry should carry a timestamp")
	}
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "debug", Format: "console", Output: &buf})
	log.Debug().Msg("visible")

	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("console output = %q", buf.String())
	}
	if strings.HasPrefix(buf.String(), "{") {
		t.Error("console format should not emit JSON")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" info ":  zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
