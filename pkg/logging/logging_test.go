package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		result := test.level.String()
		if result != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, result, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo}, // Default for unknown
	}

	for _, test := range tests {
		result := test.level.SlogLevel()
		if result != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, result, test.expected)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name     string
		expected Format
		wantErr  bool
	}{
		{"logfmt", FormatLogfmt, false},
		{"json", FormatJSON, false},
		{"", FormatLogfmt, false},
		{"yaml", "", true},
		{"JSON", "", true},
	}

	for _, test := range tests {
		result, err := ParseFormat(test.name)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q) expected an error", test.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q) returned unexpected error: %v", test.name, err)
		}
		if result != test.expected {
			t.Errorf("ParseFormat(%q) = %q, expected %q", test.name, result, test.expected)
		}
	}
}

func TestInitLogfmt(t *testing.T) {
	var buf bytes.Buffer

	Init("pullconfd", "test", FormatLogfmt, LevelInfo, &buf)

	Info("configuration", "test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Error("Expected log message to appear in output")
	}

	if !strings.Contains(output, "scope=configuration") {
		t.Error("Expected scope to appear in output")
	}

	if !strings.Contains(output, "application=pullconfd") {
		t.Error("Expected application to appear in output")
	}

	if !strings.Contains(output, "pid=") {
		t.Error("Expected pid to appear in output")
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer

	Init("pullconf", "test", FormatJSON, LevelInfo, &buf)

	Error("apply", errors.New("permission denied"), "failed to apply file %s", "/etc/motd")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Expected a JSON record, got %q: %v", buf.String(), err)
	}

	if record["msg"] != "failed to apply file /etc/motd" {
		t.Errorf("Unexpected message: %v", record["msg"])
	}

	if record["scope"] != "apply" {
		t.Errorf("Unexpected scope: %v", record["scope"])
	}

	if record["error"] != "permission denied" {
		t.Errorf("Unexpected error attribute: %v", record["error"])
	}

	if record["application"] != "pullconf" {
		t.Errorf("Unexpected application attribute: %v", record["application"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	Init("pullconfd", "test", FormatLogfmt, LevelInfo, &buf)

	// Debug should be filtered out
	Debug("validation", "debug message")

	// Info should appear
	Info("validation", "info message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be filtered out at INFO level")
	}

	if !strings.Contains(output, "info message") {
		t.Error("Info message should appear at INFO level")
	}
}
