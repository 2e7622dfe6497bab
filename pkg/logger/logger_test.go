package logger

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogLevelFiltering(t *testing.T) {
	originalLogger := Logger
	t.Cleanup(func() {
		Logger = originalLogger
		SetLogLevel(INFO)
	})

	var buf bytes.Buffer
	Logger = slog.New(slog.NewTextHandler(&buf, nil))

	SetLogLevel(INFO)
	Debug("debug message should be filtered")
	Info("info message should appear")

	output := buf.String()
	if strings.Contains(output, "debug message should be filtered") {
		t.Fatalf("debug message was logged at INFO level:\n%s", output)
	}
	if !strings.Contains(output, "info message should appear") {
		t.Fatalf("info message was not logged:\n%s", output)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		wantErr  bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{" error ", ERROR, false},
		{"verbose", INFO, true},
	}

	for _, tt := range tests {
		level, err := ParseLogLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLogLevel(%q): unexpected error state: %v", tt.input, err)
		}
		if level != tt.expected {
			t.Fatalf("ParseLogLevel(%q): expected %v, got %v", tt.input, tt.expected, level)
		}
	}
}

func TestConfigureWithFile(t *testing.T) {
	originalLogger := Logger
	t.Cleanup(func() {
		Logger = originalLogger
		SetLogLevel(INFO)
	})

	logPath := filepath.Join(t.TempDir(), "logs", "app.log")
	if err := Configure(Options{Level: "debug", Format: "json", File: logPath}); err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}
	if !Enabled(DEBUG) {
		t.Fatalf("expected debug enabled after Configure")
	}
}

func TestConfigureInvalidOptionsFallBack(t *testing.T) {
	originalLogger := Logger
	t.Cleanup(func() {
		Logger = originalLogger
		SetLogLevel(INFO)
	})

	err := Configure(Options{Level: "verbose", Format: "xml"})
	if err == nil {
		t.Fatalf("expected error for invalid options")
	}
	if Logger == nil {
		t.Fatalf("expected a usable logger despite invalid options")
	}
}
