package slogutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chunkgate/internal/config"
)

func TestLineHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("stage finished", "stage", "build", "exit", 0)

	output := buf.String()
	for _, want := range []string{"[info]", "stage finished", " | ", "stage=build", "exit=0"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestLineHandler_Component(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewLogger(&buf, slog.LevelDebug), "gate")

	logger.Debug("restored file", "path", "Foo.java")

	output := buf.String()
	if !strings.Contains(output, "[debug] gate: restored file") {
		t.Errorf("component should prefix the message, got: %s", output)
	}
	if strings.Contains(output, "component=") {
		t.Errorf("component should not be repeated as an attribute, got: %s", output)
	}
}

func TestLineHandler_QuotesStrings(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("x", "cmd", "mvn compile -q", "empty", "")

	output := buf.String()
	if !strings.Contains(output, `cmd="mvn compile -q"`) {
		t.Errorf("strings with spaces should be quoted, got: %s", output)
	}
	if !strings.Contains(output, `empty=""`) {
		t.Errorf("empty strings should be quoted, got: %s", output)
	}
}

func TestLineHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).WithGroup("chunk").With("id", 3)

	logger.Info("planned", "kind", "member")

	output := buf.String()
	if !strings.Contains(output, "chunk.id=3") || !strings.Contains(output, "chunk.kind=member") {
		t.Errorf("expected group-qualified keys, got: %s", output)
	}
}

func TestLineHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Errorf("messages below warn should be filtered: %s", output)
	}
	if !strings.Contains(output, "warn message") || !strings.Contains(output, "error message") {
		t.Errorf("warn and error should be included: %s", output)
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"silent", levelSilent},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LevelFromString(tt.input); got != tt.expected {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		expected  slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{0, true, levelSilent},
		{5, true, levelSilent},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity, tt.quiet); got != tt.expected {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.verbosity, tt.quiet, got, tt.expected)
		}
	}
}

func TestComponent_NilLogger(t *testing.T) {
	logger := Component(nil, "merge")
	logger.Error("should be discarded")
}

func TestTeeHandler(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h1 := NewLineHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := NewLineHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(NewTeeHandler(h1, h2))
	logger.Info("info message")
	logger.Warn("warn message")

	if !strings.Contains(buf1.String(), "info message") || !strings.Contains(buf1.String(), "warn message") {
		t.Errorf("buf1 should contain both messages: %s", buf1.String())
	}
	if strings.Contains(buf2.String(), "info message") {
		t.Error("buf2 should not contain info message")
	}
	if !strings.Contains(buf2.String(), "warn message") {
		t.Error("buf2 should contain warn message")
	}
}

func TestSetup_WithFile(t *testing.T) {
	root := t.TempDir()
	logPath := filepath.Join(root, "logs", "run.log")
	var console bytes.Buffer

	logger, closer, err := Setup(root, config.LoggingConfig{Level: "debug", File: logPath}, &console, slog.LevelWarn)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	logger.Info("to file only")
	logger.Warn("to both")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "to file only") || !strings.Contains(string(data), "to both") {
		t.Errorf("file log missing entries: %s", data)
	}
	if strings.Contains(console.String(), "to file only") {
		t.Errorf("console should filter info: %s", console.String())
	}
	if !strings.Contains(console.String(), "to both") {
		t.Errorf("console missing warn entry: %s", console.String())
	}
}

func TestSetup_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := Setup(t.TempDir(), config.LoggingConfig{}, &console, slog.LevelInfo)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closer.Close()

	logger.Info("hello")
	if !strings.Contains(console.String(), "hello") {
		t.Errorf("expected console output, got %q", console.String())
	}
}
