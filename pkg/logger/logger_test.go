package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNew_WritesToFile(t *testing.T) {
	dir := t.TempDir()

	log := New(Config{
		Level:    "info",
		LogDir:   dir,
		Filename: "test.log",
	})

	log.Info().Str("key", "value").Msg("test message")

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty after writing")
	}
}

func TestLogger_WithField(t *testing.T) {
	log := New(Config{Level: "info", LogDir: t.TempDir()})

	derived := log.WithField("component", "test")
	if derived == nil {
		t.Fatal("WithField() returned nil")
	}

	derived = log.WithFields(map[string]interface{}{"a": 1, "b": "two"})
	if derived == nil {
		t.Fatal("WithFields() returned nil")
	}
}

func TestLogger_Close(t *testing.T) {
	log := New(Config{Level: "info", LogDir: t.TempDir()})
	if err := log.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
