package utils

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"

	"hp82240-service/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"FINEST":  zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"WARNING": zapcore.WarnLevel,
		"SEVERE":  zapcore.ErrorLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hp82240.log")
	logger, err := NewLogger(&config.LoggingConfig{
		Level:      "info",
		Format:     "json",
		Output:     path,
		MaxSize:    1,
		MaxBackups: 1,
	})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	NewSessionLogger(logger, "s-1", "file").LogEnd(3, nil)
	_ = CloseLogger(logger)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}

func TestNewLoggerRejectsLevel(t *testing.T) {
	if _, err := NewLogger(&config.LoggingConfig{Level: "loud", Output: "stderr"}); err == nil {
		t.Error("expected an error")
	}
}
