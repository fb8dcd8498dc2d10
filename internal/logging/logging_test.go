package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewInfoLevelDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(false, zapcore.AddSync(&buf))

	logger.Debug("hidden")
	logger.Info("visible")
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug line to be dropped, got %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, Name) {
		t.Fatalf("expected named info line, got %q", out)
	}
}

func TestNewDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(true, zapcore.AddSync(&buf))
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level to be enabled")
	}

	logger.Debug("Debug mode is on.")
	_ = logger.Sync()

	if !strings.Contains(buf.String(), "DEBUG") {
		t.Fatalf("expected DEBUG line, got %q", buf.String())
	}
}
