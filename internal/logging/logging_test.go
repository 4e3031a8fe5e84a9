package logging

import (
	"errors"
	"testing"

	"lp-funding-alert/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevel(t *testing.T) {
	log := New(config.LoggingConfig{Level: "warn"})
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info disabled at warn level")
	}
	if !log.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("expected warn enabled")
	}
}

func TestNewUnknownLevelDefaultsInfo(t *testing.T) {
	log := New(config.LoggingConfig{Level: "verbose"})
	if !log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info enabled")
	}
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug disabled")
	}
}

func TestCronLoggerError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	adapter := Cron(zap.New(core))
	adapter.Error(errors.New("boom"), "job panicked", "entry", 1)
	entries := logs.FilterMessage("job panicked").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %s", entries[0].Level)
	}
}
