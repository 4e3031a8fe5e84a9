package timescale

import (
	"context"
	"testing"

	"lp-funding-alert/internal/config"

	"go.uber.org/zap"
)

func TestNewDisabledReturnsNil(t *testing.T) {
	w, err := New(config.TimescaleConfig{Enabled: false}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != nil {
		t.Fatalf("expected nil writer when disabled")
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(config.TimescaleConfig{Enabled: true}, zap.NewNop()); err == nil {
		t.Fatalf("expected error for missing dsn")
	}
}

func TestNilWriterIsSafe(t *testing.T) {
	var w *Writer
	w.Start(context.Background())
	w.Enqueue(EstimatePoint{Symbol: "ABC_USDT"})
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	w := &Writer{points: make(chan EstimatePoint, 1), log: zap.NewNop()}
	w.Enqueue(EstimatePoint{Symbol: "A"})
	w.Enqueue(EstimatePoint{Symbol: "B"})
	if got := w.dropped.Load(); got != 1 {
		t.Fatalf("expected 1 dropped point, got %d", got)
	}
	if point := <-w.points; point.Symbol != "A" {
		t.Fatalf("expected first point kept, got %s", point.Symbol)
	}
}
