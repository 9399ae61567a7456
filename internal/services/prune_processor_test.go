package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingPruner struct {
	calls  atomic.Int32
	maxAge atomic.Int64
}

func (c *countingPruner) PruneProcessed(_ context.Context, maxAge time.Duration) (int64, error) {
	c.calls.Add(1)
	c.maxAge.Store(int64(maxAge))
	return 1, nil
}

func TestDefaultPruneProcessorConfig(t *testing.T) {
	config := DefaultPruneProcessorConfig()
	if config.Interval != time.Hour {
		t.Errorf("expected Interval 1h, got %v", config.Interval)
	}
	if config.MaxAge != 7*24*time.Hour {
		t.Errorf("expected MaxAge 168h, got %v", config.MaxAge)
	}
}

func TestPruneProcessor_Lifecycle(t *testing.T) {
	store := &countingPruner{}
	processor := NewPruneProcessor(store, PruneProcessorConfig{Interval: 10 * time.Millisecond, MaxAge: time.Minute})

	if processor.IsRunning() {
		t.Fatal("processor should not be running initially")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := processor.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := processor.Start(ctx); err == nil {
		t.Error("expected error when starting already running processor")
	}

	deadline := time.Now().Add(time.Second)
	for store.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.calls.Load() < 2 {
		t.Fatalf("pruned %d times, want at least 2", store.calls.Load())
	}
	if time.Duration(store.maxAge.Load()) != time.Minute {
		t.Errorf("maxAge = %v", time.Duration(store.maxAge.Load()))
	}

	if err := processor.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if processor.IsRunning() {
		t.Error("processor should be stopped")
	}
}

func TestPruneProcessor_StopNotRunning(t *testing.T) {
	processor := NewPruneProcessor(&countingPruner{}, DefaultPruneProcessorConfig())
	if err := processor.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}
