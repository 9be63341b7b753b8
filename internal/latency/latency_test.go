package latency

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitElapses(t *testing.T) {
	start := time.Now()
	if err := Wait(context.Background(), 5*time.Millisecond); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Fatalf("expected to wait at least 5ms got %v", elapsed)
	}
}

func TestWaitZeroReturnsImmediately(t *testing.T) {
	if err := Wait(context.Background(), 0); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestWaitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled got %v", err)
	}
}
