package network

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_Unlimited(t *testing.T) {
	rl := NewRateLimiter(0)
	if rl != nil {
		t.Fatal("Rate 0 should disable limiting")
	}
	// A nil limiter still answers Wait.
	if err := rl.Wait(context.Background()); err != nil {
		t.Errorf("Nil limiter returned error: %v", err)
	}
}

func TestRateLimiter_BurstThenWait(t *testing.T) {
	rl := NewRateLimiter(10) // 10 rps, initial bucket of 10

	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Initial burst blocked: %v", elapsed)
	}

	// Bucket drained: the next token costs ~100ms.
	start = time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Post-burst wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Post-burst wait too fast: %v", elapsed)
	}
}

func TestRateLimiter_ContextCancel(t *testing.T) {
	rl := NewRateLimiter(1)

	// Consume the initial token so the next Wait must block.
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("First wait failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.Wait(ctx); err == nil {
		t.Fatal("Expected error from canceled context, got nil")
	}
}
