package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiterSeparatesHosts(t *testing.T) {
	l := NewLimiter(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// One token per host, so hitting two different hosts back to back
	// should not block.
	if err := l.Wait(ctx, "https://who.int/fact-sheets"); err != nil {
		t.Fatalf("first host: %v", err)
	}
	if err := l.Wait(ctx, "https://reuters.com/fact-check"); err != nil {
		t.Fatalf("second host: %v", err)
	}
}

func TestLimiterBlocksUntilCancel(t *testing.T) {
	l := NewLimiter(0.01, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "https://example.org/a"); err != nil {
		t.Fatalf("burst token: %v", err)
	}
	if err := l.Wait(ctx, "https://example.org/b"); err == nil {
		t.Fatal("expected context error once the burst is spent")
	}
}

func TestLimiterHostOverride(t *testing.T) {
	l := NewLimiter(0.01, 1)
	l.SetHostRate("fast.example.org", 1000, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	for i := 0; i < 5; i++ {
		if err := l.Wait(ctx, "https://fast.example.org/page"); err != nil {
			t.Fatalf("override host request %d: %v", i, err)
		}
	}
}

func TestLimiterRejectsBadURL(t *testing.T) {
	l := NewLimiter(1, 1)
	if err := l.Wait(context.Background(), "http://exa mple.org"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestWaitWithDelayHonoursCancel(t *testing.T) {
	l := NewLimiter(100, 10)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.WaitWithDelay(ctx, "https://example.org", time.Second)
	if err == nil {
		t.Fatal("expected context deadline during delay")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("delay was not interrupted by cancellation")
	}
}
