package ratelimit

import (
	"testing"
	"time"

	"DashSync/pkg/clock"
)

func TestLimiterBurstAndRefill(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	l := New(2, 0.5, clk)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("burst of 2 should be allowed")
	}
	if l.Allow("a") {
		t.Fatalf("third call should be limited")
	}
	if got := l.RetryAfter("a"); got != 2*time.Second {
		t.Fatalf("unexpected retry after %v", got)
	}
	if !l.Allow("b") {
		t.Fatalf("keys must not share a bucket")
	}

	clk.Advance(2 * time.Second)
	if !l.Allow("a") {
		t.Fatalf("token should have refilled")
	}
	if l.Allow("a") {
		t.Fatalf("only one token refilled")
	}
}

func TestLimiterPrune(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	l := New(1, 1, clk)
	l.Allow("a")
	if n := l.Prune(); n != 0 {
		t.Fatalf("drained bucket pruned")
	}
	clk.Advance(time.Second)
	if n := l.Prune(); n != 1 {
		t.Fatalf("expected refilled bucket to be pruned, got %d", n)
	}
	if !l.Allow("a") {
		t.Fatalf("pruned key should start full")
	}
}
