package cache

import (
	"testing"
	"time"

	"DashSync/pkg/clock"
)

func TestTTLCacheExpiryBoundary(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	c := NewTTLCache[string, int](time.Second, clk)
	c.Put("k", 1)

	if v, ok := c.Get("k"); !ok || v != 1 {
		t.Fatalf("fresh entry missing: %v %v", v, ok)
	}
	clk.Advance(999 * time.Millisecond)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("entry expired before ttl")
	}
	clk.Advance(time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry served at now - storedAt == ttl")
	}
}

func TestTTLCacheStaleEntryKept(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	c := NewTTLCache[string, string](time.Second, clk)
	c.Put("a", "x")
	clk.Advance(5 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("stale entry served")
	}
	if c.Len() != 1 {
		t.Fatalf("stale entry should stay until overwritten, len=%d", c.Len())
	}
	if _, ok := c.Entry("a"); !ok {
		t.Fatalf("raw entry missing")
	}

	c.Put("a", "y")
	if v, ok := c.Get("a"); !ok || v != "y" {
		t.Fatalf("overwrite not visible: %v %v", v, ok)
	}
}

func TestTTLCacheMissingKey(t *testing.T) {
	c := NewTTLCache[string, int](time.Minute, clock.NewManual(time.Unix(0, 0)))
	if v, ok := c.Get("nope"); ok || v != 0 {
		t.Fatalf("unexpected hit %v", v)
	}
}

// News batches are kept for five minutes: a read at 100s hits, a read at 310s misses.
func TestTTLCacheNewsScenario(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	clk := clock.NewManual(start)
	c := NewTTLCache[string, []string](NewsTTL, clk)
	c.Put("BTC", []string{"headline"})

	clk.Set(start.Add(100 * time.Second))
	if _, ok := c.Get("BTC"); !ok {
		t.Fatalf("expected hit at t=100s")
	}
	clk.Set(start.Add(310 * time.Second))
	if _, ok := c.Get("BTC"); ok {
		t.Fatalf("expected miss at t=310s")
	}
}
