package clock

import (
	"testing"
	"time"
)

func TestManualFiresInOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []int
	m.AfterFunc(2*time.Second, func() { got = append(got, 2) })
	m.AfterFunc(time.Second, func() { got = append(got, 1) })
	m.AfterFunc(5*time.Second, func() { got = append(got, 5) })

	m.Advance(3 * time.Second)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected firing order %v", got)
	}
	if m.Pending() != 1 {
		t.Fatalf("expected 1 pending timer, got %d", m.Pending())
	}
	if !m.Now().Equal(time.Unix(3, 0)) {
		t.Fatalf("unexpected now %v", m.Now())
	}
}

func TestManualStop(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := false
	tm := m.AfterFunc(time.Second, func() { fired = true })
	if !tm.Stop() {
		t.Fatalf("expected Stop to report a pending timer")
	}
	m.Advance(time.Minute)
	if fired {
		t.Fatalf("stopped timer fired")
	}
	if tm.Stop() {
		t.Fatalf("second Stop should report false")
	}
}

func TestManualRearmInsideCallback(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	count := 0
	var tick func()
	tick = func() {
		count++
		m.AfterFunc(time.Second, tick)
	}
	m.AfterFunc(time.Second, tick)

	m.Advance(3 * time.Second)
	if count != 3 {
		t.Fatalf("expected 3 ticks, got %d", count)
	}
}
