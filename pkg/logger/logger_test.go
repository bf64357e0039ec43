package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingPublisher struct {
	mu      sync.Mutex
	topics  []string
	batches [][]AggregatedLogEntry
}

func (p *recordingPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.InfoLevel).With(String("component", "engine"))

	l.Debug("hidden")
	l.Info("price", String("symbol", "BTCUSDT"), Float64("usd", 64000.5), Uint64("generation", 3), Error(errors.New("boom")))

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "engine" || entry["symbol"] != "BTCUSDT" || entry["usd"] != 64000.5 {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry["error"] != "boom" {
		t.Fatalf("missing error field: %v", entry)
	}
}

func TestCollectorAggregatesErrors(t *testing.T) {
	pub := &recordingPublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 10,
		Topic:          "logs",
		Source:         "dashsync",
		Publisher:      pub,
	})

	for i := 0; i < 3; i++ {
		l.Error("fetch failed", String("feed", "price"))
	}
	l.Error("fetch failed", String("feed", "news"))
	l.Warn("not collected")

	if got := l.collector.Pending(); got != 2 {
		t.Fatalf("expected 2 unique entries, got %d", got)
	}
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 || pub.topics[0] != "logs" {
		t.Fatalf("expected one batch on logs, got %d", len(pub.batches))
	}
	total := 0
	for _, e := range pub.batches[0] {
		total += e.Count
		if e.Source != "dashsync" {
			t.Fatalf("missing source on %+v", e)
		}
	}
	if total != 4 {
		t.Fatalf("expected 4 occurrences, got %d", total)
	}
}

func TestTrimModulePath(t *testing.T) {
	if got := trimModulePath("/home/ci/src/DashSync/internal/usecase/sync_engine.go"); got != "/internal/usecase/sync_engine.go" {
		t.Fatalf("unexpected %s", got)
	}
}
