package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"

	"DashSync/pkg/logger"
)

var _ logger.Publisher = (*Producer)(nil)

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatalf("expected an error without brokers")
	}
}

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue(map[string]int{"count": 3})
	if err != nil || string(b) != `{"count":3}` {
		t.Fatalf("unexpected %s %v", b, err)
	}
	if b, _ := encodeValue("raw"); string(b) != "raw" {
		t.Fatalf("strings must pass through, got %s", b)
	}
	if _, err := encodeValue(func() {}); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestParseCompression(t *testing.T) {
	if parseCompression("zstd") != kafka.Zstd || parseCompression("bogus") != kafka.Gzip {
		t.Fatalf("unexpected compression mapping")
	}
}

func TestPublishFailureIsCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewProducer(
		WithBrokers([]string{"127.0.0.1:1"}),
		WithMaxAttempts(1),
		WithBatching(1, 10*time.Millisecond),
		WithTimeouts(200*time.Millisecond, 200*time.Millisecond),
		WithRegisterer(reg),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := p.PublishMessage(ctx, "dashsync.logs", []byte("x")); err == nil {
		t.Fatalf("expected publish to an unreachable broker to fail")
	}
	if got := testutil.ToFloat64(p.metrics.errs.WithLabelValues("dashsync.logs")); got != 1 {
		t.Fatalf("expected one producer error, got %v", got)
	}
}
