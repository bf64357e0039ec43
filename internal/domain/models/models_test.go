package models

import (
	"math"
	"testing"
	"time"
)

func TestCatalogLookup(t *testing.T) {
	c := DefaultCatalog()
	inst, ok := c.Lookup("ethusdt")
	if !ok || inst.CoinID != "ethereum" {
		t.Fatalf("unexpected lookup %+v %v", inst, ok)
	}
	if _, ok := c.Lookup("LTCUSDT"); ok {
		t.Fatalf("unknown symbol resolved")
	}
	if c.Default().Symbol != "BTCUSDT" {
		t.Fatalf("unexpected default %s", c.Default().Symbol)
	}
	if inst.NewsCode() != "ETH" {
		t.Fatalf("unexpected news code %s", inst.NewsCode())
	}
}

func TestPriceQuoteDirection(t *testing.T) {
	var q PriceQuote
	if q.Direction() != DirectionUnknown {
		t.Fatalf("empty quote should have unknown direction")
	}
	q = q.Push(PriceSample{PriceUSD: 100})
	if q.Direction() != DirectionUnknown {
		t.Fatalf("single sample should have unknown direction")
	}
	q = q.Push(PriceSample{PriceUSD: 110})
	if q.Direction() != DirectionUp {
		t.Fatalf("expected up, got %s", q.Direction())
	}
	pct, ok := q.ChangePct()
	if !ok || math.Abs(pct-10) > 1e-9 {
		t.Fatalf("unexpected change %v %v", pct, ok)
	}
	q = q.Push(PriceSample{PriceUSD: 90})
	if q.Direction() != DirectionDown || q.Previous.PriceUSD != 110 {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestPredictionAvailability(t *testing.T) {
	p := Prediction{CurrentPrice: 100}
	if p.Available() {
		t.Fatalf("empty horizon must be unavailable")
	}
	if _, ok := p.ChangePct(); ok {
		t.Fatalf("unavailable prediction must not report a change")
	}
	p.HorizonPrices = []float64{101, 105}
	pct, ok := p.ChangePct()
	if !ok || math.Abs(pct-5) > 1e-9 {
		t.Fatalf("unexpected change %v %v", pct, ok)
	}
	p.CurrentPrice = math.Inf(1)
	if p.Available() {
		t.Fatalf("non-finite current price must be unavailable")
	}
}

func TestNewPriceHistory(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	points := make([]PricePoint, 0, 60)
	for i := 59; i >= 0; i-- {
		points = append(points, PricePoint{Timestamp: base.Add(time.Duration(i) * time.Minute), Price: float64(i)})
	}
	h := NewPriceHistory(points)
	if len(h) != HistoryWindow {
		t.Fatalf("expected %d points, got %d", HistoryWindow, len(h))
	}
	if h[0].Price != 10 || h[len(h)-1].Price != 59 {
		t.Fatalf("unexpected window %v..%v", h[0].Price, h[len(h)-1].Price)
	}
}

func TestParseSentiment(t *testing.T) {
	if s, ok := ParseSentiment("bullish"); !ok || s != SentimentBullish {
		t.Fatalf("unexpected %v %v", s, ok)
	}
	if _, ok := ParseSentiment("moon"); ok {
		t.Fatalf("unknown label accepted")
	}
}
