package normalize

import (
	"testing"

	"DashSync/internal/domain/feederr"
	"DashSync/internal/domain/models"
)

func TestPayloadLookups(t *testing.T) {
	p, err := Parse([]byte(`{"a":{"n":1.5,"s":"2","b":true,"arr":[1,2,3],"mixed":[1,"x"]},"inf":1e400}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v, ok := p.Float("a", "n"); !ok || v != 1.5 {
		t.Fatalf("unexpected float %v %v", v, ok)
	}
	if _, ok := p.Float("a", "s"); ok {
		t.Fatalf("numeric string coerced to number")
	}
	if _, ok := p.Float("inf"); ok {
		t.Fatalf("non-finite number accepted")
	}
	if _, ok := p.Float("missing", "n"); ok {
		t.Fatalf("missing intermediate key resolved")
	}
	if _, ok := p.Float("a", "n", "deeper"); ok {
		t.Fatalf("lookup through a number resolved")
	}
	if b, ok := p.Bool("a", "b"); !ok || !b {
		t.Fatalf("unexpected bool %v %v", b, ok)
	}
	if fs, ok := p.Floats("a", "arr"); !ok || len(fs) != 3 {
		t.Fatalf("unexpected floats %v %v", fs, ok)
	}
	if _, ok := p.Floats("a", "mixed"); ok {
		t.Fatalf("mixed array accepted as numbers")
	}
	if _, ok := p.Get("a.n"); ok {
		t.Fatalf("path metacharacters must not be interpreted")
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte(`{"a":`)); err == nil {
		t.Fatalf("expected error for truncated json")
	}
}

func TestDecodePrice(t *testing.T) {
	s, err := DecodePrice([]byte(`{"bitcoin":{"usd":50000,"volume":1e9}}`), "bitcoin")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.PriceUSD != 50000 || s.VolumeUSD == nil || *s.VolumeUSD != 1e9 {
		t.Fatalf("unexpected sample %+v", s)
	}

	s, err = DecodePrice([]byte(`{"bitcoin":{"usd":50000}}`), "bitcoin")
	if err != nil || s.VolumeUSD != nil {
		t.Fatalf("volume should be optional: %+v %v", s, err)
	}

	for _, body := range []string{`{}`, `{"bitcoin":{"usd":"50000"}}`, `{"ethereum":{"usd":1}}`, `[]`} {
		if _, err := DecodePrice([]byte(body), "bitcoin"); !feederr.IsDataShape(err) {
			t.Fatalf("%s: expected data shape error, got %v", body, err)
		}
	}
	if _, err := DecodePrice([]byte(`not json`), "bitcoin"); feederr.Kind(err) != "network" {
		t.Fatalf("malformed json should be a network error, got %v", err)
	}
}

func TestDecodeNews(t *testing.T) {
	body := `{"results":[
		{"title":"A","url":"https://a","source":{"title":"Desk"},"published_at":"2024-10-10T10:10:10Z","sentiment":"Bullish","confidence":0.87},
		{"title":"B","source":"Wire","sentiment":"sideways","confidence":"high"},
		{"url":"https://no-title"},
		"junk"
	]}`
	batch, err := DecodeNews([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("expected 2 items, got %d", len(batch))
	}
	a, b := batch[0], batch[1]
	if a.SourceName != "Desk" || a.PublishedAt == nil || a.Sentiment == nil || *a.Sentiment != models.SentimentBullish {
		t.Fatalf("unexpected first item %+v", a)
	}
	if a.Confidence == nil || *a.Confidence != 0.87 {
		t.Fatalf("unexpected confidence %v", a.Confidence)
	}
	if b.SourceName != "Wire" || b.Sentiment != nil || b.Confidence != nil || b.PublishedAt != nil {
		t.Fatalf("unexpected second item %+v", b)
	}

	if _, err := DecodeNews([]byte(`{"count":0}`)); !feederr.IsDataShape(err) {
		t.Fatalf("expected data shape error, got %v", err)
	}
	empty, err := DecodeNews([]byte(`{"results":[]}`))
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty results should decode to an empty batch: %v %v", empty, err)
	}
}

func TestDecodePredictionEmptyHorizonUnavailable(t *testing.T) {
	p, err := DecodePrediction([]byte(`{"current_price":100,"predictions":[],"plot":"x"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Available() {
		t.Fatalf("empty horizon must be unavailable")
	}
	if _, ok := p.ChangePct(); ok {
		t.Fatalf("unavailable prediction reported a change")
	}
}

func TestDecodePrediction(t *testing.T) {
	p, err := DecodePrediction([]byte(`{"current_price":100,"predictions":[101,102,110],"plot":"aGVsbG8="}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !p.Available() || len(p.HorizonPrices) != 3 || string(p.RenderedPlot) != "hello" {
		t.Fatalf("unexpected prediction %+v", p)
	}

	p, err = DecodePrediction([]byte(`{"predictions":[1,2]}`))
	if err != nil || p.Available() {
		t.Fatalf("missing current price must be unavailable: %+v %v", p, err)
	}
	if _, err := DecodePrediction([]byte(`[1,2]`)); !feederr.IsDataShape(err) {
		t.Fatalf("expected data shape error, got %v", err)
	}
}

func TestDecodeSentiment(t *testing.T) {
	s, err := DecodeSentiment([]byte(`{"sentiment":"Bearish"}`))
	if err != nil || s.Label != models.SentimentBearish {
		t.Fatalf("unexpected %+v %v", s, err)
	}
	if _, err := DecodeSentiment([]byte(`{"sentiment":42}`)); !feederr.IsDataShape(err) {
		t.Fatalf("expected data shape error, got %v", err)
	}
}

func TestDecodeHistory(t *testing.T) {
	body := `{"prices":[
		{"timestamp":"2024-10-10T10:12:00Z","price":3,"volume":1},
		{"timestamp":"2024-10-10T10:10:00Z","price":1},
		{"timestamp":"2024-10-10T10:11:00Z","price":"2"},
		{"price":9}
	]}`
	h, err := DecodeHistory([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(h) != 2 || h[0].Price != 1 || h[1].Price != 3 {
		t.Fatalf("unexpected history %+v", h)
	}
}

func TestDecodeToken(t *testing.T) {
	c, err := DecodeToken([]byte(`{"access_token":"abc","token_type":"bearer","is_admin":true}`))
	if err != nil || c.Token != "abc" || c.Role != models.RoleAdmin {
		t.Fatalf("unexpected %+v %v", c, err)
	}
	c, err = DecodeToken([]byte(`{"access_token":"abc"}`))
	if err != nil || c.Role != models.RoleUser {
		t.Fatalf("missing is_admin should mean user: %+v %v", c, err)
	}
	if _, err := DecodeToken([]byte(`{"token_type":"bearer"}`)); !feederr.IsDataShape(err) {
		t.Fatalf("expected data shape error, got %v", err)
	}
}

func TestDecodeValidate(t *testing.T) {
	if err := DecodeValidate([]byte(`{"valid":true,"username":"u"}`)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := DecodeValidate([]byte(`{"valid":false}`)); !feederr.IsAuth(err) {
		t.Fatalf("valid=false must be an auth error, got %v", err)
	}
	if err := DecodeValidate([]byte(`{}`)); !feederr.IsDataShape(err) {
		t.Fatalf("expected data shape error, got %v", err)
	}
}
