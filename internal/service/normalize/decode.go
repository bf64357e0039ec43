package normalize

import (
	"encoding/base64"
	"math"
	"strings"
	"time"

	"DashSync/internal/domain/feederr"
	"DashSync/internal/domain/models"
	"DashSync/pkg/util"
)

func parse(op string, body []byte) (Payload, error) {
	p, err := Parse(body)
	if err != nil {
		return Payload{}, feederr.Network(op, err)
	}
	return p, nil
}

// DecodePrice reads {<coinID>: {usd, volume?}}.
func DecodePrice(body []byte, coinID string) (models.PriceSample, error) {
	const op = "decode price"
	p, err := parse(op, body)
	if err != nil {
		return models.PriceSample{}, err
	}
	usd, ok := p.Float(coinID, "usd")
	if !ok {
		return models.PriceSample{}, feederr.DataShape(op, "%s.usd absent or not a number", coinID)
	}
	s := models.PriceSample{PriceUSD: usd}
	if vol, ok := p.Float(coinID, "volume"); ok {
		s.VolumeUSD = &vol
	}
	return s, nil
}

// DecodeNews reads {results: [...]}. Items without a title are skipped.
func DecodeNews(body []byte) (models.NewsBatch, error) {
	const op = "decode news"
	p, err := parse(op, body)
	if err != nil {
		return nil, err
	}
	items, ok := p.Items("results")
	if !ok {
		return nil, feederr.DataShape(op, "results absent or not an array")
	}
	batch := make(models.NewsBatch, 0, len(items))
	for _, it := range items {
		if n, ok := newsItem(it); ok {
			batch = append(batch, n)
		}
	}
	return batch, nil
}

func newsItem(it Payload) (models.NewsItem, bool) {
	title, ok := it.String("title")
	if !ok || strings.TrimSpace(title) == "" {
		return models.NewsItem{}, false
	}
	n := models.NewsItem{Title: title}
	n.URL, _ = it.String("url")

	// source is either a plain name or an object with a title.
	if name, ok := it.String("source"); ok {
		n.SourceName = name
	} else if name, ok := it.String("source", "title"); ok {
		n.SourceName = name
	}

	if ts, ok := timestamp(it, "published_at"); ok {
		n.PublishedAt = &ts
	}
	if label, ok := it.String("sentiment"); ok {
		if s, ok := models.ParseSentiment(label); ok {
			n.Sentiment = &s
		}
	}
	if c, ok := it.Float("confidence"); ok && c >= 0 && c <= 1 {
		n.Confidence = &c
	}
	return n, true
}

func timestamp(p Payload, key string) (time.Time, bool) {
	if s, ok := p.String(key); ok {
		return util.ParseTime(s)
	}
	if f, ok := p.Float(key); ok && f > 0 {
		return util.FromUnix(f), true
	}
	return time.Time{}, false
}

// DecodePrediction reads {current_price, predictions[], plot}. A body that is
// an object always decodes; whether the result is usable is Prediction.Available.
func DecodePrediction(body []byte) (models.Prediction, error) {
	const op = "decode prediction"
	p, err := parse(op, body)
	if err != nil {
		return models.Prediction{}, err
	}
	if !p.IsObject() {
		return models.Prediction{}, feederr.DataShape(op, "payload is not an object")
	}
	var out models.Prediction
	if cur, ok := p.Float("current_price"); ok {
		out.CurrentPrice = cur
	} else {
		// missing current price makes the prediction unavailable
		out.CurrentPrice = math.NaN()
	}
	if hp, ok := p.Floats("predictions"); ok {
		out.HorizonPrices = hp
	}
	if plot, ok := p.String("plot"); ok {
		if b, err := base64.StdEncoding.DecodeString(plot); err == nil {
			out.RenderedPlot = b
		}
	}
	return out, nil
}

// DecodeSentiment reads {sentiment: "Bullish"|"Bearish"|"Neutral"}.
func DecodeSentiment(body []byte) (models.SentimentReading, error) {
	const op = "decode sentiment"
	p, err := parse(op, body)
	if err != nil {
		return models.SentimentReading{}, err
	}
	label, ok := p.String("sentiment")
	if !ok {
		return models.SentimentReading{}, feederr.DataShape(op, "sentiment absent or not a string")
	}
	s, ok := models.ParseSentiment(label)
	if !ok {
		return models.SentimentReading{}, feederr.DataShape(op, "unknown sentiment %q", label)
	}
	return models.SentimentReading{Label: s}, nil
}

// DecodeHistory reads {prices: [{timestamp, price, volume}]}.
func DecodeHistory(body []byte) (models.PriceHistory, error) {
	const op = "decode history"
	p, err := parse(op, body)
	if err != nil {
		return nil, err
	}
	items, ok := p.Items("prices")
	if !ok {
		return nil, feederr.DataShape(op, "prices absent or not an array")
	}
	points := make([]models.PricePoint, 0, len(items))
	for _, it := range items {
		price, ok := it.Float("price")
		if !ok {
			continue
		}
		ts, ok := timestamp(it, "timestamp")
		if !ok {
			continue
		}
		vol, _ := it.Float("volume")
		points = append(points, models.PricePoint{Timestamp: ts, Price: price, Volume: vol})
	}
	return models.NewPriceHistory(points), nil
}

// DecodeToken reads {access_token, is_admin?}.
func DecodeToken(body []byte) (models.Credentials, error) {
	const op = "decode token"
	p, err := parse(op, body)
	if err != nil {
		return models.Credentials{}, err
	}
	tok, ok := p.String("access_token")
	if !ok || tok == "" {
		return models.Credentials{}, feederr.DataShape(op, "no access token received")
	}
	admin, _ := p.Bool("is_admin")
	return models.Credentials{Token: tok, Role: models.RoleFromAdmin(admin)}, nil
}

// DecodeValidate reads {valid}. valid=false is an auth error.
func DecodeValidate(body []byte) error {
	const op = "decode validate"
	p, err := parse(op, body)
	if err != nil {
		return err
	}
	valid, ok := p.Bool("valid")
	if !ok {
		return feederr.DataShape(op, "valid absent or not a boolean")
	}
	if !valid {
		return feederr.Auth(op, nil)
	}
	return nil
}
