package models

import (
	"strings"
	"time"
)

// Sentiment label attached to news or to the instrument.
type Sentiment string

const (
	SentimentBullish Sentiment = "Bullish"
	SentimentBearish Sentiment = "Bearish"
	SentimentNeutral Sentiment = "Neutral"
)

// ParseSentiment accepts the three known labels in any case.
func ParseSentiment(s string) (Sentiment, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bullish":
		return SentimentBullish, true
	case "bearish":
		return SentimentBearish, true
	case "neutral":
		return SentimentNeutral, true
	}
	return "", false
}

// NewsItem is a normalized article. Optional fields are nil when absent upstream.
type NewsItem struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	SourceName  string     `json:"source_name"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Sentiment   *Sentiment `json:"sentiment,omitempty"`
	Confidence  *float64   `json:"confidence,omitempty"`
}

// NewsBatch is the list of items returned by one news fetch.
type NewsBatch []NewsItem

// SentimentReading is the instrument-level market sentiment.
type SentimentReading struct {
	Label Sentiment `json:"label"`
}
