package models

import "time"

// EngineState is the sync engine state machine position.
type EngineState string

const (
	StateUnauthenticated EngineState = "unauthenticated"
	StateAuthenticating  EngineState = "authenticating"
	StateActive          EngineState = "active"
)

// Feed names one periodically refreshed data category.
type Feed string

const (
	FeedPrice      Feed = "price"
	FeedNews       Feed = "news"
	FeedPrediction Feed = "prediction"
	FeedSentiment  Feed = "sentiment"
	FeedHistory    Feed = "history"
)

// UpdateKind is the payload carried by an Update.
type UpdateKind string

const (
	UpdateState      UpdateKind = "state"
	UpdatePrice      UpdateKind = "price"
	UpdateNews       UpdateKind = "news"
	UpdatePrediction UpdateKind = "prediction"
	UpdateSentiment  UpdateKind = "sentiment"
	UpdateHistory    UpdateKind = "history"
)

// Update is delivered to subscribers whenever observable state changes.
// Only the field matching Kind is set. A non-nil Err means the fetch failed
// and the last good value is still the one to display.
type Update struct {
	Kind       UpdateKind
	State      EngineState
	Instrument Instrument
	Generation uint64
	At         time.Time

	Quote      *PriceQuote
	News       NewsBatch
	Prediction *Prediction // nil with Kind=prediction means unavailable
	Sentiment  *SentimentReading
	History    PriceHistory
	Err        error
}
