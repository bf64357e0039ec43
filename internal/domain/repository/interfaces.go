package repository

import (
	"context"

	"DashSync/internal/domain/models"
)

// MarketAPI fetches one feed payload per call. Implementations classify
// failures with feederr so callers can tell auth, shape and network apart.
type MarketAPI interface {
	Price(ctx context.Context, token string, inst models.Instrument) (models.PriceSample, error)
	News(ctx context.Context, token, currency string, limit int) (models.NewsBatch, error)
	Prediction(ctx context.Context, token string, inst models.Instrument) (models.Prediction, error)
	Sentiment(ctx context.Context, token string, inst models.Instrument) (models.SentimentReading, error)
	History(ctx context.Context, token string, inst models.Instrument, window HistoryRange) (models.PriceHistory, error)
}

// AuthAPI talks to the auth backend.
type AuthAPI interface {
	Token(ctx context.Context, username, password string) (models.Credentials, error)
	Register(ctx context.Context, username, email, password string) (models.Credentials, error)
	TokenValidator
}

// TokenValidator checks a bearer token. A nil error means the token is valid.
type TokenValidator interface {
	Validate(ctx context.Context, token string) error
}

// TokenStore is the durable home of the single session token and role.
type TokenStore interface {
	Load(ctx context.Context) (models.Credentials, bool, error)
	Save(ctx context.Context, creds models.Credentials) error
	Clear(ctx context.Context) error
}

// Metrics records engine and feed activity.
type Metrics interface {
	RecordFetch(feed, outcome string)
	RecordLatency(op string, seconds float64)
	RecordStaleDrop(feed string)
	RecordCacheLookup(cache string, hit bool)
	RecordLastPrice(symbol string, price float64)
	RecordSubscriberDrop()
	RecordStateTransition(state string)
	RecordError(kind string)
}
