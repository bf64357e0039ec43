package api

import (
	"time"

	"DashSync/internal/domain/models"
	"DashSync/internal/usecase"
	"DashSync/pkg/format"
)

// QuoteView is the price ticker as rendered on the dashboard.
type QuoteView struct {
	PriceUSD   float64   `json:"price_usd"`
	Price      string    `json:"price"`
	Volume     string    `json:"volume,omitempty"`
	Change     string    `json:"change,omitempty"`
	Direction  string    `json:"direction,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

type NewsView struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Sentiment   string     `json:"sentiment,omitempty"`
	Confidence  string     `json:"confidence,omitempty"`
}

type PredictionView struct {
	Current string    `json:"current"`
	Final   string    `json:"final"`
	Change  string    `json:"change"`
	Horizon []float64 `json:"horizon"`
	PlotPNG []byte    `json:"plot_png,omitempty"`
}

type PointView struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
}

// StateView is the full dashboard state returned by GET /api/state.
type StateView struct {
	State      models.EngineState                `json:"state"`
	Role       models.Role                       `json:"role,omitempty"`
	Instrument *models.Instrument                `json:"instrument,omitempty"`
	Quote      *QuoteView                        `json:"quote,omitempty"`
	News       []NewsView                        `json:"news"`
	Prediction *PredictionView                   `json:"prediction,omitempty"`
	Sentiment  string                            `json:"sentiment,omitempty"`
	History    []PointView                       `json:"history"`
	Errors     map[models.Feed]string            `json:"errors,omitempty"`
	Feeds      map[models.Feed]usecase.FeedState `json:"feeds,omitempty"`
}

// UpdateView is one websocket frame. Only the payload matching Kind is set;
// a prediction frame without Prediction means no forecast is available.
type UpdateView struct {
	Kind       models.UpdateKind  `json:"kind"`
	State      models.EngineState `json:"state"`
	Instrument string             `json:"instrument,omitempty"`
	At         time.Time          `json:"at"`
	Error      string             `json:"error,omitempty"`
	Quote      *QuoteView         `json:"quote,omitempty"`
	News       []NewsView         `json:"news,omitempty"`
	Prediction *PredictionView    `json:"prediction,omitempty"`
	Sentiment  string             `json:"sentiment,omitempty"`
	History    []PointView        `json:"history,omitempty"`
}

func newStateView(s usecase.EngineSnapshot) StateView {
	v := StateView{
		State:      s.State,
		Role:       s.Role,
		Quote:      quoteView(s.Quote),
		News:       newsView(s.News),
		Prediction: predictionView(s.Prediction),
		Sentiment:  sentimentView(s.Sentiment),
		History:    historyView(s.History),
		Errors:     s.Errors,
		Feeds:      s.Feeds,
	}
	if !s.Instrument.IsZero() {
		inst := s.Instrument
		v.Instrument = &inst
	}
	return v
}

func newUpdateView(u models.Update) UpdateView {
	v := UpdateView{
		Kind:       u.Kind,
		State:      u.State,
		Instrument: u.Instrument.Symbol,
		At:         u.At,
	}
	if u.Err != nil {
		v.Error = u.Err.Error()
		return v
	}
	switch u.Kind {
	case models.UpdatePrice:
		if u.Quote != nil {
			v.Quote = quoteView(*u.Quote)
		}
	case models.UpdateNews:
		v.News = newsView(u.News)
	case models.UpdatePrediction:
		v.Prediction = predictionView(u.Prediction)
	case models.UpdateSentiment:
		v.Sentiment = sentimentView(u.Sentiment)
	case models.UpdateHistory:
		v.History = historyView(u.History)
	}
	return v
}

func quoteView(q models.PriceQuote) *QuoteView {
	if q.Last == nil {
		return nil
	}
	v := &QuoteView{
		PriceUSD:   q.Last.PriceUSD,
		Price:      format.USD(q.Last.PriceUSD),
		Direction:  string(q.Direction()),
		ObservedAt: q.Last.ObservedAt,
	}
	if q.Last.VolumeUSD != nil {
		v.Volume = format.Number(*q.Last.VolumeUSD)
	}
	if pct, ok := q.ChangePct(); ok {
		v.Change = format.Percent(pct)
	}
	return v
}

func newsView(batch models.NewsBatch) []NewsView {
	out := make([]NewsView, 0, len(batch))
	for _, it := range batch {
		n := NewsView{
			Title:       it.Title,
			URL:         it.URL,
			Source:      it.SourceName,
			PublishedAt: it.PublishedAt,
		}
		if it.Sentiment != nil {
			n.Sentiment = string(*it.Sentiment)
		}
		if it.Confidence != nil {
			n.Confidence = format.Confidence(*it.Confidence)
		}
		out = append(out, n)
	}
	return out
}

func predictionView(p *models.Prediction) *PredictionView {
	if p == nil || !p.Available() {
		return nil
	}
	final, _ := p.Final()
	v := &PredictionView{
		Current: format.USD(p.CurrentPrice),
		Final:   format.USD(final),
		Horizon: p.HorizonPrices,
		PlotPNG: p.RenderedPlot,
	}
	if pct, ok := p.ChangePct(); ok {
		v.Change = format.Percent(pct)
	}
	return v
}

func sentimentView(s *models.SentimentReading) string {
	if s == nil {
		return ""
	}
	return string(s.Label)
}

func historyView(h models.PriceHistory) []PointView {
	out := make([]PointView, 0, len(h))
	for _, p := range h {
		out = append(out, PointView{Timestamp: p.Timestamp, Price: p.Price, Volume: p.Volume})
	}
	return out
}
