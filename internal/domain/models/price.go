package models

import (
	"math"
	"sort"
	"time"
)

// PriceSample is one normalized observation of the price feed.
type PriceSample struct {
	PriceUSD   float64   `json:"price_usd"`
	VolumeUSD  *float64  `json:"volume_usd,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// Direction of the last move.
type Direction string

const (
	DirectionUnknown Direction = ""
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionFlat    Direction = "flat"
)

// PriceQuote keeps the last two samples; no longer history is retained.
type PriceQuote struct {
	Last     *PriceSample `json:"last,omitempty"`
	Previous *PriceSample `json:"previous,omitempty"`
}

// Push makes s the last sample and shifts the old last into Previous.
func (q PriceQuote) Push(s PriceSample) PriceQuote {
	return PriceQuote{Last: &s, Previous: q.Last}
}

// Direction compares the last sample with the previous one.
func (q PriceQuote) Direction() Direction {
	if q.Last == nil || q.Previous == nil {
		return DirectionUnknown
	}
	switch {
	case q.Last.PriceUSD > q.Previous.PriceUSD:
		return DirectionUp
	case q.Last.PriceUSD < q.Previous.PriceUSD:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// ChangePct is the percent move from Previous to Last.
func (q PriceQuote) ChangePct() (float64, bool) {
	if q.Last == nil || q.Previous == nil || q.Previous.PriceUSD == 0 {
		return 0, false
	}
	return (q.Last.PriceUSD - q.Previous.PriceUSD) / q.Previous.PriceUSD * 100, true
}

// PricePoint is one entry of the price history chart.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
}

// HistoryWindow is the number of most recent points kept for the chart.
const HistoryWindow = 50

// PriceHistory is sorted by timestamp, oldest first.
type PriceHistory []PricePoint

// NewPriceHistory sorts points and keeps the most recent HistoryWindow of them.
func NewPriceHistory(points []PricePoint) PriceHistory {
	out := make(PriceHistory, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if len(out) > HistoryWindow {
		out = out[len(out)-HistoryWindow:]
	}
	return out
}
