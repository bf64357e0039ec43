package models

import "math"

// Prediction from the forecasting backend. HorizonPrices are ordered by horizon.
type Prediction struct {
	CurrentPrice  float64   `json:"current_price"`
	HorizonPrices []float64 `json:"horizon_prices"`
	RenderedPlot  []byte    `json:"rendered_plot,omitempty"`
}

// Available is false for an empty horizon or a non-finite current price.
func (p Prediction) Available() bool {
	if len(p.HorizonPrices) == 0 {
		return false
	}
	return !math.IsNaN(p.CurrentPrice) && !math.IsInf(p.CurrentPrice, 0)
}

// Final is the price at the furthest horizon.
func (p Prediction) Final() (float64, bool) {
	if !p.Available() {
		return 0, false
	}
	return p.HorizonPrices[len(p.HorizonPrices)-1], true
}

// ChangePct is the predicted move from the current price to the final horizon.
func (p Prediction) ChangePct() (float64, bool) {
	last, ok := p.Final()
	if !ok || p.CurrentPrice == 0 {
		return 0, false
	}
	return (last - p.CurrentPrice) / p.CurrentPrice * 100, true
}
