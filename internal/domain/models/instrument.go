package models

import "strings"

const quoteSuffix = "USDT"

// Instrument is a tradable pair. Values are immutable once built.
type Instrument struct {
	Symbol      string `json:"symbol"`
	DisplayName string `json:"display_name"`
	CoinID      string `json:"coin_id"`
}

// NewsCode is the currency code used by the news feed (BTCUSDT -> BTC).
func (i Instrument) NewsCode() string {
	return strings.TrimSuffix(i.Symbol, quoteSuffix)
}

// IsZero reports whether no instrument is set.
func (i Instrument) IsZero() bool { return i.Symbol == "" }

// Catalog is the ordered list of supported pairs. The first entry is the default.
type Catalog []Instrument

// DefaultCatalog lists the pairs served by the price backend.
func DefaultCatalog() Catalog {
	return Catalog{
		{Symbol: "BTCUSDT", DisplayName: "Bitcoin", CoinID: "bitcoin"},
		{Symbol: "ETHUSDT", DisplayName: "Ethereum", CoinID: "ethereum"},
		{Symbol: "XRPUSDT", DisplayName: "Ripple", CoinID: "ripple"},
		{Symbol: "DOGEUSDT", DisplayName: "Dogecoin", CoinID: "dogecoin"},
		{Symbol: "SOLUSDT", DisplayName: "Solana", CoinID: "solana"},
	}
}

// Default returns the first instrument, or the zero value for an empty catalog.
func (c Catalog) Default() Instrument {
	if len(c) == 0 {
		return Instrument{}
	}
	return c[0]
}

// Lookup finds an instrument by symbol, case-insensitively.
func (c Catalog) Lookup(symbol string) (Instrument, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, inst := range c {
		if inst.Symbol == symbol {
			return inst, true
		}
	}
	return Instrument{}, false
}

// Symbols returns the symbols in catalog order.
func (c Catalog) Symbols() []string {
	out := make([]string, len(c))
	for i, inst := range c {
		out[i] = inst.Symbol
	}
	return out
}
