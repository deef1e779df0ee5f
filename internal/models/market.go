package models

import "time"

// Split represents a stock split as reported by the market-data provider.
// Factor is numerator/denominator (10 for a 10:1 split).
type Split struct {
	EffectiveDate string  `json:"effective_date"`
	Factor        float64 `json:"split_factor"`
}

// TickerMarketData holds the daily price history for one symbol, already
// normalized for the valuation engine.
//
// SplitAdjustedPrice is the provider's native series, continuous across
// splits. Price is derived from it by re-applying forward splits so that
// historical prices are comparable to the current share count.
// Both maps are keyed by calendar day ("2006-01-02").
type TickerMarketData struct {
	Currency           string             `json:"currency"`
	Price              map[string]float64 `json:"price"`
	SplitAdjustedPrice map[string]float64 `json:"split_adjusted_price"`
	Splits             []Split            `json:"splits"`
	LongName           string             `json:"long_name"`
	InstrumentType     string             `json:"instrument_type,omitempty"`
}

// NewTickerMarketData returns an empty USD record for a symbol with no
// available history. Valuation treats it as "no price data".
func NewTickerMarketData(symbol string) *TickerMarketData {
	return &TickerMarketData{
		Currency:           "USD",
		Price:              map[string]float64{},
		SplitAdjustedPrice: map[string]float64{},
		Splits:             []Split{},
		LongName:           symbol,
	}
}

// PriceOn returns the close price for a day key, with presence.
func (t *TickerMarketData) PriceOn(key string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	p, ok := t.Price[key]
	return p, ok
}

// StockMarketData maps ticker symbol to its market data. The designated
// benchmark symbol is always present.
type StockMarketData map[string]*TickerMarketData

// ExchangeRates maps day key to quote-pair rates as returned by the FX
// provider, e.g. rates["2024-03-01"]["USDEUR"] = 0.92.
type ExchangeRates map[string]map[string]float64

// DailyClose is one bar of a raw provider price series.
type DailyClose struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceHistory is the raw per-symbol series as fetched from the chart API,
// before split re-application, carry-forward fill, and USD conversion.
type PriceHistory struct {
	Symbol         string       `json:"symbol"`
	Currency       string       `json:"currency"`
	LongName       string       `json:"long_name"`
	InstrumentType string       `json:"instrument_type,omitempty"`
	Bars           []DailyClose `json:"bars"`
	Splits         []Split      `json:"splits"`

	// Live quote for intraday requests, used when the requested range
	// extends past the last close.
	CurrentPrice float64   `json:"current_price,omitempty"`
	CurrentTime  time.Time `json:"current_time,omitempty"`
}
