// Package interfaces defines service contracts for Hindsight
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/hindsight/internal/models"
)

// ChartClient provides access to a daily price-history provider
// (Yahoo Finance chart API).
type ChartClient interface {
	// GetPriceHistory retrieves the daily close series, split schedule and
	// instrument metadata for a symbol over a date range.
	GetPriceHistory(ctx context.Context, symbol string, opts ...HistoryOption) (*models.PriceHistory, error)
}

// HistoryOption configures price-history requests
type HistoryOption func(*HistoryParams)

// HistoryParams holds price-history query parameters
type HistoryParams struct {
	From     time.Time
	To       time.Time
	Interval string // 1d, 1wk, 1mo
}

// WithRange sets the date range for the history query
func WithRange(from, to time.Time) HistoryOption {
	return func(p *HistoryParams) {
		p.From = from
		p.To = to
	}
}

// WithInterval sets the bar interval for the history query
func WithInterval(interval string) HistoryOption {
	return func(p *HistoryParams) {
		p.Interval = interval
	}
}

// FXClient provides access to a USD exchange-rate provider
// (currencylayer timeframe API).
type FXClient interface {
	// GetRates retrieves daily USD-quoted rates for a set of currency codes
	// over a date range. The result maps day key to pair ("USDEUR") to rate.
	GetRates(ctx context.Context, currencies []string, from, to time.Time) (models.ExchangeRates, error)
}
