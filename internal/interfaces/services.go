package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/hindsight/internal/models"
)

// MarketDataService resolves normalized market data for a set of symbols.
type MarketDataService interface {
	// GetStockMarketData fetches (or serves from cache) daily price series
	// for all symbols over the range, with splits re-applied, gaps filled by
	// carry-forward, and prices converted to USD. Symbols whose fetch fails
	// degrade to an empty record rather than failing the whole call.
	GetStockMarketData(ctx context.Context, symbols []string, from, to time.Time) (models.StockMarketData, error)

	// AdjustEventPrices converts event open/close prices to USD and
	// back-adjusts them for splits so volume × price matches the pre-split
	// share count at transaction time. Mutates the events in place.
	AdjustEventPrices(ctx context.Context, events *models.PortfolioEvents, marketData models.StockMarketData) error
}

// PortfolioAnalyzer replays an event stream into the full derived analysis.
type PortfolioAnalyzer interface {
	// Analyze builds the daily valuation timeline, per-asset ledgers, cash
	// flow series and windowed return figures for an event stream. An empty
	// stream yields an empty analysis, not an error.
	Analyze(ctx context.Context, events models.PortfolioEvents) (*models.PortfolioAnalysis, error)

	// RenderTimelineChart renders the portfolio-vs-benchmark value timeline
	// as a PNG.
	RenderTimelineChart(analysis *models.PortfolioAnalysis) ([]byte, error)
}
