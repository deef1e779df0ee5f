package interfaces

import (
	"time"

	"github.com/bobmcallan/hindsight/internal/models"
)

// MarketCache stores fetched per-symbol price history keyed by
// (symbol, from, to). Content for a given key is deterministic, so writes
// are idempotent and last-writer-wins is acceptable.
type MarketCache interface {
	// Get returns the cached record for a key, or ok=false on miss or when
	// the entry is older than the cache TTL.
	Get(symbol string, from, to time.Time) (*models.TickerMarketData, bool)

	// Put stores a record for a key.
	Put(symbol string, from, to time.Time, data *models.TickerMarketData) error

	// Purge removes all cached entries, returning the count deleted.
	Purge() (int, error)
}
