// Package analysis replays portfolio event streams into daily valuation
// timelines, per-asset ledgers, and windowed return metrics.
package analysis

import (
	"sort"

	"github.com/bobmcallan/hindsight/internal/models"
)

// MergeEvents flattens the four typed collections into one stream sorted
// ascending by date. The sort is stable: events on the same day keep
// collection order (cash, open positions, open events, close events) and
// their original order within each collection.
func MergeEvents(events models.PortfolioEvents) []models.PortfolioEvent {
	merged := make([]models.PortfolioEvent, 0,
		len(events.CashEvents)+len(events.OpenPositions)+
			len(events.ClosedStocksOpenEvents)+len(events.ClosedStocksCloseEvents))

	merged = append(merged, events.CashEvents...)
	merged = append(merged, events.OpenPositions...)
	merged = append(merged, events.ClosedStocksOpenEvents...)
	merged = append(merged, events.ClosedStocksCloseEvents...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})

	return merged
}

// groupByDay buckets a sorted event stream by calendar-day key, preserving
// order within each bucket.
func groupByDay(events []models.PortfolioEvent) map[string][]models.PortfolioEvent {
	byDay := make(map[string][]models.PortfolioEvent)
	for _, event := range events {
		key := event.DateKey()
		byDay[key] = append(byDay[key], event)
	}
	return byDay
}
