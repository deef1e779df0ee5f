// Package models defines data structures for Hindsight
package models

import "time"

// EventType discriminates the portfolio event union.
type EventType string

const (
	EventCash              EventType = "cash"
	EventStockOpenPosition EventType = "stock_open_position"
	EventStockOpenEvent    EventType = "stock_open_event"
	EventStockCloseEvent   EventType = "stock_close_event"
)

// validEventTypes lists all accepted event types.
var validEventTypes = map[EventType]bool{
	EventCash:              true,
	EventStockOpenPosition: true,
	EventStockOpenEvent:    true,
	EventStockCloseEvent:   true,
}

// ValidEventType returns true if t is a valid portfolio event type.
func ValidEventType(t EventType) bool {
	return validEventTypes[t]
}

// PortfolioEvent represents a single brokerage ledger row. The Type field
// selects which of the payload fields are meaningful:
//
//   - cash: CashChange (every ledger movement: fees, dividends, deposits)
//     and CashWithdrawalOrDeposit (nil except for user-initiated
//     deposit/withdrawal/transfer rows).
//   - stock_open_position / stock_open_event: StockSymbol,
//     StocksVolumeChange, OpenPrice, optionally ProfitOrLoss.
//   - stock_close_event: StockSymbol, StocksVolumeChange, ClosePrice,
//     ProfitOrLoss.
//
// Volumes are positive magnitudes; direction is implied by type.
// Events are never mutated after construction, with one deliberate
// exception: the market-data service rewrites OpenPrice/ClosePrice in place
// when normalizing to USD and back-adjusting for splits before replay.
type PortfolioEvent struct {
	Type                    EventType `json:"type"`
	Date                    time.Time `json:"date"`
	CashChange              float64   `json:"cash_change,omitempty"`
	CashWithdrawalOrDeposit *float64  `json:"cash_withdrawal_or_deposit,omitempty"`
	StockSymbol             string    `json:"stock_symbol,omitempty"`
	StocksVolumeChange      float64   `json:"stocks_volume_change,omitempty"`
	OpenPrice               float64   `json:"open_price,omitempty"`
	ClosePrice              float64   `json:"close_price,omitempty"`
	ProfitOrLoss            float64   `json:"profit_or_loss,omitempty"`
}

// DateKey returns the calendar-day key ("2006-01-02") for the event date.
func (e PortfolioEvent) DateKey() string {
	return DateKey(e.Date)
}

// IsOpen returns true for both open variants (still-open position or the
// opening leg of an already-closed position).
func (e PortfolioEvent) IsOpen() bool {
	return e.Type == EventStockOpenPosition || e.Type == EventStockOpenEvent
}

// IsDeposit returns true for cash events carrying a positive user-initiated
// deposit. Only these feed the benchmark shadow position.
func (e PortfolioEvent) IsDeposit() bool {
	return e.Type == EventCash && e.CashWithdrawalOrDeposit != nil && *e.CashWithdrawalOrDeposit > 0
}

// PortfolioEvents groups the four typed event collections as produced by
// upstream statement parsing.
type PortfolioEvents struct {
	CashEvents              []PortfolioEvent `json:"cash_events"`
	OpenPositions           []PortfolioEvent `json:"open_positions"`
	ClosedStocksOpenEvents  []PortfolioEvent `json:"closed_stocks_open_events"`
	ClosedStocksCloseEvents []PortfolioEvent `json:"closed_stocks_close_events"`
}

// IsEmpty returns true if no events are present in any collection.
func (p PortfolioEvents) IsEmpty() bool {
	return len(p.CashEvents) == 0 &&
		len(p.OpenPositions) == 0 &&
		len(p.ClosedStocksOpenEvents) == 0 &&
		len(p.ClosedStocksCloseEvents) == 0
}

// StockEvents returns the three stock event collections concatenated in
// canonical order (open positions, open events, close events).
func (p PortfolioEvents) StockEvents() []PortfolioEvent {
	out := make([]PortfolioEvent, 0, len(p.OpenPositions)+len(p.ClosedStocksOpenEvents)+len(p.ClosedStocksCloseEvents))
	out = append(out, p.OpenPositions...)
	out = append(out, p.ClosedStocksOpenEvents...)
	out = append(out, p.ClosedStocksCloseEvents...)
	return out
}

// Symbols returns the distinct stock symbols referenced by open events.
func (p PortfolioEvents) Symbols() []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, e := range p.StockEvents() {
		if !e.IsOpen() || e.StockSymbol == "" {
			continue
		}
		if !seen[e.StockSymbol] {
			seen[e.StockSymbol] = true
			symbols = append(symbols, e.StockSymbol)
		}
	}
	return symbols
}

// DateKey formats a time as the calendar-day map key used throughout the
// price maps and timeline ("2006-01-02", UTC).
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ParseDateKey parses a calendar-day key back into a UTC midnight time.
// Returns the zero time on malformed input.
func ParseDateKey(key string) time.Time {
	t, err := time.Parse("2006-01-02", key)
	if err != nil {
		return time.Time{}
	}
	return t
}
