package models

// AssetOpenRecord is one opening transaction in the per-asset ledger.
// Value is volume × split-adjusted price at the event date.
type AssetOpenRecord struct {
	Date            string  `json:"date"`
	Volume          float64 `json:"volume"`
	StockPriceOnBuy float64 `json:"stock_price_on_buy"`
	Value           float64 `json:"value"`
}

// AssetCloseRecord is one closing transaction in the per-asset ledger,
// carrying the realized profit or loss reported by the source event.
type AssetCloseRecord struct {
	Date             string  `json:"date"`
	Volume           float64 `json:"volume"`
	StockPriceOnSell float64 `json:"stock_price_on_sell"`
	ProfitOrLoss     float64 `json:"profit_or_loss"`
	Value            float64 `json:"value"`
}

// AssetHistory groups a symbol's transactions by kind: opening legs of
// still-open positions, opening legs of closed positions, and closes.
type AssetHistory struct {
	OpenPositions []AssetOpenRecord  `json:"open_positions"`
	OpenEvents    []AssetOpenRecord  `json:"open_events"`
	CloseEvents   []AssetCloseRecord `json:"close_events"`
}

// AssetsHistoricalData maps symbol to its transaction ledger. Used for
// per-asset breakdowns independent of the day-by-day timeline.
type AssetsHistoricalData map[string]*AssetHistory
