package models

// VolumeEpsilon absorbs floating-point drift from partial closes: a holding
// whose volume falls to or below this is clamped to zero.
const VolumeEpsilon = 1e-6

// StockHolding is the per-symbol ledger entry inside a daily snapshot.
// Price and SplitAdjustedPrice are nil when no market data exists for the
// snapshot day; a nil price contributes zero to valuation.
type StockHolding struct {
	Volume             float64  `json:"volume"`
	TakenProfitOrLoss  float64  `json:"taken_profit_or_loss,omitempty"`
	Price              *float64 `json:"price,omitempty"`
	SplitAdjustedPrice *float64 `json:"split_adjusted_price,omitempty"`
}

// PortfolioValue is one immutable daily snapshot of the replayed portfolio.
//
// Invariant: PortfolioValue = Cash + Σ(stock.Volume × stock.Price).
// Balance reflects only user-initiated net deposits ("money actually at
// risk"); TotalCapitalInvested accumulates gross deposits and is
// monotonically non-decreasing.
type PortfolioValue struct {
	Date                  string                  `json:"date"`
	Cash                  float64                 `json:"cash"`
	Balance               float64                 `json:"balance"`
	TotalCapitalInvested  float64                 `json:"total_capital_invested"`
	Stocks                map[string]StockHolding `json:"stocks"`
	PortfolioValue        float64                 `json:"portfolio_value"`
	ProfitOrLoss          float64                 `json:"profit_or_loss"`
	OneDayProfit          float64                 `json:"one_day_profit"`
	BenchmarkStock        StockHolding            `json:"benchmark_stock"`
	BenchmarkStockValue   float64                 `json:"benchmark_stock_value"`
	BenchmarkOneDayProfit float64                 `json:"benchmark_one_day_profit"`
}

// CashFlowItem is one dated user cash movement, as fed to the return
// calculators. Sign convention there is investor-perspective: outflows from
// the investor's pocket are negative.
type CashFlowItem struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// CashFlow is an ordered list of dated cash movements.
type CashFlow []CashFlowItem

// Sum returns the total of all amounts.
func (c CashFlow) Sum() float64 {
	var total float64
	for _, item := range c {
		total += item.Amount
	}
	return total
}
