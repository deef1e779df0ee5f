package models

import "time"

// ReturnMetric identifies a return-rate formula.
type ReturnMetric string

const (
	MetricSimpleReturn  ReturnMetric = "SR"
	MetricTimeWeighted  ReturnMetric = "TWR"
	MetricMoneyWeighted ReturnMetric = "MWR"
)

// ReturnWindow is a trailing window of calendar days ending today.
// A window larger than available history is clamped to the data present.
type ReturnWindow struct {
	Label   string `json:"label"`
	DaysAgo int    `json:"days_ago"`
}

// DefaultReturnWindows are the trailing windows computed per analysis.
var DefaultReturnWindows = []ReturnWindow{
	{Label: "1W", DaysAgo: 7},
	{Label: "1M", DaysAgo: 30},
	{Label: "3M", DaysAgo: 91},
	{Label: "6M", DaysAgo: 182},
	{Label: "1Y", DaysAgo: 365},
	{Label: "3Y", DaysAgo: 1095},
}

// ReturnFigure is one computed window result. Percentage is the rate as a
// fraction (0.05 = 5%); Amount is the absolute gain over the window in USD.
// Error is set when the metric could not be computed (e.g. the MWR root
// find did not converge); display layers decide the fallback.
type ReturnFigure struct {
	Label      string  `json:"label"`
	DaysAgo    int     `json:"days_ago"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
	Error      string  `json:"error,omitempty"`
}

// PortfolioAnalysis is the full derived projection recomputed from the
// authoritative event list on every analysis request.
type PortfolioAnalysis struct {
	ID                string                          `json:"id"`
	BenchmarkSymbol   string                          `json:"benchmark_symbol"`
	PortfolioTimeline []PortfolioValue                `json:"portfolio_timeline"`
	AssetsAnalysis    AssetsHistoricalData            `json:"assets_analysis"`
	CashFlow          CashFlow                        `json:"cash_flow"`
	Returns           map[ReturnMetric][]ReturnFigure `json:"returns"`
	StockMarketData   StockMarketData                 `json:"stock_market_data"`
	GeneratedAt       time.Time                       `json:"generated_at"`
}
