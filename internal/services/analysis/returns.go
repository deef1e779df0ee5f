package analysis

import (
	"math"

	"github.com/bobmcallan/hindsight/internal/models"
)

// Return metrics are computed over trailing windows of calendar days
// ending at the timeline's last snapshot. Windows larger than the
// available history clamp naturally: a start date predating the timeline
// prices the window start at zero and includes every cash flow, which is
// exactly the full-history computation.

// windowBounds resolves a trailing window to day keys. The end is the
// last snapshot's day; the start is daysAgo calendar days earlier.
func windowBounds(timeline []models.PortfolioValue, daysAgo int) (string, string) {
	if len(timeline) == 0 {
		return "", ""
	}
	endKey := timeline[len(timeline)-1].Date
	start := models.ParseDateKey(endKey).AddDate(0, 0, -daysAgo)
	return models.DateKey(start), endKey
}

// snapshotValue returns the portfolio value on a day, or zero when the
// timeline has no snapshot for it.
func snapshotValue(timeline []models.PortfolioValue, dayKey string) float64 {
	for i := len(timeline) - 1; i >= 0; i-- {
		if timeline[i].Date == dayKey {
			return timeline[i].PortfolioValue
		}
		if timeline[i].Date < dayKey {
			break
		}
	}
	return 0
}

// cashFlowForPeriod builds the investor-perspective flow series for a
// window: real flows inside the window are negated (a deposit is money
// out of the investor's pocket), the window's start value enters as a
// synthetic negative flow and the end value as a synthetic positive one.
func cashFlowForPeriod(cashFlow models.CashFlow, timeline []models.PortfolioValue, startKey, endKey string) models.CashFlow {
	window := make(models.CashFlow, 0, len(cashFlow)+2)

	window = append(window, models.CashFlowItem{
		Date:   startKey,
		Amount: -snapshotValue(timeline, startKey),
	})

	for _, flow := range cashFlow {
		if flow.Date < startKey || flow.Date > endKey {
			continue
		}
		window = append(window, models.CashFlowItem{Date: flow.Date, Amount: -flow.Amount})
	}

	window = append(window, models.CashFlowItem{
		Date:   endKey,
		Amount: snapshotValue(timeline, endKey),
	})

	return window
}

// profitForPeriod sums the window flow series: what the portfolio gained
// net of the investor's own deposits and withdrawals.
func profitForPeriod(cashFlow models.CashFlow, timeline []models.PortfolioValue, startKey, endKey string) float64 {
	return cashFlowForPeriod(cashFlow, timeline, startKey, endKey).Sum()
}

// CalculateSimpleReturn computes the window's net gain over the total
// capital invested as of the last snapshot.
func CalculateSimpleReturn(timeline []models.PortfolioValue, cashFlow models.CashFlow, daysAgo int) float64 {
	if len(timeline) < 2 {
		return 0
	}

	startKey, endKey := windowBounds(timeline, daysAgo)
	profit := profitForPeriod(cashFlow, timeline, startKey, endKey)

	invested := timeline[len(timeline)-1].TotalCapitalInvested
	if invested <= 0 {
		return 0
	}
	return profit / invested
}

// CalculateTWR chain-links daily returns over the window: for each day
// with capital invested, multiply by 1 + oneDayProfit/totalCapitalInvested.
// The result isolates asset performance from the timing of deposits.
func CalculateTWR(timeline []models.PortfolioValue, daysAgo int) float64 {
	twr := 1.0
	shift := daysAgo
	if shift > len(timeline) {
		shift = len(timeline)
	}

	for i := len(timeline) - shift; i < len(timeline); i++ {
		if timeline[i].TotalCapitalInvested > 0 {
			twr *= 1 + timeline[i].OneDayProfit/timeline[i].TotalCapitalInvested
		}
	}
	return twr - 1
}

// CalculateMWR solves the internal rate of return over the window's cash
// flows and annualizes the daily rate. Non-convergence is surfaced to the
// caller rather than masked as zero.
func CalculateMWR(timeline []models.PortfolioValue, cashFlow models.CashFlow, daysAgo int) (float64, error) {
	if len(timeline) == 0 {
		return 0, nil
	}

	startKey, endKey := windowBounds(timeline, daysAgo)
	window := cashFlowForPeriod(cashFlow, timeline, startKey, endKey)

	rate, err := SolveXIRR(window)
	if err != nil {
		return 0, err
	}
	return math.Pow(1+rate, 365) - 1, nil
}
