package analysis

import (
	"testing"

	"github.com/bobmcallan/hindsight/internal/models"
)

// snapshots builds a minimal timeline with the given per-day values.
func snapshots(start string, values []float64, invested float64) []models.PortfolioValue {
	timeline := make([]models.PortfolioValue, len(values))
	d := day(start)
	for i, v := range values {
		oneDay := 0.0
		if i > 0 {
			oneDay = v - values[i-1]
		}
		timeline[i] = models.PortfolioValue{
			Date:                 models.DateKey(d),
			PortfolioValue:       v,
			OneDayProfit:         oneDay,
			TotalCapitalInvested: invested,
		}
		d = d.AddDate(0, 0, 1)
	}
	return timeline
}

func TestCalculateTWR_FlatWindowIsZero(t *testing.T) {
	timeline := snapshots("2024-03-01", []float64{1000, 1000, 1000, 1000, 1000}, 1000)
	if got := CalculateTWR(timeline, 5); got != 0 {
		t.Errorf("TWR over flat window = %v, want exactly 0", got)
	}
}

func TestCalculateTWR_ChainsDailyReturns(t *testing.T) {
	// Two days: +10% then -5% on invested capital of 1000
	timeline := []models.PortfolioValue{
		{Date: "2024-03-01", OneDayProfit: 0, TotalCapitalInvested: 1000},
		{Date: "2024-03-02", OneDayProfit: 100, TotalCapitalInvested: 1000},
		{Date: "2024-03-03", OneDayProfit: -50, TotalCapitalInvested: 1000},
	}
	want := (1+0.1)*(1-0.05) - 1
	if got := CalculateTWR(timeline, 3); !approxEqual(got, want, 1e-12) {
		t.Errorf("TWR = %v, want %v", got, want)
	}
}

func TestCalculateTWR_WindowLargerThanHistory(t *testing.T) {
	timeline := snapshots("2024-03-01", []float64{1000, 1100}, 1000)
	whole := CalculateTWR(timeline, len(timeline))
	clamped := CalculateTWR(timeline, 10000)
	if whole != clamped {
		t.Errorf("clamped TWR %v != full-history TWR %v", clamped, whole)
	}
}

func TestCalculateTWR_SkipsZeroCapitalDays(t *testing.T) {
	timeline := []models.PortfolioValue{
		{Date: "2024-03-01", OneDayProfit: 50, TotalCapitalInvested: 0},
		{Date: "2024-03-02", OneDayProfit: 100, TotalCapitalInvested: 1000},
	}
	want := 0.1
	if got := CalculateTWR(timeline, 2); !approxEqual(got, want, 1e-12) {
		t.Errorf("TWR = %v, want %v (zero-capital day skipped)", got, want)
	}
}

func TestCashFlowForPeriod_Construction(t *testing.T) {
	timeline := snapshots("2024-03-01", []float64{1000, 1000, 1200, 1200, 1300}, 1000)
	cashFlow := models.CashFlow{
		{Date: "2024-02-20", Amount: 500}, // before window, excluded
		{Date: "2024-03-03", Amount: 200}, // inside window
	}

	window := cashFlowForPeriod(cashFlow, timeline, "2024-03-02", "2024-03-05")

	if len(window) != 3 {
		t.Fatalf("window has %d flows, want 3", len(window))
	}
	if window[0].Amount != -1000 {
		t.Errorf("start flow = %v, want -1000", window[0].Amount)
	}
	if window[1].Amount != -200 {
		t.Errorf("deposit flow = %v, want -200 (negated)", window[1].Amount)
	}
	if window[2].Amount != 1300 {
		t.Errorf("end flow = %v, want 1300", window[2].Amount)
	}
}

func TestCalculateSimpleReturn_FlatPortfolio(t *testing.T) {
	timeline := snapshots("2024-03-01", []float64{1000, 1000, 1000}, 1000)
	cashFlow := models.CashFlow{{Date: "2024-03-01", Amount: 1000}}

	// Window predating history: start value 0, the deposit counts, end 1000
	if got := CalculateSimpleReturn(timeline, cashFlow, 365); got != 0 {
		t.Errorf("SR for flat portfolio = %v, want 0", got)
	}
}

func TestCalculateSimpleReturn_WindowBoundary(t *testing.T) {
	timeline := snapshots("2024-03-01", []float64{1000, 1050, 1100}, 1000)
	cashFlow := models.CashFlow{{Date: "2024-03-01", Amount: 1000}}

	// A window whose start predates all history equals the full history
	wide := CalculateSimpleReturn(timeline, cashFlow, 10000)
	exact := CalculateSimpleReturn(timeline, cashFlow, 365)
	if wide != exact {
		t.Errorf("SR over oversized window %v != full-history SR %v", wide, exact)
	}
	if !approxEqual(wide, 0.1, 1e-9) {
		t.Errorf("SR = %v, want 0.1", wide)
	}
}

func TestCalculateSimpleReturn_ShortTimeline(t *testing.T) {
	if got := CalculateSimpleReturn(snapshots("2024-03-01", []float64{1000}, 1000), nil, 30); got != 0 {
		t.Errorf("SR with one snapshot = %v, want 0", got)
	}
	if got := CalculateSimpleReturn(nil, nil, 30); got != 0 {
		t.Errorf("SR with empty timeline = %v, want 0", got)
	}
}

func TestCalculateSimpleReturn_WithdrawalIncreasesProfit(t *testing.T) {
	// Portfolio worth 1000 at start, investor withdraws 200, still worth
	// 900 at end: the portfolio itself gained 100.
	timeline := []models.PortfolioValue{
		{Date: "2024-03-01", PortfolioValue: 1000, TotalCapitalInvested: 1000},
		{Date: "2024-03-02", PortfolioValue: 900, TotalCapitalInvested: 1000},
	}
	cashFlow := models.CashFlow{
		{Date: "2024-03-01", Amount: 1000},
		{Date: "2024-03-02", Amount: -200},
	}

	got := CalculateSimpleReturn(timeline, cashFlow, 365)
	if !approxEqual(got, 0.1, 1e-9) {
		t.Errorf("SR = %v, want 0.1", got)
	}
}

func TestCalculateMWR_KnownAnnualReturn(t *testing.T) {
	// 1000 invested, worth 1100 exactly 365 days later: MWR = 10%
	timeline := []models.PortfolioValue{
		{Date: "2024-01-01", PortfolioValue: 1000, TotalCapitalInvested: 1000},
		{Date: "2024-12-31", PortfolioValue: 1100, TotalCapitalInvested: 1000},
	}

	got, err := CalculateMWR(timeline, nil, 365)
	if err != nil {
		t.Fatalf("CalculateMWR failed: %v", err)
	}
	if !approxEqual(got, 0.1, 1e-4) {
		t.Errorf("MWR = %v, want ~0.1", got)
	}
}

func TestCalculateMWR_FlatIsZero(t *testing.T) {
	timeline := snapshots("2024-03-01", []float64{1000, 1000, 1000}, 1000)
	cashFlow := models.CashFlow{{Date: "2024-03-01", Amount: 1000}}

	// Window predating history: deposit in, same amount out, zero return
	got, err := CalculateMWR(timeline, cashFlow, 3)
	if err != nil {
		t.Fatalf("CalculateMWR failed: %v", err)
	}
	if !approxEqual(got, 0, 1e-9) {
		t.Errorf("MWR for flat window = %v, want 0", got)
	}
}

func TestCalculateMWR_NoConvergenceSurfaced(t *testing.T) {
	// End value zero and no inflows: flows are one-signed, no root exists
	timeline := []models.PortfolioValue{
		{Date: "2024-03-01", PortfolioValue: 1000, TotalCapitalInvested: 1000},
		{Date: "2024-03-05", PortfolioValue: 0, TotalCapitalInvested: 1000},
	}

	_, err := CalculateMWR(timeline, nil, 4)
	if err == nil {
		t.Fatal("expected error for one-signed flows")
	}
}

func TestCalculateMWR_EmptyTimeline(t *testing.T) {
	got, err := CalculateMWR(nil, nil, 30)
	if err != nil {
		t.Fatalf("CalculateMWR failed: %v", err)
	}
	if got != 0 {
		t.Errorf("MWR over empty timeline = %v, want 0", got)
	}
}
