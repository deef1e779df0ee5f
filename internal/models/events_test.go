package models

import (
	"testing"
	"time"
)

func TestValidEventType(t *testing.T) {
	valid := []EventType{EventCash, EventStockOpenPosition, EventStockOpenEvent, EventStockCloseEvent}
	for _, tt := range valid {
		if !ValidEventType(tt) {
			t.Errorf("ValidEventType(%q) = false, want true", tt)
		}
	}

	invalid := []EventType{"", "CASH", "dividend", "stock_split"}
	for _, tt := range invalid {
		if ValidEventType(tt) {
			t.Errorf("ValidEventType(%q) = true, want false", tt)
		}
	}
}

func TestPortfolioEvent_IsDeposit(t *testing.T) {
	deposit := 500.0
	withdrawal := -200.0

	cases := []struct {
		name  string
		event PortfolioEvent
		want  bool
	}{
		{"deposit", PortfolioEvent{Type: EventCash, CashChange: 500, CashWithdrawalOrDeposit: &deposit}, true},
		{"withdrawal", PortfolioEvent{Type: EventCash, CashChange: -200, CashWithdrawalOrDeposit: &withdrawal}, false},
		{"fee", PortfolioEvent{Type: EventCash, CashChange: -1.5}, false},
		{"open", PortfolioEvent{Type: EventStockOpenPosition, StockSymbol: "AAPL", StocksVolumeChange: 10}, false},
	}

	for _, tc := range cases {
		if got := tc.event.IsDeposit(); got != tc.want {
			t.Errorf("%s: IsDeposit() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPortfolioEvents_Symbols(t *testing.T) {
	events := PortfolioEvents{
		OpenPositions: []PortfolioEvent{
			{Type: EventStockOpenPosition, StockSymbol: "AAPL", StocksVolumeChange: 10},
			{Type: EventStockOpenPosition, StockSymbol: "MSFT", StocksVolumeChange: 5},
		},
		ClosedStocksOpenEvents: []PortfolioEvent{
			{Type: EventStockOpenEvent, StockSymbol: "AAPL", StocksVolumeChange: 3},
			{Type: EventStockOpenEvent, StockSymbol: "TSLA.US", StocksVolumeChange: 2},
		},
		ClosedStocksCloseEvents: []PortfolioEvent{
			// Close events never introduce new symbols
			{Type: EventStockCloseEvent, StockSymbol: "NVDA", StocksVolumeChange: 1},
		},
	}

	symbols := events.Symbols()
	want := []string{"AAPL", "MSFT", "TSLA.US"}
	if len(symbols) != len(want) {
		t.Fatalf("Symbols() = %v, want %v", symbols, want)
	}
	for i, s := range want {
		if symbols[i] != s {
			t.Errorf("Symbols()[%d] = %q, want %q", i, symbols[i], s)
		}
	}
}

func TestPortfolioEvents_IsEmpty(t *testing.T) {
	if !(PortfolioEvents{}).IsEmpty() {
		t.Error("empty PortfolioEvents.IsEmpty() = false, want true")
	}

	nonEmpty := PortfolioEvents{CashEvents: []PortfolioEvent{{Type: EventCash, CashChange: 1}}}
	if nonEmpty.IsEmpty() {
		t.Error("non-empty PortfolioEvents.IsEmpty() = true, want false")
	}
}

func TestDateKey_RoundTrip(t *testing.T) {
	d := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	key := DateKey(d)
	if key != "2024-03-15" {
		t.Errorf("DateKey = %q, want %q", key, "2024-03-15")
	}

	parsed := ParseDateKey(key)
	if !parsed.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDateKey(%q) = %v, want midnight UTC", key, parsed)
	}

	if !ParseDateKey("garbage").IsZero() {
		t.Error("ParseDateKey(garbage) should return zero time")
	}
}

func TestCashFlow_Sum(t *testing.T) {
	cf := CashFlow{
		{Date: "2024-01-01", Amount: 1000},
		{Date: "2024-02-01", Amount: -250},
		{Date: "2024-03-01", Amount: 500},
	}
	if got := cf.Sum(); got != 1250 {
		t.Errorf("Sum() = %v, want 1250", got)
	}
}
