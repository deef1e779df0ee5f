package analysis

import (
	"sort"
	"time"

	"github.com/bobmcallan/hindsight/internal/common"
	"github.com/bobmcallan/hindsight/internal/models"
)

// ledgerState is the running portfolio ledger folded over events. Values
// are plain accumulators; snapshots are priced separately at emission.
type ledgerState struct {
	cash                 float64
	balance              float64
	totalCapitalInvested float64
	profitOrLoss         float64
	stocks               map[string]models.StockHolding
	benchmarkVolume      float64
}

func newLedgerState() ledgerState {
	return ledgerState{stocks: map[string]models.StockHolding{}}
}

// applyEvent folds one event into the ledger, returning the new state.
// The stocks map is copied so intermediate states stay independent.
func applyEvent(state ledgerState, event models.PortfolioEvent) ledgerState {
	next := state
	next.stocks = make(map[string]models.StockHolding, len(state.stocks))
	for symbol, holding := range state.stocks {
		next.stocks[symbol] = holding
	}

	switch event.Type {
	case models.EventCash:
		next.cash += event.CashChange
		if event.CashWithdrawalOrDeposit != nil {
			next.balance += *event.CashWithdrawalOrDeposit
			if *event.CashWithdrawalOrDeposit > 0 {
				next.totalCapitalInvested += *event.CashWithdrawalOrDeposit
			}
		}

	case models.EventStockOpenPosition, models.EventStockOpenEvent:
		if event.StockSymbol == "" {
			break
		}
		holding := next.stocks[event.StockSymbol]
		holding.Volume += event.StocksVolumeChange
		next.stocks[event.StockSymbol] = holding

	case models.EventStockCloseEvent:
		if event.StockSymbol == "" {
			break
		}
		// A close against a never-opened symbol is a no-op on the ledger,
		// but its realized result still counts.
		if holding, ok := next.stocks[event.StockSymbol]; ok {
			holding.Volume -= event.StocksVolumeChange
			holding.TakenProfitOrLoss += event.ProfitOrLoss
			if holding.Volume <= models.VolumeEpsilon {
				holding.Volume = 0
			}
			next.stocks[event.StockSymbol] = holding
		}
		next.profitOrLoss += event.ProfitOrLoss
	}

	return next
}

// Engine replays an ordered event stream day by day against resolved
// market data. It is deterministic and does no I/O.
type Engine struct {
	marketData models.StockMarketData
	benchmark  string
	logger     *common.Logger
}

// NewEngine creates a valuation engine over resolved market data.
func NewEngine(marketData models.StockMarketData, benchmark string, logger *common.Logger) *Engine {
	return &Engine{
		marketData: marketData,
		benchmark:  benchmark,
		logger:     logger,
	}
}

// stocksValue prices a holdings map at a given day. Symbols without a
// price that day contribute zero. Symbols are summed in sorted order so
// the result is bit-for-bit reproducible.
func (e *Engine) stocksValue(stocks map[string]models.StockHolding, dayKey string) float64 {
	symbols := make([]string, 0, len(stocks))
	for symbol := range stocks {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var value float64
	for _, symbol := range symbols {
		if price, ok := e.marketData[symbol].PriceOn(dayKey); ok {
			value += price * stocks[symbol].Volume
		}
	}
	return value
}

// benchmarkValue prices the benchmark shadow position at a given day.
func (e *Engine) benchmarkValue(volume float64, dayKey string) float64 {
	if price, ok := e.marketData[e.benchmark].PriceOn(dayKey); ok {
		return price * volume
	}
	return 0
}

// pricedHoldings annotates each holding with that day's prices. Missing
// prices stay nil.
func (e *Engine) pricedHoldings(stocks map[string]models.StockHolding, dayKey string) map[string]models.StockHolding {
	priced := make(map[string]models.StockHolding, len(stocks))
	for symbol, holding := range stocks {
		holding.Price = nil
		holding.SplitAdjustedPrice = nil
		if record, ok := e.marketData[symbol]; ok && record != nil {
			if price, ok := record.Price[dayKey]; ok {
				p := price
				holding.Price = &p
			}
			if price, ok := record.SplitAdjustedPrice[dayKey]; ok {
				p := price
				holding.SplitAdjustedPrice = &p
			}
		}
		priced[symbol] = holding
	}
	return priced
}

// benchmarkHolding builds the snapshot's benchmark entry.
func (e *Engine) benchmarkHolding(volume float64, dayKey string) models.StockHolding {
	holding := models.StockHolding{Volume: volume}
	if price, ok := e.marketData[e.benchmark].PriceOn(dayKey); ok {
		p := price
		holding.Price = &p
	}
	return holding
}

// BuildTimeline walks every calendar day from the first event through the
// day before now and emits one snapshot per day. Days are folded strictly
// sequentially since each day's state depends on the previous day's.
func (e *Engine) BuildTimeline(events []models.PortfolioEvent, now time.Time) []models.PortfolioValue {
	if len(events) == 0 {
		return []models.PortfolioValue{}
	}

	byDay := groupByDay(events)

	start := models.ParseDateKey(events[0].DateKey())
	end := models.ParseDateKey(models.DateKey(now)).AddDate(0, 0, -1)
	if end.Before(start) {
		end = start
	}

	state := newLedgerState()
	timeline := make([]models.PortfolioValue, 0, int(end.Sub(start).Hours()/24)+1)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dayKey := models.DateKey(day)
		prevKey := models.DateKey(day.AddDate(0, 0, -1))

		var prev models.PortfolioValue
		if len(timeline) > 0 {
			prev = timeline[len(timeline)-1]
		} else {
			prev.Stocks = map[string]models.StockHolding{}
		}

		dayEvents := byDay[dayKey]
		if len(dayEvents) == 0 {
			timeline = append(timeline, e.carryForwardSnapshot(prev, dayKey, prevKey))
			continue
		}

		for _, event := range dayEvents {
			state = applyEvent(state, event)
		}

		benchmarkVolume := prev.BenchmarkStock.Volume
		if hasCashEvent(dayEvents) {
			benchmarkPrice, ok := e.marketData[e.benchmark].PriceOn(dayKey)
			if !ok {
				// Without a benchmark price the deposit cannot be converted
				// to index shares; skip this day's snapshot entirely.
				e.logger.Warn().Str("benchmark", e.benchmark).Str("date", dayKey).Msg("No benchmark price, skipping day")
				state.benchmarkVolume = benchmarkVolume
				continue
			}
			benchmarkVolume += depositSum(dayEvents) / benchmarkPrice
		}
		state.benchmarkVolume = benchmarkVolume

		timeline = append(timeline, e.eventDaySnapshot(state, prev, dayKey, prevKey))
	}

	return timeline
}

// carryForwardSnapshot re-prices the previous day's holdings at the new
// day. OneDayProfit is the valuation delta of the same holdings across the
// two days, isolating pure market movement from cash-flow effects.
func (e *Engine) carryForwardSnapshot(prev models.PortfolioValue, dayKey, prevKey string) models.PortfolioValue {
	benchmarkVolume := prev.BenchmarkStock.Volume

	return models.PortfolioValue{
		Date:                 dayKey,
		Cash:                 prev.Cash,
		Balance:              prev.Balance,
		TotalCapitalInvested: prev.TotalCapitalInvested,
		Stocks:               e.pricedHoldings(prev.Stocks, dayKey),
		PortfolioValue:       prev.Cash + e.stocksValue(prev.Stocks, dayKey),
		ProfitOrLoss:         prev.ProfitOrLoss,
		OneDayProfit: e.stocksValue(prev.Stocks, dayKey) -
			e.stocksValue(prev.Stocks, prevKey),
		BenchmarkStock:      e.benchmarkHolding(benchmarkVolume, dayKey),
		BenchmarkStockValue: e.benchmarkValue(benchmarkVolume, dayKey),
		BenchmarkOneDayProfit: e.benchmarkValue(benchmarkVolume, dayKey) -
			e.benchmarkValue(benchmarkVolume, prevKey),
	}
}

// eventDaySnapshot prices the freshly folded ledger at the event day.
// OneDayProfit still compares the previous day's holdings across the two
// days so same-day purchases do not register as instant profit. The
// emitted cash field is floored at zero; the internal ledger keeps the
// real value.
func (e *Engine) eventDaySnapshot(state ledgerState, prev models.PortfolioValue, dayKey, prevKey string) models.PortfolioValue {
	cash := state.cash
	if cash < 0 {
		cash = 0
	}

	return models.PortfolioValue{
		Date:                 dayKey,
		Cash:                 cash,
		Balance:              state.balance,
		TotalCapitalInvested: state.totalCapitalInvested,
		Stocks:               e.pricedHoldings(state.stocks, dayKey),
		PortfolioValue:       state.cash + e.stocksValue(state.stocks, dayKey),
		ProfitOrLoss:         state.profitOrLoss,
		OneDayProfit: e.stocksValue(prev.Stocks, dayKey) -
			e.stocksValue(prev.Stocks, prevKey),
		BenchmarkStock:      e.benchmarkHolding(state.benchmarkVolume, dayKey),
		BenchmarkStockValue: e.benchmarkValue(state.benchmarkVolume, dayKey),
		BenchmarkOneDayProfit: e.benchmarkValue(state.benchmarkVolume, dayKey) -
			e.benchmarkValue(state.benchmarkVolume, prevKey),
	}
}

func hasCashEvent(events []models.PortfolioEvent) bool {
	for _, event := range events {
		if event.Type == models.EventCash {
			return true
		}
	}
	return false
}

// depositSum totals the day's positive user-initiated deposits, the amounts
// the benchmark shadow position notionally invests.
func depositSum(events []models.PortfolioEvent) float64 {
	var sum float64
	for _, event := range events {
		if event.IsDeposit() {
			sum += *event.CashWithdrawalOrDeposit
		}
	}
	return sum
}
