package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/hindsight/internal/common"
	"github.com/bobmcallan/hindsight/internal/interfaces"
	"github.com/bobmcallan/hindsight/internal/models"
)

// Service implements the PortfolioAnalyzer interface. Each Analyze call is
// a full recomputation: events in, derived projections out.
type Service struct {
	marketData interfaces.MarketDataService
	benchmark  string
	logger     *common.Logger

	// now is swappable for deterministic tests
	now func() time.Time
}

// NewService creates a portfolio analyzer with the given benchmark symbol.
func NewService(marketData interfaces.MarketDataService, benchmark string, logger *common.Logger) *Service {
	return &Service{
		marketData: marketData,
		benchmark:  benchmark,
		logger:     logger,
		now:        time.Now,
	}
}

// Analyze replays the event stream into the full derived analysis. An
// empty stream yields an empty analysis, not an error.
func (s *Service) Analyze(ctx context.Context, events models.PortfolioEvents) (*models.PortfolioAnalysis, error) {
	now := s.now()

	analysis := &models.PortfolioAnalysis{
		ID:                uuid.New().String(),
		BenchmarkSymbol:   s.benchmark,
		PortfolioTimeline: []models.PortfolioValue{},
		AssetsAnalysis:    models.AssetsHistoricalData{},
		CashFlow:          models.CashFlow{},
		Returns:           map[models.ReturnMetric][]models.ReturnFigure{},
		StockMarketData:   models.StockMarketData{},
		GeneratedAt:       now,
	}
	if events.IsEmpty() {
		return analysis, nil
	}

	from := earliestEventDate(events)
	symbols := append(events.Symbols(), s.benchmark)

	marketData, err := s.marketData.GetStockMarketData(ctx, symbols, from, now)
	if err != nil {
		return nil, err
	}
	if err := s.marketData.AdjustEventPrices(ctx, &events, marketData); err != nil {
		return nil, err
	}

	merged := MergeEvents(events)
	engine := NewEngine(marketData, s.benchmark, s.logger)
	timeline := engine.BuildTimeline(merged, now)

	analysis.StockMarketData = marketData
	analysis.PortfolioTimeline = timeline
	analysis.AssetsAnalysis = BuildAssetsAnalysis(events, marketData)
	analysis.CashFlow = buildCashFlow(events.CashEvents)
	analysis.Returns = s.calculateReturns(timeline, analysis.CashFlow)

	s.logger.Info().
		Int("events", len(merged)).
		Int("days", len(timeline)).
		Int("symbols", len(symbols)).
		Msg("Portfolio analysis complete")

	return analysis, nil
}

// RenderTimelineChart renders the portfolio-vs-benchmark timeline as PNG.
func (s *Service) RenderTimelineChart(analysis *models.PortfolioAnalysis) ([]byte, error) {
	return RenderTimelineChart(analysis)
}

// calculateReturns computes every metric over every default window. An
// MWR window whose root find fails carries the error in its figure; the
// other windows and metrics are unaffected.
func (s *Service) calculateReturns(timeline []models.PortfolioValue, cashFlow models.CashFlow) map[models.ReturnMetric][]models.ReturnFigure {
	returns := map[models.ReturnMetric][]models.ReturnFigure{
		models.MetricSimpleReturn:  {},
		models.MetricTimeWeighted:  {},
		models.MetricMoneyWeighted: {},
	}

	for _, window := range models.DefaultReturnWindows {
		startKey, endKey := windowBounds(timeline, window.DaysAgo)
		amount := 0.0
		if len(timeline) > 0 {
			amount = profitForPeriod(cashFlow, timeline, startKey, endKey)
		}

		returns[models.MetricSimpleReturn] = append(returns[models.MetricSimpleReturn], models.ReturnFigure{
			Label:      window.Label,
			DaysAgo:    window.DaysAgo,
			Amount:     amount,
			Percentage: CalculateSimpleReturn(timeline, cashFlow, window.DaysAgo),
		})

		returns[models.MetricTimeWeighted] = append(returns[models.MetricTimeWeighted], models.ReturnFigure{
			Label:      window.Label,
			DaysAgo:    window.DaysAgo,
			Amount:     amount,
			Percentage: CalculateTWR(timeline, window.DaysAgo),
		})

		mwrFigure := models.ReturnFigure{
			Label:   window.Label,
			DaysAgo: window.DaysAgo,
			Amount:  amount,
		}
		if mwr, err := CalculateMWR(timeline, cashFlow, window.DaysAgo); err != nil {
			s.logger.Warn().Str("window", window.Label).Err(err).Msg("MWR did not converge")
			mwrFigure.Error = err.Error()
		} else {
			mwrFigure.Percentage = mwr
		}
		returns[models.MetricMoneyWeighted] = append(returns[models.MetricMoneyWeighted], mwrFigure)
	}

	return returns
}

// buildCashFlow extracts the dated user deposits and withdrawals from the
// cash events. Plain ledger movements (fees, dividends) do not count.
func buildCashFlow(cashEvents []models.PortfolioEvent) models.CashFlow {
	flow := models.CashFlow{}
	for _, event := range cashEvents {
		if event.CashWithdrawalOrDeposit == nil || *event.CashWithdrawalOrDeposit == 0 {
			continue
		}
		flow = append(flow, models.CashFlowItem{
			Date:   event.DateKey(),
			Amount: *event.CashWithdrawalOrDeposit,
		})
	}
	return flow
}

// earliestEventDate finds the first event date across all collections.
func earliestEventDate(events models.PortfolioEvents) time.Time {
	var earliest time.Time
	scan := func(list []models.PortfolioEvent) {
		for _, event := range list {
			if earliest.IsZero() || event.Date.Before(earliest) {
				earliest = event.Date
			}
		}
	}
	scan(events.CashEvents)
	scan(events.OpenPositions)
	scan(events.ClosedStocksOpenEvents)
	scan(events.ClosedStocksCloseEvents)
	return earliest
}
