// Package marketdata normalizes raw provider price series into the form the
// valuation engine consumes: forward-split re-application, calendar-day
// carry-forward fill, and USD conversion with daily exchange rates.
package marketdata

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/hindsight/internal/common"
	"github.com/bobmcallan/hindsight/internal/interfaces"
	"github.com/bobmcallan/hindsight/internal/models"
)

// maxConcurrentFetches bounds parallel chart API requests.
const maxConcurrentFetches = 4

// Service implements the MarketDataService interface.
type Service struct {
	charts interfaces.ChartClient
	fx     interfaces.FXClient
	cache  interfaces.MarketCache
	logger *common.Logger
}

// NewService creates a market data service. The cache may be nil, in which
// case every call fetches from the provider.
func NewService(charts interfaces.ChartClient, fx interfaces.FXClient, cache interfaces.MarketCache, logger *common.Logger) *Service {
	return &Service{
		charts: charts,
		fx:     fx,
		cache:  cache,
		logger: logger,
	}
}

// GetStockMarketData fetches daily price series for all symbols over the
// range and normalizes them to USD. A symbol whose fetch fails degrades to
// an empty record so one delisted ticker does not sink the whole portfolio.
func (s *Service) GetStockMarketData(ctx context.Context, symbols []string, from, to time.Time) (models.StockMarketData, error) {
	marketData := models.StockMarketData{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			record := s.getTickerMarketData(gctx, symbol, from, to)
			mu.Lock()
			marketData[symbol] = record
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rates, err := s.fetchExchangeRates(ctx, marketData, from, to)
	if err != nil {
		return nil, err
	}
	convertMarketDataToUSD(marketData, rates)

	return marketData, nil
}

// getTickerMarketData resolves one symbol through the cache, falling back to
// the provider and caching the normalized result.
func (s *Service) getTickerMarketData(ctx context.Context, symbol string, from, to time.Time) *models.TickerMarketData {
	if s.cache != nil {
		if record, ok := s.cache.Get(symbol, from, to); ok {
			s.logger.Debug().Str("symbol", symbol).Msg("Market data cache hit")
			return record
		}
	}

	history, err := s.charts.GetPriceHistory(ctx, symbol, interfaces.WithRange(from, to))
	if err != nil {
		s.logger.Warn().Str("symbol", symbol).Err(err).Msg("Price history fetch failed, using empty record")
		return models.NewTickerMarketData(symbol)
	}

	record := buildTickerMarketData(history, from, to)

	if s.cache != nil {
		if err := s.cache.Put(symbol, from, to, record); err != nil {
			s.logger.Warn().Str("symbol", symbol).Err(err).Msg("Failed to cache market data")
		}
	}

	return record
}

// buildTickerMarketData turns a raw provider series into day-keyed price
// maps. SplitAdjustedPrice carries the provider's native series; Price
// re-applies every split effective on or after the bar's day so historical
// prices refer to the share count in force at that time. Calendar gaps are
// then filled by carrying the most recent price forward, never reaching back
// before the range start.
func buildTickerMarketData(history *models.PriceHistory, from, to time.Time) *models.TickerMarketData {
	record := models.NewTickerMarketData(history.Symbol)
	if history.Currency != "" {
		record.Currency = history.Currency
	}
	record.LongName = history.LongName
	record.InstrumentType = history.InstrumentType
	record.Splits = history.Splits

	for _, bar := range history.Bars {
		if bar.Date.Before(from) || bar.Date.After(to) {
			continue
		}
		populatePriceForDate(record, bar.Date, bar.Close)
	}

	// A request range extending past the last close gets the live quote.
	if history.CurrentPrice > 0 && !history.CurrentTime.IsZero() {
		key := models.DateKey(history.CurrentTime)
		if _, ok := record.Price[key]; !ok && !history.CurrentTime.Before(from) && !history.CurrentTime.After(to.AddDate(0, 0, 1)) {
			populatePriceForDate(record, history.CurrentTime, history.CurrentPrice)
		}
	}

	fillPriceGaps(record, from, to)
	return record
}

func populatePriceForDate(record *models.TickerMarketData, date time.Time, closePrice float64) {
	key := models.DateKey(date)
	record.SplitAdjustedPrice[key] = closePrice
	record.Price[key] = ApplySplits(closePrice, record.Splits, key)
}

// ApplySplits multiplies a split-adjusted price by the factor of every split
// effective on or after the given day, recovering the price per share as
// traded at the time.
func ApplySplits(price float64, splits []models.Split, dayKey string) float64 {
	result := price
	for _, split := range splits {
		if split.Factor != 0 && dayKey <= split.EffectiveDate {
			result *= split.Factor
		}
	}
	return result
}

// ApplyReciprocalSplits divides instead, mapping a price quoted in
// at-the-time shares onto the current share count.
func ApplyReciprocalSplits(price float64, splits []models.Split, dayKey string) float64 {
	result := price
	for _, split := range splits {
		if split.Factor != 0 && dayKey <= split.EffectiveDate {
			result /= split.Factor
		}
	}
	return result
}

// fillPriceGaps walks every calendar day of the range and copies the most
// recent earlier price into missing days. Days before the first known price
// stay absent.
func fillPriceGaps(record *models.TickerMarketData, from, to time.Time) {
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := models.DateKey(day)
		if _, ok := record.Price[key]; ok {
			continue
		}
		for recent := day.AddDate(0, 0, -1); !recent.Before(from); recent = recent.AddDate(0, 0, -1) {
			recentKey := models.DateKey(recent)
			if price, ok := record.Price[recentKey]; ok {
				record.Price[key] = price
				record.SplitAdjustedPrice[key] = record.SplitAdjustedPrice[recentKey]
				break
			}
		}
	}
}

// fetchExchangeRates collects the currency set present in the market data
// and resolves daily USD rates for it. Pence-quoted listings count as GBP.
func (s *Service) fetchExchangeRates(ctx context.Context, marketData models.StockMarketData, from, to time.Time) (models.ExchangeRates, error) {
	seen := map[string]bool{}
	var currencies []string
	for _, record := range marketData {
		currency := record.Currency
		if currency == "GBp" {
			currency = "GBP"
		}
		if currency == "" || currency == "USD" || seen[currency] {
			continue
		}
		seen[currency] = true
		currencies = append(currencies, currency)
	}
	if len(currencies) == 0 {
		return models.ExchangeRates{}, nil
	}

	return s.fx.GetRates(ctx, currencies, from, to)
}

// ConvertToUSD converts a price from a currency to USD using USD-quoted
// rates for the day ("USDEUR": 0.92 means 1 USD buys 0.92 EUR). London
// listings quote in pence, 100 GBp to the pound. A missing rate passes the
// price through unchanged.
func ConvertToUSD(price float64, currency string, rates map[string]float64) float64 {
	if currency == "" || currency == "USD" {
		return price
	}
	if currency == "GBp" {
		gbpPrice := price / 100
		if rate, ok := rates["USDGBP"]; ok && rate != 0 {
			return gbpPrice / rate
		}
		return gbpPrice
	}
	if rate, ok := rates["USD"+currency]; ok && rate != 0 {
		return price / rate
	}
	return price
}

func convertMarketDataToUSD(marketData models.StockMarketData, rates models.ExchangeRates) {
	for _, record := range marketData {
		if record.Currency == "" || record.Currency == "USD" {
			continue
		}
		for date, price := range record.Price {
			record.Price[date] = ConvertToUSD(price, record.Currency, rates[date])
		}
		for date, price := range record.SplitAdjustedPrice {
			record.SplitAdjustedPrice[date] = ConvertToUSD(price, record.Currency, rates[date])
		}
	}
}

// AdjustEventPrices converts event transaction prices to USD and divides
// them by later split factors so that event volume and price line up with
// the provider's split-adjusted series. Mutates the events in place.
func (s *Service) AdjustEventPrices(ctx context.Context, events *models.PortfolioEvents, marketData models.StockMarketData) error {
	rates, err := s.eventExchangeRates(ctx, events, marketData)
	if err != nil {
		return err
	}

	adjust := func(event *models.PortfolioEvent) {
		record, ok := marketData[event.StockSymbol]
		if !ok {
			return
		}
		dayKey := event.DateKey()
		dayRates := rates[dayKey]

		switch event.Type {
		case models.EventStockOpenPosition, models.EventStockOpenEvent:
			price := ConvertToUSD(event.OpenPrice, record.Currency, dayRates)
			event.OpenPrice = ApplyReciprocalSplits(price, record.Splits, dayKey)
		case models.EventStockCloseEvent:
			price := ConvertToUSD(event.ClosePrice, record.Currency, dayRates)
			event.ClosePrice = ApplyReciprocalSplits(price, record.Splits, dayKey)
		}
	}

	for i := range events.OpenPositions {
		adjust(&events.OpenPositions[i])
	}
	for i := range events.ClosedStocksOpenEvents {
		adjust(&events.ClosedStocksOpenEvents[i])
	}
	for i := range events.ClosedStocksCloseEvents {
		adjust(&events.ClosedStocksCloseEvents[i])
	}

	return nil
}

// eventExchangeRates fetches rates spanning the event dates for the
// currencies the events actually trade in.
func (s *Service) eventExchangeRates(ctx context.Context, events *models.PortfolioEvents, marketData models.StockMarketData) (models.ExchangeRates, error) {
	seen := map[string]bool{}
	var currencies []string
	var earliest, latest time.Time

	scan := func(list []models.PortfolioEvent) {
		for _, event := range list {
			if earliest.IsZero() || event.Date.Before(earliest) {
				earliest = event.Date
			}
			if event.Date.After(latest) {
				latest = event.Date
			}
			record, ok := marketData[event.StockSymbol]
			if !ok {
				continue
			}
			currency := record.Currency
			if currency == "GBp" {
				currency = "GBP"
			}
			if currency == "" || currency == "USD" || seen[currency] {
				continue
			}
			seen[currency] = true
			currencies = append(currencies, currency)
		}
	}
	scan(events.OpenPositions)
	scan(events.ClosedStocksOpenEvents)
	scan(events.ClosedStocksCloseEvents)

	if len(currencies) == 0 || earliest.IsZero() {
		return models.ExchangeRates{}, nil
	}

	return s.fx.GetRates(ctx, currencies, earliest, latest.AddDate(0, 0, 1))
}
