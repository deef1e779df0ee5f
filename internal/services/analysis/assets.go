package analysis

import (
	"github.com/bobmcallan/hindsight/internal/models"
)

// BuildAssetsAnalysis folds the stock event collections into a per-symbol
// transaction ledger, independent of the day-by-day timeline. Each record
// carries the valuation at event time: volume priced at the symbol's
// split-adjusted close for that day (zero when no price exists).
func BuildAssetsAnalysis(events models.PortfolioEvents, marketData models.StockMarketData) models.AssetsHistoricalData {
	assets := models.AssetsHistoricalData{}

	ledger := func(symbol string) *models.AssetHistory {
		if history, ok := assets[symbol]; ok {
			return history
		}
		history := &models.AssetHistory{
			OpenPositions: []models.AssetOpenRecord{},
			OpenEvents:    []models.AssetOpenRecord{},
			CloseEvents:   []models.AssetCloseRecord{},
		}
		assets[symbol] = history
		return history
	}

	valueAt := func(symbol string, dayKey string, volume float64) float64 {
		record, ok := marketData[symbol]
		if !ok || record == nil {
			return 0
		}
		if price, ok := record.SplitAdjustedPrice[dayKey]; ok {
			return price * volume
		}
		return 0
	}

	for _, event := range events.StockEvents() {
		if event.StockSymbol == "" {
			continue
		}
		history := ledger(event.StockSymbol)
		dayKey := event.DateKey()

		switch event.Type {
		case models.EventStockOpenPosition:
			history.OpenPositions = append(history.OpenPositions, models.AssetOpenRecord{
				Date:            dayKey,
				Volume:          event.StocksVolumeChange,
				StockPriceOnBuy: event.OpenPrice,
				Value:           valueAt(event.StockSymbol, dayKey, event.StocksVolumeChange),
			})
		case models.EventStockOpenEvent:
			history.OpenEvents = append(history.OpenEvents, models.AssetOpenRecord{
				Date:            dayKey,
				Volume:          event.StocksVolumeChange,
				StockPriceOnBuy: event.OpenPrice,
				Value:           valueAt(event.StockSymbol, dayKey, event.StocksVolumeChange),
			})
		case models.EventStockCloseEvent:
			history.CloseEvents = append(history.CloseEvents, models.AssetCloseRecord{
				Date:             dayKey,
				Volume:           event.StocksVolumeChange,
				StockPriceOnSell: event.ClosePrice,
				ProfitOrLoss:     event.ProfitOrLoss,
				Value:            valueAt(event.StockSymbol, dayKey, event.StocksVolumeChange),
			})
		}
	}

	return assets
}
