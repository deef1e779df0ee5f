package app_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/hindsight/internal/app"
	"github.com/bobmcallan/hindsight/internal/models"
	"github.com/bobmcallan/hindsight/internal/server"
)

// flatPrices is the per-symbol flat close served by the fake chart provider.
var flatPrices = map[string]float64{
	"X":     50,
	"^GSPC": 100,
}

// fakeYahoo serves a minimal chart payload with one flat-priced daily bar
// for every day in the requested range.
func fakeYahoo(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		symbol := parts[len(parts)-1]

		price, ok := flatPrices[symbol]
		if !ok {
			price = 10
		}

		from, _ := strconv.ParseInt(r.URL.Query().Get("period1"), 10, 64)
		to, _ := strconv.ParseInt(r.URL.Query().Get("period2"), 10, 64)

		var timestamps []int64
		var closes []float64
		for ts := from; ts <= to; ts += 86400 {
			timestamps = append(timestamps, ts)
			closes = append(closes, price)
		}

		payload := map[string]interface{}{
			"chart": map[string]interface{}{
				"result": []map[string]interface{}{
					{
						"meta": map[string]interface{}{
							"currency": "USD",
							"symbol":   symbol,
						},
						"timestamp": timestamps,
						"indicators": map[string]interface{}{
							"quote": []map[string]interface{}{
								{"close": closes},
							},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(payload)
	}))
}

func newIntegrationServer(t *testing.T) *server.Server {
	t.Helper()

	yahooBackend := fakeYahoo(t)
	t.Cleanup(yahooBackend.Close)

	configPath := filepath.Join(t.TempDir(), "hindsight.toml")
	config := fmt.Sprintf(`
[cache]
path = %q

[clients.yahoo]
base_url = %q
rate_limit = 100

[logging]
level = "error"
`, t.TempDir(), yahooBackend.URL)
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0644))

	a, err := app.NewApp(configPath)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return server.NewServer(a)
}

func TestAnalyzeEndToEnd(t *testing.T) {
	srv := newIntegrationServer(t)

	deposit := 1000.0
	events := models.PortfolioEvents{
		CashEvents: []models.PortfolioEvent{
			{Type: models.EventCash, Date: day("2024-03-01"), CashChange: 1000, CashWithdrawalOrDeposit: &deposit},
			{Type: models.EventCash, Date: day("2024-03-02"), CashChange: -500},
		},
		OpenPositions: []models.PortfolioEvent{
			{Type: models.EventStockOpenPosition, Date: day("2024-03-02"), StockSymbol: "X", StocksVolumeChange: 10, OpenPrice: 50},
		},
	}
	payload, err := json.Marshal(events)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/analyze", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var analysis models.PortfolioAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))

	// Timeline runs from the first event through yesterday
	require.NotEmpty(t, analysis.PortfolioTimeline)
	assert.Equal(t, "2024-03-01", analysis.PortfolioTimeline[0].Date)

	first := analysis.PortfolioTimeline[0]
	assert.InDelta(t, 1000, first.PortfolioValue, 1e-9)
	assert.InDelta(t, 1000, first.Cash, 1e-9)

	// Flat prices: value never moves after the buy
	last := analysis.PortfolioTimeline[len(analysis.PortfolioTimeline)-1]
	assert.InDelta(t, 1000, last.PortfolioValue, 1e-9)
	assert.InDelta(t, 500, last.Cash, 1e-9)
	assert.InDelta(t, 1000, last.TotalCapitalInvested, 1e-9)

	// Benchmark shadow bought on the deposit day at 100/share
	assert.InDelta(t, 10, last.BenchmarkStock.Volume, 1e-9)

	assert.Len(t, analysis.CashFlow, 1)
	assert.Len(t, analysis.AssetsAnalysis, 1)
	assert.Len(t, analysis.Returns, 3)
}

func TestChartEndToEnd(t *testing.T) {
	srv := newIntegrationServer(t)

	deposit := 1000.0
	events := models.PortfolioEvents{
		CashEvents: []models.PortfolioEvent{
			{Type: models.EventCash, Date: day("2024-03-01"), CashChange: 1000, CashWithdrawalOrDeposit: &deposit},
		},
	}
	payload, err := json.Marshal(events)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/chart", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func day(key string) time.Time {
	d, _ := time.Parse("2006-01-02", key)
	return d
}
