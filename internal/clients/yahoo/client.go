// Package yahoo provides a client for the Yahoo Finance chart API
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/hindsight/internal/common"
	"github.com/bobmcallan/hindsight/internal/interfaces"
	"github.com/bobmcallan/hindsight/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
)

// Client implements the ChartClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Yahoo chart API client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// APISymbol maps a broker-style symbol to the Yahoo ticker. Statement
// symbols carry broker exchange suffixes (".UK", ".NL", ".US") and a few
// commodity/index aliases that Yahoo names differently.
func APISymbol(symbol string) string {
	switch symbol {
	case "OIL":
		return "CL=F" // WTI crude oil futures
	case "GOLD":
		return "GC=F" // gold futures
	case "US100":
		return "^NDX"
	}
	return strings.Split(symbol, ".")[0] + suffix(symbol)
}

func suffix(symbol string) string {
	if strings.HasSuffix(symbol, ".UK") {
		return ".L"
	}
	if strings.HasSuffix(symbol, ".NL") {
		return ".AS"
	}
	if strings.HasSuffix(symbol, ".US") {
		return ""
	}
	if idx := strings.LastIndex(symbol, "."); idx >= 0 {
		return symbol[idx:]
	}
	return ""
}

// chartResponse mirrors the /v8/finance/chart payload
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				InstrumentType     string  `json:"instrumentType"`
				LongName           string  `json:"longName"`
				ShortName          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp []int64 `json:"timestamp"`
			Events    struct {
				Splits map[string]chartSplit `json:"splits"`
			} `json:"events"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetPriceHistory retrieves the daily close series, split schedule and
// instrument metadata for a symbol over a date range.
func (c *Client) GetPriceHistory(ctx context.Context, symbol string, opts ...interfaces.HistoryOption) (*models.PriceHistory, error) {
	params := &interfaces.HistoryParams{
		Interval: "1d",
	}
	for _, opt := range opts {
		opt(params)
	}

	urlParams := url.Values{}
	urlParams.Set("interval", params.Interval)
	urlParams.Set("events", "splits")
	if !params.From.IsZero() {
		urlParams.Set("period1", strconv.FormatInt(params.From.Unix(), 10))
	}
	if !params.To.IsZero() {
		urlParams.Set("period2", strconv.FormatInt(params.To.Unix(), 10))
	}

	path := fmt.Sprintf("/v8/finance/chart/%s", url.PathEscape(APISymbol(symbol)))

	var resp chartResponse
	if err := c.get(ctx, path, urlParams, &resp); err != nil {
		return nil, err
	}

	if resp.Chart.Error != nil {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("%s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description),
			Endpoint:   path,
		}
	}
	if len(resp.Chart.Result) == 0 {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "empty chart result", Endpoint: path}
	}

	result := resp.Chart.Result[0]

	history := &models.PriceHistory{
		Symbol:         symbol,
		Currency:       result.Meta.Currency,
		LongName:       result.Meta.LongName,
		InstrumentType: result.Meta.InstrumentType,
		Splits:         parseSplits(result.Events.Splits),
		CurrentPrice:   result.Meta.RegularMarketPrice,
	}
	if history.LongName == "" {
		history.LongName = result.Meta.ShortName
	}
	if history.LongName == "" {
		history.LongName = symbol
	}
	if result.Meta.RegularMarketTime > 0 {
		history.CurrentTime = time.Unix(result.Meta.RegularMarketTime, 0).UTC()
	}

	var closes []*float64
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // market holiday or null bar
		}
		history.Bars = append(history.Bars, models.DailyClose{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}

	c.logger.Debug().
		Str("symbol", symbol).
		Int("bars", len(history.Bars)).
		Int("splits", len(history.Splits)).
		Str("currency", history.Currency).
		Msg("Price history fetched")

	return history, nil
}

// chartSplit is one split event in the chart payload
type chartSplit struct {
	Date        int64   `json:"date"`
	Numerator   float64 `json:"numerator"`
	Denominator float64 `json:"denominator"`
}

// parseSplits converts the chart event map to a date-sorted split schedule.
func parseSplits(raw map[string]chartSplit) []models.Split {
	splits := make([]models.Split, 0, len(raw))
	for _, s := range raw {
		if s.Denominator == 0 {
			continue
		}
		splits = append(splits, models.Split{
			EffectiveDate: time.Unix(s.Date, 0).UTC().Format("2006-01-02"),
			Factor:        s.Numerator / s.Denominator,
		})
	}
	sort.Slice(splits, func(i, j int) bool {
		return splits[i].EffectiveDate < splits[j].EffectiveDate
	})
	return splits
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
