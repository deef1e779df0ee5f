// Package currencylayer provides a client for the currencylayer exchange-rate API
package currencylayer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/hindsight/internal/common"
	"github.com/bobmcallan/hindsight/internal/models"
)

const (
	DefaultBaseURL   = "https://apilayer.net"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 1 // requests per second, the free tier is strict

	// maxWindowDays is the largest range the timeframe endpoint accepts
	// per request; longer ranges are fetched in chunks.
	maxWindowDays = 365
)

// Client implements the FXClient interface
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates a new currencylayer client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
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
	return fmt.Sprintf("currencylayer API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// timeframeResponse mirrors the /timeframe payload
type timeframeResponse struct {
	Success bool                          `json:"success"`
	Quotes  map[string]map[string]float64 `json:"quotes"`
	Error   *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// GetRates retrieves daily USD-quoted rates for a set of currency codes over
// a date range, chunked into windows the timeframe endpoint accepts.
func (c *Client) GetRates(ctx context.Context, currencies []string, from, to time.Time) (models.ExchangeRates, error) {
	filtered := make([]string, 0, len(currencies))
	for _, cur := range currencies {
		if cur != "" && cur != "USD" {
			filtered = append(filtered, cur)
		}
	}
	if len(filtered) == 0 {
		return models.ExchangeRates{}, nil
	}

	rates := models.ExchangeRates{}

	for chunkStart := from; chunkStart.Before(to); chunkStart = chunkStart.AddDate(0, 0, maxWindowDays) {
		chunkEnd := chunkStart.AddDate(0, 0, maxWindowDays)
		if chunkEnd.After(to) {
			chunkEnd = to
		}

		quotes, err := c.getTimeframe(ctx, filtered, chunkStart, chunkEnd)
		if err != nil {
			return nil, err
		}
		for date, pairs := range quotes {
			rates[date] = pairs
		}
	}

	c.logger.Debug().
		Int("currencies", len(filtered)).
		Int("days", len(rates)).
		Msg("Exchange rates fetched")

	return rates, nil
}

func (c *Client) getTimeframe(ctx context.Context, currencies []string, from, to time.Time) (map[string]map[string]float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("start_date", from.Format("2006-01-02"))
	params.Set("end_date", to.Format("2006-01-02"))
	params.Set("access_key", c.apiKey)
	params.Set("currencies", strings.Join(currencies, ","))

	path := "/timeframe"
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().
		Str("from", from.Format("2006-01-02")).
		Str("to", to.Format("2006-01-02")).
		Msg("currencylayer timeframe request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	var tf timeframeResponse
	if err := json.NewDecoder(resp.Body).Decode(&tf); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !tf.Success {
		msg := "timeframe request unsuccessful"
		if tf.Error != nil {
			msg = fmt.Sprintf("%s (code %d)", tf.Error.Info, tf.Error.Code)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, Endpoint: path}
	}

	return tf.Quotes, nil
}
