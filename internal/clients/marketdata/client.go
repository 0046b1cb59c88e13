// Package marketdata provides a client for the stock quote provider API.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

const (
	DefaultBaseURL   = "https://api.twelvedata.com"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 8 // requests per second
)

// Client implements the MarketDataClient interface.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

var _ interfaces.MarketDataClient = (*Client)(nil)

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
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

// NewClient creates a new market data client
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

// APIError represents a quote provider error response.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market data API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// quoteResponse mirrors the provider's quote payload. The provider signals
// an unknown symbol with code 404 in the body, not the HTTP status.
type quoteResponse struct {
	Symbol   string          `json:"symbol"`
	Close    decimal.Decimal `json:"close"`
	Currency string          `json:"currency"`
	Code     int             `json:"code,omitempty"`
}

// GetQuote returns the latest quote for a symbol, or nil for an unknown one.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var qr quoteResponse
	if err := c.get(ctx, "/quote", params, &qr); err != nil {
		return nil, err
	}
	if qr.Code == http.StatusNotFound || qr.Symbol == "" {
		c.logger.Debug().Str("symbol", symbol).Msg("Unknown symbol")
		return nil, nil
	}
	return &models.Quote{
		Symbol:   symbol,
		Price:    qr.Close,
		Currency: qr.Currency,
		AsOf:     time.Now().UTC(),
	}, nil
}

// GetQuotes returns quotes for multiple symbols. Unknown symbols are absent
// from the result map.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error) {
	out := make(map[string]*models.Quote, len(symbols))
	for _, symbol := range symbols {
		quote, err := c.GetQuote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if quote != nil {
			out[symbol] = quote
		}
	}
	return out, nil
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Market data API request")

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
