// Package mfapi provides a client for the mfapi.in mutual-fund NAV API.
package mfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

const (
	DefaultBaseURL   = "https://api.mfapi.in"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 4 // requests per second
)

// navDateFormat is the provider's date layout.
const navDateFormat = "02-01-2006"

// Client implements the MFNavClient interface.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

var _ interfaces.MFNavClient = (*Client)(nil)

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

// NewClient creates a new NAV client
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

// schemeResponse mirrors the provider's latest-NAV payload.
type schemeResponse struct {
	Meta struct {
		SchemeCode json.Number `json:"scheme_code"`
		SchemeName string      `json:"scheme_name"`
	} `json:"meta"`
	Data []struct {
		Date string `json:"date"`
		NAV  string `json:"nav"`
	} `json:"data"`
	Status string `json:"status"`
}

// GetLatestNav returns the most recent NAV for a scheme, or nil for an
// unknown scheme code.
func (c *Client) GetLatestNav(ctx context.Context, schemeCode string) (*models.MFNav, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/mf/%s/latest", c.baseURL, schemeCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("scheme", schemeCode).Msg("NAV API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	// the provider answers unknown schemes with 404 or an empty data set
	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug().Str("scheme", schemeCode).Msg("Unknown scheme code")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("NAV API error: %s (status: %d)", string(body), resp.StatusCode)
	}

	var sr schemeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(sr.Data) == 0 {
		return nil, nil
	}

	nav, err := decimal.NewFromString(sr.Data[0].NAV)
	if err != nil {
		return nil, fmt.Errorf("invalid NAV %q for scheme %s: %w", sr.Data[0].NAV, schemeCode, err)
	}
	date, err := time.Parse(navDateFormat, sr.Data[0].Date)
	if err != nil {
		date = time.Now().UTC()
	}

	return &models.MFNav{
		SchemeCode: schemeCode,
		SchemeName: sr.Meta.SchemeName,
		NAV:        nav,
		Date:       date,
	}, nil
}
