// Package interfaces defines client, service and storage contracts for Fintra.
package interfaces

import (
	"context"

	"github.com/sanjaydutta/fintra/internal/models"
)

// MarketDataClient fetches current prices for market symbols.
// Unknown symbols return (nil, nil) — never an error.
type MarketDataClient interface {
	// GetQuote returns the latest quote for a symbol, or nil if unknown.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetQuotes returns quotes for multiple symbols. Missing symbols are
	// absent from the result map.
	GetQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error)
}

// MFNavClient fetches mutual-fund net asset values.
// Unknown scheme codes return (nil, nil) — never an error.
type MFNavClient interface {
	// GetLatestNav returns the most recent NAV for a scheme, or nil if unknown.
	GetLatestNav(ctx context.Context, schemeCode string) (*models.MFNav, error)
}

// GenAIClient generates natural-language text. Failures are non-fatal to
// callers: every consumer carries a static fallback.
type GenAIClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Close() error
}

// Notifier delivers push notifications. Fire-and-forget: errors are logged
// by implementations, never surfaced to the evaluation path.
type Notifier interface {
	Push(ctx context.Context, n *models.Notification)
}
