package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the latest observed price for a market symbol.
type Quote struct {
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency,omitempty"`
	AsOf     time.Time       `json:"as_of"`
}

// MFNav is the latest net asset value for a mutual-fund scheme.
type MFNav struct {
	SchemeCode string          `json:"scheme_code"`
	SchemeName string          `json:"scheme_name,omitempty"`
	NAV        decimal.Decimal `json:"nav"`
	Date       time.Time       `json:"date"`
}
