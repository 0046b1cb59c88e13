// Package models defines the domain entities for Fintra.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding types.
const (
	HoldingTypeStock      = "stock"
	HoldingTypeETF        = "etf"
	HoldingTypeMutualFund = "mutual_fund"
	HoldingTypeCrypto     = "crypto"
)

// ValidHoldingType reports whether t is a recognised holding type.
func ValidHoldingType(t string) bool {
	switch t {
	case HoldingTypeStock, HoldingTypeETF, HoldingTypeMutualFund, HoldingTypeCrypto:
		return true
	}
	return false
}

// Holding is a position in a tradable instrument. Quantity and AvgBuyPrice
// are derived from the transaction ledger whenever ledger entries exist and
// must never be edited directly once they do.
type Holding struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	SchemeCode   string          `json:"scheme_code,omitempty"` // mutual funds only
	Quantity     decimal.Decimal `json:"quantity"`
	AvgBuyPrice  decimal.Decimal `json:"avg_buy_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	RealizedGain decimal.Decimal `json:"realized_gain"`
	LastUpdated  time.Time       `json:"last_updated"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Value returns quantity × current price.
func (h *Holding) Value() decimal.Decimal {
	return h.Quantity.Mul(h.CurrentPrice)
}

// CostBasis returns quantity × average buy price.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AvgBuyPrice)
}

// UnrealizedGainPct returns (current − avg) / avg × 100, or 0 when the
// average price is zero.
func (h *Holding) UnrealizedGainPct() float64 {
	if h.AvgBuyPrice.IsZero() {
		return 0
	}
	pct, _ := h.CurrentPrice.Sub(h.AvgBuyPrice).
		Div(h.AvgBuyPrice).
		Mul(decimal.NewFromInt(100)).
		Float64()
	return pct
}
