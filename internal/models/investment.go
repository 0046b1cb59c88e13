package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Investment transaction (ledger entry) types.
const (
	TxnBuy      = "buy"
	TxnSell     = "sell"
	TxnSIP      = "sip"
	TxnDividend = "dividend"
	TxnFee      = "fee"
)

// ValidTxnType reports whether t is a recognised ledger entry type.
func ValidTxnType(t string) bool {
	switch t {
	case TxnBuy, TxnSell, TxnSIP, TxnDividend, TxnFee:
		return true
	}
	return false
}

// InvestmentTransaction is one ledger event against a holding. Amount is
// always present: for buy/sip it is capital in, for sell/dividend capital
// out, for fee a pure cost. Immutable once created; deleting one triggers a
// full ledger recompute for the holding.
type InvestmentTransaction struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	HoldingID string           `json:"holding_id"`
	Type      string           `json:"type"`
	Quantity  *decimal.Decimal `json:"quantity,omitempty"` // required for buy/sell
	Price     *decimal.Decimal `json:"price,omitempty"`
	Amount    decimal.Decimal  `json:"amount"`
	Fees      decimal.Decimal  `json:"fees"`
	Taxes     decimal.Decimal  `json:"taxes"`
	Note      string           `json:"note,omitempty"`
	Date      time.Time        `json:"date"`
	CreatedAt time.Time        `json:"created_at"`
}

// AddsUnits reports whether this entry type credits units to the holding.
func (t *InvestmentTransaction) AddsUnits() bool {
	return t.Type == TxnBuy || t.Type == TxnSIP
}

// LedgerState is the derived aggregate for one holding after replaying its
// ledger: cached on the Holding, never authoritative on its own.
type LedgerState struct {
	Quantity     decimal.Decimal `json:"quantity"`
	AvgBuyPrice  decimal.Decimal `json:"avg_buy_price"`
	RealizedGain decimal.Decimal `json:"realized_gain"`
	Invested     decimal.Decimal `json:"invested"`
	Returned     decimal.Decimal `json:"returned"`
	FeesPaid     decimal.Decimal `json:"fees_paid"`
}
