package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SIP statuses. Transitions are one-directional toward closed/migrated,
// except active ↔ paused.
const (
	SIPActive   = "active"
	SIPPaused   = "paused"
	SIPClosed   = "closed"
	SIPMigrated = "migrated"
)

// SIP frequencies.
const (
	FreqMonthly   = "monthly"
	FreqWeekly    = "weekly"
	FreqQuarterly = "quarterly"
)

// ValidSIPFrequency reports whether f is a recognised SIP frequency.
func ValidSIPFrequency(f string) bool {
	switch f {
	case FreqMonthly, FreqWeekly, FreqQuarterly:
		return true
	}
	return false
}

// SIP pricing sources. Exactly one of Symbol (market) or SchemeCode (mf_nav)
// identifies the instrument.
const (
	PricingMarket = "market"
	PricingMFNav  = "mf_nav"
)

// SIP is a systematic investment plan: a recurring fixed-amount purchase
// instruction advanced by the scheduler. TotalInvested, Units and
// CurrentValue must always equal the recomputed sum over paid installments.
type SIP struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	FundName      string          `json:"fund_name"`
	PricingSource string          `json:"pricing_source"` // "market" or "mf_nav"
	Symbol        string          `json:"symbol,omitempty"`
	SchemeCode    string          `json:"scheme_code,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Frequency     string          `json:"frequency"`
	AnchorDay     int             `json:"anchor_day"` // day-of-month, clamped to month length
	StartDate     time.Time       `json:"start_date"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	Units         decimal.Decimal `json:"units"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	LastPrice     decimal.Decimal `json:"last_price"`
	LastDebitDate *time.Time      `json:"last_debit_date,omitempty"`
	LastUpdated   time.Time       `json:"last_updated"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CanTransition reports whether the status change from → to is allowed.
func CanTransition(from, to string) bool {
	switch from {
	case SIPActive:
		return to == SIPPaused || to == SIPClosed || to == SIPMigrated
	case SIPPaused:
		return to == SIPActive || to == SIPClosed || to == SIPMigrated
	default: // closed/migrated are terminal
		return false
	}
}

// SIP installment statuses.
const (
	InstallmentDue     = "due"
	InstallmentPaid    = "paid"
	InstallmentSkipped = "skipped"
	InstallmentMissed  = "missed"
)

// SIPInstallment is one scheduled or manual contribution record.
// Units = Amount / NavOrPrice when both are known and units were not
// supplied explicitly.
type SIPInstallment struct {
	ID         string          `json:"id"`
	SIPID      string          `json:"sip_id"`
	UserID     string          `json:"user_id"`
	DueDate    time.Time       `json:"due_date"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	NavOrPrice decimal.Decimal `json:"nav_or_price"`
	Units      decimal.Decimal `json:"units"`
	Manual     bool            `json:"manual"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SIPTickResult summarises one scheduler batch run.
type SIPTickResult struct {
	Scanned        int       `json:"scanned"`
	Posted         int       `json:"posted"`
	MissingMapping int       `json:"skipped_missing_mapping"`
	Unavailable    int       `json:"skipped_source_unavailable"`
	InvalidPrice   int       `json:"skipped_invalid_price"`
	RanAt          time.Time `json:"ran_at"`
}
