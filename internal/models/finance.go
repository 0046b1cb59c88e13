package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types.
const (
	AccountBank   = "bank"
	AccountCash   = "cash"
	AccountCard   = "card"
	AccountWallet = "wallet"
)

// Account is a money container for day-to-day transactions.
type Account struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
}

// Transaction types.
const (
	TxIncome   = "income"
	TxExpense  = "expense"
	TxTransfer = "transfer"
)

// Transaction is a cash movement on an account. Transfers reference a
// destination account; the balance effect on both sides is applied together.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	AccountID   string          `json:"account_id"`
	ToAccountID string          `json:"to_account_id,omitempty"` // transfers only
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Note        string          `json:"note,omitempty"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Budget is a monthly spending limit for one expense category. Spent is
// derived from transactions at read time, never stored.
type Budget struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Category  string          `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	CreatedAt time.Time       `json:"created_at"`
}

// BudgetStatus is a budget with its current-month usage attached.
type BudgetStatus struct {
	Budget
	Spent    decimal.Decimal `json:"spent"`
	UsagePct float64         `json:"usage_pct"`
}

// Goal is a savings target.
type Goal struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	SavedAmount  decimal.Decimal `json:"saved_amount"`
	TargetDate   *time.Time      `json:"target_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Subscription is a recurring outgoing payment (rent, streaming, insurance).
type Subscription struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Frequency string          `json:"frequency"` // monthly/weekly/quarterly/yearly
	NextDue   time.Time       `json:"next_due"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

// Liability is a debt obligation. Outstanding is user-maintained; no
// amortization schedule is modelled.
type Liability struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	Name         string           `json:"name"`
	Type         string           `json:"type"` // loan/emi/credit_line
	Principal    decimal.Decimal  `json:"principal"`
	Outstanding  decimal.Decimal  `json:"outstanding"`
	InterestRate float64          `json:"interest_rate"`
	EMIAmount    *decimal.Decimal `json:"emi_amount,omitempty"`
	StartDate    time.Time        `json:"start_date"`
	EndDate      *time.Time       `json:"end_date,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}
