package models

import "time"

// Record subjects for the generic domain-data store.
const (
	SubjectHolding       = "holding"
	SubjectInvestmentTxn = "investment_txn"
	SubjectSIP           = "sip"
	SubjectInstallment   = "sip_installment"
	SubjectAccount       = "account"
	SubjectTransaction   = "transaction"
	SubjectBudget        = "budget"
	SubjectGoal          = "goal"
	SubjectSubscription  = "subscription"
	SubjectLiability     = "liability"
	SubjectNotification  = "notification"
	SubjectQuote         = "quote"
)

// Record is a generic document for all user domain data: one JSON-encoded
// entity per (user, subject, key). Typed stores wrap this with marshalling.
type Record struct {
	UserID   string    `json:"user_id"`
	Subject  string    `json:"subject"`
	Key      string    `json:"key"`
	Value    string    `json:"value"`
	Version  int       `json:"version"`
	DateTime time.Time `json:"datetime"`
}
