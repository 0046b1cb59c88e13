package models

import "github.com/shopspring/decimal"

// Rebalance actions.
const (
	ActionBuy    = "buy"
	ActionReduce = "reduce"
	ActionHold   = "hold"
)

// TypeDrift is the per-holding-type allocation drift.
type TypeDrift struct {
	Type            string          `json:"type"`
	CurrentValue    decimal.Decimal `json:"current_value"`
	CurrentWeight   float64         `json:"current_weight"`
	TargetWeight    float64         `json:"target_weight"`
	TargetValue     decimal.Decimal `json:"target_value"`
	AdjustmentValue decimal.Decimal `json:"adjustment_value"`
	Action          string          `json:"action"`
}

// SymbolSuggestion distributes a type's adjustment across its member symbols
// proportionally to each symbol's share of the type's current value.
type SymbolSuggestion struct {
	Symbol          string          `json:"symbol"`
	Type            string          `json:"type"`
	CurrentValue    decimal.Decimal `json:"current_value"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	AdjustmentValue decimal.Decimal `json:"adjustment_value"`
	Units           decimal.Decimal `json:"units"`
	Action          string          `json:"action"`
}

// RebalancePlan is the advisory output of the rebalance engine. It produces
// no trades.
type RebalancePlan struct {
	TotalValue  decimal.Decimal    `json:"total_value"`
	Targets     map[string]float64 `json:"targets"` // normalized to sum 100
	Types       []TypeDrift        `json:"types"`
	Suggestions []SymbolSuggestion `json:"suggestions"`
}
