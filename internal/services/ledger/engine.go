// Package ledger manages investment holdings and their transaction ledgers.
//
// Holding valuation uses the weighted-average cost method. FIFO lot matching
// exists only in the tax center, which serves a different goal (statutory tax
// bucketing); the two are deliberately independent algorithms.
package ledger

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sanjaydutta/fintra/internal/models"
)

// ErrOversold is returned when a sell would drive the held quantity negative.
// The mutation is rejected before any state is written.
var ErrOversold = errors.New("sell quantity exceeds held quantity")

// ErrMissingQuantity is returned when a buy or sell entry carries no usable
// quantity.
var ErrMissingQuantity = errors.New("buy/sell entry requires a positive quantity")

// Recompute replays the full ledger for one holding in chronological order
// and returns the derived aggregate state. It is pure: callers overwrite the
// holding's cached fields with the result in the same logical step as the
// ledger mutation, so the cache never drifts.
func Recompute(entries []*models.InvestmentTransaction) (models.LedgerState, error) {
	sorted := make([]*models.InvestmentTransaction, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var state models.LedgerState
	qty := decimal.Zero
	avg := decimal.Zero

	for _, e := range sorted {
		switch e.Type {
		case models.TxnBuy, models.TxnSIP:
			q, price, err := unitsAndPrice(e)
			if err != nil {
				return models.LedgerState{}, err
			}
			newQty := qty.Add(q)
			if newQty.IsPositive() {
				// weighted-average cost; zero denominator keeps prior avg
				avg = qty.Mul(avg).Add(q.Mul(price)).Div(newQty)
			}
			qty = newQty
			state.Invested = state.Invested.Add(e.Amount)

		case models.TxnSell:
			q, price, err := unitsAndPrice(e)
			if err != nil {
				return models.LedgerState{}, err
			}
			if q.GreaterThan(qty) {
				return models.LedgerState{}, ErrOversold
			}
			state.RealizedGain = state.RealizedGain.Add(q.Mul(price.Sub(avg)))
			qty = qty.Sub(q) // avg unchanged under weighted-average
			state.Returned = state.Returned.Add(e.Amount)

		case models.TxnDividend:
			state.Returned = state.Returned.Add(e.Amount)

		case models.TxnFee:
			state.FeesPaid = state.FeesPaid.Add(e.Amount)
		}

		state.FeesPaid = state.FeesPaid.Add(e.Fees)
	}

	state.Quantity = qty
	state.AvgBuyPrice = avg
	return state, nil
}

// unitsAndPrice resolves the unit count and per-unit price for a quantity-
// bearing entry. Quantity comes from the entry; price falls back to
// amount/quantity when absent.
func unitsAndPrice(e *models.InvestmentTransaction) (decimal.Decimal, decimal.Decimal, error) {
	if e.Quantity == nil || !e.Quantity.IsPositive() {
		return decimal.Zero, decimal.Zero, ErrMissingQuantity
	}
	q := *e.Quantity
	if e.Price != nil && e.Price.IsPositive() {
		return q, *e.Price, nil
	}
	return q, e.Amount.Div(q), nil
}
