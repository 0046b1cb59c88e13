// Package rebalance computes allocation drift against a target mix and
// advisory trade suggestions. It never produces trades.
package rebalance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sanjaydutta/fintra/internal/models"
)

// NormalizeTargets scales arbitrary positive weights so they sum to 100.
// Negative weights are clamped to zero first. An empty or all-zero input
// falls back to defaults.
func NormalizeTargets(input, defaults map[string]float64) map[string]float64 {
	sum := 0.0
	clamped := map[string]float64{}
	for k, w := range input {
		if w < 0 {
			w = 0
		}
		clamped[k] = w
		sum += w
	}
	if sum <= 0 {
		clamped = map[string]float64{}
		for k, w := range defaults {
			clamped[k] = w
			sum += w
		}
		if sum <= 0 {
			return map[string]float64{}
		}
	}
	out := make(map[string]float64, len(clamped))
	for k, w := range clamped {
		out[k] = w / sum * 100
	}
	return out
}

// BuildPlan computes drift and suggestions for a snapshot of holdings
// against normalized target weights. Pure computation.
func BuildPlan(holdings []*models.Holding, targets map[string]float64) *models.RebalancePlan {
	plan := &models.RebalancePlan{
		Targets:     targets,
		Types:       []models.TypeDrift{},
		Suggestions: []models.SymbolSuggestion{},
	}

	typeValues := map[string]decimal.Decimal{}
	for _, h := range holdings {
		v := h.Value()
		typeValues[h.Type] = typeValues[h.Type].Add(v)
		plan.TotalValue = plan.TotalValue.Add(v)
	}

	types := map[string]bool{}
	for t := range targets {
		types[t] = true
	}
	for t := range typeValues {
		types[t] = true
	}
	names := make([]string, 0, len(types))
	for t := range types {
		names = append(names, t)
	}
	sort.Strings(names)

	for _, name := range names {
		current := typeValues[name]
		weight := 0.0
		if plan.TotalValue.IsPositive() {
			weight, _ = current.Div(plan.TotalValue).Mul(decimal.NewFromInt(100)).Float64()
		}
		targetWeight := targets[name]
		targetValue := plan.TotalValue.Mul(decimal.NewFromFloat(targetWeight)).
			Div(decimal.NewFromInt(100))
		adjustment := targetValue.Sub(current)

		drift := models.TypeDrift{
			Type:            name,
			CurrentValue:    current,
			CurrentWeight:   weight,
			TargetWeight:    targetWeight,
			TargetValue:     targetValue,
			AdjustmentValue: adjustment,
			Action:          actionFor(adjustment),
		}
		plan.Types = append(plan.Types, drift)

		if adjustment.IsZero() || !current.IsPositive() {
			// an empty type has no member symbols to distribute across
			continue
		}
		for _, h := range holdings {
			if h.Type != name || !h.Value().IsPositive() {
				continue
			}
			share := h.Value().Div(current)
			symbolAdj := share.Mul(adjustment)
			units := decimal.Zero
			if h.CurrentPrice.IsPositive() {
				units = symbolAdj.Div(h.CurrentPrice)
			}
			plan.Suggestions = append(plan.Suggestions, models.SymbolSuggestion{
				Symbol:          h.Symbol,
				Type:            name,
				CurrentValue:    h.Value(),
				CurrentPrice:    h.CurrentPrice,
				AdjustmentValue: symbolAdj,
				Units:           units,
				Action:          actionFor(symbolAdj),
			})
		}
	}
	return plan
}

func actionFor(adjustment decimal.Decimal) string {
	switch {
	case adjustment.IsPositive():
		return models.ActionBuy
	case adjustment.IsNegative():
		return models.ActionReduce
	}
	return models.ActionHold
}
