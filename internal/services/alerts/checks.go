// Package alerts scans holdings, budgets and recent transactions for
// anomalies and emits deduplicated notifications.
package alerts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/models"
)

// trailingDays is the daily-spend baseline window.
const trailingDays = 90

// spikeBaselineMonths is the category-spike baseline window.
const spikeBaselineMonths = 3

// concentrationAlerts flags holdings whose share of total portfolio value
// meets or exceeds the threshold.
func concentrationAlerts(holdings []*models.Holding, thresholdPct float64) []*models.Notification {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.Value())
	}
	if !total.IsPositive() {
		return nil
	}
	var out []*models.Notification
	for _, h := range holdings {
		share, _ := h.Value().Div(total).Mul(decimal.NewFromInt(100)).Float64()
		if share >= thresholdPct {
			out = append(out, &models.Notification{
				Title: fmt.Sprintf("Concentration risk: %s", h.Symbol),
				Message: fmt.Sprintf("%s is %.1f%% of your portfolio (threshold %.0f%%). Consider diversifying.",
					h.Symbol, share, thresholdPct),
				Type: models.NotifyAlert,
				Data: map[string]string{"holding_id": h.ID, "check": "concentration"},
			})
		}
	}
	return out
}

// drawdownAlerts flags holdings trading at or below −threshold% of their
// average buy price.
func drawdownAlerts(holdings []*models.Holding, thresholdPct float64) []*models.Notification {
	var out []*models.Notification
	for _, h := range holdings {
		if !h.Quantity.IsPositive() || !h.AvgBuyPrice.IsPositive() {
			continue
		}
		pct := h.UnrealizedGainPct()
		if pct <= -thresholdPct {
			out = append(out, &models.Notification{
				Title: fmt.Sprintf("Drawdown alert: %s", h.Symbol),
				Message: fmt.Sprintf("%s is down %.1f%% from your average buy price of %s.",
					h.Symbol, -pct, h.AvgBuyPrice.StringFixed(2)),
				Type: models.NotifyAlert,
				Data: map[string]string{"holding_id": h.ID, "check": "drawdown"},
			})
		}
	}
	return out
}

// budgetAlerts flags budget categories at or above the usage threshold.
func budgetAlerts(budgets []*models.BudgetStatus, thresholdPct float64) []*models.Notification {
	var out []*models.Notification
	for _, b := range budgets {
		if b.UsagePct >= thresholdPct {
			out = append(out, &models.Notification{
				Title: fmt.Sprintf("Budget alert: %s", b.Category),
				Message: fmt.Sprintf("You have used %.0f%% of your %s budget (%s of %s).",
					b.UsagePct, b.Category, b.Spent.StringFixed(0), b.Limit.StringFixed(0)),
				Type: models.NotifyAlert,
				Data: map[string]string{"budget_id": b.ID, "check": "budget_usage"},
			})
		}
	}
	return out
}

// dailySpendAlert fires when today's expense total reaches multiplier times
// the trailing-90-day average daily spend. Both values must be positive.
func dailySpendAlert(txns []*models.Transaction, now time.Time, loc *time.Location, multiplier float64) *models.Notification {
	today := decimal.Zero
	trailing := decimal.Zero
	for _, t := range txns {
		if t.Type != models.TxExpense {
			continue
		}
		switch days := common.DaysBetween(t.Date, now, loc); {
		case days == 0:
			today = today.Add(t.Amount)
		case days > 0 && days <= trailingDays:
			trailing = trailing.Add(t.Amount)
		}
	}
	avg := trailing.Div(decimal.NewFromInt(trailingDays))
	if !today.IsPositive() || !avg.IsPositive() {
		return nil
	}
	if today.LessThan(avg.Mul(decimal.NewFromFloat(multiplier))) {
		return nil
	}
	ratio, _ := today.Div(avg).Float64()
	return &models.Notification{
		Title: "Unusual daily spending",
		Message: fmt.Sprintf("Today's spending of %s is %.1f× your recent daily average of %s.",
			today.StringFixed(0), ratio, avg.StringFixed(0)),
		Type: models.NotifyAlert,
		Data: map[string]string{"check": "daily_spend"},
	}
}

// categorySpikeAlerts fires when a category's current-month spend reaches
// multiplier times its prior-3-month monthly average and the absolute
// increase clears the currency floor. The floor keeps near-zero baselines
// from flagging every small purchase.
func categorySpikeAlerts(txns []*models.Transaction, now time.Time, loc *time.Location, multiplier, floor float64) []*models.Notification {
	current := map[string]decimal.Decimal{}
	baseline := map[string]decimal.Decimal{}
	for _, t := range txns {
		if t.Type != models.TxExpense || t.Category == "" {
			continue
		}
		months := common.MonthsBetween(t.Date, now, loc)
		switch {
		case months == 0:
			current[t.Category] = current[t.Category].Add(t.Amount)
		case months >= 1 && months <= spikeBaselineMonths:
			baseline[t.Category] = baseline[t.Category].Add(t.Amount)
		}
	}

	var out []*models.Notification
	for category, spend := range current {
		avg := baseline[category].Div(decimal.NewFromInt(spikeBaselineMonths))
		if spend.LessThan(avg.Mul(decimal.NewFromFloat(multiplier))) {
			continue
		}
		if spend.Sub(avg).LessThan(decimal.NewFromFloat(floor)) {
			continue
		}
		out = append(out, &models.Notification{
			Title: fmt.Sprintf("Spending spike: %s", category),
			Message: fmt.Sprintf("This month's %s spending of %s is well above your recent monthly average of %s.",
				category, spend.StringFixed(0), avg.StringFixed(0)),
			Type: models.NotifyAlert,
			Data: map[string]string{"category": category, "check": "category_spike"},
		})
	}
	return out
}
