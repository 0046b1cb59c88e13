package alerts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/models"
	"github.com/sanjaydutta/fintra/internal/services/finance"
	"github.com/sanjaydutta/fintra/internal/services/ledger"
	"github.com/sanjaydutta/fintra/internal/storage/memory"
)

type recordingNotifier struct {
	mu     sync.Mutex
	pushed []*models.Notification
}

func (n *recordingNotifier) Push(_ context.Context, notification *models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushed = append(n.pushed, notification)
}

func testAlertsConfig() common.AlertsConfig {
	return common.AlertsConfig{
		ConcentrationPct:        25,
		DrawdownPct:             8,
		BudgetUsagePct:          90,
		DailySpendMultiplier:    1.8,
		CategorySpikeMultiplier: 1.4,
		CategorySpikeFloor:      2000,
	}
}

type fixture struct {
	svc      *Service
	ledger   *ledger.Service
	finance  *finance.Service
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewDataStore()
	users := memory.NewInternalStore()
	logger := common.NewSilentLogger()
	led := ledger.NewService(store, nil, nil, logger)
	fin := finance.NewService(store, time.UTC, logger)
	notifier := &recordingNotifier{}
	require.NoError(t, users.SaveUser(context.Background(), &models.InternalUser{UserID: "u1", Email: "u1@example.com"}))
	return &fixture{
		svc:      NewService(store, users, led, fin, notifier, testAlertsConfig(), time.UTC, logger),
		ledger:   led,
		finance:  fin,
		notifier: notifier,
	}
}

func seedHolding(t *testing.T, f *fixture, symbol string, qty, avg, current int64) {
	t.Helper()
	require.NoError(t, f.ledger.CreateHolding(context.Background(), &models.Holding{
		UserID:       "u1",
		Symbol:       symbol,
		Type:         models.HoldingTypeStock,
		Quantity:     decimal.NewFromInt(qty),
		AvgBuyPrice:  decimal.NewFromInt(avg),
		CurrentPrice: decimal.NewFromInt(current),
	}))
}

func TestEvaluateConcentrationAndDrawdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2025, time.August, 20, 12, 0, 0, 0, time.UTC)

	// INFY is 80% of the portfolio and down 20% from avg
	seedHolding(t, f, "INFY", 10, 1000, 800)
	seedHolding(t, f, "TCS", 1, 1800, 2000)

	res, err := f.svc.Evaluate(ctx, "u1", now)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Deduped)

	titles := map[string]bool{}
	for _, n := range f.notifier.pushed {
		titles[n.Title] = true
	}
	assert.True(t, titles["Concentration risk: INFY"])
	assert.True(t, titles["Drawdown alert: INFY"])
}

func TestEvaluateDedupsWithinDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2025, time.August, 20, 9, 0, 0, 0, time.UTC)

	seedHolding(t, f, "INFY", 10, 1000, 800)

	first, err := f.svc.Evaluate(ctx, "u1", now)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	// same day: everything dedups
	second, err := f.svc.Evaluate(ctx, "u1", now.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Deduped)

	// next day: alerts fire again
	third, err := f.svc.Evaluate(ctx, "u1", now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, third.Created)
}

func TestEvaluateBudgetUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2025, time.August, 20, 12, 0, 0, 0, time.UTC)

	a := &models.Account{UserID: "u1", Name: "Checking", Type: models.AccountBank}
	require.NoError(t, f.finance.CreateAccount(ctx, a))
	require.NoError(t, f.finance.CreateBudget(ctx, &models.Budget{
		UserID: "u1", Category: "groceries", Limit: decimal.NewFromInt(10000),
	}))
	require.NoError(t, f.finance.CreateTransaction(ctx, &models.Transaction{
		UserID: "u1", AccountID: a.ID, Type: models.TxExpense,
		Category: "groceries", Amount: decimal.NewFromInt(9500),
		Date: now.AddDate(0, 0, -2),
	}))

	res, err := f.svc.Evaluate(ctx, "u1", now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, "Budget alert: groceries", f.notifier.pushed[0].Title)
}

func TestDailySpendAlert(t *testing.T) {
	now := time.Date(2025, time.August, 20, 18, 0, 0, 0, time.UTC)
	var txns []*models.Transaction
	// 90 days of 1000/day baseline
	for i := 1; i <= 90; i++ {
		txns = append(txns, &models.Transaction{
			Type: models.TxExpense, Amount: decimal.NewFromInt(1000),
			Date: now.AddDate(0, 0, -i),
		})
	}

	// today at 1.7×: below the multiplier
	below := append(txns, &models.Transaction{
		Type: models.TxExpense, Amount: decimal.NewFromInt(1700), Date: now,
	})
	assert.Nil(t, dailySpendAlert(below, now, time.UTC, 1.8))

	// today at 2×: fires
	above := append(txns, &models.Transaction{
		Type: models.TxExpense, Amount: decimal.NewFromInt(2000), Date: now,
	})
	got := dailySpendAlert(above, now, time.UTC, 1.8)
	require.NotNil(t, got)
	assert.Equal(t, "Unusual daily spending", got.Title)

	// no baseline: never fires
	onlyToday := []*models.Transaction{{
		Type: models.TxExpense, Amount: decimal.NewFromInt(5000), Date: now,
	}}
	assert.Nil(t, dailySpendAlert(onlyToday, now, time.UTC, 1.8))
}

func TestCategorySpikeAlert(t *testing.T) {
	now := time.Date(2025, time.August, 20, 12, 0, 0, 0, time.UTC)
	baseline := func(category string, perMonth int64) []*models.Transaction {
		var txns []*models.Transaction
		for m := 1; m <= 3; m++ {
			txns = append(txns, &models.Transaction{
				Type: models.TxExpense, Category: category,
				Amount: decimal.NewFromInt(perMonth),
				Date:   now.AddDate(0, -m, 0),
			})
		}
		return txns
	}

	// 5000/month baseline, 10000 this month: 2× and +5000 over floor
	txns := append(baseline("dining", 5000), &models.Transaction{
		Type: models.TxExpense, Category: "dining",
		Amount: decimal.NewFromInt(10000), Date: now,
	})
	got := categorySpikeAlerts(txns, now, time.UTC, 1.4, 2000)
	require.Len(t, got, 1)
	assert.Equal(t, "Spending spike: dining", got[0].Title)

	// ratio met but absolute increase under the floor: silent
	small := append(baseline("coffee", 500), &models.Transaction{
		Type: models.TxExpense, Category: "coffee",
		Amount: decimal.NewFromInt(1000), Date: now,
	})
	assert.Empty(t, categorySpikeAlerts(small, now, time.UTC, 1.4, 2000))

	// below the multiplier: silent
	flat := append(baseline("rent", 20000), &models.Transaction{
		Type: models.TxExpense, Category: "rent",
		Amount: decimal.NewFromInt(21000), Date: now,
	})
	assert.Empty(t, categorySpikeAlerts(flat, now, time.UTC, 1.4, 2000))
}

func TestEvaluateAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2025, time.August, 20, 12, 0, 0, 0, time.UTC)

	seedHolding(t, f, "INFY", 10, 1000, 800)

	res, err := f.svc.EvaluateAll(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
}
