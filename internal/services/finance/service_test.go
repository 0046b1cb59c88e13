package finance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
	"github.com/sanjaydutta/fintra/internal/storage/memory"
)

func newTestService() *Service {
	return NewService(memory.NewDataStore(), time.UTC, common.NewSilentLogger())
}

func seedAccount(t *testing.T, svc *Service, name string, balance int64) *models.Account {
	t.Helper()
	a := &models.Account{
		UserID:  "u1",
		Name:    name,
		Type:    models.AccountBank,
		Balance: decimal.NewFromInt(balance),
	}
	require.NoError(t, svc.CreateAccount(context.Background(), a))
	return a
}

func expense(t *testing.T, svc *Service, accountID, category string, amount int64, date time.Time) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		UserID:    "u1",
		AccountID: accountID,
		Type:      models.TxExpense,
		Category:  category,
		Amount:    decimal.NewFromInt(amount),
		Date:      date,
	}
	require.NoError(t, svc.CreateTransaction(context.Background(), tx))
	return tx
}

func TestTransactionBalanceEffects(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	checking := seedAccount(t, svc, "Checking", 10000)
	savings := seedAccount(t, svc, "Savings", 0)

	require.NoError(t, svc.CreateTransaction(ctx, &models.Transaction{
		UserID: "u1", AccountID: checking.ID, Type: models.TxIncome,
		Amount: decimal.NewFromInt(5000),
	}))
	expense(t, svc, checking.ID, "groceries", 2000, time.Now())
	require.NoError(t, svc.CreateTransaction(ctx, &models.Transaction{
		UserID: "u1", AccountID: checking.ID, ToAccountID: savings.ID,
		Type: models.TxTransfer, Amount: decimal.NewFromInt(3000),
	}))

	accounts, err := svc.ListAccounts(ctx, "u1")
	require.NoError(t, err)
	byName := map[string]*models.Account{}
	for _, a := range accounts {
		byName[a.Name] = a
	}
	// 10000 + 5000 − 2000 − 3000
	assert.True(t, byName["Checking"].Balance.Equal(decimal.NewFromInt(10000)), "checking = %s", byName["Checking"].Balance)
	assert.True(t, byName["Savings"].Balance.Equal(decimal.NewFromInt(3000)), "savings = %s", byName["Savings"].Balance)
}

func TestDeleteTransactionReversesBalances(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := seedAccount(t, svc, "Checking", 10000)

	tx := expense(t, svc, a.ID, "dining", 1500, time.Now())
	require.NoError(t, svc.DeleteTransaction(ctx, "u1", tx.ID))

	accounts, err := svc.ListAccounts(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, accounts[0].Balance.Equal(decimal.NewFromInt(10000)), "balance = %s", accounts[0].Balance)
}

func TestTransactionValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := seedAccount(t, svc, "Checking", 0)

	// unknown account
	err := svc.CreateTransaction(ctx, &models.Transaction{
		UserID: "u1", AccountID: "missing", Type: models.TxExpense,
		Amount: decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	// transfer to self
	err = svc.CreateTransaction(ctx, &models.Transaction{
		UserID: "u1", AccountID: a.ID, ToAccountID: a.ID,
		Type: models.TxTransfer, Amount: decimal.NewFromInt(100),
	})
	assert.Error(t, err)

	// non-positive amount
	err = svc.CreateTransaction(ctx, &models.Transaction{
		UserID: "u1", AccountID: a.ID, Type: models.TxExpense,
		Amount: decimal.Zero,
	})
	assert.Error(t, err)
}

func TestDeleteAccountInUse(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := seedAccount(t, svc, "Checking", 1000)
	expense(t, svc, a.ID, "misc", 100, time.Now())

	err := svc.DeleteAccount(ctx, "u1", a.ID)
	assert.ErrorIs(t, err, ErrAccountInUse)

	empty := seedAccount(t, svc, "Empty", 0)
	assert.NoError(t, svc.DeleteAccount(ctx, "u1", empty.ID))
}

func TestListTransactionsWindow(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := seedAccount(t, svc, "Checking", 100000)

	jan := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	expense(t, svc, a.ID, "a", 100, jan)
	expense(t, svc, a.ID, "b", 100, feb)
	expense(t, svc, a.ID, "c", 100, mar)

	got, err := svc.ListTransactions(ctx, "u1",
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Category)
}

func TestBudgetUsage(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := seedAccount(t, svc, "Checking", 100000)
	now := time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.CreateBudget(ctx, &models.Budget{
		UserID: "u1", Category: "groceries", Limit: decimal.NewFromInt(10000),
	}))
	// duplicate category rejected
	assert.Error(t, svc.CreateBudget(ctx, &models.Budget{
		UserID: "u1", Category: "groceries", Limit: decimal.NewFromInt(5000),
	}))

	expense(t, svc, a.ID, "groceries", 6000, now.AddDate(0, 0, -5))
	expense(t, svc, a.ID, "groceries", 3000, now.AddDate(0, 0, -1))
	// prior month does not count
	expense(t, svc, a.ID, "groceries", 4000, now.AddDate(0, -1, 0))

	budgets, err := svc.ListBudgets(ctx, "u1", now)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.True(t, budgets[0].Spent.Equal(decimal.NewFromInt(9000)), "spent = %s", budgets[0].Spent)
	assert.InDelta(t, 90.0, budgets[0].UsagePct, 0.001)
}

func TestGoalContribution(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	g := &models.Goal{
		UserID:       "u1",
		Name:         "Emergency Fund",
		TargetAmount: decimal.NewFromInt(100000),
		SavedAmount:  decimal.NewFromInt(95000),
	}
	require.NoError(t, svc.SaveGoal(ctx, g))

	got, err := svc.ContributeToGoal(ctx, "u1", g.ID, decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.True(t, got.SavedAmount.Equal(decimal.NewFromInt(100000)))

	// crossing the target drops a notification
	notifications, err := svc.ListNotifications(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Title, "Goal reached")
	assert.Equal(t, models.NotifyReminder, notifications[0].Type)

	_, err = svc.ContributeToGoal(ctx, "u1", g.ID, decimal.Zero)
	assert.Error(t, err)
}

func TestNotificationInbox(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		n := &models.Notification{
			ID:        string(rune('a' + i)),
			UserID:    "u1",
			Title:     "Note",
			Type:      models.NotifyInsight,
			CreatedAt: time.Date(2025, time.August, 1+i, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, svc.put(ctx, "u1", models.SubjectNotification, n.ID, n, n.CreatedAt))
	}

	got, err := svc.ListNotifications(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID, "newest first")

	require.NoError(t, svc.MarkNotificationRead(ctx, "u1", "c"))
	got, err = svc.ListNotifications(ctx, "u1", 1)
	require.NoError(t, err)
	assert.True(t, got[0].Read)

	require.NoError(t, svc.DeleteNotification(ctx, "u1", "c"))
	_, err = svc.store.Get(ctx, "u1", models.SubjectNotification, "c")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestSubscriptionAndLiabilityValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	err := svc.SaveSubscription(ctx, &models.Subscription{
		UserID: "u1", Name: "Netflix", Amount: decimal.NewFromInt(649), Frequency: "fortnightly",
	})
	assert.Error(t, err, "unknown frequency")

	require.NoError(t, svc.SaveSubscription(ctx, &models.Subscription{
		UserID: "u1", Name: "Netflix", Amount: decimal.NewFromInt(649), Frequency: "monthly", Active: true,
	}))

	require.NoError(t, svc.SaveLiability(ctx, &models.Liability{
		UserID: "u1", Name: "Home Loan", Type: "loan",
		Principal:   decimal.NewFromInt(5000000),
		Outstanding: decimal.NewFromInt(4200000),
	}))

	liabilities, err := svc.ListLiabilities(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, liabilities, 1)
}
