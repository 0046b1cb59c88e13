package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanjaydutta/fintra/internal/models"
)

// LedgerService manages holdings and their transaction ledgers. Every ledger
// mutation triggers a full recompute of the holding's derived aggregates.
type LedgerService interface {
	ListHoldings(ctx context.Context, userID string) ([]*models.Holding, error)
	GetHolding(ctx context.Context, userID, holdingID string) (*models.Holding, error)
	CreateHolding(ctx context.Context, h *models.Holding) error
	DeleteHolding(ctx context.Context, userID, holdingID string) error

	ListTransactions(ctx context.Context, userID, holdingID string) ([]*models.InvestmentTransaction, error)
	AddTransaction(ctx context.Context, txn *models.InvestmentTransaction) (*models.Holding, error)
	DeleteTransaction(ctx context.Context, userID, holdingID, txnID string) (*models.Holding, error)

	// RefreshPrices updates CurrentPrice on the user's holdings from the
	// quote/NAV providers. Rows with no resolvable price are skipped.
	RefreshPrices(ctx context.Context, userID string) (int, error)
}

// SIPService manages systematic investment plans and their installments.
type SIPService interface {
	List(ctx context.Context, userID string) ([]*models.SIP, error)
	Get(ctx context.Context, userID, sipID string) (*models.SIP, error)
	Create(ctx context.Context, plan *models.SIP) error
	Update(ctx context.Context, plan *models.SIP) error
	Delete(ctx context.Context, userID, sipID string) error
	ListInstallments(ctx context.Context, userID, sipID string) ([]*models.SIPInstallment, error)

	// Status transitions: active ↔ paused; anything → closed; migration is
	// one-way into a holding.
	Pause(ctx context.Context, userID, sipID string) (*models.SIP, error)
	Resume(ctx context.Context, userID, sipID string) (*models.SIP, error)
	Close(ctx context.Context, userID, sipID string) (*models.SIP, error)
	MigrateToInvestment(ctx context.Context, userID, sipID string) (*models.Holding, error)

	// Tick runs the due-date scheduler over every active SIP for all users.
	// At-least-once, idempotent per month: re-running within the same month
	// never double-posts.
	Tick(ctx context.Context, now time.Time) (*models.SIPTickResult, error)
}

// TaxService computes the fiscal-year tax center report.
type TaxService interface {
	// Report computes FIFO realized gains for the FY starting Apr 1 of
	// fyStartYear (India FY convention).
	Report(ctx context.Context, userID string, fyStartYear int) (*models.TaxReport, error)
}

// RebalanceService computes allocation drift and advisory trade suggestions.
type RebalanceService interface {
	// Plan computes drift against targets; nil/empty targets use the
	// configured defaults. Weights need not be pre-normalized.
	Plan(ctx context.Context, userID string, targets map[string]float64) (*models.RebalancePlan, error)

	// RenderChart renders a PNG of current vs target allocation.
	RenderChart(ctx context.Context, userID string, targets map[string]float64) ([]byte, error)
}

// AlertService evaluates alert/anomaly checks and persists deduplicated
// notifications.
type AlertService interface {
	Evaluate(ctx context.Context, userID string, now time.Time) (*models.AlertEvaluation, error)
	EvaluateAll(ctx context.Context, now time.Time) (*models.AlertEvaluation, error)
}

// InsightService produces AI-generated summaries with static fallbacks.
type InsightService interface {
	MonthlySummary(ctx context.Context, userID string, now time.Time) (*models.InsightSummary, error)
}

// FinanceService manages the CRUD entities outside the investment core.
type FinanceService interface {
	ListAccounts(ctx context.Context, userID string) ([]*models.Account, error)
	CreateAccount(ctx context.Context, a *models.Account) error
	DeleteAccount(ctx context.Context, userID, accountID string) error

	ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]*models.Transaction, error)
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	DeleteTransaction(ctx context.Context, userID, txID string) error

	ListBudgets(ctx context.Context, userID string, now time.Time) ([]*models.BudgetStatus, error)
	CreateBudget(ctx context.Context, b *models.Budget) error
	DeleteBudget(ctx context.Context, userID, budgetID string) error

	ListGoals(ctx context.Context, userID string) ([]*models.Goal, error)
	SaveGoal(ctx context.Context, g *models.Goal) error
	DeleteGoal(ctx context.Context, userID, goalID string) error
	ContributeToGoal(ctx context.Context, userID, goalID string, amount decimal.Decimal) (*models.Goal, error)

	ListSubscriptions(ctx context.Context, userID string) ([]*models.Subscription, error)
	SaveSubscription(ctx context.Context, s *models.Subscription) error
	DeleteSubscription(ctx context.Context, userID, subID string) error

	ListLiabilities(ctx context.Context, userID string) ([]*models.Liability, error)
	SaveLiability(ctx context.Context, l *models.Liability) error
	DeleteLiability(ctx context.Context, userID, liabilityID string) error

	ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error
	DeleteNotification(ctx context.Context, userID, notificationID string) error
}

// ImportService parses uploaded bank statements into transactions.
type ImportService interface {
	ImportStatement(ctx context.Context, userID, accountID string, pdfData []byte) (*models.StatementImport, error)
}
