package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

// Service implements interfaces.AlertService.
type Service struct {
	store    interfaces.DataStore
	users    interfaces.InternalStore
	ledger   interfaces.LedgerService
	finance  interfaces.FinanceService
	notifier interfaces.Notifier
	cfg      common.AlertsConfig
	loc      *time.Location
	logger   *common.Logger
}

var _ interfaces.AlertService = (*Service)(nil)

// NewService creates an alert evaluator.
func NewService(store interfaces.DataStore, users interfaces.InternalStore, ledger interfaces.LedgerService, finance interfaces.FinanceService, notifier interfaces.Notifier, cfg common.AlertsConfig, loc *time.Location, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:    store,
		users:    users,
		ledger:   ledger,
		finance:  finance,
		notifier: notifier,
		cfg:      cfg,
		loc:      loc,
		logger:   logger,
	}
}

// Evaluate runs every check for one user, persisting and pushing each alert
// not already raised today under the same title. Idempotent within a
// calendar day.
func (s *Service) Evaluate(ctx context.Context, userID string, now time.Time) (*models.AlertEvaluation, error) {
	result := &models.AlertEvaluation{RanAt: now.UTC()}

	holdings, err := s.ledger.ListHoldings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("alert evaluation: %w", err)
	}
	budgets, err := s.finance.ListBudgets(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("alert evaluation: %w", err)
	}
	// window wide enough for both the trailing daily baseline and the
	// category-spike month baseline
	from := common.DayKey(now, s.loc).AddDate(0, -(spikeBaselineMonths + 1), 0)
	if alt := common.DayKey(now, s.loc).AddDate(0, 0, -(trailingDays + 1)); alt.Before(from) {
		from = alt
	}
	txns, err := s.finance.ListTransactions(ctx, userID, from, now)
	if err != nil {
		return nil, fmt.Errorf("alert evaluation: %w", err)
	}

	var candidates []*models.Notification
	candidates = append(candidates, concentrationAlerts(holdings, s.cfg.ConcentrationPct)...)
	candidates = append(candidates, drawdownAlerts(holdings, s.cfg.DrawdownPct)...)
	candidates = append(candidates, budgetAlerts(budgets, s.cfg.BudgetUsagePct)...)
	if a := dailySpendAlert(txns, now, s.loc, s.cfg.DailySpendMultiplier); a != nil {
		candidates = append(candidates, a)
	}
	candidates = append(candidates, categorySpikeAlerts(txns, now, s.loc, s.cfg.CategorySpikeMultiplier, s.cfg.CategorySpikeFloor)...)
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Title < candidates[j].Title })
	result.Evaluated = len(candidates)

	seen, err := s.titlesRaisedToday(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	for _, c := range candidates {
		if seen[c.Title] {
			result.Deduped++
			continue
		}
		c.ID = uuid.NewString()
		c.UserID = userID
		c.CreatedAt = now.UTC()
		if err := s.putNotification(ctx, c); err != nil {
			return nil, err
		}
		seen[c.Title] = true
		result.Created++
		if s.notifier != nil {
			s.notifier.Push(ctx, c)
		}
	}

	s.logger.Debug().
		Str("user_id", userID).
		Int("evaluated", result.Evaluated).
		Int("created", result.Created).
		Int("deduped", result.Deduped).
		Msg("Alert evaluation completed")
	return result, nil
}

// EvaluateAll evaluates every user and sums the results. One user's failure
// does not stop the batch.
func (s *Service) EvaluateAll(ctx context.Context, now time.Time) (*models.AlertEvaluation, error) {
	total := &models.AlertEvaluation{RanAt: now.UTC()}
	userIDs, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, userID := range userIDs {
		res, err := s.Evaluate(ctx, userID, now)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Alert evaluation failed")
			continue
		}
		total.Evaluated += res.Evaluated
		total.Created += res.Created
		total.Deduped += res.Deduped
	}
	return total, nil
}

func (s *Service) titlesRaisedToday(ctx context.Context, userID string, now time.Time) (map[string]bool, error) {
	records, err := s.store.List(ctx, userID, models.SubjectNotification)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	seen := map[string]bool{}
	for _, r := range records {
		var n models.Notification
		if err := json.Unmarshal([]byte(r.Value), &n); err != nil {
			continue
		}
		if common.SameDay(n.CreatedAt, now, s.loc) {
			seen[n.Title] = true
		}
	}
	return seen, nil
}

func (s *Service) putNotification(ctx context.Context, n *models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return s.store.Put(ctx, &models.Record{
		UserID:   n.UserID,
		Subject:  models.SubjectNotification,
		Key:      n.ID,
		Value:    string(data),
		DateTime: n.CreatedAt,
	})
}
