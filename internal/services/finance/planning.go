package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanjaydutta/fintra/internal/models"
)

// ListBudgets returns every budget with its current-month usage computed
// from transactions. Spent is derived at read time, never stored.
func (s *Service) ListBudgets(ctx context.Context, userID string, now time.Time) ([]*models.BudgetStatus, error) {
	var budgets []*models.Budget
	if err := s.listInto(ctx, userID, models.SubjectBudget, func(raw []byte) error {
		var b models.Budget
		if err := json.Unmarshal(raw, &b); err != nil {
			return err
		}
		budgets = append(budgets, &b)
		return nil
	}); err != nil {
		return nil, err
	}

	txns, err := s.allTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	spend := monthSpend(txns, now, s.loc)

	out := make([]*models.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		status := &models.BudgetStatus{Budget: *b, Spent: spend[b.Category]}
		if b.Limit.IsPositive() {
			status.UsagePct, _ = status.Spent.Div(b.Limit).Mul(decimal.NewFromInt(100)).Float64()
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// CreateBudget stores a new monthly budget. One budget per category.
func (s *Service) CreateBudget(ctx context.Context, b *models.Budget) error {
	if b.UserID == "" {
		return fmt.Errorf("budget requires a user id")
	}
	b.Category = strings.ToLower(strings.TrimSpace(b.Category))
	if b.Category == "" {
		return fmt.Errorf("budget requires a category")
	}
	if !b.Limit.IsPositive() {
		return fmt.Errorf("budget limit must be positive")
	}
	existing, err := s.ListBudgets(ctx, b.UserID, time.Now())
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.Category == b.Category {
			return fmt.Errorf("budget for category %q already exists", b.Category)
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now().UTC()
	return s.put(ctx, b.UserID, models.SubjectBudget, b.ID, b, b.CreatedAt)
}

// DeleteBudget removes a budget.
func (s *Service) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	if _, err := s.store.Get(ctx, userID, models.SubjectBudget, budgetID); err != nil {
		return err
	}
	return s.store.Delete(ctx, userID, models.SubjectBudget, budgetID)
}

// ListGoals returns the user's savings goals sorted by name.
func (s *Service) ListGoals(ctx context.Context, userID string) ([]*models.Goal, error) {
	var goals []*models.Goal
	if err := s.listInto(ctx, userID, models.SubjectGoal, func(raw []byte) error {
		var g models.Goal
		if err := json.Unmarshal(raw, &g); err != nil {
			return err
		}
		goals = append(goals, &g)
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].Name < goals[j].Name })
	return goals, nil
}

// SaveGoal creates or updates a goal.
func (s *Service) SaveGoal(ctx context.Context, g *models.Goal) error {
	if g.UserID == "" {
		return fmt.Errorf("goal requires a user id")
	}
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("goal requires a name")
	}
	if !g.TargetAmount.IsPositive() {
		return fmt.Errorf("goal target must be positive")
	}
	if g.SavedAmount.IsNegative() {
		return fmt.Errorf("saved amount must be non-negative")
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
		g.CreatedAt = time.Now().UTC()
	}
	return s.put(ctx, g.UserID, models.SubjectGoal, g.ID, g, g.CreatedAt)
}

// DeleteGoal removes a goal.
func (s *Service) DeleteGoal(ctx context.Context, userID, goalID string) error {
	if _, err := s.store.Get(ctx, userID, models.SubjectGoal, goalID); err != nil {
		return err
	}
	return s.store.Delete(ctx, userID, models.SubjectGoal, goalID)
}

// ContributeToGoal adds a contribution to a goal's saved amount. Reaching
// the target drops a congratulation into the notification inbox.
func (s *Service) ContributeToGoal(ctx context.Context, userID, goalID string, amount decimal.Decimal) (*models.Goal, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("contribution must be positive")
	}
	r, err := s.store.Get(ctx, userID, models.SubjectGoal, goalID)
	if err != nil {
		return nil, err
	}
	var g models.Goal
	if err := json.Unmarshal([]byte(r.Value), &g); err != nil {
		return nil, fmt.Errorf("decode goal %s: %w", goalID, err)
	}

	wasBelow := g.SavedAmount.LessThan(g.TargetAmount)
	g.SavedAmount = g.SavedAmount.Add(amount)
	if err := s.put(ctx, userID, models.SubjectGoal, g.ID, &g, g.CreatedAt); err != nil {
		return nil, err
	}

	if wasBelow && g.SavedAmount.GreaterThanOrEqual(g.TargetAmount) {
		n := &models.Notification{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     fmt.Sprintf("Goal reached: %s", g.Name),
			Message:   fmt.Sprintf("You have saved %s of your %s target. Well done!", g.SavedAmount.StringFixed(0), g.TargetAmount.StringFixed(0)),
			Type:      models.NotifyReminder,
			Data:      map[string]string{"goal_id": g.ID},
			CreatedAt: time.Now().UTC(),
		}
		if err := s.put(ctx, userID, models.SubjectNotification, n.ID, n, n.CreatedAt); err != nil {
			s.logger.Warn().Err(err).Str("goal_id", g.ID).Msg("Goal notification write failed")
		}
	}
	return &g, nil
}
