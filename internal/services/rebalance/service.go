package rebalance

import (
	"context"
	"fmt"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

// Service implements interfaces.RebalanceService.
type Service struct {
	ledger   interfaces.LedgerService
	defaults map[string]float64
	logger   *common.Logger
}

var _ interfaces.RebalanceService = (*Service)(nil)

// NewService creates a rebalance service with the configured default target
// allocation.
func NewService(ledger interfaces.LedgerService, cfg common.RebalanceConfig, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}
	return &Service{ledger: ledger, defaults: cfg.Targets, logger: logger}
}

// Plan computes drift against targets. Nil or all-zero targets use the
// configured defaults; weights need not be pre-normalized.
func (s *Service) Plan(ctx context.Context, userID string, targets map[string]float64) (*models.RebalancePlan, error) {
	holdings, err := s.ledger.ListHoldings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rebalance plan: %w", err)
	}
	normalized := NormalizeTargets(targets, s.defaults)
	return BuildPlan(holdings, normalized), nil
}

// RenderChart renders the current-vs-target allocation as a PNG.
func (s *Service) RenderChart(ctx context.Context, userID string, targets map[string]float64) ([]byte, error) {
	plan, err := s.Plan(ctx, userID, targets)
	if err != nil {
		return nil, err
	}
	return RenderAllocationChart(plan)
}
