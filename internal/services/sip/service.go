package sip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

// ErrInvalidTransition is returned for disallowed status changes.
var ErrInvalidTransition = errors.New("invalid sip status transition")

// ErrNoUnits is returned when migrating a SIP that holds no units.
var ErrNoUnits = errors.New("sip has no units to migrate")

// Service implements interfaces.SIPService.
type Service struct {
	store  interfaces.DataStore
	users  interfaces.InternalStore
	ledger interfaces.LedgerService
	market interfaces.MarketDataClient
	mfnav  interfaces.MFNavClient
	logger *common.Logger
	loc    *time.Location

	// serialises scheduler batches; individual CRUD calls do not contend
	tickMu sync.Mutex
}

var _ interfaces.SIPService = (*Service)(nil)

// NewService creates a SIP service. loc is the reference timezone for all
// due-date decisions.
func NewService(store interfaces.DataStore, users interfaces.InternalStore, ledger interfaces.LedgerService, market interfaces.MarketDataClient, mfnav interfaces.MFNavClient, loc *time.Location, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:  store,
		users:  users,
		ledger: ledger,
		market: market,
		mfnav:  mfnav,
		logger: logger,
		loc:    loc,
	}
}

// List returns the user's SIPs, active first, then by fund name.
func (s *Service) List(ctx context.Context, userID string) ([]*models.SIP, error) {
	records, err := s.store.List(ctx, userID, models.SubjectSIP)
	if err != nil {
		return nil, fmt.Errorf("list sips: %w", err)
	}
	plans := make([]*models.SIP, 0, len(records))
	for _, r := range records {
		var p models.SIP
		if err := json.Unmarshal([]byte(r.Value), &p); err != nil {
			s.logger.Warn().Err(err).Str("key", r.Key).Msg("Skipping malformed sip record")
			continue
		}
		plans = append(plans, &p)
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].Status != plans[j].Status {
			return plans[i].Status == models.SIPActive
		}
		return plans[i].FundName < plans[j].FundName
	})
	return plans, nil
}

// Get returns one SIP or interfaces.ErrNotFound.
func (s *Service) Get(ctx context.Context, userID, sipID string) (*models.SIP, error) {
	r, err := s.store.Get(ctx, userID, models.SubjectSIP, sipID)
	if err != nil {
		return nil, err
	}
	var p models.SIP
	if err := json.Unmarshal([]byte(r.Value), &p); err != nil {
		return nil, fmt.Errorf("decode sip %s: %w", sipID, err)
	}
	return &p, nil
}

// Create validates and stores a new plan in active status.
func (s *Service) Create(ctx context.Context, plan *models.SIP) error {
	if err := validatePlan(plan); err != nil {
		return err
	}
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plan.StartDate.IsZero() {
		plan.StartDate = now
	}
	plan.Status = models.SIPActive
	plan.TotalInvested = decimal.Zero
	plan.Units = decimal.Zero
	plan.CurrentValue = decimal.Zero
	plan.LastDebitDate = nil
	plan.CreatedAt = now
	plan.LastUpdated = now
	return s.putPlan(ctx, plan)
}

// Update changes the plan's schedule and identity fields. Aggregates,
// status and debit history are owned by the scheduler and preserved.
func (s *Service) Update(ctx context.Context, plan *models.SIP) error {
	existing, err := s.Get(ctx, plan.UserID, plan.ID)
	if err != nil {
		return err
	}
	existing.FundName = plan.FundName
	existing.PricingSource = plan.PricingSource
	existing.Symbol = plan.Symbol
	existing.SchemeCode = plan.SchemeCode
	existing.Amount = plan.Amount
	existing.Frequency = plan.Frequency
	existing.AnchorDay = plan.AnchorDay
	existing.EndDate = plan.EndDate
	if err := validatePlan(existing); err != nil {
		return err
	}
	existing.LastUpdated = time.Now().UTC()
	*plan = *existing
	return s.putPlan(ctx, existing)
}

// Delete removes a plan and its installment history.
func (s *Service) Delete(ctx context.Context, userID, sipID string) error {
	if _, err := s.Get(ctx, userID, sipID); err != nil {
		return err
	}
	installments, err := s.ListInstallments(ctx, userID, sipID)
	if err != nil {
		return err
	}
	for _, inst := range installments {
		if err := s.store.Delete(ctx, userID, models.SubjectInstallment, inst.ID); err != nil {
			return fmt.Errorf("delete installment %s: %w", inst.ID, err)
		}
	}
	return s.store.Delete(ctx, userID, models.SubjectSIP, sipID)
}

// ListInstallments returns a plan's installments, newest due date first.
func (s *Service) ListInstallments(ctx context.Context, userID, sipID string) ([]*models.SIPInstallment, error) {
	records, err := s.store.List(ctx, userID, models.SubjectInstallment)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	var out []*models.SIPInstallment
	for _, r := range records {
		var inst models.SIPInstallment
		if err := json.Unmarshal([]byte(r.Value), &inst); err != nil {
			s.logger.Warn().Err(err).Str("key", r.Key).Msg("Skipping malformed installment record")
			continue
		}
		if inst.SIPID != sipID {
			continue
		}
		out = append(out, &inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.After(out[j].DueDate) })
	return out, nil
}

// Pause suspends scheduling for an active plan.
func (s *Service) Pause(ctx context.Context, userID, sipID string) (*models.SIP, error) {
	return s.transition(ctx, userID, sipID, models.SIPPaused)
}

// Resume reactivates a paused plan.
func (s *Service) Resume(ctx context.Context, userID, sipID string) (*models.SIP, error) {
	return s.transition(ctx, userID, sipID, models.SIPActive)
}

// Close terminates a plan. Closed plans keep their history but never tick.
func (s *Service) Close(ctx context.Context, userID, sipID string) (*models.SIP, error) {
	return s.transition(ctx, userID, sipID, models.SIPClosed)
}

func (s *Service) transition(ctx context.Context, userID, sipID, to string) (*models.SIP, error) {
	plan, err := s.Get(ctx, userID, sipID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(plan.Status, to) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, plan.Status, to)
	}
	plan.Status = to
	plan.LastUpdated = time.Now().UTC()
	if err := s.putPlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// MigrateToInvestment moves a SIP's accumulated units into a standalone
// holding and marks the plan migrated. When a holding for the same
// instrument already exists, the units and cost basis merge into it through
// a ledger entry; otherwise a new holding is seeded. One-way and terminal.
func (s *Service) MigrateToInvestment(ctx context.Context, userID, sipID string) (*models.Holding, error) {
	plan, err := s.Get(ctx, userID, sipID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(plan.Status, models.SIPMigrated) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, plan.Status, models.SIPMigrated)
	}
	if !plan.Units.IsPositive() {
		return nil, ErrNoUnits
	}
	avgCost := plan.TotalInvested.Div(plan.Units)

	target, err := s.findMatchingHolding(ctx, plan)
	if err != nil {
		return nil, err
	}
	if target != nil {
		qty := plan.Units
		target, err = s.ledger.AddTransaction(ctx, &models.InvestmentTransaction{
			UserID:    userID,
			HoldingID: target.ID,
			Type:      models.TxnBuy,
			Quantity:  &qty,
			Price:     &avgCost,
			Amount:    plan.TotalInvested,
			Note:      fmt.Sprintf("Migrated from SIP %s", plan.FundName),
			Date:      time.Now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("merge sip into holding: %w", err)
		}
	} else {
		target = &models.Holding{
			UserID:       userID,
			Symbol:       migrationSymbol(plan),
			Name:         plan.FundName,
			Type:         migrationType(plan),
			SchemeCode:   plan.SchemeCode,
			Quantity:     plan.Units,
			AvgBuyPrice:  avgCost,
			CurrentPrice: plan.LastPrice,
		}
		if err := s.ledger.CreateHolding(ctx, target); err != nil {
			return nil, fmt.Errorf("create holding from sip: %w", err)
		}
	}

	plan.Status = models.SIPMigrated
	plan.LastUpdated = time.Now().UTC()
	if err := s.putPlan(ctx, plan); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("user_id", userID).
		Str("sip_id", sipID).
		Str("holding_id", target.ID).
		Msg("SIP migrated to holding")
	return target, nil
}

func (s *Service) findMatchingHolding(ctx context.Context, plan *models.SIP) (*models.Holding, error) {
	holdings, err := s.ledger.ListHoldings(ctx, plan.UserID)
	if err != nil {
		return nil, err
	}
	for _, h := range holdings {
		if plan.PricingSource == models.PricingMFNav {
			if h.SchemeCode != "" && h.SchemeCode == plan.SchemeCode {
				return h, nil
			}
			continue
		}
		if h.Symbol == strings.ToUpper(plan.Symbol) {
			return h, nil
		}
	}
	return nil, nil
}

func migrationSymbol(plan *models.SIP) string {
	if plan.Symbol != "" {
		return plan.Symbol
	}
	return plan.SchemeCode
}

func migrationType(plan *models.SIP) string {
	if plan.PricingSource == models.PricingMFNav {
		return models.HoldingTypeMutualFund
	}
	return models.HoldingTypeStock
}

func validatePlan(plan *models.SIP) error {
	if plan.UserID == "" {
		return fmt.Errorf("sip requires a user id")
	}
	if strings.TrimSpace(plan.FundName) == "" {
		return fmt.Errorf("sip requires a fund name")
	}
	if !plan.Amount.IsPositive() {
		return fmt.Errorf("sip amount must be positive")
	}
	if !models.ValidSIPFrequency(plan.Frequency) {
		return fmt.Errorf("invalid sip frequency %q", plan.Frequency)
	}
	switch plan.PricingSource {
	case models.PricingMarket:
		if plan.Symbol == "" {
			return fmt.Errorf("market-priced sip requires a symbol")
		}
		if plan.SchemeCode != "" {
			return fmt.Errorf("market-priced sip must not carry a scheme code")
		}
	case models.PricingMFNav:
		if plan.SchemeCode == "" {
			return fmt.Errorf("nav-priced sip requires a scheme code")
		}
		if plan.Symbol != "" {
			return fmt.Errorf("nav-priced sip must not carry a symbol")
		}
	default:
		return fmt.Errorf("invalid pricing source %q", plan.PricingSource)
	}
	if plan.Frequency != models.FreqWeekly {
		if plan.AnchorDay < 1 || plan.AnchorDay > 31 {
			return fmt.Errorf("anchor day must be between 1 and 31")
		}
	}
	if plan.EndDate != nil && !plan.StartDate.IsZero() && plan.EndDate.Before(plan.StartDate) {
		return fmt.Errorf("end date precedes start date")
	}
	return nil
}

func (s *Service) putPlan(ctx context.Context, plan *models.SIP) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode sip: %w", err)
	}
	return s.store.Put(ctx, &models.Record{
		UserID:   plan.UserID,
		Subject:  models.SubjectSIP,
		Key:      plan.ID,
		Value:    string(data),
		DateTime: time.Now().UTC(),
	})
}

func (s *Service) putInstallment(ctx context.Context, inst *models.SIPInstallment) error {
	data, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("encode installment: %w", err)
	}
	return s.store.Put(ctx, &models.Record{
		UserID:   inst.UserID,
		Subject:  models.SubjectInstallment,
		Key:      inst.ID,
		Value:    string(data),
		DateTime: inst.DueDate,
	})
}
