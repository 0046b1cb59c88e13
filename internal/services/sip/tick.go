package sip

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/models"
)

// Tick runs the due-date scheduler over every active SIP of every user.
// A failure on one plan never fails the batch: unpostable plans are counted
// by skip reason and the scan continues. Re-running within the same calendar
// month is safe; the due predicate dedups by month.
func (s *Service) Tick(ctx context.Context, now time.Time) (*models.SIPTickResult, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	result := &models.SIPTickResult{RanAt: now.UTC()}

	userIDs, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, userID := range userIDs {
		plans, err := s.List(ctx, userID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("SIP tick: listing plans failed")
			continue
		}
		for _, plan := range plans {
			if plan.Status != models.SIPActive {
				continue
			}
			result.Scanned++
			s.tickPlan(ctx, plan, now, result)
		}
	}

	s.logger.Info().
		Int("scanned", result.Scanned).
		Int("posted", result.Posted).
		Int("skipped_missing_mapping", result.MissingMapping).
		Int("skipped_source_unavailable", result.Unavailable).
		Int("skipped_invalid_price", result.InvalidPrice).
		Msg("SIP tick completed")
	return result, nil
}

func (s *Service) tickPlan(ctx context.Context, plan *models.SIP, now time.Time, result *models.SIPTickResult) {
	// end-dated plans close instead of posting
	if plan.EndDate != nil && common.DaysBetween(*plan.EndDate, now, s.loc) > 0 {
		plan.Status = models.SIPClosed
		plan.LastUpdated = now.UTC()
		if err := s.putPlan(ctx, plan); err != nil {
			s.logger.Error().Err(err).Str("sip_id", plan.ID).Msg("SIP tick: auto-close failed")
		}
		return
	}

	price, reason := s.resolvePrice(ctx, plan)
	switch reason {
	case skipNone:
	case skipMissingMapping:
		result.MissingMapping++
		return
	case skipUnavailable:
		result.Unavailable++
		return
	case skipInvalidPrice:
		result.InvalidPrice++
		return
	}

	// valuation stays current between debits
	plan.LastPrice = price
	plan.CurrentValue = plan.Units.Mul(price)
	plan.LastUpdated = now.UTC()

	if !IsDue(plan, now, s.loc) {
		if err := s.putPlan(ctx, plan); err != nil {
			s.logger.Error().Err(err).Str("sip_id", plan.ID).Msg("SIP tick: valuation update failed")
		}
		return
	}

	// a failure between the installment write and the aggregate write leaves
	// a paid installment the plan does not know about; adopt it instead of
	// debiting the period twice
	adopted, err := s.adoptOrphanInstallment(ctx, plan, now)
	if err != nil {
		s.logger.Error().Err(err).Str("sip_id", plan.ID).Msg("SIP tick: reconciling installments failed")
		return
	}
	if adopted {
		result.Posted++
		s.logger.Info().Str("sip_id", plan.ID).Msg("SIP tick: adopted orphaned installment")
		return
	}

	units := plan.Amount.Div(price)
	dueDate := common.DayKey(now, s.loc)
	inst := &models.SIPInstallment{
		ID:         uuid.NewString(),
		SIPID:      plan.ID,
		UserID:     plan.UserID,
		DueDate:    dueDate,
		Status:     models.InstallmentPaid,
		Amount:     plan.Amount,
		NavOrPrice: price,
		Units:      units,
		CreatedAt:  now.UTC(),
	}
	if err := s.putInstallment(ctx, inst); err != nil {
		s.logger.Error().Err(err).Str("sip_id", plan.ID).Msg("SIP tick: installment write failed")
		return
	}

	// aggregate update follows the installment in the same pass; a failure
	// between the two is repaired by the orphan adoption above
	plan.TotalInvested = plan.TotalInvested.Add(plan.Amount)
	plan.Units = plan.Units.Add(units)
	plan.CurrentValue = plan.Units.Mul(price)
	plan.LastDebitDate = &dueDate
	if err := s.putPlan(ctx, plan); err != nil {
		s.logger.Error().Err(err).Str("sip_id", plan.ID).Msg("SIP tick: aggregate update failed")
		return
	}
	result.Posted++

	s.logger.Debug().
		Str("sip_id", plan.ID).
		Str("fund", plan.FundName).
		Str("units", units.String()).
		Str("price", price.String()).
		Msg("SIP installment posted")
}

// adoptOrphanInstallment looks for a paid installment in the current period
// that the plan's aggregates never absorbed and folds it in. The aggregates
// are rebuilt from the full paid history rather than incremented, so the plan
// and its installments agree again regardless of how many writes were lost.
func (s *Service) adoptOrphanInstallment(ctx context.Context, plan *models.SIP, now time.Time) (bool, error) {
	installments, err := s.ListInstallments(ctx, plan.UserID, plan.ID)
	if err != nil {
		return false, err
	}
	var orphan *models.SIPInstallment
	for _, inst := range installments {
		if inst.Status != models.InstallmentPaid {
			continue
		}
		if !samePeriod(plan, inst.DueDate, now, s.loc) {
			continue
		}
		if plan.LastDebitDate != nil && !inst.DueDate.After(*plan.LastDebitDate) {
			continue
		}
		orphan = inst // newest due date first
		break
	}
	if orphan == nil {
		return false, nil
	}

	invested, units := decimal.Zero, decimal.Zero
	for _, inst := range installments {
		if inst.Status != models.InstallmentPaid {
			continue
		}
		invested = invested.Add(inst.Amount)
		units = units.Add(inst.Units)
	}
	plan.TotalInvested = invested
	plan.Units = units
	plan.CurrentValue = units.Mul(plan.LastPrice)
	due := orphan.DueDate
	plan.LastDebitDate = &due
	plan.LastUpdated = now.UTC()
	return true, s.putPlan(ctx, plan)
}

// samePeriod reports whether a debit on due falls in the same scheduling
// period as now: the same calendar month, or within the last 7 days for
// weekly plans.
func samePeriod(plan *models.SIP, due, now time.Time, loc *time.Location) bool {
	if plan.Frequency == models.FreqWeekly {
		d := common.DaysBetween(due, now, loc)
		return d >= 0 && d < 7
	}
	return common.SameMonth(due, now, loc)
}

type skipReason int

const (
	skipNone skipReason = iota
	skipMissingMapping
	skipUnavailable
	skipInvalidPrice
)

func (s *Service) resolvePrice(ctx context.Context, plan *models.SIP) (decimal.Decimal, skipReason) {
	switch plan.PricingSource {
	case models.PricingMarket:
		if plan.Symbol == "" {
			return decimal.Zero, skipMissingMapping
		}
		quote, err := s.market.GetQuote(ctx, plan.Symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", plan.Symbol).Msg("SIP tick: quote fetch failed")
			return decimal.Zero, skipUnavailable
		}
		if quote == nil {
			return decimal.Zero, skipUnavailable
		}
		if !quote.Price.IsPositive() {
			return decimal.Zero, skipInvalidPrice
		}
		return quote.Price, skipNone

	case models.PricingMFNav:
		if plan.SchemeCode == "" {
			return decimal.Zero, skipMissingMapping
		}
		nav, err := s.mfnav.GetLatestNav(ctx, plan.SchemeCode)
		if err != nil {
			s.logger.Warn().Err(err).Str("scheme", plan.SchemeCode).Msg("SIP tick: NAV fetch failed")
			return decimal.Zero, skipUnavailable
		}
		if nav == nil {
			return decimal.Zero, skipUnavailable
		}
		if !nav.NAV.IsPositive() {
			return decimal.Zero, skipInvalidPrice
		}
		return nav.NAV, skipNone
	}
	return decimal.Zero, skipMissingMapping
}
