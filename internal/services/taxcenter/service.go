package taxcenter

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

// maxHarvestCandidates caps the loss-harvest suggestion list.
const maxHarvestCandidates = 8

// Service implements interfaces.TaxService.
type Service struct {
	ledger interfaces.LedgerService
	cfg    common.TaxConfig
	loc    *time.Location
	logger *common.Logger
}

var _ interfaces.TaxService = (*Service)(nil)

// NewService creates a tax-center service.
func NewService(ledger interfaces.LedgerService, cfg common.TaxConfig, loc *time.Location, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{ledger: ledger, cfg: cfg, loc: loc, logger: logger}
}

// CurrentFYStartYear returns the start year of the fiscal year containing
// now (India convention: FY runs Apr 1 through Mar 31).
func CurrentFYStartYear(now time.Time, loc *time.Location) int {
	lt := now.In(loc)
	if lt.Month() >= time.April {
		return lt.Year()
	}
	return lt.Year() - 1
}

// Report computes the FIFO realized-gain report for the fiscal year starting
// Apr 1 of fyStartYear. A zero fyStartYear selects the current FY.
func (s *Service) Report(ctx context.Context, userID string, fyStartYear int) (*models.TaxReport, error) {
	if fyStartYear == 0 {
		fyStartYear = CurrentFYStartYear(time.Now(), s.loc)
	}
	fyStart := time.Date(fyStartYear, time.April, 1, 0, 0, 0, 0, s.loc)
	fyEnd := fyStart.AddDate(1, 0, 0)

	holdings, err := s.ledger.ListHoldings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("tax report: %w", err)
	}

	report := &models.TaxReport{
		FYStartYear: fyStartYear,
		FYStart:     fyStart,
		FYEnd:       fyEnd.AddDate(0, 0, -1),
		Sales:       []models.RealizedSale{},
		Monthly:     []models.MonthlyGain{},
	}

	for _, h := range holdings {
		entries, err := s.ledger.ListTransactions(ctx, userID, h.ID)
		if err != nil {
			return nil, fmt.Errorf("tax report: holding %s: %w", h.ID, err)
		}
		report.Sales = append(report.Sales, matchSales(h, entries, fyStart, fyEnd)...)
	}

	sort.SliceStable(report.Sales, func(i, j int) bool {
		return report.Sales[i].SaleDate.Before(report.Sales[j].SaleDate)
	})

	monthly := map[string]*models.MonthlyGain{}
	for _, sale := range report.Sales {
		if sale.TaxBucket == models.BucketLTCG {
			report.LTCGGain = report.LTCGGain.Add(sale.Gain)
		} else {
			report.STCGGain = report.STCGGain.Add(sale.Gain)
		}
		key := sale.SaleDate.In(s.loc).Format("2006-01")
		m, ok := monthly[key]
		if !ok {
			m = &models.MonthlyGain{Month: key}
			monthly[key] = m
		}
		if sale.TaxBucket == models.BucketLTCG {
			m.LTCG = m.LTCG.Add(sale.Gain)
		} else {
			m.STCG = m.STCG.Add(sale.Gain)
		}
		m.Net = m.Net.Add(sale.Gain)
	}
	for _, m := range monthly {
		report.Monthly = append(report.Monthly, *m)
	}
	sort.Slice(report.Monthly, func(i, j int) bool {
		return report.Monthly[i].Month < report.Monthly[j].Month
	})

	report.NetGain = report.STCGGain.Add(report.LTCGGain)
	report.STCGTax = decimal.Max(decimal.Zero, report.STCGGain).
		Mul(decimal.NewFromFloat(s.cfg.STCGRate))
	report.TaxableLTCG = decimal.Max(decimal.Zero,
		report.LTCGGain.Sub(decimal.NewFromFloat(s.cfg.LTCGExemption)))
	report.LTCGTax = report.TaxableLTCG.Mul(decimal.NewFromFloat(s.cfg.LTCGRate))

	report.HarvestCandidates = harvestCandidates(report.Sales)
	return report, nil
}

// harvestCandidates returns the worst realized losses, ascending by gain.
func harvestCandidates(sales []models.RealizedSale) []models.RealizedSale {
	var losses []models.RealizedSale
	for _, s := range sales {
		if s.Gain.IsNegative() {
			losses = append(losses, s)
		}
	}
	sort.SliceStable(losses, func(i, j int) bool {
		return losses[i].Gain.LessThan(losses[j].Gain)
	})
	if len(losses) > maxHarvestCandidates {
		losses = losses[:maxHarvestCandidates]
	}
	if losses == nil {
		losses = []models.RealizedSale{}
	}
	return losses
}
