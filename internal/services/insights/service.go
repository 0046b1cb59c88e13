// Package insights produces natural-language summaries of a user's month.
// Generation is best-effort: when the model is unreachable or returns
// something unusable, a static summary built from the same numbers is
// returned instead, never an error.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

// Service implements interfaces.InsightService.
type Service struct {
	genai   interfaces.GenAIClient
	ledger  interfaces.LedgerService
	finance interfaces.FinanceService
	loc     *time.Location
	logger  *common.Logger
}

var _ interfaces.InsightService = (*Service)(nil)

// NewService creates an insight service. genai may be nil; every summary
// then uses the static fallback.
func NewService(genai interfaces.GenAIClient, ledger interfaces.LedgerService, finance interfaces.FinanceService, loc *time.Location, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{genai: genai, ledger: ledger, finance: finance, loc: loc, logger: logger}
}

// monthSnapshot is the data the summary is written from.
type monthSnapshot struct {
	Month          string
	Income         decimal.Decimal
	Expenses       decimal.Decimal
	TopCategories  []categorySpend
	PortfolioValue decimal.Decimal
	BudgetsOver    []string
}

type categorySpend struct {
	Category string
	Amount   decimal.Decimal
}

// MonthlySummary summarises the calendar month containing now.
func (s *Service) MonthlySummary(ctx context.Context, userID string, now time.Time) (*models.InsightSummary, error) {
	snap, err := s.snapshot(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	if s.genai != nil {
		if summary, ok := s.generate(ctx, snap); ok {
			return summary, nil
		}
	}
	return fallbackSummary(snap), nil
}

func (s *Service) snapshot(ctx context.Context, userID string, now time.Time) (*monthSnapshot, error) {
	lt := now.In(s.loc)
	monthStart := time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, s.loc)

	txns, err := s.finance.ListTransactions(ctx, userID, monthStart, now)
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}
	snap := &monthSnapshot{Month: lt.Format("2006-01")}
	byCategory := map[string]decimal.Decimal{}
	for _, t := range txns {
		switch t.Type {
		case models.TxIncome:
			snap.Income = snap.Income.Add(t.Amount)
		case models.TxExpense:
			snap.Expenses = snap.Expenses.Add(t.Amount)
			byCategory[t.Category] = byCategory[t.Category].Add(t.Amount)
		}
	}
	for category, amount := range byCategory {
		snap.TopCategories = append(snap.TopCategories, categorySpend{Category: category, Amount: amount})
	}
	sortCategories(snap.TopCategories)
	if len(snap.TopCategories) > 5 {
		snap.TopCategories = snap.TopCategories[:5]
	}

	holdings, err := s.ledger.ListHoldings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}
	for _, h := range holdings {
		snap.PortfolioValue = snap.PortfolioValue.Add(h.Value())
	}

	budgets, err := s.finance.ListBudgets(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}
	for _, b := range budgets {
		if b.UsagePct >= 100 {
			snap.BudgetsOver = append(snap.BudgetsOver, b.Category)
		}
	}
	return snap, nil
}

// generatedSummary is the JSON shape the model is asked to return.
type generatedSummary struct {
	Headline        string   `json:"headline"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// generate asks the model for a summary. Any failure — transport, refusal,
// malformed JSON — reports not-ok so the caller falls back.
func (s *Service) generate(ctx context.Context, snap *monthSnapshot) (*models.InsightSummary, bool) {
	text, err := s.genai.GenerateContent(ctx, buildPrompt(snap))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Insight generation failed, using fallback")
		return nil, false
	}

	var gen generatedSummary
	if err := json.Unmarshal([]byte(extractJSON(text)), &gen); err != nil {
		s.logger.Warn().Err(err).Msg("Insight response was not valid JSON, using fallback")
		return nil, false
	}
	if gen.Headline == "" || gen.Summary == "" {
		return nil, false
	}
	return &models.InsightSummary{
		Month:           snap.Month,
		Headline:        gen.Headline,
		Summary:         gen.Summary,
		Recommendations: gen.Recommendations,
		Source:          models.InsightSourceGemini,
		GeneratedAt:     time.Now().UTC(),
	}, true
}

func buildPrompt(snap *monthSnapshot) string {
	var sb strings.Builder
	sb.WriteString("You are a personal finance assistant for an Indian user. ")
	sb.WriteString("Summarise the month below in plain language.\n\n")
	fmt.Fprintf(&sb, "Month: %s\n", snap.Month)
	fmt.Fprintf(&sb, "Income: ₹%s\n", snap.Income.StringFixed(0))
	fmt.Fprintf(&sb, "Expenses: ₹%s\n", snap.Expenses.StringFixed(0))
	fmt.Fprintf(&sb, "Portfolio value: ₹%s\n", snap.PortfolioValue.StringFixed(0))
	if len(snap.TopCategories) > 0 {
		sb.WriteString("Top spending categories:\n")
		for _, c := range snap.TopCategories {
			fmt.Fprintf(&sb, "- %s: ₹%s\n", c.Category, c.Amount.StringFixed(0))
		}
	}
	if len(snap.BudgetsOver) > 0 {
		fmt.Fprintf(&sb, "Budgets exceeded: %s\n", strings.Join(snap.BudgetsOver, ", "))
	}
	sb.WriteString("\nRespond with ONLY a JSON object, no markdown fences, shaped exactly as: ")
	sb.WriteString(`{"headline": "...", "summary": "...", "recommendations": ["...", "..."]}`)
	sb.WriteString("\nKeep the headline under 10 words, the summary under 80 words, and give at most 3 recommendations.")
	return sb.String()
}

// extractJSON tolerates models that wrap the object in markdown fences or
// surrounding prose.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}

// fallbackSummary renders a deterministic summary from the snapshot.
func fallbackSummary(snap *monthSnapshot) *models.InsightSummary {
	net := snap.Income.Sub(snap.Expenses)
	headline := fmt.Sprintf("You saved ₹%s this month", net.StringFixed(0))
	if net.IsNegative() {
		headline = fmt.Sprintf("You overspent by ₹%s this month", net.Neg().StringFixed(0))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "In %s you earned ₹%s and spent ₹%s.", snap.Month,
		snap.Income.StringFixed(0), snap.Expenses.StringFixed(0))
	if len(snap.TopCategories) > 0 {
		top := snap.TopCategories[0]
		fmt.Fprintf(&sb, " Your largest spending category was %s at ₹%s.",
			top.Category, top.Amount.StringFixed(0))
	}
	if snap.PortfolioValue.IsPositive() {
		fmt.Fprintf(&sb, " Your portfolio is worth ₹%s.", snap.PortfolioValue.StringFixed(0))
	}

	var recs []string
	if net.IsNegative() {
		recs = append(recs, "Review your largest spending categories and trim where possible.")
	}
	for _, category := range snap.BudgetsOver {
		recs = append(recs, fmt.Sprintf("Your %s budget is exhausted; consider raising it or cutting back.", category))
	}
	if len(recs) == 0 {
		recs = append(recs, "Spending is within plan. Consider moving surplus into your goals.")
	}

	return &models.InsightSummary{
		Month:           snap.Month,
		Headline:        headline,
		Summary:         sb.String(),
		Recommendations: recs,
		Source:          models.InsightSourceFallback,
		GeneratedAt:     time.Now().UTC(),
	}
}

func sortCategories(categories []categorySpend) {
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Amount.GreaterThan(categories[j].Amount)
	})
}
