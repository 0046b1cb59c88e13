// Package importer parses uploaded bank-statement PDFs into transactions.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

// maxSkippedReported caps the skipped-line sample returned to the caller.
const maxSkippedReported = 20

// statementLine matches the common Indian bank statement row layout:
// date, narration, amount, optional DR/CR marker.
var statementLine = regexp.MustCompile(`^(\d{2}[-/]\d{2}[-/]\d{4})\s+(.+?)\s+([\d,]+(?:\.\d{1,2})?)\s*(DR|CR|Dr|Cr)?\s*$`)

// categoryKeywords maps narration fragments to expense categories.
var categoryKeywords = map[string]string{
	"swiggy":    "dining",
	"zomato":    "dining",
	"uber":      "transport",
	"ola":       "transport",
	"irctc":     "travel",
	"amazon":    "shopping",
	"flipkart":  "shopping",
	"bigbasket": "groceries",
	"blinkit":   "groceries",
	"zepto":     "groceries",
	"netflix":   "entertainment",
	"spotify":   "entertainment",
	"salary":    "salary",
}

// Service implements interfaces.ImportService.
type Service struct {
	finance interfaces.FinanceService
	logger  *common.Logger
}

var _ interfaces.ImportService = (*Service)(nil)

// NewService creates a statement importer.
func NewService(finance interfaces.FinanceService, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}
	return &Service{finance: finance, logger: logger}
}

// ImportStatement extracts text from a statement PDF and creates a
// transaction per parseable row on the given account. Rows that do not
// parse are skipped and sampled in the result, never fatal.
func (s *Service) ImportStatement(ctx context.Context, userID, accountID string, pdfData []byte) (*models.StatementImport, error) {
	text, err := extractText(pdfData)
	if err != nil {
		return nil, fmt.Errorf("import statement: %w", err)
	}

	result := &models.StatementImport{Created: []models.Transaction{}}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		result.LinesRead++

		txn, ok := parseLine(line)
		if !ok {
			if len(result.SkippedLines) < maxSkippedReported {
				result.SkippedLines = append(result.SkippedLines, line)
			}
			continue
		}
		txn.UserID = userID
		txn.AccountID = accountID
		if err := s.finance.CreateTransaction(ctx, txn); err != nil {
			return nil, fmt.Errorf("import statement: create transaction: %w", err)
		}
		result.Parsed++
		result.Created = append(result.Created, *txn)
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("lines", result.LinesRead).
		Int("parsed", result.Parsed).
		Msg("Statement imported")
	return result, nil
}

func extractText(pdfData []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// parseLine turns one statement row into a transaction. CR rows become
// income, everything else an expense.
func parseLine(line string) (*models.Transaction, bool) {
	m := statementLine.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	date, err := parseDate(m[1])
	if err != nil {
		return nil, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(m[3], ",", ""))
	if err != nil || !amount.IsPositive() {
		return nil, false
	}

	narration := strings.TrimSpace(m[2])
	txnType := models.TxExpense
	if strings.EqualFold(m[4], "CR") {
		txnType = models.TxIncome
	}
	return &models.Transaction{
		Type:     txnType,
		Category: categorize(narration, txnType),
		Amount:   amount,
		Note:     narration,
		Date:     date,
	}, true
}

func parseDate(s string) (time.Time, error) {
	s = strings.ReplaceAll(s, "-", "/")
	return time.Parse("02/01/2006", s)
}

func categorize(narration, txnType string) string {
	lower := strings.ToLower(narration)
	for keyword, category := range categoryKeywords {
		if strings.Contains(lower, keyword) {
			return category
		}
	}
	if txnType == models.TxIncome {
		return "income"
	}
	return "uncategorized"
}
