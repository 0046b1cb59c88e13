// Package finance manages day-to-day money entities: accounts, cash
// transactions, budgets, goals, subscriptions, liabilities and the
// notification inbox.
package finance

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

// ErrAccountInUse is returned when deleting an account that transactions
// still reference.
var ErrAccountInUse = errors.New("account has transactions")

// Service implements interfaces.FinanceService.
type Service struct {
	store  interfaces.DataStore
	loc    *time.Location
	logger *common.Logger

	// serialises balance updates per user
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ interfaces.FinanceService = (*Service)(nil)

// NewService creates a finance service. loc is the reference timezone for
// month-window computations.
func NewService(store interfaces.DataStore, loc *time.Location, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, logger: logger, locks: map[string]*sync.Mutex{}}
}

func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// ListAccounts returns the user's accounts sorted by name.
func (s *Service) ListAccounts(ctx context.Context, userID string) ([]*models.Account, error) {
	var accounts []*models.Account
	if err := s.listInto(ctx, userID, models.SubjectAccount, func(raw []byte) error {
		var a models.Account
		if err := json.Unmarshal(raw, &a); err != nil {
			return err
		}
		accounts = append(accounts, &a)
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

// CreateAccount validates and stores a new account.
func (s *Service) CreateAccount(ctx context.Context, a *models.Account) error {
	if a.UserID == "" {
		return fmt.Errorf("account requires a user id")
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("account requires a name")
	}
	switch a.Type {
	case models.AccountBank, models.AccountCash, models.AccountCard, models.AccountWallet:
	default:
		return fmt.Errorf("invalid account type %q", a.Type)
	}
	if a.Currency == "" {
		a.Currency = "INR"
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()
	return s.put(ctx, a.UserID, models.SubjectAccount, a.ID, a, a.CreatedAt)
}

// DeleteAccount removes an account. Accounts still referenced by
// transactions cannot be deleted.
func (s *Service) DeleteAccount(ctx context.Context, userID, accountID string) error {
	if _, err := s.getAccount(ctx, userID, accountID); err != nil {
		return err
	}
	txns, err := s.allTransactions(ctx, userID)
	if err != nil {
		return err
	}
	for _, t := range txns {
		if t.AccountID == accountID || t.ToAccountID == accountID {
			return ErrAccountInUse
		}
	}
	return s.store.Delete(ctx, userID, models.SubjectAccount, accountID)
}

// ListTransactions returns transactions with dates inside [from, to],
// newest first. Zero bounds are open.
func (s *Service) ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]*models.Transaction, error) {
	txns, err := s.allTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []*models.Transaction
	for _, t := range txns {
		if !from.IsZero() && t.Date.Before(from) {
			continue
		}
		if !to.IsZero() && t.Date.After(to) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// CreateTransaction validates references, stores the transaction and applies
// its balance effect to the involved accounts in the same pass.
func (s *Service) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if t.UserID == "" {
		return fmt.Errorf("transaction requires a user id")
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("transaction amount must be positive")
	}
	switch t.Type {
	case models.TxIncome, models.TxExpense:
		if t.ToAccountID != "" {
			return fmt.Errorf("%s transaction must not carry a destination account", t.Type)
		}
	case models.TxTransfer:
		if t.ToAccountID == "" {
			return fmt.Errorf("transfer requires a destination account")
		}
		if t.ToAccountID == t.AccountID {
			return fmt.Errorf("transfer source and destination must differ")
		}
	default:
		return fmt.Errorf("invalid transaction type %q", t.Type)
	}

	lock := s.userLock(t.UserID)
	lock.Lock()
	defer lock.Unlock()

	account, err := s.getAccount(ctx, t.UserID, t.AccountID)
	if err != nil {
		return fmt.Errorf("source account: %w", err)
	}
	var dest *models.Account
	if t.Type == models.TxTransfer {
		if dest, err = s.getAccount(ctx, t.UserID, t.ToAccountID); err != nil {
			return fmt.Errorf("destination account: %w", err)
		}
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
	t.CreatedAt = time.Now().UTC()
	if err := s.put(ctx, t.UserID, models.SubjectTransaction, t.ID, t, t.Date); err != nil {
		return err
	}
	return s.applyBalances(ctx, t, account, dest, false)
}

// DeleteTransaction removes a transaction and reverses its balance effect.
func (s *Service) DeleteTransaction(ctx context.Context, userID, txID string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	r, err := s.store.Get(ctx, userID, models.SubjectTransaction, txID)
	if err != nil {
		return err
	}
	var t models.Transaction
	if err := json.Unmarshal([]byte(r.Value), &t); err != nil {
		return fmt.Errorf("decode transaction %s: %w", txID, err)
	}

	account, err := s.getAccount(ctx, userID, t.AccountID)
	if err != nil {
		return fmt.Errorf("source account: %w", err)
	}
	var dest *models.Account
	if t.Type == models.TxTransfer {
		if dest, err = s.getAccount(ctx, userID, t.ToAccountID); err != nil {
			return fmt.Errorf("destination account: %w", err)
		}
	}
	if err := s.store.Delete(ctx, userID, models.SubjectTransaction, txID); err != nil {
		return err
	}
	return s.applyBalances(ctx, &t, account, dest, true)
}

// applyBalances applies (or reverses) a transaction's effect on its
// accounts.
func (s *Service) applyBalances(ctx context.Context, t *models.Transaction, account, dest *models.Account, reverse bool) error {
	amount := t.Amount
	if reverse {
		amount = amount.Neg()
	}
	switch t.Type {
	case models.TxIncome:
		account.Balance = account.Balance.Add(amount)
	case models.TxExpense:
		account.Balance = account.Balance.Sub(amount)
	case models.TxTransfer:
		account.Balance = account.Balance.Sub(amount)
		dest.Balance = dest.Balance.Add(amount)
	}
	if err := s.put(ctx, account.UserID, models.SubjectAccount, account.ID, account, account.CreatedAt); err != nil {
		return err
	}
	if dest != nil {
		return s.put(ctx, dest.UserID, models.SubjectAccount, dest.ID, dest, dest.CreatedAt)
	}
	return nil
}

func (s *Service) getAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	r, err := s.store.Get(ctx, userID, models.SubjectAccount, accountID)
	if err != nil {
		return nil, err
	}
	var a models.Account
	if err := json.Unmarshal([]byte(r.Value), &a); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", accountID, err)
	}
	return &a, nil
}

func (s *Service) allTransactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	var txns []*models.Transaction
	err := s.listInto(ctx, userID, models.SubjectTransaction, func(raw []byte) error {
		var t models.Transaction
		if err := json.Unmarshal(raw, &t); err != nil {
			return err
		}
		txns = append(txns, &t)
		return nil
	})
	return txns, err
}

// listInto iterates a subject's records, skipping malformed values.
func (s *Service) listInto(ctx context.Context, userID, subject string, decode func([]byte) error) error {
	records, err := s.store.List(ctx, userID, subject)
	if err != nil {
		return fmt.Errorf("list %s: %w", subject, err)
	}
	for _, r := range records {
		if err := decode([]byte(r.Value)); err != nil {
			s.logger.Warn().Err(err).Str("subject", subject).Str("key", r.Key).Msg("Skipping malformed record")
		}
	}
	return nil
}

func (s *Service) put(ctx context.Context, userID, subject, key string, v any, at time.Time) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return s.store.Put(ctx, &models.Record{
		UserID:   userID,
		Subject:  subject,
		Key:      key,
		Value:    string(data),
		DateTime: at,
	})
}

// monthSpend sums current-month expenses per category.
func monthSpend(txns []*models.Transaction, now time.Time, loc *time.Location) map[string]decimal.Decimal {
	spend := map[string]decimal.Decimal{}
	for _, t := range txns {
		if t.Type != models.TxExpense {
			continue
		}
		if !common.SameMonth(t.Date, now, loc) {
			continue
		}
		spend[t.Category] = spend[t.Category].Add(t.Amount)
	}
	return spend
}
