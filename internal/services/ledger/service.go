package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

// Service implements interfaces.LedgerService over the generic data store.
// Ledger mutations for one holding are serialised with a per-holding lock so
// the recompute and the cached aggregates stay consistent.
type Service struct {
	store  interfaces.DataStore
	market interfaces.MarketDataClient
	mfnav  interfaces.MFNavClient
	logger *common.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ interfaces.LedgerService = (*Service)(nil)

// NewService creates a ledger service.
func NewService(store interfaces.DataStore, market interfaces.MarketDataClient, mfnav interfaces.MFNavClient, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}
	return &Service{
		store:  store,
		market: market,
		mfnav:  mfnav,
		logger: logger,
		locks:  map[string]*sync.Mutex{},
	}
}

func (s *Service) holdingLock(userID, holdingID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userID + "/" + holdingID
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// ListHoldings returns the user's holdings sorted by symbol.
func (s *Service) ListHoldings(ctx context.Context, userID string) ([]*models.Holding, error) {
	records, err := s.store.List(ctx, userID, models.SubjectHolding)
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	holdings := make([]*models.Holding, 0, len(records))
	for _, r := range records {
		var h models.Holding
		if err := json.Unmarshal([]byte(r.Value), &h); err != nil {
			s.logger.Warn().Err(err).Str("key", r.Key).Msg("Skipping malformed holding record")
			continue
		}
		holdings = append(holdings, &h)
	}
	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].Symbol < holdings[j].Symbol
	})
	return holdings, nil
}

// GetHolding returns one holding or interfaces.ErrNotFound.
func (s *Service) GetHolding(ctx context.Context, userID, holdingID string) (*models.Holding, error) {
	r, err := s.store.Get(ctx, userID, models.SubjectHolding, holdingID)
	if err != nil {
		return nil, err
	}
	var h models.Holding
	if err := json.Unmarshal([]byte(r.Value), &h); err != nil {
		return nil, fmt.Errorf("decode holding %s: %w", holdingID, err)
	}
	return &h, nil
}

// CreateHolding validates and stores a new holding. Quantity and average
// price may be seeded directly at creation; once ledger entries exist they
// are overwritten by recompute on every mutation.
func (s *Service) CreateHolding(ctx context.Context, h *models.Holding) error {
	if h.UserID == "" {
		return fmt.Errorf("holding requires a user id")
	}
	h.Symbol = strings.ToUpper(strings.TrimSpace(h.Symbol))
	if h.Symbol == "" {
		return fmt.Errorf("holding requires a symbol")
	}
	if !models.ValidHoldingType(h.Type) {
		return fmt.Errorf("invalid holding type %q", h.Type)
	}
	if h.Type == models.HoldingTypeMutualFund && h.SchemeCode == "" {
		s.logger.Debug().Str("symbol", h.Symbol).Msg("Mutual fund holding created without scheme code; NAV refresh will skip it")
	}
	if h.Quantity.IsNegative() || h.AvgBuyPrice.IsNegative() {
		return fmt.Errorf("holding quantity and avg price must be non-negative")
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	h.CreatedAt = now
	h.LastUpdated = now
	return s.putHolding(ctx, h)
}

// DeleteHolding removes a holding and its full transaction ledger.
func (s *Service) DeleteHolding(ctx context.Context, userID, holdingID string) error {
	lock := s.holdingLock(userID, holdingID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.GetHolding(ctx, userID, holdingID); err != nil {
		return err
	}
	entries, err := s.loadEntries(ctx, userID, holdingID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := s.store.Delete(ctx, userID, models.SubjectInvestmentTxn, e.ID); err != nil {
			return fmt.Errorf("delete ledger entry %s: %w", e.ID, err)
		}
	}
	return s.store.Delete(ctx, userID, models.SubjectHolding, holdingID)
}

// ListTransactions returns the holding's ledger in chronological order.
func (s *Service) ListTransactions(ctx context.Context, userID, holdingID string) ([]*models.InvestmentTransaction, error) {
	entries, err := s.loadEntries(ctx, userID, holdingID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// AddTransaction appends a ledger entry and recomputes the holding. An entry
// that would oversell the position is rejected before anything is written.
func (s *Service) AddTransaction(ctx context.Context, txn *models.InvestmentTransaction) (*models.Holding, error) {
	if err := validateEntry(txn); err != nil {
		return nil, err
	}

	lock := s.holdingLock(txn.UserID, txn.HoldingID)
	lock.Lock()
	defer lock.Unlock()

	holding, err := s.GetHolding(ctx, txn.UserID, txn.HoldingID)
	if err != nil {
		return nil, err
	}
	entries, err := s.loadEntries(ctx, txn.UserID, txn.HoldingID)
	if err != nil {
		return nil, err
	}

	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.Date.IsZero() {
		txn.Date = time.Now().UTC()
	}
	txn.CreatedAt = time.Now().UTC()

	state, err := Recompute(append(entries, txn))
	if err != nil {
		return nil, err
	}

	if err := s.putEntry(ctx, txn); err != nil {
		return nil, err
	}
	applyState(holding, state)
	if err := s.putHolding(ctx, holding); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("user_id", txn.UserID).
		Str("holding_id", txn.HoldingID).
		Str("type", txn.Type).
		Str("quantity", holding.Quantity.String()).
		Msg("Ledger entry posted")
	return holding, nil
}

// DeleteTransaction removes a ledger entry and recomputes the holding from
// the remaining entries, restoring the pre-entry aggregate state.
func (s *Service) DeleteTransaction(ctx context.Context, userID, holdingID, txnID string) (*models.Holding, error) {
	lock := s.holdingLock(userID, holdingID)
	lock.Lock()
	defer lock.Unlock()

	holding, err := s.GetHolding(ctx, userID, holdingID)
	if err != nil {
		return nil, err
	}
	entries, err := s.loadEntries(ctx, userID, holdingID)
	if err != nil {
		return nil, err
	}

	remaining := entries[:0:0]
	found := false
	for _, e := range entries {
		if e.ID == txnID {
			found = true
			continue
		}
		remaining = append(remaining, e)
	}
	if !found {
		return nil, interfaces.ErrNotFound
	}

	state, err := Recompute(remaining)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, userID, models.SubjectInvestmentTxn, txnID); err != nil {
		return nil, fmt.Errorf("delete ledger entry %s: %w", txnID, err)
	}
	applyState(holding, state)
	if err := s.putHolding(ctx, holding); err != nil {
		return nil, err
	}
	return holding, nil
}

// RefreshPrices updates CurrentPrice on all of the user's holdings from the
// quote and NAV providers, returning the number updated. Holdings with no
// resolvable price keep their last known value.
func (s *Service) RefreshPrices(ctx context.Context, userID string) (int, error) {
	holdings, err := s.ListHoldings(ctx, userID)
	if err != nil {
		return 0, err
	}

	var symbols []string
	for _, h := range holdings {
		if h.Type != models.HoldingTypeMutualFund {
			symbols = append(symbols, h.Symbol)
		}
	}
	quotes := map[string]*models.Quote{}
	if len(symbols) > 0 && s.market != nil {
		quotes, err = s.market.GetQuotes(ctx, symbols)
		if err != nil {
			// provider outage: fall through to the cached quotes below
			s.logger.Warn().Err(err).Msg("Quote fetch failed, using cached quotes")
			quotes = map[string]*models.Quote{}
		}
	}

	updated := 0
	for _, h := range holdings {
		var price *models.Quote
		switch {
		case h.Type == models.HoldingTypeMutualFund:
			if h.SchemeCode == "" || s.mfnav == nil {
				continue
			}
			nav, err := s.mfnav.GetLatestNav(ctx, h.SchemeCode)
			if err != nil || nav == nil {
				if err != nil {
					s.logger.Warn().Err(err).Str("scheme", h.SchemeCode).Msg("NAV fetch failed, using cached quote")
				}
				price = s.cachedQuote(ctx, userID, h.Symbol)
				break
			}
			price = &models.Quote{Symbol: h.Symbol, Price: nav.NAV, AsOf: nav.Date}
			s.cacheQuote(ctx, userID, price)
		default:
			price = quotes[h.Symbol]
			if price == nil {
				price = s.cachedQuote(ctx, userID, h.Symbol)
			} else {
				s.cacheQuote(ctx, userID, price)
			}
		}
		if price == nil || !price.Price.IsPositive() {
			continue
		}
		h.CurrentPrice = price.Price
		h.LastUpdated = time.Now().UTC()
		if err := s.putHolding(ctx, h); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// cacheQuote stores the last resolved price for a symbol. The cache keeps
// valuations current when a provider is down or rate limited.
func (s *Service) cacheQuote(ctx context.Context, userID string, q *models.Quote) {
	if q.Symbol == "" {
		return
	}
	data, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := s.store.Put(ctx, &models.Record{
		UserID:   userID,
		Subject:  models.SubjectQuote,
		Key:      q.Symbol,
		Value:    string(data),
		DateTime: q.AsOf,
	}); err != nil {
		s.logger.Warn().Err(err).Str("symbol", q.Symbol).Msg("Quote cache write failed")
	}
}

func (s *Service) cachedQuote(ctx context.Context, userID, symbol string) *models.Quote {
	if symbol == "" {
		return nil
	}
	r, err := s.store.Get(ctx, userID, models.SubjectQuote, symbol)
	if err != nil {
		return nil
	}
	var q models.Quote
	if err := json.Unmarshal([]byte(r.Value), &q); err != nil {
		return nil
	}
	return &q
}

func validateEntry(txn *models.InvestmentTransaction) error {
	if txn.UserID == "" || txn.HoldingID == "" {
		return fmt.Errorf("ledger entry requires user and holding ids")
	}
	if !models.ValidTxnType(txn.Type) {
		return fmt.Errorf("invalid ledger entry type %q", txn.Type)
	}
	if !txn.Amount.IsPositive() {
		return fmt.Errorf("ledger entry amount must be positive")
	}
	if txn.Fees.IsNegative() || txn.Taxes.IsNegative() {
		return fmt.Errorf("fees and taxes must be non-negative")
	}
	switch txn.Type {
	case models.TxnBuy, models.TxnSell, models.TxnSIP:
		if txn.Quantity == nil || !txn.Quantity.IsPositive() {
			return ErrMissingQuantity
		}
	}
	return nil
}

func applyState(h *models.Holding, state models.LedgerState) {
	h.Quantity = state.Quantity
	h.AvgBuyPrice = state.AvgBuyPrice
	h.RealizedGain = state.RealizedGain
	h.LastUpdated = time.Now().UTC()
}

func (s *Service) loadEntries(ctx context.Context, userID, holdingID string) ([]*models.InvestmentTransaction, error) {
	records, err := s.store.List(ctx, userID, models.SubjectInvestmentTxn)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	var entries []*models.InvestmentTransaction
	for _, r := range records {
		var e models.InvestmentTransaction
		if err := json.Unmarshal([]byte(r.Value), &e); err != nil {
			s.logger.Warn().Err(err).Str("key", r.Key).Msg("Skipping malformed ledger record")
			continue
		}
		if e.HoldingID != holdingID {
			continue
		}
		entries = append(entries, &e)
	}
	return entries, nil
}

func (s *Service) putHolding(ctx context.Context, h *models.Holding) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode holding: %w", err)
	}
	return s.store.Put(ctx, &models.Record{
		UserID:   h.UserID,
		Subject:  models.SubjectHolding,
		Key:      h.ID,
		Value:    string(data),
		DateTime: time.Now().UTC(),
	})
}

func (s *Service) putEntry(ctx context.Context, txn *models.InvestmentTransaction) error {
	data, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("encode ledger entry: %w", err)
	}
	return s.store.Put(ctx, &models.Record{
		UserID:   txn.UserID,
		Subject:  models.SubjectInvestmentTxn,
		Key:      txn.ID,
		Value:    string(data),
		DateTime: time.Now().UTC(),
	})
}
