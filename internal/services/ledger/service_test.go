package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
	"github.com/sanjaydutta/fintra/internal/storage/memory"
)

type stubMarket struct {
	quotes map[string]*models.Quote
	err    error
}

func (m *stubMarket) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.quotes[symbol], nil
}

func (m *stubMarket) GetQuotes(_ context.Context, symbols []string) (map[string]*models.Quote, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := map[string]*models.Quote{}
	for _, s := range symbols {
		if q, ok := m.quotes[s]; ok {
			out[s] = q
		}
	}
	return out, nil
}

type stubNav struct {
	navs map[string]*models.MFNav
}

func (m *stubNav) GetLatestNav(_ context.Context, schemeCode string) (*models.MFNav, error) {
	return m.navs[schemeCode], nil
}

func newTestService() *Service {
	return NewService(memory.NewDataStore(), &stubMarket{}, &stubNav{}, common.NewSilentLogger())
}

func seedHolding(t *testing.T, svc *Service, userID, symbol string) *models.Holding {
	t.Helper()
	h := &models.Holding{UserID: userID, Symbol: symbol, Type: models.HoldingTypeStock}
	require.NoError(t, svc.CreateHolding(context.Background(), h))
	return h
}

func TestCreateHoldingValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	err := svc.CreateHolding(ctx, &models.Holding{UserID: "u1", Type: models.HoldingTypeStock})
	assert.Error(t, err, "missing symbol")

	err = svc.CreateHolding(ctx, &models.Holding{UserID: "u1", Symbol: "INFY", Type: "bond"})
	assert.Error(t, err, "unknown type")

	h := &models.Holding{UserID: "u1", Symbol: "infy", Type: models.HoldingTypeStock}
	require.NoError(t, svc.CreateHolding(ctx, h))
	assert.Equal(t, "INFY", h.Symbol, "symbol normalised to upper case")
	assert.NotEmpty(t, h.ID)
}

func TestAddTransactionRecomputesHolding(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	h := seedHolding(t, svc, "u1", "INFY")

	q1, p1 := decimal.NewFromInt(10), decimal.NewFromInt(100)
	_, err := svc.AddTransaction(ctx, &models.InvestmentTransaction{
		UserID: "u1", HoldingID: h.ID, Type: models.TxnBuy,
		Quantity: &q1, Price: &p1, Amount: decimal.NewFromInt(1000),
		Date: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	q2, p2 := decimal.NewFromInt(10), decimal.NewFromInt(200)
	updated, err := svc.AddTransaction(ctx, &models.InvestmentTransaction{
		UserID: "u1", HoldingID: h.ID, Type: models.TxnBuy,
		Quantity: &q2, Price: &p2, Amount: decimal.NewFromInt(2000),
		Date: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, updated.Quantity.Equal(decimal.NewFromInt(20)), "quantity = %s", updated.Quantity)
	assert.True(t, updated.AvgBuyPrice.Equal(decimal.NewFromInt(150)), "avg = %s", updated.AvgBuyPrice)

	stored, err := svc.GetHolding(ctx, "u1", h.ID)
	require.NoError(t, err)
	assert.True(t, stored.AvgBuyPrice.Equal(decimal.NewFromInt(150)), "persisted avg = %s", stored.AvgBuyPrice)
}

func TestAddTransactionOversoldRejectedBeforeWrite(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	h := seedHolding(t, svc, "u1", "INFY")

	q, p := decimal.NewFromInt(10), decimal.NewFromInt(100)
	_, err := svc.AddTransaction(ctx, &models.InvestmentTransaction{
		UserID: "u1", HoldingID: h.ID, Type: models.TxnBuy,
		Quantity: &q, Price: &p, Amount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	sellQty := decimal.NewFromInt(11)
	_, err = svc.AddTransaction(ctx, &models.InvestmentTransaction{
		UserID: "u1", HoldingID: h.ID, Type: models.TxnSell,
		Quantity: &sellQty, Price: &p, Amount: decimal.NewFromInt(1100),
	})
	require.ErrorIs(t, err, ErrOversold)

	// the rejected sell must not appear in the ledger
	entries, err := svc.ListTransactions(ctx, "u1", h.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	stored, err := svc.GetHolding(ctx, "u1", h.ID)
	require.NoError(t, err)
	assert.True(t, stored.Quantity.Equal(decimal.NewFromInt(10)))
}

func TestDeleteTransactionRestoresState(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	h := seedHolding(t, svc, "u1", "INFY")

	q1, p1 := decimal.NewFromInt(10), decimal.NewFromInt(100)
	first, err := svc.AddTransaction(ctx, &models.InvestmentTransaction{
		UserID: "u1", HoldingID: h.ID, Type: models.TxnBuy,
		Quantity: &q1, Price: &p1, Amount: decimal.NewFromInt(1000),
		Date: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	q2, p2 := decimal.NewFromInt(5), decimal.NewFromInt(300)
	_, err = svc.AddTransaction(ctx, &models.InvestmentTransaction{
		ID: "txn-2", UserID: "u1", HoldingID: h.ID, Type: models.TxnBuy,
		Quantity: &q2, Price: &p2, Amount: decimal.NewFromInt(1500),
		Date: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	restored, err := svc.DeleteTransaction(ctx, "u1", h.ID, "txn-2")
	require.NoError(t, err)
	assert.True(t, restored.Quantity.Equal(first.Quantity), "quantity restored")
	assert.True(t, restored.AvgBuyPrice.Equal(first.AvgBuyPrice), "avg restored")
}

func TestDeleteTransactionNotFound(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	h := seedHolding(t, svc, "u1", "INFY")

	_, err := svc.DeleteTransaction(ctx, "u1", h.ID, "missing")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestDeleteHoldingRemovesLedger(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	h := seedHolding(t, svc, "u1", "INFY")

	q, p := decimal.NewFromInt(10), decimal.NewFromInt(100)
	_, err := svc.AddTransaction(ctx, &models.InvestmentTransaction{
		UserID: "u1", HoldingID: h.ID, Type: models.TxnBuy,
		Quantity: &q, Price: &p, Amount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteHolding(ctx, "u1", h.ID))

	_, err = svc.GetHolding(ctx, "u1", h.ID)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	entries, err := svc.loadEntries(ctx, "u1", h.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRefreshPrices(t *testing.T) {
	store := memory.NewDataStore()
	market := &stubMarket{quotes: map[string]*models.Quote{
		"INFY": {Symbol: "INFY", Price: decimal.NewFromInt(1520), AsOf: time.Now()},
	}}
	nav := &stubNav{navs: map[string]*models.MFNav{
		"120503": {SchemeCode: "120503", NAV: decimal.RequireFromString("84.21"), Date: time.Now()},
	}}
	svc := NewService(store, market, nav, common.NewSilentLogger())
	ctx := context.Background()

	require.NoError(t, svc.CreateHolding(ctx, &models.Holding{
		UserID: "u1", Symbol: "INFY", Type: models.HoldingTypeStock,
	}))
	require.NoError(t, svc.CreateHolding(ctx, &models.Holding{
		UserID: "u1", Symbol: "PPFAS", Type: models.HoldingTypeMutualFund, SchemeCode: "120503",
	}))
	// unknown symbol keeps its last price and is not counted
	require.NoError(t, svc.CreateHolding(ctx, &models.Holding{
		UserID: "u1", Symbol: "ZZZZ", Type: models.HoldingTypeStock,
	}))

	updated, err := svc.RefreshPrices(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	holdings, err := svc.ListHoldings(ctx, "u1")
	require.NoError(t, err)
	byStr := map[string]*models.Holding{}
	for _, h := range holdings {
		byStr[h.Symbol] = h
	}
	assert.True(t, byStr["INFY"].CurrentPrice.Equal(decimal.NewFromInt(1520)))
	assert.True(t, byStr["PPFAS"].CurrentPrice.Equal(decimal.RequireFromString("84.21")))
	assert.True(t, byStr["ZZZZ"].CurrentPrice.IsZero())
}

func TestRefreshPricesFallsBackToCachedQuotes(t *testing.T) {
	store := memory.NewDataStore()
	market := &stubMarket{quotes: map[string]*models.Quote{
		"INFY": {Symbol: "INFY", Price: decimal.NewFromInt(1520), AsOf: time.Now()},
	}}
	svc := NewService(store, market, &stubNav{}, common.NewSilentLogger())
	ctx := context.Background()

	require.NoError(t, svc.CreateHolding(ctx, &models.Holding{
		UserID: "u1", Symbol: "INFY", Type: models.HoldingTypeStock,
	}))

	// first refresh populates the quote cache
	updated, err := svc.RefreshPrices(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	// provider down: the cached quote still resolves
	market.err = errors.New("provider unavailable")
	updated, err = svc.RefreshPrices(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	holdings, err := svc.ListHoldings(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, holdings[0].CurrentPrice.Equal(decimal.NewFromInt(1520)))
}
