package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

// routeInvestments dispatches /api/investments/* to the appropriate handler.
// Reserved segments (tax-center, rebalance, refresh-prices) take priority
// over holding IDs.
func (s *Server) routeInvestments(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/investments/")

	switch {
	case path == "tax-center":
		s.handleTaxCenter(w, r)
	case path == "rebalance/chart":
		s.handleRebalanceChart(w, r)
	case path == "rebalance":
		s.handleRebalance(w, r)
	case path == "refresh-prices":
		s.handleRefreshPrices(w, r)
	default:
		parts := strings.Split(strings.Trim(path, "/"), "/")
		switch {
		case len(parts) == 1 && parts[0] != "":
			s.handleHolding(w, r, parts[0])
		case len(parts) == 2 && parts[1] == "transactions":
			s.handleHoldingTransactions(w, r, parts[0])
		case len(parts) == 3 && parts[1] == "transactions":
			s.handleHoldingTransactionDelete(w, r, parts[0], parts[2])
		default:
			WriteError(w, http.StatusNotFound, "not found")
		}
	}
}

// handleInvestments handles GET/POST /api/investments.
func (s *Server) handleInvestments(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		holdings, err := s.app.LedgerService.ListHoldings(r.Context(), userID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing holdings: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"holdings": holdings})
		return
	}

	var req struct {
		Symbol      string           `json:"symbol"`
		Name        string           `json:"name"`
		Type        string           `json:"type"`
		SchemeCode  string           `json:"scheme_code"`
		Quantity    *decimal.Decimal `json:"quantity"`
		AvgBuyPrice *decimal.Decimal `json:"avg_buy_price"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	h := &models.Holding{
		UserID:     userID,
		Symbol:     req.Symbol,
		Name:       req.Name,
		Type:       req.Type,
		SchemeCode: req.SchemeCode,
	}
	if req.Quantity != nil {
		h.Quantity = *req.Quantity
	}
	if req.AvgBuyPrice != nil {
		h.AvgBuyPrice = *req.AvgBuyPrice
	}

	if err := s.app.LedgerService.CreateHolding(r.Context(), h); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, h)
}

// handleHolding handles GET/DELETE /api/investments/{id}.
func (s *Server) handleHolding(w http.ResponseWriter, r *http.Request, holdingID string) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodDelete) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodDelete {
		if err := s.app.LedgerService.DeleteHolding(r.Context(), userID, holdingID); err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}

	h, err := s.app.LedgerService.GetHolding(r.Context(), userID, holdingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h)
}

// handleHoldingTransactions handles GET/POST /api/investments/{id}/transactions.
// Posting a transaction triggers a full ledger recompute; oversold sells are
// rejected before anything is written.
func (s *Server) handleHoldingTransactions(w http.ResponseWriter, r *http.Request, holdingID string) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		txns, err := s.app.LedgerService.ListTransactions(r.Context(), userID, holdingID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"transactions": txns})
		return
	}

	var req struct {
		Type     string           `json:"type"`
		Quantity *decimal.Decimal `json:"quantity"`
		Price    *decimal.Decimal `json:"price"`
		Amount   decimal.Decimal  `json:"amount"`
		Fees     decimal.Decimal  `json:"fees"`
		Taxes    decimal.Decimal  `json:"taxes"`
		Note     string           `json:"note"`
		Date     time.Time        `json:"date"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	txn := &models.InvestmentTransaction{
		UserID:    userID,
		HoldingID: holdingID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Amount:    req.Amount,
		Fees:      req.Fees,
		Taxes:     req.Taxes,
		Note:      req.Note,
		Date:      req.Date,
	}

	h, err := s.app.LedgerService.AddTransaction(r.Context(), txn)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"transaction": txn,
		"holding":     h,
	})
}

// handleHoldingTransactionDelete handles DELETE /api/investments/{id}/transactions/{txnId}.
func (s *Server) handleHoldingTransactionDelete(w http.ResponseWriter, r *http.Request, holdingID, txnID string) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	h, err := s.app.LedgerService.DeleteTransaction(r.Context(), userID, holdingID, txnID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"holding": h})
}

// handleRefreshPrices handles POST /api/investments/refresh-prices.
func (s *Server) handleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	updated, err := s.app.LedgerService.RefreshPrices(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error refreshing prices: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"updated": updated})
}

// handleTaxCenter handles GET /api/investments/tax-center?fyStartYear=.
func (s *Server) handleTaxCenter(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	fyStartYear := 0
	if raw := r.URL.Query().Get("fyStartYear"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1990 || y > 2200 {
			WriteError(w, http.StatusBadRequest, "fyStartYear must be a valid year")
			return
		}
		fyStartYear = y
	}

	report, err := s.app.TaxService.Report(r.Context(), userID, fyStartYear)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error computing tax report: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// handleRebalance handles GET/POST /api/investments/rebalance.
// GET uses the configured default targets; POST accepts custom weights.
func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	var targets map[string]float64
	if r.Method == http.MethodPost {
		var req struct {
			Targets map[string]float64 `json:"targets"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		targets = req.Targets
	}

	plan, err := s.app.RebalanceService.Plan(r.Context(), userID, targets)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error computing rebalance plan: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, plan)
}

// handleRebalanceChart handles GET /api/investments/rebalance/chart — PNG.
func (s *Server) handleRebalanceChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	png, err := s.app.RebalanceService.RenderChart(r.Context(), userID, nil)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error rendering chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// writeServiceError maps service errors onto HTTP statuses: missing records
// are 404, everything else surfaces as 400 with the validation message.
func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, interfaces.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not found")
		return
	}
	WriteError(w, http.StatusBadRequest, err.Error())
}
