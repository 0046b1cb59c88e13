package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanjaydutta/fintra/internal/models"
)

// routeSIPs dispatches /api/sips/* to the appropriate handler.
func (s *Server) routeSIPs(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sips/")

	if path == "tick" {
		s.handleSIPTick(w, r)
		return
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		s.handleSIP(w, r, parts[0])
	case len(parts) == 2:
		sipID, action := parts[0], parts[1]
		switch action {
		case "pause", "resume", "close":
			s.handleSIPTransition(w, r, sipID, action)
		case "migrate-to-investment":
			s.handleSIPMigrate(w, r, sipID)
		case "installments":
			s.handleSIPInstallments(w, r, sipID)
		default:
			WriteError(w, http.StatusNotFound, "not found")
		}
	default:
		WriteError(w, http.StatusNotFound, "not found")
	}
}

type sipRequest struct {
	FundName      string          `json:"fund_name"`
	PricingSource string          `json:"pricing_source"`
	Symbol        string          `json:"symbol"`
	SchemeCode    string          `json:"scheme_code"`
	Amount        decimal.Decimal `json:"amount"`
	Frequency     string          `json:"frequency"`
	AnchorDay     int             `json:"anchor_day"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       *time.Time      `json:"end_date"`
}

// handleSIPs handles GET/POST /api/sips.
func (s *Server) handleSIPs(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		plans, err := s.app.SIPService.List(r.Context(), userID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing SIPs: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"sips": plans})
		return
	}

	var req sipRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	plan := &models.SIP{
		UserID:        userID,
		FundName:      req.FundName,
		PricingSource: req.PricingSource,
		Symbol:        req.Symbol,
		SchemeCode:    req.SchemeCode,
		Amount:        req.Amount,
		Frequency:     req.Frequency,
		AnchorDay:     req.AnchorDay,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	}
	if err := s.app.SIPService.Create(r.Context(), plan); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, plan)
}

// handleSIP handles GET/PUT/DELETE /api/sips/{id}.
func (s *Server) handleSIP(w http.ResponseWriter, r *http.Request, sipID string) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		plan, err := s.app.SIPService.Get(r.Context(), userID, sipID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, plan)

	case http.MethodPut:
		var req sipRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		plan := &models.SIP{
			ID:            sipID,
			UserID:        userID,
			FundName:      req.FundName,
			PricingSource: req.PricingSource,
			Symbol:        req.Symbol,
			SchemeCode:    req.SchemeCode,
			Amount:        req.Amount,
			Frequency:     req.Frequency,
			AnchorDay:     req.AnchorDay,
			StartDate:     req.StartDate,
			EndDate:       req.EndDate,
		}
		if err := s.app.SIPService.Update(r.Context(), plan); err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, plan)

	case http.MethodDelete:
		if err := s.app.SIPService.Delete(r.Context(), userID, sipID); err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// handleSIPTransition handles POST /api/sips/{id}/pause|resume|close.
func (s *Server) handleSIPTransition(w http.ResponseWriter, r *http.Request, sipID, action string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	var (
		plan *models.SIP
		err  error
	)
	switch action {
	case "pause":
		plan, err = s.app.SIPService.Pause(r.Context(), userID, sipID)
	case "resume":
		plan, err = s.app.SIPService.Resume(r.Context(), userID, sipID)
	case "close":
		plan, err = s.app.SIPService.Close(r.Context(), userID, sipID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, plan)
}

// handleSIPMigrate handles POST /api/sips/{id}/migrate-to-investment.
func (s *Server) handleSIPMigrate(w http.ResponseWriter, r *http.Request, sipID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	holding, err := s.app.SIPService.MigrateToInvestment(r.Context(), userID, sipID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"holding": holding})
}

// handleSIPInstallments handles GET /api/sips/{id}/installments.
func (s *Server) handleSIPInstallments(w http.ResponseWriter, r *http.Request, sipID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	installments, err := s.app.SIPService.ListInstallments(r.Context(), userID, sipID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"installments": installments})
}

// handleSIPTick handles POST /api/sips/tick — manual batch tick across all
// users. The same path the scheduler drives, exposed for operations.
func (s *Server) handleSIPTick(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if _, ok := RequireUser(w, r); !ok {
		return
	}

	result, err := s.app.SIPService.Tick(r.Context(), time.Now())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Tick failed: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
