package server

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxStatementSize bounds uploaded PDF statements. Bank statements for a
// single month rarely exceed a couple of megabytes.
const maxStatementSize = 10 << 20

func (s *Server) handleInsightsSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	summary, err := s.app.InsightService.MonthlySummary(r.Context(), userID, time.Now())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error generating summary: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAlertsEvaluate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	result, err := s.app.AlertService.Evaluate(r.Context(), userID, time.Now())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error evaluating alerts: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleImportStatement accepts a raw PDF body; the target account is passed
// as an accountId query parameter so clients can stream the file directly.
func (s *Server) handleImportStatement(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		WriteError(w, http.StatusBadRequest, "accountId query parameter is required")
		return
	}

	pdfData, err := io.ReadAll(io.LimitReader(r.Body, maxStatementSize+1))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(pdfData) == 0 {
		WriteError(w, http.StatusBadRequest, "statement body is empty")
		return
	}
	if len(pdfData) > maxStatementSize {
		WriteError(w, http.StatusRequestEntityTooLarge, "statement exceeds 10MB limit")
		return
	}

	result, err := s.app.ImportService.ImportStatement(r.Context(), userID, accountID, pdfData)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
