package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanjaydutta/fintra/internal/models"
)

// --- Accounts ---

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		accounts, err := s.app.FinanceService.ListAccounts(r.Context(), userID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing accounts: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
		return
	}

	var req struct {
		Name     string          `json:"name"`
		Type     string          `json:"type"`
		Balance  decimal.Decimal `json:"balance"`
		Currency string          `json:"currency"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	account := &models.Account{
		UserID:   userID,
		Name:     req.Name,
		Type:     req.Type,
		Balance:  req.Balance,
		Currency: req.Currency,
	}
	if err := s.app.FinanceService.CreateAccount(r.Context(), account); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, account)
}

func (s *Server) handleAccountByID(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	accountID := PathParam(r, "/api/accounts/", "")
	if err := s.app.FinanceService.DeleteAccount(r.Context(), userID, accountID); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Transactions ---

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		from, to, err := parseDateRange(r)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		txns, err := s.app.FinanceService.ListTransactions(r.Context(), userID, from, to)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing transactions: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"transactions": txns})
		return
	}

	var req struct {
		AccountID   string          `json:"account_id"`
		ToAccountID string          `json:"to_account_id"`
		Type        string          `json:"type"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Note        string          `json:"note"`
		Date        time.Time       `json:"date"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	txn := &models.Transaction{
		UserID:      userID,
		AccountID:   req.AccountID,
		ToAccountID: req.ToAccountID,
		Type:        req.Type,
		Category:    req.Category,
		Amount:      req.Amount,
		Note:        req.Note,
		Date:        req.Date,
	}
	if err := s.app.FinanceService.CreateTransaction(r.Context(), txn); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, txn)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	txID := PathParam(r, "/api/transactions/", "")
	if err := s.app.FinanceService.DeleteTransaction(r.Context(), userID, txID); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// parseDateRange reads optional from/to query params (RFC 3339 or 2006-01-02).
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := parseDateParam(raw)
		if err != nil {
			return from, to, fmt.Errorf("invalid from date: %s", raw)
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := parseDateParam(raw)
		if err != nil {
			return from, to, fmt.Errorf("invalid to date: %s", raw)
		}
		to = t
	}
	return from, to, nil
}

func parseDateParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// --- Budgets ---

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		budgets, err := s.app.FinanceService.ListBudgets(r.Context(), userID, time.Now())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing budgets: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"budgets": budgets})
		return
	}

	var req struct {
		Category string          `json:"category"`
		Limit    decimal.Decimal `json:"limit"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	budget := &models.Budget{
		UserID:   userID,
		Category: req.Category,
		Limit:    req.Limit,
	}
	if err := s.app.FinanceService.CreateBudget(r.Context(), budget); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, budget)
}

func (s *Server) handleBudgetByID(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	budgetID := PathParam(r, "/api/budgets/", "")
	if err := s.app.FinanceService.DeleteBudget(r.Context(), userID, budgetID); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Goals ---

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		goals, err := s.app.FinanceService.ListGoals(r.Context(), userID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing goals: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"goals": goals})
		return
	}

	var goal models.Goal
	if !DecodeJSON(w, r, &goal) {
		return
	}
	goal.ID = ""
	goal.UserID = userID
	if err := s.app.FinanceService.SaveGoal(r.Context(), &goal); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, goal)
}

func (s *Server) routeGoals(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/goals/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		s.handleGoalByID(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "contribute":
		s.handleGoalContribute(w, r, parts[0])
	default:
		WriteError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleGoalByID(w http.ResponseWriter, r *http.Request, goalID string) {
	if !RequireMethod(w, r, http.MethodPut, http.MethodDelete) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodDelete {
		if err := s.app.FinanceService.DeleteGoal(r.Context(), userID, goalID); err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}

	var goal models.Goal
	if !DecodeJSON(w, r, &goal) {
		return
	}
	goal.ID = goalID
	goal.UserID = userID
	if err := s.app.FinanceService.SaveGoal(r.Context(), &goal); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, goal)
}

func (s *Server) handleGoalContribute(w http.ResponseWriter, r *http.Request, goalID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	goal, err := s.app.FinanceService.ContributeToGoal(r.Context(), userID, goalID, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, goal)
}

// --- Subscriptions ---

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		subs, err := s.app.FinanceService.ListSubscriptions(r.Context(), userID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing subscriptions: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"subscriptions": subs})
		return
	}

	var sub models.Subscription
	if !DecodeJSON(w, r, &sub) {
		return
	}
	sub.ID = ""
	sub.UserID = userID
	if err := s.app.FinanceService.SaveSubscription(r.Context(), &sub); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleSubscriptionByID(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPut, http.MethodDelete) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	subID := PathParam(r, "/api/subscriptions/", "")
	if r.Method == http.MethodDelete {
		if err := s.app.FinanceService.DeleteSubscription(r.Context(), userID, subID); err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}

	var sub models.Subscription
	if !DecodeJSON(w, r, &sub) {
		return
	}
	sub.ID = subID
	sub.UserID = userID
	if err := s.app.FinanceService.SaveSubscription(r.Context(), &sub); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

// --- Liabilities ---

func (s *Server) handleLiabilities(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		liabilities, err := s.app.FinanceService.ListLiabilities(r.Context(), userID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing liabilities: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"liabilities": liabilities})
		return
	}

	var l models.Liability
	if !DecodeJSON(w, r, &l) {
		return
	}
	l.ID = ""
	l.UserID = userID
	if err := s.app.FinanceService.SaveLiability(r.Context(), &l); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, l)
}

func (s *Server) handleLiabilityByID(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPut, http.MethodDelete) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	liabilityID := PathParam(r, "/api/liabilities/", "")
	if r.Method == http.MethodDelete {
		if err := s.app.FinanceService.DeleteLiability(r.Context(), userID, liabilityID); err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}

	var l models.Liability
	if !DecodeJSON(w, r, &l) {
		return
	}
	l.ID = liabilityID
	l.UserID = userID
	if err := s.app.FinanceService.SaveLiability(r.Context(), &l); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, l)
}

// --- Notifications ---

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			WriteError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	notifications, err := s.app.FinanceService.ListNotifications(r.Context(), userID, limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing notifications: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

func (s *Server) routeNotifications(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/notifications/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		s.handleNotificationDelete(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "read":
		s.handleNotificationRead(w, r, parts[0])
	default:
		WriteError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleNotificationRead(w http.ResponseWriter, r *http.Request, notificationID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if err := s.app.FinanceService.MarkNotificationRead(r.Context(), userID, notificationID); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (s *Server) handleNotificationDelete(w http.ResponseWriter, r *http.Request, notificationID string) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if err := s.app.FinanceService.DeleteNotification(r.Context(), userID, notificationID); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
