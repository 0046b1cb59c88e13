package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testUserID = "user-1"

func TestHandleAccounts_CreateAndList(t *testing.T) {
	srv := newTestServer(t)

	body := jsonBody(t, map[string]interface{}{
		"name":     "HDFC Savings",
		"type":     "bank",
		"balance":  "15000.50",
		"currency": "INR",
	})
	req := authedRequest(http.MethodPost, "/api/accounts", body, testUserID)
	rec := httptest.NewRecorder()
	srv.handleAccounts(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeResponse(t, rec)
	if created["id"] == "" {
		t.Error("expected account id to be assigned")
	}

	req = authedRequest(http.MethodGet, "/api/accounts", nil, testUserID)
	rec = httptest.NewRecorder()
	srv.handleAccounts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	accounts := resp["accounts"].([]interface{})
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
}

func TestHandleAccounts_Unauthenticated(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	srv.handleAccounts(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandleAccountDelete_NotFound(t *testing.T) {
	srv := newTestServer(t)

	req := authedRequest(http.MethodDelete, "/api/accounts/missing", nil, testUserID)
	rec := httptest.NewRecorder()
	srv.handleAccountByID(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func createTestAccount(t *testing.T, srv *Server, userID, name string) string {
	t.Helper()
	body := jsonBody(t, map[string]interface{}{
		"name":     name,
		"type":     "bank",
		"currency": "INR",
	})
	req := authedRequest(http.MethodPost, "/api/accounts", body, userID)
	rec := httptest.NewRecorder()
	srv.handleAccounts(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("createTestAccount: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeResponse(t, rec)["id"].(string)
}

func TestHandleTransactions_CreateAndFilter(t *testing.T) {
	srv := newTestServer(t)
	accountID := createTestAccount(t, srv, testUserID, "Checking")

	for _, date := range []string{"2026-01-10", "2026-02-10", "2026-03-10"} {
		body := jsonBody(t, map[string]interface{}{
			"account_id": accountID,
			"type":       "expense",
			"category":   "groceries",
			"amount":     "500",
			"date":       date + "T00:00:00Z",
		})
		req := authedRequest(http.MethodPost, "/api/transactions", body, testUserID)
		rec := httptest.NewRecorder()
		srv.handleTransactions(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	req := authedRequest(http.MethodGet, "/api/transactions?from=2026-02-01&to=2026-02-28", nil, testUserID)
	rec := httptest.NewRecorder()
	srv.handleTransactions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	txns := resp["transactions"].([]interface{})
	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction in the window, got %d", len(txns))
	}
}

func TestHandleTransactions_BadDateParam(t *testing.T) {
	srv := newTestServer(t)

	req := authedRequest(http.MethodGet, "/api/transactions?from=yesterday", nil, testUserID)
	rec := httptest.NewRecorder()
	srv.handleTransactions(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleTransactions_UnknownAccountRejected(t *testing.T) {
	srv := newTestServer(t)

	body := jsonBody(t, map[string]interface{}{
		"account_id": "nope",
		"type":       "expense",
		"category":   "misc",
		"amount":     "100",
		"date":       time.Now().Format(time.RFC3339),
	})
	req := authedRequest(http.MethodPost, "/api/transactions", body, testUserID)
	rec := httptest.NewRecorder()
	srv.handleTransactions(rec, req)

	if rec.Code == http.StatusCreated {
		t.Error("expected transaction against an unknown account to be rejected")
	}
}

func TestHandleBudgets_CreateAndStatus(t *testing.T) {
	srv := newTestServer(t)
	accountID := createTestAccount(t, srv, testUserID, "Spending")

	body := jsonBody(t, map[string]interface{}{
		"category": "dining",
		"limit":    "4000",
	})
	req := authedRequest(http.MethodPost, "/api/budgets", body, testUserID)
	rec := httptest.NewRecorder()
	srv.handleBudgets(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Spend in the current month so the status reflects usage.
	txBody := jsonBody(t, map[string]interface{}{
		"account_id": accountID,
		"type":       "expense",
		"category":   "dining",
		"amount":     "1000",
		"date":       time.Now().UTC().Format(time.RFC3339),
	})
	txReq := authedRequest(http.MethodPost, "/api/transactions", txBody, testUserID)
	txRec := httptest.NewRecorder()
	srv.handleTransactions(txRec, txReq)
	if txRec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", txRec.Code, txRec.Body.String())
	}

	req = authedRequest(http.MethodGet, "/api/budgets", nil, testUserID)
	rec = httptest.NewRecorder()
	srv.handleBudgets(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	budgets := resp["budgets"].([]interface{})
	if len(budgets) != 1 {
		t.Fatalf("expected 1 budget, got %d", len(budgets))
	}
	status := budgets[0].(map[string]interface{})
	if status["spent"] != "1000" {
		t.Errorf("expected spent '1000', got %v", status["spent"])
	}
}

func TestHandleGoals_SaveAndContribute(t *testing.T) {
	srv := newTestServer(t)

	body := jsonBody(t, map[string]interface{}{
		"name":          "Emergency Fund",
		"target_amount": "100000",
	})
	req := authedRequest(http.MethodPost, "/api/goals", body, testUserID)
	rec := httptest.NewRecorder()
	srv.handleGoals(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	goalID := decodeResponse(t, rec)["id"].(string)

	contribBody := jsonBody(t, map[string]interface{}{"amount": "2500"})
	contribReq := authedRequest(http.MethodPost, "/api/goals/"+goalID+"/contribute", contribBody, testUserID)
	contribRec := httptest.NewRecorder()
	srv.routeGoals(contribRec, contribReq)

	if contribRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", contribRec.Code, contribRec.Body.String())
	}
	goal := decodeResponse(t, contribRec)
	if goal["saved_amount"] != "2500" {
		t.Errorf("expected saved_amount '2500', got %v", goal["saved_amount"])
	}
}

func TestHandleGoalContribute_NotFound(t *testing.T) {
	srv := newTestServer(t)

	body := jsonBody(t, map[string]interface{}{"amount": "100"})
	req := authedRequest(http.MethodPost, "/api/goals/missing/contribute", body, testUserID)
	rec := httptest.NewRecorder()
	srv.routeGoals(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleSubscriptions_CreateUpdateDelete(t *testing.T) {
	srv := newTestServer(t)

	body := jsonBody(t, map[string]interface{}{
		"name":      "Streaming",
		"category":  "entertainment",
		"amount":    "499",
		"frequency": "monthly",
		"next_due":  time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
		"active":    true,
	})
	req := authedRequest(http.MethodPost, "/api/subscriptions", body, testUserID)
	rec := httptest.NewRecorder()
	srv.handleSubscriptions(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	subID := decodeResponse(t, rec)["id"].(string)

	updBody := jsonBody(t, map[string]interface{}{
		"name":      "Streaming",
		"category":  "entertainment",
		"amount":    "599",
		"frequency": "monthly",
		"next_due":  time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
		"active":    false,
	})
	updReq := authedRequest(http.MethodPut, "/api/subscriptions/"+subID, updBody, testUserID)
	updRec := httptest.NewRecorder()
	srv.handleSubscriptionByID(updRec, updReq)
	if updRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", updRec.Code, updRec.Body.String())
	}

	delReq := authedRequest(http.MethodDelete, "/api/subscriptions/"+subID, nil, testUserID)
	delRec := httptest.NewRecorder()
	srv.handleSubscriptionByID(delRec, delReq)
	if delRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", delRec.Code, delRec.Body.String())
	}

	listReq := authedRequest(http.MethodGet, "/api/subscriptions", nil, testUserID)
	listRec := httptest.NewRecorder()
	srv.handleSubscriptions(listRec, listReq)
	resp := decodeResponse(t, listRec)
	if subs := resp["subscriptions"].([]interface{}); len(subs) != 0 {
		t.Errorf("expected 0 subscriptions after delete, got %d", len(subs))
	}
}

func TestHandleLiabilities_Create(t *testing.T) {
	srv := newTestServer(t)

	body := jsonBody(t, map[string]interface{}{
		"name":          "Car Loan",
		"type":          "loan",
		"principal":     "800000",
		"outstanding":   "650000",
		"interest_rate": 9.5,
		"start_date":    "2025-06-01T00:00:00Z",
	})
	req := authedRequest(http.MethodPost, "/api/liabilities", body, testUserID)
	rec := httptest.NewRecorder()
	srv.handleLiabilities(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	liability := decodeResponse(t, rec)
	if liability["outstanding"] != "650000" {
		t.Errorf("expected outstanding '650000', got %v", liability["outstanding"])
	}
}

func TestHandleNotifications_LimitValidation(t *testing.T) {
	srv := newTestServer(t)

	req := authedRequest(http.MethodGet, "/api/notifications?limit=9999", nil, testUserID)
	rec := httptest.NewRecorder()
	srv.handleNotifications(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRouteNotifications_UnknownPath(t *testing.T) {
	srv := newTestServer(t)

	req := authedRequest(http.MethodPost, "/api/notifications/n-1/archive", nil, testUserID)
	rec := httptest.NewRecorder()
	srv.routeNotifications(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
