package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func createTestHolding(t *testing.T, srv *Server, userID, symbol string) string {
	t.Helper()
	body := jsonBody(t, map[string]interface{}{
		"symbol": symbol,
		"name":   symbol + " Ltd",
		"type":   "stock",
	})
	req := authedRequest(http.MethodPost, "/api/investments", body, userID)
	rec := httptest.NewRecorder()
	srv.handleInvestments(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("createTestHolding: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeResponse(t, rec)["id"].(string)
}

func addTestTransaction(t *testing.T, srv *Server, userID, holdingID string, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := authedRequest(http.MethodPost, "/api/investments/"+holdingID+"/transactions", jsonBody(t, body), userID)
	rec := httptest.NewRecorder()
	srv.routeInvestments(rec, req)
	return rec
}

func TestHandleInvestments_CreateAndGet(t *testing.T) {
	srv := newTestServer(t)
	holdingID := createTestHolding(t, srv, testUserID, "INFY")

	req := authedRequest(http.MethodGet, "/api/investments/"+holdingID, nil, testUserID)
	rec := httptest.NewRecorder()
	srv.routeInvestments(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	h := decodeResponse(t, rec)
	if h["symbol"] != "INFY" {
		t.Errorf("expected symbol 'INFY', got %v", h["symbol"])
	}
}

func TestHandleInvestments_InvalidType(t *testing.T) {
	srv := newTestServer(t)

	body := jsonBody(t, map[string]interface{}{
		"symbol": "XYZ",
		"type":   "bond",
	})
	req := authedRequest(http.MethodPost, "/api/investments", body, testUserID)
	rec := httptest.NewRecorder()
	srv.handleInvestments(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleHoldingTransactions_BuyRecomputesHolding(t *testing.T) {
	srv := newTestServer(t)
	holdingID := createTestHolding(t, srv, testUserID, "TCS")

	rec := addTestTransaction(t, srv, testUserID, holdingID, map[string]interface{}{
		"type":     "buy",
		"quantity": "10",
		"price":    "100",
		"amount":   "1000",
		"date":     "2026-01-05T00:00:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	holding := resp["holding"].(map[string]interface{})
	if holding["quantity"] != "10" {
		t.Errorf("expected quantity '10', got %v", holding["quantity"])
	}
	if holding["avg_buy_price"] != "100" {
		t.Errorf("expected avg_buy_price '100', got %v", holding["avg_buy_price"])
	}
}

func TestHandleHoldingTransactions_OversoldRejected(t *testing.T) {
	srv := newTestServer(t)
	holdingID := createTestHolding(t, srv, testUserID, "WIPRO")

	rec := addTestTransaction(t, srv, testUserID, holdingID, map[string]interface{}{
		"type":     "buy",
		"quantity": "5",
		"price":    "200",
		"amount":   "1000",
		"date":     "2026-01-05T00:00:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = addTestTransaction(t, srv, testUserID, holdingID, map[string]interface{}{
		"type":     "sell",
		"quantity": "50",
		"price":    "210",
		"amount":   "10500",
		"date":     "2026-02-05T00:00:00Z",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected oversold sell to return 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleHolding_NotFound(t *testing.T) {
	srv := newTestServer(t)

	req := authedRequest(http.MethodGet, "/api/investments/missing", nil, testUserID)
	rec := httptest.NewRecorder()
	srv.routeInvestments(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleTaxCenter_BadYear(t *testing.T) {
	srv := newTestServer(t)

	req := authedRequest(http.MethodGet, "/api/investments/tax-center?fyStartYear=abc", nil, testUserID)
	rec := httptest.NewRecorder()
	srv.routeInvestments(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleTaxCenter_EmptyLedger(t *testing.T) {
	srv := newTestServer(t)

	req := authedRequest(http.MethodGet, "/api/investments/tax-center?fyStartYear=2025", nil, testUserID)
	rec := httptest.NewRecorder()
	srv.routeInvestments(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleRebalance_CustomTargets(t *testing.T) {
	srv := newTestServer(t)
	createTestHolding(t, srv, testUserID, "HDFCBANK")

	body := jsonBody(t, map[string]interface{}{
		"targets": map[string]float64{"stock": 60, "mutual_fund": 40},
	})
	req := authedRequest(http.MethodPost, "/api/investments/rebalance", body, testUserID)
	rec := httptest.NewRecorder()
	srv.routeInvestments(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleRebalanceChart_ReturnsPNG(t *testing.T) {
	srv := newTestServer(t)
	holdingID := createTestHolding(t, srv, testUserID, "RELIANCE")

	rec := addTestTransaction(t, srv, testUserID, holdingID, map[string]interface{}{
		"type":     "buy",
		"quantity": "4",
		"price":    "2500",
		"amount":   "10000",
		"date":     "2026-01-05T00:00:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	req := authedRequest(http.MethodGet, "/api/investments/rebalance/chart", nil, testUserID)
	chartRec := httptest.NewRecorder()
	srv.routeInvestments(chartRec, req)

	if chartRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", chartRec.Code, chartRec.Body.String())
	}
	if ct := chartRec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected Content-Type image/png, got %s", ct)
	}
	pngMagic := []byte{0x89, 'P', 'N', 'G'}
	if !bytes.HasPrefix(chartRec.Body.Bytes(), pngMagic) {
		t.Error("expected response body to start with the PNG signature")
	}
}

func TestRouteInvestments_UnknownPath(t *testing.T) {
	srv := newTestServer(t)

	req := authedRequest(http.MethodGet, "/api/investments/h-1/lots/extra/deep", nil, testUserID)
	rec := httptest.NewRecorder()
	srv.routeInvestments(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
