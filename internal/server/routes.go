package server

import (
	"net/http"
	"time"

	"github.com/sanjaydutta/fintra/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Users and auth
	mux.HandleFunc("/api/users", s.handleUserRegister)
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/auth/validate", s.handleAuthValidate)

	// Investments
	mux.HandleFunc("/api/investments/", s.routeInvestments)
	mux.HandleFunc("/api/investments", s.handleInvestments)

	// SIPs
	mux.HandleFunc("/api/sips/", s.routeSIPs)
	mux.HandleFunc("/api/sips", s.handleSIPs)

	// Accounts and transactions
	mux.HandleFunc("/api/accounts/", s.handleAccountByID)
	mux.HandleFunc("/api/accounts", s.handleAccounts)
	mux.HandleFunc("/api/transactions/", s.handleTransactionByID)
	mux.HandleFunc("/api/transactions", s.handleTransactions)

	// Budgets, goals, subscriptions, liabilities
	mux.HandleFunc("/api/budgets/", s.handleBudgetByID)
	mux.HandleFunc("/api/budgets", s.handleBudgets)
	mux.HandleFunc("/api/goals/", s.routeGoals)
	mux.HandleFunc("/api/goals", s.handleGoals)
	mux.HandleFunc("/api/subscriptions/", s.handleSubscriptionByID)
	mux.HandleFunc("/api/subscriptions", s.handleSubscriptions)
	mux.HandleFunc("/api/liabilities/", s.handleLiabilityByID)
	mux.HandleFunc("/api/liabilities", s.handleLiabilities)

	// Notifications
	mux.HandleFunc("/api/notifications/", s.routeNotifications)
	mux.HandleFunc("/api/notifications", s.handleNotifications)

	// Alerts, insights, imports
	mux.HandleFunc("/api/alerts/evaluate", s.handleAlertsEvaluate)
	mux.HandleFunc("/api/insights/summary", s.handleInsightsSummary)
	mux.HandleFunc("/api/imports/statement", s.handleImportStatement)
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleConfig reports the effective runtime configuration with secrets
// reduced to configured/not-configured booleans.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	uptime := time.Since(s.app.StartupTime).Round(time.Second)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment":            s.app.Config.Environment,
		"uptime":                 uptime.String(),
		"started_at":             s.app.StartupTime,
		"storage_backend":        s.app.Config.Storage.Backend,
		"logging_level":          s.app.Config.Logging.Level,
		"scheduler_enabled":      s.app.Config.Scheduler.Enabled,
		"market_data_configured": s.app.MarketDataClient != nil,
		"gemini_configured":      s.app.GeminiClient != nil,
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
