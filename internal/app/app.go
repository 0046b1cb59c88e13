// Package app wires configuration, storage, clients, and services into the
// shared application core used by cmd/fintra-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sanjaydutta/fintra/internal/clients/gemini"
	"github.com/sanjaydutta/fintra/internal/clients/marketdata"
	"github.com/sanjaydutta/fintra/internal/clients/mfapi"
	"github.com/sanjaydutta/fintra/internal/clients/notifier"
	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/services/alerts"
	"github.com/sanjaydutta/fintra/internal/services/finance"
	"github.com/sanjaydutta/fintra/internal/services/importer"
	"github.com/sanjaydutta/fintra/internal/services/insights"
	"github.com/sanjaydutta/fintra/internal/services/ledger"
	"github.com/sanjaydutta/fintra/internal/services/rebalance"
	"github.com/sanjaydutta/fintra/internal/services/sip"
	"github.com/sanjaydutta/fintra/internal/services/taxcenter"
	"github.com/sanjaydutta/fintra/internal/storage"
)

// App holds all initialized services and clients. It is the shared core
// behind the HTTP server and the background scheduler.
type App struct {
	Config  *common.Config
	Logger  *common.Logger
	Storage interfaces.StorageManager

	MarketDataClient interfaces.MarketDataClient
	MFNavClient      interfaces.MFNavClient
	GeminiClient     interfaces.GenAIClient
	Notifier         interfaces.Notifier

	LedgerService    interfaces.LedgerService
	SIPService       interfaces.SIPService
	TaxService       interfaces.TaxService
	RebalanceService interfaces.RebalanceService
	AlertService     interfaces.AlertService
	InsightService   interfaces.InsightService
	FinanceService   interfaces.FinanceService
	ImportService    interfaces.ImportService

	StartupTime time.Time

	scheduler *scheduler
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Load configuration - check provided path, FINTRA_CONFIG, then binary
	// dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("FINTRA_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "fintra.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/fintra.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage paths to binary directory
	if config.Storage.Badger.InternalPath != "" && !filepath.IsAbs(config.Storage.Badger.InternalPath) {
		config.Storage.Badger.InternalPath = filepath.Join(binDir, config.Storage.Badger.InternalPath)
	}
	if config.Storage.Badger.DataPath != "" && !filepath.IsAbs(config.Storage.Badger.DataPath) {
		config.Storage.Badger.DataPath = filepath.Join(binDir, config.Storage.Badger.DataPath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	ctx := context.Background()
	loc := config.Location()

	// Initialize API clients
	var marketClient interfaces.MarketDataClient
	if config.Clients.MarketData.APIKey != "" {
		opts := []marketdata.ClientOption{
			marketdata.WithLogger(logger),
			marketdata.WithRateLimit(config.Clients.MarketData.RateLimit),
			marketdata.WithTimeout(config.Clients.MarketData.GetTimeout()),
		}
		if config.Clients.MarketData.BaseURL != "" {
			opts = append(opts, marketdata.WithBaseURL(config.Clients.MarketData.BaseURL))
		}
		marketClient = marketdata.NewClient(config.Clients.MarketData.APIKey, opts...)
	} else {
		logger.Warn().Msg("Market data API key not configured - stock quotes will be unavailable")
	}

	mfnavOpts := []mfapi.ClientOption{
		mfapi.WithLogger(logger),
		mfapi.WithRateLimit(config.Clients.MFNav.RateLimit),
		mfapi.WithTimeout(config.Clients.MFNav.GetTimeout()),
	}
	if config.Clients.MFNav.BaseURL != "" {
		mfnavOpts = append(mfnavOpts, mfapi.WithBaseURL(config.Clients.MFNav.BaseURL))
	}
	mfnavClient := mfapi.NewClient(mfnavOpts...)

	var geminiClient interfaces.GenAIClient
	if config.Clients.Gemini.APIKey != "" {
		gc, err := gemini.NewClient(ctx, config.Clients.Gemini.APIKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client - insights fall back to static summaries")
		} else {
			geminiClient = gc
		}
	}

	var push interfaces.Notifier
	if config.Clients.Notifier.WebhookURL != "" {
		push = notifier.NewWebhookNotifier(config.Clients.Notifier.WebhookURL, logger)
	} else {
		push = notifier.NewLogNotifier(logger)
	}

	// Initialize services
	dataStore := storageManager.DataStore()
	internalStore := storageManager.InternalStore()

	ledgerService := ledger.NewService(dataStore, marketClient, mfnavClient, logger)
	sipService := sip.NewService(dataStore, internalStore, ledgerService, marketClient, mfnavClient, loc, logger)
	taxService := taxcenter.NewService(ledgerService, config.Engines.Tax, loc, logger)
	rebalanceService := rebalance.NewService(ledgerService, config.Engines.Rebalance, logger)
	financeService := finance.NewService(dataStore, loc, logger)
	alertService := alerts.NewService(dataStore, internalStore, ledgerService, financeService, push, config.Engines.Alerts, loc, logger)
	insightService := insights.NewService(geminiClient, ledgerService, financeService, loc, logger)
	importService := importer.NewService(financeService, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		MarketDataClient: marketClient,
		MFNavClient:      mfnavClient,
		GeminiClient:     geminiClient,
		Notifier:         push,
		LedgerService:    ledgerService,
		SIPService:       sipService,
		TaxService:       taxService,
		RebalanceService: rebalanceService,
		AlertService:     alertService,
		InsightService:   insightService,
		FinanceService:   financeService,
		ImportService:    importService,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, close the Gemini client, close storage.
func (a *App) Close() {
	a.StopScheduler()
	if a.GeminiClient != nil {
		a.GeminiClient.Close()
		a.GeminiClient = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
