// Package common provides shared utilities for Fintra
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Fintra
type Config struct {
	Environment       string          `toml:"environment"`
	ReferenceTimezone string          `toml:"reference_timezone"` // calendar-day boundary zone, default "Asia/Kolkata"
	Server            ServerConfig    `toml:"server"`
	Storage           StorageConfig   `toml:"storage"`
	Clients           ClientsConfig   `toml:"clients"`
	Auth              AuthConfig      `toml:"auth"`
	Logging           LoggingConfig   `toml:"logging"`
	Scheduler         SchedulerConfig `toml:"scheduler"`
	Engines           EnginesConfig   `toml:"engines"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend   string          `toml:"backend"` // "badger" (default) or "surrealdb"
	Badger    BadgerConfig    `toml:"badger"`
	SurrealDB SurrealDBConfig `toml:"surrealdb"`
}

// BadgerConfig holds paths for the embedded BadgerHold stores.
type BadgerConfig struct {
	InternalPath string `toml:"internal_path"` // user accounts + KV
	DataPath     string `toml:"data_path"`     // domain records
}

// SurrealDBConfig holds connection settings for the SurrealDB backend.
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
}

// ClientsConfig holds external API client configurations
type ClientsConfig struct {
	MarketData MarketDataConfig `toml:"marketdata"`
	MFNav      MFNavConfig      `toml:"mfnav"`
	Gemini     GeminiConfig     `toml:"gemini"`
	Notifier   NotifierConfig   `toml:"notifier"`
}

// NotifierConfig configures push notification delivery. When WebhookURL is
// empty, notifications are logged instead of delivered.
type NotifierConfig struct {
	WebhookURL string `toml:"webhook_url"`
}

// MarketDataConfig holds quote provider API configuration
type MarketDataConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"` // requests per second
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *MarketDataConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// MFNavConfig holds mutual-fund NAV provider configuration
type MFNavConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *MFNavConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// AuthConfig holds JWT authentication configuration.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, default "24h"
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// SchedulerConfig holds cron specs for the background batch jobs.
// An empty spec disables that job.
type SchedulerConfig struct {
	Enabled      bool   `toml:"enabled"`
	SIPTick      string `toml:"sip_tick"`
	AlertEval    string `toml:"alert_eval"`
	QuoteRefresh string `toml:"quote_refresh"`
}

// EnginesConfig holds tunables for the computation engines.
type EnginesConfig struct {
	Alerts    AlertsConfig    `toml:"alerts"`
	Rebalance RebalanceConfig `toml:"rebalance"`
	Tax       TaxConfig       `toml:"tax"`
}

// AlertsConfig holds thresholds for the alert evaluator.
type AlertsConfig struct {
	ConcentrationPct        float64 `toml:"concentration_pct"`
	DrawdownPct             float64 `toml:"drawdown_pct"`
	BudgetUsagePct          float64 `toml:"budget_usage_pct"`
	DailySpendMultiplier    float64 `toml:"daily_spend_multiplier"`
	CategorySpikeMultiplier float64 `toml:"category_spike_multiplier"`
	CategorySpikeFloor      float64 `toml:"category_spike_floor"` // absolute currency floor
}

// RebalanceConfig holds the default target allocation (percent weights by
// holding type) used when a rebalance request supplies no targets.
type RebalanceConfig struct {
	Targets map[string]float64 `toml:"targets"`
}

// TaxConfig holds capital-gains estimate rates (India FY convention).
type TaxConfig struct {
	STCGRate      float64 `toml:"stcg_rate"`
	LTCGRate      float64 `toml:"ltcg_rate"`
	LTCGExemption float64 `toml:"ltcg_exemption"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:       "development",
		ReferenceTimezone: "Asia/Kolkata",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend: "badger",
			Badger: BadgerConfig{
				InternalPath: "data/internal",
				DataPath:     "data/user",
			},
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8000",
				Username:  "root",
				Password:  "root",
				Namespace: "fintra",
				Database:  "fintra",
			},
		},
		Clients: ClientsConfig{
			MarketData: MarketDataConfig{
				BaseURL:   "https://api.twelvedata.com",
				RateLimit: 8,
				Timeout:   "15s",
			},
			MFNav: MFNavConfig{
				BaseURL:   "https://api.mfapi.in",
				RateLimit: 5,
				Timeout:   "15s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			SIPTick:      "*/30 * * * *",
			AlertEval:    "0 * * * *",
			QuoteRefresh: "*/15 * * * *",
		},
		Engines: EnginesConfig{
			Alerts: AlertsConfig{
				ConcentrationPct:        25,
				DrawdownPct:             8,
				BudgetUsagePct:          90,
				DailySpendMultiplier:    1.8,
				CategorySpikeMultiplier: 1.4,
				CategorySpikeFloor:      2000,
			},
			Rebalance: RebalanceConfig{
				Targets: map[string]float64{
					"stock":       45,
					"etf":         30,
					"mutual_fund": 20,
					"crypto":      5,
				},
			},
			Tax: TaxConfig{
				STCGRate:      0.15,
				LTCGRate:      0.10,
				LTCGExemption: 100000,
			},
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if _, err := time.LoadLocation(config.ReferenceTimezone); err != nil {
		return nil, fmt.Errorf("invalid reference_timezone %q: %w", config.ReferenceTimezone, err)
	}

	return config, nil
}

// applyEnvOverrides applies FINTRA_* environment variable overrides.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINTRA_ENV"); env != "" {
		config.Environment = env
	}
	if host := os.Getenv("FINTRA_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("FINTRA_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if backend := os.Getenv("FINTRA_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = backend
	}
	if addr := os.Getenv("FINTRA_SURREALDB_ADDRESS"); addr != "" {
		config.Storage.SurrealDB.Address = addr
	}
	if key := os.Getenv("FINTRA_MARKETDATA_API_KEY"); key != "" {
		config.Clients.MarketData.APIKey = key
	}
	if key := os.Getenv("FINTRA_GEMINI_API_KEY"); key != "" {
		config.Clients.Gemini.APIKey = key
	}
	if url := os.Getenv("FINTRA_NOTIFIER_WEBHOOK"); url != "" {
		config.Clients.Notifier.WebhookURL = url
	}
	if secret := os.Getenv("FINTRA_JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if level := os.Getenv("FINTRA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// IsProduction returns true when running in the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location returns the reference timezone location. The zone is validated at
// load time, so the fallback to UTC only applies to zero-value Configs.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReferenceTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
