package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduler drives the background jobs: SIP ticks, alert evaluation, and
// quote refresh. Each job scans eligible rows and exits; per-row failures
// are counted, not fatal.
type scheduler struct {
	cron *cron.Cron
}

// StartScheduler registers and starts the cron jobs when the scheduler is
// enabled in config. Safe to call once at startup.
func (a *App) StartScheduler() error {
	if !a.Config.Scheduler.Enabled {
		a.Logger.Info().Msg("Scheduler disabled")
		return nil
	}

	c := cron.New()

	if spec := a.Config.Scheduler.SIPTick; spec != "" {
		if _, err := c.AddFunc(spec, a.runSIPTick); err != nil {
			return err
		}
	}
	if spec := a.Config.Scheduler.AlertEval; spec != "" {
		if _, err := c.AddFunc(spec, a.runAlertEvaluation); err != nil {
			return err
		}
	}
	if spec := a.Config.Scheduler.QuoteRefresh; spec != "" {
		if _, err := c.AddFunc(spec, a.runQuoteRefresh); err != nil {
			return err
		}
	}

	c.Start()
	a.scheduler = &scheduler{cron: c}

	a.Logger.Info().
		Str("sip_tick", a.Config.Scheduler.SIPTick).
		Str("alert_eval", a.Config.Scheduler.AlertEval).
		Str("quote_refresh", a.Config.Scheduler.QuoteRefresh).
		Msg("Scheduler started")

	return nil
}

// StopScheduler stops the cron runner and waits for in-flight jobs.
func (a *App) StopScheduler() {
	if a.scheduler == nil {
		return
	}
	ctx := a.scheduler.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		a.Logger.Warn().Msg("Scheduler stop timed out")
	}
	a.scheduler = nil
}

func (a *App) runSIPTick() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := a.SIPService.Tick(ctx, time.Now())
	if err != nil {
		a.Logger.Warn().Err(err).Msg("SIP tick failed")
		return
	}
	a.Logger.Info().
		Int("scanned", result.Scanned).
		Int("posted", result.Posted).
		Int("missing_mapping", result.MissingMapping).
		Int("unavailable", result.Unavailable).
		Int("invalid_price", result.InvalidPrice).
		Msg("SIP tick complete")
}

func (a *App) runAlertEvaluation() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := a.AlertService.EvaluateAll(ctx, time.Now())
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Alert evaluation failed")
		return
	}
	a.Logger.Info().
		Int("evaluated", result.Evaluated).
		Int("created", result.Created).
		Int("deduped", result.Deduped).
		Msg("Alert evaluation complete")
}

// runQuoteRefresh updates holding prices for every user from the quote and
// NAV providers, keeping valuations current between SIP ticks.
func (a *App) runQuoteRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	userIDs, err := a.Storage.InternalStore().ListUsers(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Quote refresh: failed to list users")
		return
	}

	updated := 0
	for _, userID := range userIDs {
		n, err := a.LedgerService.RefreshPrices(ctx, userID)
		if err != nil {
			a.Logger.Warn().Err(err).Str("user_id", userID).Msg("Quote refresh: user skipped")
			continue
		}
		updated += n
	}

	a.Logger.Info().
		Int("users", len(userIDs)).
		Int("updated", updated).
		Dur("elapsed", time.Since(start)).
		Msg("Quote refresh complete")
}
