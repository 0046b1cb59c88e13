// Package notifier delivers push notifications. The default implementation
// writes to the log; a webhook implementation posts to a configured URL.
// Delivery is fire-and-forget in both cases.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

// LogNotifier logs every push. Used when no delivery channel is configured.
type LogNotifier struct {
	logger *common.Logger
}

var _ interfaces.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger *common.Logger) *LogNotifier {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}
	return &LogNotifier{logger: logger}
}

// Push logs the notification.
func (n *LogNotifier) Push(_ context.Context, notification *models.Notification) {
	n.logger.Info().
		Str("user_id", notification.UserID).
		Str("type", notification.Type).
		Str("title", notification.Title).
		Msg("Notification")
}

// WebhookNotifier POSTs notifications to a webhook URL as JSON. Failures
// are logged and dropped.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	logger     *common.Logger
}

var _ interfaces.Notifier = (*WebhookNotifier)(nil)

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(url string, logger *common.Logger) *WebhookNotifier {
	if logger == nil {
		logger = common.NewDefaultLogger()
	}
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Push delivers the notification to the webhook.
func (n *WebhookNotifier) Push(ctx context.Context, notification *models.Notification) {
	payload, err := json.Marshal(notification)
	if err != nil {
		n.logger.Error().Err(err).Msg("Notification encode failed")
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		n.logger.Error().Err(err).Msg("Notification request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn().Err(err).Str("title", notification.Title).Msg("Notification delivery failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.logger.Warn().Int("status", resp.StatusCode).Str("title", notification.Title).Msg("Notification rejected by webhook")
	}
}
