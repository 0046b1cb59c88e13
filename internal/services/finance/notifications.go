package finance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

// ListNotifications returns the user's notifications, newest first, capped
// at limit when positive.
func (s *Service) ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	records, err := s.store.Query(ctx, userID, models.SubjectNotification, interfaces.QueryOptions{
		Limit:   limit,
		OrderBy: "datetime_desc",
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]*models.Notification, 0, len(records))
	for _, r := range records {
		var n models.Notification
		if err := json.Unmarshal([]byte(r.Value), &n); err != nil {
			s.logger.Warn().Err(err).Str("key", r.Key).Msg("Skipping malformed notification record")
			continue
		}
		out = append(out, &n)
	}
	return out, nil
}

// MarkNotificationRead flags a notification as read.
func (s *Service) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	r, err := s.store.Get(ctx, userID, models.SubjectNotification, notificationID)
	if err != nil {
		return err
	}
	var n models.Notification
	if err := json.Unmarshal([]byte(r.Value), &n); err != nil {
		return fmt.Errorf("decode notification %s: %w", notificationID, err)
	}
	if n.Read {
		return nil
	}
	n.Read = true
	return s.put(ctx, userID, models.SubjectNotification, n.ID, &n, n.CreatedAt)
}

// DeleteNotification removes a notification.
func (s *Service) DeleteNotification(ctx context.Context, userID, notificationID string) error {
	if _, err := s.store.Get(ctx, userID, models.SubjectNotification, notificationID); err != nil {
		return err
	}
	return s.store.Delete(ctx, userID, models.SubjectNotification, notificationID)
}
