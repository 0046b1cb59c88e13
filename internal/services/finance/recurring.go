package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sanjaydutta/fintra/internal/models"
)

// ListSubscriptions returns subscriptions, active first, then by next due
// date.
func (s *Service) ListSubscriptions(ctx context.Context, userID string) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	if err := s.listInto(ctx, userID, models.SubjectSubscription, func(raw []byte) error {
		var sub models.Subscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			return err
		}
		subs = append(subs, &sub)
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].Active != subs[j].Active {
			return subs[i].Active
		}
		return subs[i].NextDue.Before(subs[j].NextDue)
	})
	return subs, nil
}

// SaveSubscription creates or updates a subscription.
func (s *Service) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.UserID == "" {
		return fmt.Errorf("subscription requires a user id")
	}
	if strings.TrimSpace(sub.Name) == "" {
		return fmt.Errorf("subscription requires a name")
	}
	if !sub.Amount.IsPositive() {
		return fmt.Errorf("subscription amount must be positive")
	}
	switch sub.Frequency {
	case "monthly", "weekly", "quarterly", "yearly":
	default:
		return fmt.Errorf("invalid subscription frequency %q", sub.Frequency)
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
		sub.CreatedAt = time.Now().UTC()
	}
	return s.put(ctx, sub.UserID, models.SubjectSubscription, sub.ID, sub, sub.CreatedAt)
}

// DeleteSubscription removes a subscription.
func (s *Service) DeleteSubscription(ctx context.Context, userID, subID string) error {
	if _, err := s.store.Get(ctx, userID, models.SubjectSubscription, subID); err != nil {
		return err
	}
	return s.store.Delete(ctx, userID, models.SubjectSubscription, subID)
}

// ListLiabilities returns liabilities sorted by outstanding amount, largest
// first.
func (s *Service) ListLiabilities(ctx context.Context, userID string) ([]*models.Liability, error) {
	var out []*models.Liability
	if err := s.listInto(ctx, userID, models.SubjectLiability, func(raw []byte) error {
		var l models.Liability
		if err := json.Unmarshal(raw, &l); err != nil {
			return err
		}
		out = append(out, &l)
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Outstanding.GreaterThan(out[j].Outstanding)
	})
	return out, nil
}

// SaveLiability creates or updates a liability.
func (s *Service) SaveLiability(ctx context.Context, l *models.Liability) error {
	if l.UserID == "" {
		return fmt.Errorf("liability requires a user id")
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("liability requires a name")
	}
	if l.Principal.IsNegative() || l.Outstanding.IsNegative() {
		return fmt.Errorf("liability amounts must be non-negative")
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
		l.CreatedAt = time.Now().UTC()
	}
	return s.put(ctx, l.UserID, models.SubjectLiability, l.ID, l, l.CreatedAt)
}

// DeleteLiability removes a liability.
func (s *Service) DeleteLiability(ctx context.Context, userID, liabilityID string) error {
	if _, err := s.store.Get(ctx, userID, models.SubjectLiability, liabilityID); err != nil {
		return err
	}
	return s.store.Delete(ctx, userID, models.SubjectLiability, liabilityID)
}
