package models

import "time"

// Notification types.
const (
	NotifyAlert    = "alert"
	NotifySIP      = "sip"
	NotifyInsight  = "insight"
	NotifyReminder = "reminder"
)

// Notification is one user-visible message. Alerts are deduplicated by
// title within a calendar day before one is created.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Type      string            `json:"type"`
	Data      map[string]string `json:"data,omitempty"`
	URL       string            `json:"url,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}
