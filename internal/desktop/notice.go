// Package desktop surfaces notifications outside the application window:
// as Web Push messages to a subscribed browser, or as terminal alerts.
package desktop

import (
	"time"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

// AutoClose is how long non-urgent notices stay on screen.
const AutoClose = 5 * time.Second

// Notice is the OS-level rendition of a notification.
type Notice struct {
	Title              string                `json:"title"`
	Body               string                `json:"body"`
	Tag                string                `json:"tag"`
	RequireInteraction bool                  `json:"requireInteraction"`
	Silent             bool                  `json:"silent"`
	URL                string                `json:"url,omitempty"`
	AutoCloseMillis    int64                 `json:"autoCloseMs,omitempty"`
	Priority           notification.Priority `json:"priority"`
	Type               notification.Type     `json:"type"`
}

// NewNotice builds the notice for n. The tag is the notification id so the
// OS replaces rather than stacks repeated deliveries.
func NewNotice(n notification.Notification) Notice {
	urgent := n.Priority == notification.PriorityUrgent
	notice := Notice{
		Title:              n.Title,
		Body:               n.Message,
		Tag:                n.ID,
		RequireInteraction: urgent,
		Silent:             n.Priority == notification.PriorityLow,
		URL:                n.URL(),
		Priority:           n.Priority,
		Type:               n.Type,
	}
	if !urgent {
		notice.AutoCloseMillis = AutoClose.Milliseconds()
	}
	return notice
}
