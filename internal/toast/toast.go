// Package toast implements the ephemeral in-app toast queue.
//
// Each toast moves Visible -> Dismissing -> Removed. A Visible toast counts
// down its duration and then starts dismissing; Dismissing lasts FadeOut and
// then the toast is removed. Persistent toasts have no countdown and leave
// only through Dismiss. All timers come from a clock.Clock.
package toast

import (
	"fmt"
	"time"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

const (
	DefaultDuration = 5000 * time.Millisecond
	HighDuration    = 10000 * time.Millisecond
	FadeOut         = 300 * time.Millisecond
	MaxVisible      = 5
)

// State is a toast's lifecycle position.
type State string

const (
	StateVisible    State = "visible"
	StateDismissing State = "dismissing"
	StateRemoved    State = "removed"
)

// Options describes a toast to show.
type Options struct {
	NotificationID string
	Type           notification.Type
	Priority       notification.Priority
	Title          string
	Message        string
	Actions        []notification.Action

	// Duration overrides the priority default. Ignored for persistent toasts.
	Duration time.Duration

	// Persistent forces a toast to stay until dismissed. Urgent and
	// security_alert toasts are always persistent.
	Persistent bool
}

// Toast is a snapshot of one queued toast.
type Toast struct {
	ID             string                `json:"id"`
	NotificationID string                `json:"notificationId,omitempty"`
	Type           notification.Type     `json:"type,omitempty"`
	Priority       notification.Priority `json:"priority"`
	Title          string                `json:"title"`
	Message        string                `json:"message,omitempty"`
	Actions        []notification.Action `json:"actions,omitempty"`
	Persistent     bool                  `json:"persistent"`
	Duration       time.Duration         `json:"duration"`
	ShownAt        time.Time             `json:"shownAt"`
	State          State                 `json:"state"`
}

// Transition is published for every state change.
type Transition struct {
	ToastID string
	From    State
	To      State
}

// OptionsFor builds toast options from a notification.
func OptionsFor(n notification.Notification) Options {
	return Options{
		NotificationID: n.ID,
		Type:           n.Type,
		Priority:       n.Priority,
		Title:          n.Title,
		Message:        n.Message,
		Actions:        append([]notification.Action(nil), n.Actions...),
	}
}

// SummaryOptions builds the single toast shown for a batch of count
// notifications.
func SummaryOptions(count int) Options {
	title := "1 new notification"
	if count != 1 {
		title = fmt.Sprintf("%d new notifications", count)
	}
	return Options{Priority: notification.PriorityMedium, Title: title}
}

// defaultDuration returns the countdown for p.
func defaultDuration(p notification.Priority) time.Duration {
	if p == notification.PriorityHigh {
		return HighDuration
	}
	return DefaultDuration
}

func (o Options) persistent() bool {
	return o.Persistent ||
		o.Priority == notification.PriorityUrgent ||
		o.Type == notification.TypeSecurityAlert
}
