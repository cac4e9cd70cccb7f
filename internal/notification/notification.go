package notification

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingID       = errors.New("notification id is required")
	ErrInvalidType     = errors.New("invalid notification type")
	ErrInvalidPriority = errors.New("invalid notification priority")
	ErrInvalidChannel  = errors.New("invalid notification channel")
)

// Notification is a single user-facing alert record.
//
// CreatedAt is immutable once the record exists. IsRead changes only through
// explicit read/unread operations or a successful action execution.
type Notification struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Priority  Priority       `json:"priority"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	IsRead    bool           `json:"isRead"`
	CreatedAt time.Time      `json:"createdAt"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
	Actions   []Action       `json:"actions,omitempty"`
	Channels  []Channel      `json:"channels"`
	Data      map[string]any `json:"data,omitempty"`
	Metadata  *Metadata      `json:"metadata,omitempty"`
}

// Action is a user-invokable operation attached to a notification.
type Action struct {
	ID    string         `json:"id"`
	Label string         `json:"label"`
	Style ActionStyle    `json:"style,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// Metadata carries analytics grouping hints.
type Metadata struct {
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// IsExpired reports whether the notification's expiry has passed at now.
// Expired notifications keep their record; only their actions are disabled.
func (n *Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && now.After(*n.ExpiresAt)
}

// HasActions reports whether the notification carries any action.
func (n *Notification) HasActions() bool {
	return len(n.Actions) > 0
}

// Persistent reports whether surfaces should keep this notification until it
// is dismissed by hand.
func (n *Notification) Persistent() bool {
	return n.Priority == PriorityUrgent || n.Type == TypeSecurityAlert
}

// FindAction returns the action with the given id.
func (n *Notification) FindAction(id string) (Action, bool) {
	for _, a := range n.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}

// URL returns data.url when present.
func (n *Notification) URL() string {
	if n.Data == nil {
		return ""
	}
	if u, ok := n.Data["url"].(string); ok {
		return u
	}
	return ""
}

// HasChannel reports whether c is in the notification's channel set.
func (n *Notification) HasChannel(c Channel) bool {
	for _, ch := range n.Channels {
		if ch == c {
			return true
		}
	}
	return false
}

// Validate checks a record arriving from outside the process.
func (n *Notification) Validate() error {
	if n.ID == "" {
		return ErrMissingID
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, n.Type)
	}
	if !n.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, n.Priority)
	}
	for _, c := range n.Channels {
		if !c.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidChannel, c)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (n Notification) Clone() Notification {
	out := n
	if n.ExpiresAt != nil {
		exp := *n.ExpiresAt
		out.ExpiresAt = &exp
	}
	if n.Actions != nil {
		out.Actions = make([]Action, len(n.Actions))
		for i, a := range n.Actions {
			a.Data = cloneMap(a.Data)
			out.Actions[i] = a
		}
	}
	if n.Channels != nil {
		out.Channels = append([]Channel(nil), n.Channels...)
	}
	out.Data = cloneMap(n.Data)
	if n.Metadata != nil {
		md := *n.Metadata
		md.Tags = append([]string(nil), n.Metadata.Tags...)
		out.Metadata = &md
	}
	return out
}

// cloneMap copies the top level of a free-form payload. Nested values are
// shared; payloads are treated as read-only.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CountUnread returns the number of unread records in ns.
func CountUnread(ns []Notification) int {
	count := 0
	for i := range ns {
		if !ns[i].IsRead {
			count++
		}
	}
	return count
}
