package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

// Now is the fixed reference instant used across package tests:
// Monday 19 October 2026, 12:00 UTC.
var Now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// NotificationOption customises a fixture notification.
type NotificationOption func(*notification.Notification)

// NewNotification returns a valid unread medium-priority in-app notification
// created at Now. Without WithID the id is a fresh UUIDv7.
func NewNotification(opts ...NotificationOption) notification.Notification {
	n := notification.Notification{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      notification.TypeAuctionBid,
		Priority:  notification.PriorityMedium,
		Title:     "New bid on your listing",
		Message:   "A buyer placed a bid on 2t of baled PET",
		CreatedAt: Now,
		Channels:  []notification.Channel{notification.ChannelInApp},
	}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

func WithID(id string) NotificationOption {
	return func(n *notification.Notification) { n.ID = id }
}

func WithType(t notification.Type) NotificationOption {
	return func(n *notification.Notification) { n.Type = t }
}

func WithPriority(p notification.Priority) NotificationOption {
	return func(n *notification.Notification) { n.Priority = p }
}

func WithRead(read bool) NotificationOption {
	return func(n *notification.Notification) { n.IsRead = read }
}

func WithTitle(title string) NotificationOption {
	return func(n *notification.Notification) { n.Title = title }
}

func WithMessage(msg string) NotificationOption {
	return func(n *notification.Notification) { n.Message = msg }
}

// WithAge sets CreatedAt to Now minus age.
func WithAge(age time.Duration) NotificationOption {
	return func(n *notification.Notification) { n.CreatedAt = Now.Add(-age) }
}

func WithCreatedAt(t time.Time) NotificationOption {
	return func(n *notification.Notification) { n.CreatedAt = t }
}

func WithExpiry(t time.Time) NotificationOption {
	return func(n *notification.Notification) { n.ExpiresAt = &t }
}

func WithActions(actions ...notification.Action) NotificationOption {
	return func(n *notification.Notification) { n.Actions = actions }
}

func WithData(data map[string]any) NotificationOption {
	return func(n *notification.Notification) { n.Data = data }
}

func WithChannels(cs ...notification.Channel) NotificationOption {
	return func(n *notification.Notification) { n.Channels = cs }
}
