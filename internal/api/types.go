package api

import (
	"time"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/query"
)

// ListParams selects a page of notifications.
type ListParams struct {
	Limit  int
	Offset int
	Filter query.FilterSpec
}

// ListResponse is the body of GET /notifications.
type ListResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	Total         int                         `json:"total"`
	UnreadCount   int                         `json:"unreadCount"`
	HasMore       bool                        `json:"hasMore"`
}

// BulkAction is the action of PATCH /notifications/bulk.
type BulkAction string

const (
	BulkMarkRead   BulkAction = "mark_read"
	BulkMarkUnread BulkAction = "mark_unread"
	BulkDelete     BulkAction = "delete"
)

type bulkRequest struct {
	NotificationIDs []string   `json:"notificationIds"`
	Action          BulkAction `json:"action"`
}

// ActionResult is the body returned by an action execution. Backends that
// answer with an empty body yield Success true.
type ActionResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// TestRequest asks the backend to emit a sample notification.
type TestRequest struct {
	Type     notification.Type      `json:"type"`
	Priority notification.Priority  `json:"priority,omitempty"`
	Channels []notification.Channel `json:"channels,omitempty"`
	Title    string                 `json:"title,omitempty"`
	Message  string                 `json:"message,omitempty"`
}

// AnalyticsParams bounds the analytics window. Zero times are omitted.
type AnalyticsParams struct {
	From time.Time
	To   time.Time
}

// Analytics is the body of GET /notifications/analytics.
type Analytics struct {
	Total      int                           `json:"total"`
	Read       int                           `json:"read"`
	Unread     int                           `json:"unread"`
	Clicked    int                           `json:"clicked"`
	ReadRate   float64                       `json:"readRate"`
	ByType     map[notification.Type]int     `json:"byType,omitempty"`
	ByPriority map[notification.Priority]int `json:"byPriority,omitempty"`
	ByChannel  map[notification.Channel]int  `json:"byChannel,omitempty"`
}
