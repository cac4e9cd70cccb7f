package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

// EventType is the envelope tag of a realtime frame.
type EventType string

const (
	EventNew     EventType = "NEW_NOTIFICATION"
	EventUpdate  EventType = "NOTIFICATION_UPDATE"
	EventBatch   EventType = "NOTIFICATION_BATCH"
	EventDeleted EventType = "NOTIFICATION_DELETED"

	// EventUnknown is assigned to frames whose tag is not recognised. The
	// original tag is kept in Event.Tag.
	EventUnknown EventType = "UNKNOWN"
)

// MalformedTag is the journal tag for frames that could not be decoded.
const MalformedTag = "MALFORMED"

// Event is a decoded realtime frame.
type Event struct {
	Type EventType
	Tag  string

	Notification   *notification.Notification
	Notifications  []notification.Notification
	NotificationID string
	Updates        notification.Patch

	// Dropped counts batch members rejected by validation.
	Dropped int
}

type envelope struct {
	Type           string                      `json:"type"`
	Notification   *notification.Notification  `json:"notification,omitempty"`
	Notifications  []notification.Notification `json:"notifications,omitempty"`
	NotificationID string                      `json:"notificationId,omitempty"`
	Updates        *notification.Patch         `json:"updates,omitempty"`
}

// Decode parses one frame. Unknown tags are not an error: they decode to an
// EventUnknown event so the caller can log and skip them.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, &DecodeError{Code: ErrCodeMalformedJSON, Message: err.Error(), Err: err}
	}
	if env.Type == "" {
		return Event{}, &DecodeError{Code: ErrCodeMissingType, Message: "frame has no type"}
	}

	ev := Event{Type: EventType(env.Type), Tag: env.Type}
	switch ev.Type {
	case EventNew:
		if env.Notification == nil {
			return Event{}, payloadError(env.Type, "missing notification")
		}
		if err := env.Notification.Validate(); err != nil {
			return Event{}, &DecodeError{Code: ErrCodeInvalidPayload, Tag: env.Type, Message: err.Error(), Err: err}
		}
		ev.Notification = env.Notification

	case EventBatch:
		for _, n := range env.Notifications {
			if err := n.Validate(); err != nil {
				slog.Warn("dropping invalid batch member", "id", n.ID, "error", err)
				ev.Dropped++
				continue
			}
			ev.Notifications = append(ev.Notifications, n)
		}

	case EventUpdate:
		if env.NotificationID == "" {
			return Event{}, payloadError(env.Type, "missing notificationId")
		}
		if env.Updates == nil {
			return Event{}, payloadError(env.Type, "missing updates")
		}
		if p := env.Updates.Priority; p != nil && !p.Valid() {
			return Event{}, payloadError(env.Type, fmt.Sprintf("invalid priority %q", *p))
		}
		ev.NotificationID = env.NotificationID
		ev.Updates = *env.Updates

	case EventDeleted:
		if env.NotificationID == "" {
			return Event{}, payloadError(env.Type, "missing notificationId")
		}
		ev.NotificationID = env.NotificationID

	default:
		ev.Type = EventUnknown
	}
	return ev, nil
}

// JournalTag is the tag recorded in the journal for ev.
func (ev Event) JournalTag() string {
	if ev.Tag != "" {
		return ev.Tag
	}
	return string(ev.Type)
}

func payloadError(tag, msg string) *DecodeError {
	return &DecodeError{Code: ErrCodeInvalidPayload, Tag: tag, Message: msg}
}
