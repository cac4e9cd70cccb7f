package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

const newFrame = `{
	"type": "NEW_NOTIFICATION",
	"notification": {
		"id": "n-1",
		"type": "auction_outbid",
		"priority": "high",
		"title": "You were outbid",
		"message": "Someone bid 420 on 2t of HDPE regrind",
		"isRead": false,
		"createdAt": "2026-10-19T11:58:00Z",
		"channels": ["in_app", "push"],
		"data": {"url": "/auctions/77"}
	}
}`

func TestDecode_New(t *testing.T) {
	ev, err := Decode([]byte(newFrame))
	require.NoError(t, err)

	assert.Equal(t, EventNew, ev.Type)
	require.NotNil(t, ev.Notification)
	assert.Equal(t, "n-1", ev.Notification.ID)
	assert.Equal(t, notification.PriorityHigh, ev.Notification.Priority)
	assert.Equal(t, "/auctions/77", ev.Notification.URL())
}

func TestDecode_Batch_DropsInvalidMembers(t *testing.T) {
	raw := `{"type":"NOTIFICATION_BATCH","notifications":[
		{"id":"a","type":"order_placed","priority":"low","title":"t","message":"m","createdAt":"2026-10-19T10:00:00Z","channels":["in_app"]},
		{"id":"","type":"order_placed","priority":"low","title":"t","message":"m","createdAt":"2026-10-19T10:00:00Z","channels":["in_app"]},
		{"id":"c","type":"teleport","priority":"low","title":"t","message":"m","createdAt":"2026-10-19T10:00:00Z","channels":["in_app"]}
	]}`
	ev, err := Decode([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, EventBatch, ev.Type)
	require.Len(t, ev.Notifications, 1)
	assert.Equal(t, "a", ev.Notifications[0].ID)
	assert.Equal(t, 2, ev.Dropped)
}

func TestDecode_Update(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"NOTIFICATION_UPDATE","notificationId":"n-1","updates":{"isRead":true,"title":"Sold"}}`))
	require.NoError(t, err)

	assert.Equal(t, EventUpdate, ev.Type)
	assert.Equal(t, "n-1", ev.NotificationID)
	require.NotNil(t, ev.Updates.IsRead)
	assert.True(t, *ev.Updates.IsRead)
	require.NotNil(t, ev.Updates.Title)
	assert.Equal(t, "Sold", *ev.Updates.Title)
}

func TestDecode_Deleted(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"NOTIFICATION_DELETED","notificationId":"n-9"}`))
	require.NoError(t, err)
	assert.Equal(t, EventDeleted, ev.Type)
	assert.Equal(t, "n-9", ev.NotificationID)
}

func TestDecode_UnknownTagIsNotAnError(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"PRESENCE_PING"}`))
	require.NoError(t, err)
	assert.Equal(t, EventUnknown, ev.Type)
	assert.Equal(t, "PRESENCE_PING", ev.Tag)
	assert.Equal(t, "PRESENCE_PING", ev.JournalTag())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code DecodeErrorCode
	}{
		{"not json", `{"type":`, ErrCodeMalformedJSON},
		{"not an object", `[1,2]`, ErrCodeMalformedJSON},
		{"no type", `{"notification":{}}`, ErrCodeMissingType},
		{"new without notification", `{"type":"NEW_NOTIFICATION"}`, ErrCodeInvalidPayload},
		{"new with invalid record", `{"type":"NEW_NOTIFICATION","notification":{"id":"x","type":"auction_bid","priority":"extreme"}}`, ErrCodeInvalidPayload},
		{"update without id", `{"type":"NOTIFICATION_UPDATE","updates":{"isRead":true}}`, ErrCodeInvalidPayload},
		{"update without updates", `{"type":"NOTIFICATION_UPDATE","notificationId":"x"}`, ErrCodeInvalidPayload},
		{"update with bad priority", `{"type":"NOTIFICATION_UPDATE","notificationId":"x","updates":{"priority":"extreme"}}`, ErrCodeInvalidPayload},
		{"delete without id", `{"type":"NOTIFICATION_DELETED"}`, ErrCodeInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			require.Error(t, err)

			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.code == ErrCodeMalformedJSON, IsMalformed(err))
			assert.Equal(t, tt.code == ErrCodeInvalidPayload, IsInvalidPayload(err))
		})
	}
}
