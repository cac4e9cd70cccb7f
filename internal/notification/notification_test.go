package notification

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriority_Rank(t *testing.T) {
	assert.Less(t, PriorityLow.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityHigh.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityUrgent.Rank())
	assert.Equal(t, 0, Priority("critical").Rank())
	assert.True(t, PriorityUrgent.AtLeast(PriorityHigh))
	assert.False(t, PriorityLow.AtLeast(PriorityMedium))
}

func TestType_Valid(t *testing.T) {
	for _, typ := range AllTypes() {
		assert.True(t, typ.Valid(), typ)
	}
	assert.False(t, Type("auction").Valid())
}

func TestNotification_Validate(t *testing.T) {
	n := Notification{ID: "n1", Type: TypeAuctionBid, Priority: PriorityHigh, Channels: []Channel{ChannelInApp}}
	require.NoError(t, n.Validate())

	missing := n
	missing.ID = ""
	assert.ErrorIs(t, missing.Validate(), ErrMissingID)

	badType := n
	badType.Type = "nope"
	assert.ErrorIs(t, badType.Validate(), ErrInvalidType)

	badPriority := n
	badPriority.Priority = "critical"
	assert.ErrorIs(t, badPriority.Validate(), ErrInvalidPriority)

	badChannel := n
	badChannel.Channels = []Channel{"pigeon"}
	assert.ErrorIs(t, badChannel.Validate(), ErrInvalidChannel)
}

func TestNotification_IsExpired(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, (&Notification{}).IsExpired(now))
	assert.True(t, (&Notification{ExpiresAt: &past}).IsExpired(now))
	assert.False(t, (&Notification{ExpiresAt: &future}).IsExpired(now))
}

func TestNotification_Persistent(t *testing.T) {
	assert.True(t, (&Notification{Priority: PriorityUrgent, Type: TypeOrderPlaced}).Persistent())
	assert.True(t, (&Notification{Priority: PriorityLow, Type: TypeSecurityAlert}).Persistent())
	assert.False(t, (&Notification{Priority: PriorityHigh, Type: TypeAuctionBid}).Persistent())
}

func TestNotification_CloneIsDeep(t *testing.T) {
	exp := time.Now()
	orig := Notification{
		ID:        "n1",
		ExpiresAt: &exp,
		Actions:   []Action{{ID: "accept", Data: map[string]any{"bid": "b1"}}},
		Channels:  []Channel{ChannelInApp},
		Data:      map[string]any{"url": "/auctions/1"},
		Metadata:  &Metadata{Category: "auction", Tags: []string{"metal"}},
	}

	cp := orig.Clone()
	cp.Actions[0].Data["bid"] = "changed"
	cp.Channels[0] = ChannelSMS
	cp.Data["url"] = "/elsewhere"
	cp.Metadata.Tags[0] = "plastic"
	*cp.ExpiresAt = exp.Add(time.Hour)

	assert.Equal(t, "b1", orig.Actions[0].Data["bid"])
	assert.Equal(t, ChannelInApp, orig.Channels[0])
	assert.Equal(t, "/auctions/1", orig.URL())
	assert.Equal(t, "metal", orig.Metadata.Tags[0])
	assert.Equal(t, exp, *orig.ExpiresAt)
}

func TestPatch_Apply(t *testing.T) {
	n := Notification{
		ID:       "n1",
		Type:     TypeAuctionBid,
		Title:    "old",
		Priority: PriorityLow,
		Data:     map[string]any{"url": "/a", "keep": "yes"},
	}

	var p Patch
	require.NoError(t, json.Unmarshal([]byte(`{"title":"new","isRead":true,"priority":"urgent","data":{"url":"/b"}}`), &p))
	p.Apply(&n)

	assert.Equal(t, "new", n.Title)
	assert.True(t, n.IsRead)
	assert.Equal(t, PriorityUrgent, n.Priority)
	assert.Equal(t, "/b", n.URL())
	assert.Equal(t, "yes", n.Data["keep"])
	assert.Equal(t, TypeAuctionBid, n.Type, "type is never patched")
}

func TestNotification_JSONWireShape(t *testing.T) {
	raw := `{
		"id": "n1",
		"type": "payment_received",
		"priority": "medium",
		"title": "Payment received",
		"message": "You received 120 USD",
		"isRead": false,
		"createdAt": "2026-10-19T09:30:00Z",
		"channels": ["in_app", "email"],
		"actions": [{"id": "view", "label": "View", "style": "primary"}],
		"data": {"url": "/payments/9"},
		"metadata": {"category": "payments", "tags": ["usd"]}
	}`

	var n Notification
	require.NoError(t, json.Unmarshal([]byte(raw), &n))
	require.NoError(t, n.Validate())
	assert.Equal(t, TypePaymentReceived, n.Type)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC), n.CreatedAt)
	assert.True(t, n.HasChannel(ChannelEmail))
	assert.True(t, n.HasActions())
	a, ok := n.FindAction("view")
	require.True(t, ok)
	assert.Equal(t, ActionPrimary, a.Style)
	assert.Equal(t, "/payments/9", n.URL())
}

func TestCountUnread(t *testing.T) {
	ns := []Notification{{ID: "a"}, {ID: "b", IsRead: true}, {ID: "c"}}
	assert.Equal(t, 2, CountUnread(ns))
}
