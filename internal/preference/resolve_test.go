package preference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/testutil"
)

func TestResolveDefaultsByPriority(t *testing.T) {
	p := Defaults()
	tests := []struct {
		priority notification.Priority
		want     []notification.Channel
	}{
		{notification.PriorityLow, []notification.Channel{notification.ChannelInApp}},
		{notification.PriorityMedium, []notification.Channel{notification.ChannelInApp, notification.ChannelPush}},
		{notification.PriorityHigh, []notification.Channel{notification.ChannelInApp, notification.ChannelPush, notification.ChannelEmail}},
		{notification.PriorityUrgent, []notification.Channel{
			notification.ChannelInApp, notification.ChannelPush, notification.ChannelEmail, notification.ChannelSMS,
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			n := testutil.NewNotification(testutil.WithPriority(tt.priority))
			assert.Equal(t, tt.want, p.Resolve(&n, testutil.Now))
		})
	}
}

func TestResolveDisabledPriority(t *testing.T) {
	p := Defaults()
	r := p.Priority[notification.PriorityMedium]
	r.Enabled = false
	p.Priority[notification.PriorityMedium] = r

	n := testutil.NewNotification()
	assert.Empty(t, p.Resolve(&n, testutil.Now))
}

func TestResolveChannelFilters(t *testing.T) {
	p := Defaults()
	p.Channels[notification.ChannelPush] = ChannelRule{
		Enabled: true,
		Types:   []notification.Type{notification.TypeAuctionWon},
	}

	bid := testutil.NewNotification()
	assert.Equal(t, []notification.Channel{notification.ChannelInApp}, p.Resolve(&bid, testutil.Now))

	won := testutil.NewNotification(testutil.WithType(notification.TypeAuctionWon))
	assert.Equal(t, []notification.Channel{notification.ChannelInApp, notification.ChannelPush}, p.Resolve(&won, testutil.Now))

	p.Channels[notification.ChannelInApp] = ChannelRule{Enabled: false}
	assert.Equal(t, []notification.Channel{notification.ChannelPush}, p.Resolve(&won, testutil.Now))
}

func TestResolveEmptyTypesAllowsAll(t *testing.T) {
	p := Defaults()
	p.Channels[notification.ChannelPush] = ChannelRule{Enabled: true}

	n := testutil.NewNotification(testutil.WithType(notification.TypePriceAlert))
	assert.True(t, p.Allows(&n, notification.ChannelPush, testutil.Now))
}

func TestResolveQuietHours(t *testing.T) {
	p := Defaults()
	p.Channels[notification.ChannelPush] = ChannelRule{
		Enabled:    true,
		QuietHours: &Window{Enabled: true, Start: "11:00", End: "13:00"},
	}

	n := testutil.NewNotification(testutil.WithPriority(notification.PriorityHigh))
	got := p.Resolve(&n, testutil.Now)
	assert.Equal(t, []notification.Channel{notification.ChannelInApp, notification.ChannelEmail}, got)
	assert.False(t, p.Allows(&n, notification.ChannelPush, testutil.Now))

	urgent := testutil.NewNotification(testutil.WithPriority(notification.PriorityUrgent))
	assert.True(t, p.Allows(&urgent, notification.ChannelPush, testutil.Now))
}

func TestResolveDoNotDisturb(t *testing.T) {
	p := Defaults()
	p.DoNotDisturb = Window{Enabled: true, Start: "10:00", End: "14:00"}

	high := testutil.NewNotification(testutil.WithPriority(notification.PriorityHigh))
	assert.Empty(t, p.Resolve(&high, testutil.Now))

	urgent := testutil.NewNotification(testutil.WithPriority(notification.PriorityUrgent))
	assert.Len(t, p.Resolve(&urgent, testutil.Now), 4)

	// Outside the window delivery resumes.
	assert.NotEmpty(t, p.Resolve(&high, testutil.Now.Add(3*time.Hour)))
}
