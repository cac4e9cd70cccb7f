package preference

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

type fakeSaver struct {
	got  *Preferences
	resp *Preferences
	err  error
}

func (f *fakeSaver) UpdatePreferences(_ context.Context, p Preferences) (*Preferences, error) {
	cp := p.Clone()
	f.got = &cp
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &cp, nil
}

func TestEditorSettersMarkDirty(t *testing.T) {
	e := NewEditor(Defaults())
	assert.False(t, e.HasChanges())

	e.SetChannelEnabled(notification.ChannelEmail, false)
	assert.True(t, e.HasChanges())
	assert.False(t, e.Draft().Channels[notification.ChannelEmail].Enabled)
	assert.True(t, e.Snapshot().Channels[notification.ChannelEmail].Enabled, "snapshot untouched")
}

func TestEditorSetters(t *testing.T) {
	e := NewEditor(Defaults())

	e.SetChannelTypes(notification.ChannelPush, []notification.Type{notification.TypeAuctionWon})
	e.SetQuietHours(notification.ChannelPush, &Window{Enabled: true, Start: "22:00", End: "06:00"})
	e.SetPriorityEnabled(notification.PriorityLow, false)
	e.SetPriorityChannels(notification.PriorityHigh, []notification.Channel{notification.ChannelEmail})
	e.SetBatch(BatchSettings{Enabled: true, Interval: 30, MaxCount: 5})
	e.SetDoNotDisturb(Window{Enabled: true, Start: "23:00", End: "07:00"})

	d := e.Draft()
	assert.Equal(t, []notification.Type{notification.TypeAuctionWon}, d.Channels[notification.ChannelPush].Types)
	require.NotNil(t, d.Channels[notification.ChannelPush].QuietHours)
	assert.Equal(t, "06:00", d.Channels[notification.ChannelPush].QuietHours.End)
	assert.False(t, d.Priority[notification.PriorityLow].Enabled)
	assert.Equal(t, []notification.Channel{notification.ChannelEmail}, d.Priority[notification.PriorityHigh].Channels)
	assert.Equal(t, 30, d.BatchSettings.Interval)
	assert.True(t, d.DoNotDisturb.Enabled)

	e.SetQuietHours(notification.ChannelPush, nil)
	assert.Nil(t, e.Draft().Channels[notification.ChannelPush].QuietHours)
}

func TestEditorReset(t *testing.T) {
	e := NewEditor(Defaults())
	e.SetBatch(BatchSettings{Enabled: true, Interval: 5, MaxCount: 3})

	e.Reset()
	assert.False(t, e.HasChanges())
	assert.Equal(t, Defaults(), e.Draft())
}

func TestEditorSaveSubmitsFullDraft(t *testing.T) {
	e := NewEditor(Defaults())
	e.SetChannelEnabled(notification.ChannelSMS, false)

	s := &fakeSaver{}
	saved, err := e.Save(context.Background(), s)
	require.NoError(t, err)

	require.NotNil(t, s.got)
	assert.Len(t, s.got.Channels, len(notification.AllChannels()), "whole document, not a diff")
	assert.False(t, s.got.Channels[notification.ChannelSMS].Enabled)
	assert.False(t, saved.Channels[notification.ChannelSMS].Enabled)
	assert.False(t, e.HasChanges())
	assert.False(t, e.Snapshot().Channels[notification.ChannelSMS].Enabled)
}

func TestEditorSaveAdoptsServerResponse(t *testing.T) {
	e := NewEditor(Defaults())
	e.SetBatch(BatchSettings{Enabled: true, Interval: 10, MaxCount: 4})

	server := Defaults()
	server.BatchSettings = BatchSettings{Enabled: true, Interval: 20, MaxCount: 4}
	_, err := e.Save(context.Background(), &fakeSaver{resp: &server})
	require.NoError(t, err)

	assert.Equal(t, 20, e.Draft().BatchSettings.Interval)
}

func TestEditorSaveFailureKeepsDraft(t *testing.T) {
	e := NewEditor(Defaults())
	e.SetChannelEnabled(notification.ChannelEmail, false)

	_, err := e.Save(context.Background(), &fakeSaver{err: errors.New("boom")})
	require.Error(t, err)
	assert.True(t, e.HasChanges())
	assert.False(t, e.Draft().Channels[notification.ChannelEmail].Enabled)
	assert.True(t, e.Snapshot().Channels[notification.ChannelEmail].Enabled)
}

func TestEditorSaveRejectsInvalidDraft(t *testing.T) {
	e := NewEditor(Defaults())
	e.SetDoNotDisturb(Window{Enabled: true, Start: "late", End: "07:00"})

	s := &fakeSaver{}
	_, err := e.Save(context.Background(), s)

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Nil(t, s.got, "invalid draft never reaches the server")
	assert.True(t, e.HasChanges())
}
