// Package preference models per-user delivery preferences: which channels
// are enabled for which notification types and priorities, quiet windows,
// and batch delivery settings. It also provides channel resolution for an
// incoming notification and a draft editor with dirty tracking.
package preference

import (
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

// Preferences is one user's delivery configuration.
type Preferences struct {
	Channels      map[notification.Channel]ChannelRule   `json:"channels"`
	Priority      map[notification.Priority]PriorityRule `json:"priority"`
	BatchSettings BatchSettings                          `json:"batchSettings"`
	DoNotDisturb  Window                                 `json:"doNotDisturb"`
}

// ChannelRule configures a single delivery channel.
//
// An empty Types list allows every type; to stop a channel entirely set
// Enabled to false.
type ChannelRule struct {
	Enabled    bool                `json:"enabled"`
	Types      []notification.Type `json:"types,omitempty"`
	QuietHours *Window             `json:"quietHours,omitempty"`
}

// PriorityRule lists the channels used for a priority level.
type PriorityRule struct {
	Enabled  bool                   `json:"enabled"`
	Channels []notification.Channel `json:"channels,omitempty"`
}

// BatchSettings controls coalescing of notifications before delivery.
type BatchSettings struct {
	Enabled  bool `json:"enabled"`
	Interval int  `json:"interval"` // minutes
	MaxCount int  `json:"maxCount"`
}

// AllowsType reports whether the rule admits notifications of type t.
func (r ChannelRule) AllowsType(t notification.Type) bool {
	if len(r.Types) == 0 {
		return true
	}
	for _, allowed := range r.Types {
		if allowed == t {
			return true
		}
	}
	return false
}

// Defaults returns the preferences used before the server has answered:
// every channel on for every type, escalating channel sets by priority,
// no batching and no do-not-disturb window.
func Defaults() Preferences {
	p := Preferences{
		Channels: make(map[notification.Channel]ChannelRule),
		Priority: map[notification.Priority]PriorityRule{
			notification.PriorityLow: {
				Enabled:  true,
				Channels: []notification.Channel{notification.ChannelInApp},
			},
			notification.PriorityMedium: {
				Enabled:  true,
				Channels: []notification.Channel{notification.ChannelInApp, notification.ChannelPush},
			},
			notification.PriorityHigh: {
				Enabled:  true,
				Channels: []notification.Channel{notification.ChannelInApp, notification.ChannelPush, notification.ChannelEmail},
			},
			notification.PriorityUrgent: {
				Enabled: true,
				Channels: []notification.Channel{
					notification.ChannelInApp, notification.ChannelPush,
					notification.ChannelEmail, notification.ChannelSMS,
				},
			},
		},
		BatchSettings: BatchSettings{Enabled: false, Interval: 15, MaxCount: 10},
		DoNotDisturb:  Window{Enabled: false, Start: "22:00", End: "07:00"},
	}
	for _, c := range notification.AllChannels() {
		p.Channels[c] = ChannelRule{Enabled: true, Types: notification.AllTypes()}
	}
	return p
}

// Clone returns a deep copy.
func (p Preferences) Clone() Preferences {
	out := p
	out.Channels = make(map[notification.Channel]ChannelRule, len(p.Channels))
	for c, r := range p.Channels {
		r.Types = append([]notification.Type(nil), r.Types...)
		if r.QuietHours != nil {
			w := *r.QuietHours
			r.QuietHours = &w
		}
		out.Channels[c] = r
	}
	out.Priority = make(map[notification.Priority]PriorityRule, len(p.Priority))
	for pr, r := range p.Priority {
		r.Channels = append([]notification.Channel(nil), r.Channels...)
		out.Priority[pr] = r
	}
	return out
}
