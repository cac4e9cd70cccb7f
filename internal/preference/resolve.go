package preference

import (
	"time"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

// Resolve returns the channels a notification should be delivered on at now,
// in the order the priority rule lists them.
//
// The priority rule picks the candidate channels. A candidate survives when
// its channel rule is enabled, admits the notification type and is outside
// its quiet hours. The do-not-disturb window suppresses every channel.
// Urgent notifications ignore both quiet hours and do-not-disturb.
func (p *Preferences) Resolve(n *notification.Notification, now time.Time) []notification.Channel {
	urgent := n.Priority == notification.PriorityUrgent
	if !urgent && p.DoNotDisturb.Contains(now) {
		return nil
	}

	rule, ok := p.Priority[n.Priority]
	if !ok || !rule.Enabled {
		return nil
	}

	var out []notification.Channel
	seen := make(map[notification.Channel]bool, len(rule.Channels))
	for _, c := range rule.Channels {
		if seen[c] {
			continue
		}
		seen[c] = true

		cr, ok := p.Channels[c]
		if !ok || !cr.Enabled || !cr.AllowsType(n.Type) {
			continue
		}
		if !urgent && cr.QuietHours != nil && cr.QuietHours.Contains(now) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Allows reports whether n would be delivered on channel c at now.
func (p *Preferences) Allows(n *notification.Notification, c notification.Channel, now time.Time) bool {
	for _, got := range p.Resolve(n, now) {
		if got == c {
			return true
		}
	}
	return false
}
