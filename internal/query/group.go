package query

import (
	"sort"
	"time"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

// Group bucket labels pinned to the top of the list.
const (
	LabelToday     = "Today"
	LabelYesterday = "Yesterday"
)

// dateLabelLayout renders buckets older than a week, e.g. "Oct 02, 2026".
const dateLabelLayout = "Jan 02, 2006"

// NotificationGroup is one date bucket of display notifications.
type NotificationGroup struct {
	Label         string                 `json:"date"`
	Notifications []notification.Display `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
}

// Group buckets ns by creation date relative to now.
//
// Within a bucket notifications are newest first. Buckets are ordered Today,
// Yesterday, then by the creation time of their newest member, newest first.
// Every input notification appears in exactly one bucket. Empty input yields
// an empty (non-nil) slice.
func Group(ns []notification.Notification, now time.Time) []NotificationGroup {
	groups := make([]NotificationGroup, 0)
	index := make(map[string]int)

	for i := range ns {
		label := BucketLabel(ns[i].CreatedAt, now)
		gi, ok := index[label]
		if !ok {
			gi = len(groups)
			index[label] = gi
			groups = append(groups, NotificationGroup{Label: label})
		}
		g := &groups[gi]
		g.Notifications = append(g.Notifications, toDisplay(ns[i], now))
		if !ns[i].IsRead {
			g.UnreadCount++
		}
	}

	for i := range groups {
		members := groups[i].Notifications
		sort.SliceStable(members, func(a, b int) bool {
			return members[a].CreatedAt.After(members[b].CreatedAt)
		})
	}

	sort.SliceStable(groups, func(a, b int) bool {
		ra, rb := pinRank(groups[a].Label), pinRank(groups[b].Label)
		if ra != rb {
			return ra < rb
		}
		return groups[a].Notifications[0].CreatedAt.After(groups[b].Notifications[0].CreatedAt)
	})

	return groups
}

// BucketLabel returns the group label for a creation time: "Today",
// "Yesterday", the weekday name within the trailing week, otherwise the
// calendar date.
func BucketLabel(createdAt, now time.Time) string {
	local := createdAt.In(now.Location())
	switch days := calendarDaysBetween(local, now); {
	case days == 0:
		return LabelToday
	case days == 1:
		return LabelYesterday
	case days > 1 && days < 7:
		return local.Weekday().String()
	default:
		return local.Format(dateLabelLayout)
	}
}

// calendarDaysBetween counts calendar days from a to b, both read in b's
// location. DST transitions do not affect the count.
func calendarDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func pinRank(label string) int {
	switch label {
	case LabelToday:
		return 0
	case LabelYesterday:
		return 1
	default:
		return 2
	}
}

func toDisplay(n notification.Notification, now time.Time) notification.Display {
	return notification.Display{
		Notification: n,
		TimeAgo:      TimeAgo(n.CreatedAt, now),
		HasActions:   n.HasActions(),
		Expired:      n.IsExpired(now),
	}
}

// Count returns the number of notifications across groups.
func Count(groups []NotificationGroup) int {
	total := 0
	for _, g := range groups {
		total += len(g.Notifications)
	}
	return total
}
