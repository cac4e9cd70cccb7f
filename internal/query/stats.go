package query

import (
	"sort"
	"time"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

// Stats summarises a notification list for dashboard widgets.
type Stats struct {
	Total      int                           `json:"total"`
	Unread     int                           `json:"unread"`
	Today      int                           `json:"today"`
	ThisWeek   int                           `json:"thisWeek"`
	ByType     map[notification.Type]int     `json:"byType"`
	ByPriority map[notification.Priority]int `json:"byPriority"`
}

// ComputeStats aggregates ns in one pass. Histograms only contain observed
// keys.
//
// Today counts createdAt at or after local midnight of now; ThisWeek counts
// createdAt within the last seven days (168 hours) of now.
func ComputeStats(ns []notification.Notification, now time.Time) Stats {
	st := Stats{
		Total:      len(ns),
		ByType:     make(map[notification.Type]int),
		ByPriority: make(map[notification.Priority]int),
	}

	startOfToday := StartOfDay(now)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	for i := range ns {
		n := &ns[i]
		if !n.IsRead {
			st.Unread++
		}
		if !n.CreatedAt.Before(startOfToday) {
			st.Today++
		}
		if !n.CreatedAt.Before(weekAgo) {
			st.ThisWeek++
		}
		st.ByType[n.Type]++
		st.ByPriority[n.Priority]++
	}

	return st
}

// StartOfDay returns local midnight of t in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// KeyCount is one histogram entry.
type KeyCount[K ~string] struct {
	Key   K   `json:"key"`
	Count int `json:"count"`
}

// TopN returns at most n histogram entries by count descending, ties broken
// by key ascending. n <= 0 returns every entry.
func TopN[K ~string](hist map[K]int, n int) []KeyCount[K] {
	out := make([]KeyCount[K], 0, len(hist))
	for k, c := range hist {
		out = append(out, KeyCount[K]{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
