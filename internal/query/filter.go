package query

import (
	"strings"
	"time"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

// FilterSpec selects a subset of notifications. Every field is optional and
// the set fields are AND-combined.
type FilterSpec struct {
	// Search is a case-insensitive substring of the title or the message.
	Search string `json:"search,omitempty"`

	// Types and Priorities are inclusion sets; empty means no filtering.
	Types      []notification.Type     `json:"type,omitempty"`
	Priorities []notification.Priority `json:"priority,omitempty"`

	// IsRead filters on exact read state when non-nil.
	IsRead *bool `json:"isRead,omitempty"`

	// DateRange bounds createdAt inclusively.
	DateRange *DateRange `json:"dateRange,omitempty"`
}

// DateRange holds textual bounds as supplied by a caller. Bounds that fail to
// parse are ignored rather than rejected.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// IsZero reports whether the filter matches everything.
func (s FilterSpec) IsZero() bool {
	return strings.TrimSpace(s.Search) == "" &&
		len(s.Types) == 0 &&
		len(s.Priorities) == 0 &&
		s.IsRead == nil &&
		(s.DateRange == nil || (s.DateRange.Start == "" && s.DateRange.End == ""))
}

// Compile turns the filter into a Predicate. Absent or malformed fields
// contribute nothing.
func Compile(s FilterSpec) Predicate {
	var preds []Predicate

	if text := strings.TrimSpace(s.Search); text != "" {
		preds = append(preds, Contains{Text: foldText(text)})
	}
	if len(s.Types) > 0 {
		set := make(map[notification.Type]struct{}, len(s.Types))
		for _, t := range s.Types {
			set[t] = struct{}{}
		}
		preds = append(preds, TypeIn{Types: set})
	}
	if len(s.Priorities) > 0 {
		set := make(map[notification.Priority]struct{}, len(s.Priorities))
		for _, p := range s.Priorities {
			set[p] = struct{}{}
		}
		preds = append(preds, PriorityIn{Priorities: set})
	}
	if s.IsRead != nil {
		preds = append(preds, ReadIs{Read: *s.IsRead})
	}
	if s.DateRange != nil {
		from, _ := parseBound(s.DateRange.Start, false)
		to, _ := parseBound(s.DateRange.End, true)
		if !from.IsZero() || !to.IsZero() {
			preds = append(preds, CreatedBetween{From: from, To: to})
		}
	}

	switch len(preds) {
	case 0:
		return All{}
	case 1:
		return preds[0]
	default:
		return And{Predicates: preds}
	}
}

// Filter returns the notifications matching spec in their original order.
// The input slice is not modified.
func Filter(ns []notification.Notification, spec FilterSpec) []notification.Notification {
	return Select(ns, Compile(spec))
}

// Select returns the notifications matching p in their original order.
func Select(ns []notification.Notification, p Predicate) []notification.Notification {
	out := make([]notification.Notification, 0, len(ns))
	for i := range ns {
		if p.Match(&ns[i]) {
			out = append(out, ns[i])
		}
	}
	return out
}

var boundLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseBound parses a date-range bound. A date-only bound (2006-01-02) is
// read in UTC; as an upper bound it covers the whole day.
func parseBound(s string, upper bool) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range boundLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		if upper {
			return t.AddDate(0, 0, 1).Add(-time.Nanosecond), true
		}
		return t, true
	}
	return time.Time{}, false
}
