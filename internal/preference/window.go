package preference

import (
	"fmt"
	"time"
)

// Window is a daily time-of-day range in "HH:MM" 24h form. A window whose
// end is earlier than its start crosses midnight (e.g. 22:00–07:00).
type Window struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Contains reports whether t's local time of day falls in an enabled window.
// The start is inclusive and the end exclusive. Malformed or zero-length
// windows contain nothing.
func (w Window) Contains(t time.Time) bool {
	if !w.Enabled {
		return false
	}
	start, err := parseClock(w.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(w.End)
	if err != nil {
		return false
	}
	m := t.Hour()*60 + t.Minute()

	switch {
	case start == end:
		return false
	case start < end:
		return m >= start && m < end
	default:
		return m >= start || m < end
	}
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
