package query

import (
	"fmt"
	"time"
)

// TimeAgo renders t relative to now in words, e.g. "about 3 hours ago".
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		return "in the future"
	}

	minutes := int(d.Minutes())
	hours := int(d.Hours())
	days := hours / 24

	switch {
	case d < time.Minute:
		return "less than a minute ago"
	case minutes == 1:
		return "1 minute ago"
	case minutes < 45:
		return fmt.Sprintf("%d minutes ago", minutes)
	case minutes < 90:
		return "about 1 hour ago"
	case hours < 24:
		return fmt.Sprintf("about %d hours ago", roundDiv(minutes, 60))
	case hours < 42:
		return "1 day ago"
	case days < 30:
		return fmt.Sprintf("%d days ago", roundDiv(hours, 24))
	case days < 45:
		return "about 1 month ago"
	case days < 365:
		return fmt.Sprintf("%d months ago", max(2, roundDiv(days, 30)))
	case days < 730:
		return "about 1 year ago"
	default:
		return fmt.Sprintf("over %d years ago", days/365)
	}
}

func roundDiv(a, b int) int {
	return (a + b/2) / b
}
