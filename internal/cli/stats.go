package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/api"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/query"
)

// StatsResult is the JSON payload of the stats command.
type StatsResult struct {
	query.Stats
	TopTypes      []query.KeyCount[notification.Type]     `json:"topTypes"`
	TopPriorities []query.KeyCount[notification.Priority] `json:"topPriorities"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise the loaded notifications",
		Long: `Compute totals over the first page of notifications: unread, created
today, created in the last seven days, and counts by type and priority.

Examples:
  notifykit stats
  notifykit stats --top 3 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, top, cmd)
		},
	}

	cmd.Flags().IntVar(&top, "top", 5, "histogram entries to show (0 for all)")

	return cmd
}

func runStats(opts *RootOptions, top int, cmd *cobra.Command) error {
	sess, err := newSession(opts, cmd, 0)
	if err != nil {
		return err
	}
	if err := sess.hydrate(cmd); err != nil {
		return err
	}

	st := sess.center.Stats(sess.clock.Now())
	result := StatsResult{
		Stats:         st,
		TopTypes:      query.TopN(st.ByType, top),
		TopPriorities: query.TopN(st.ByPriority, top),
	}
	return sess.out.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "Total:     %d\n", st.Total)
		fmt.Fprintf(w, "Unread:    %d\n", st.Unread)
		fmt.Fprintf(w, "Today:     %d\n", st.Today)
		fmt.Fprintf(w, "This week: %d\n", st.ThisWeek)
		writeHistogram(w, "By type", result.TopTypes)
		writeHistogram(w, "By priority", result.TopPriorities)
	})
}

func writeHistogram[K ~string](w io.Writer, title string, entries []query.KeyCount[K]) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, e := range entries {
		fmt.Fprintf(w, "  %-20s %d\n", e.Key, e.Count)
	}
}

// AnalyticsOptions holds flags for the analytics command.
type AnalyticsOptions struct {
	*RootOptions
	From string
	To   string
}

// NewAnalyticsCommand creates the analytics command.
func NewAnalyticsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyticsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show server-side delivery analytics",
		Long: `Fetch read, unread and click counts computed by the backend over an
optional date window.

Examples:
  notifykit analytics
  notifykit analytics --from 2026-10-01 --to 2026-10-19`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalytics(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "window start (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&opts.To, "to", "", "window end (YYYY-MM-DD or RFC3339)")

	return cmd
}

func runAnalytics(opts *AnalyticsOptions, cmd *cobra.Command) error {
	from, err := parseDateFlag("from", opts.From, false)
	if err != nil {
		return err
	}
	to, err := parseDateFlag("to", opts.To, true)
	if err != nil {
		return err
	}

	client, err := opts.client(cmd)
	if err != nil {
		return err
	}
	out := opts.formatter(cmd)

	a, err := client.Analytics(cmd.Context(), api.AnalyticsParams{From: from, To: to})
	if err != nil {
		return out.Fail(ExitCommandError, "failed to fetch analytics", err)
	}

	return out.Render(a, func(w io.Writer) {
		fmt.Fprintf(w, "Total:     %d\n", a.Total)
		fmt.Fprintf(w, "Read:      %d\n", a.Read)
		fmt.Fprintf(w, "Unread:    %d\n", a.Unread)
		fmt.Fprintf(w, "Clicked:   %d\n", a.Clicked)
		fmt.Fprintf(w, "Read rate: %.1f%%\n", a.ReadRate*100)
		writeHistogram(w, "By type", query.TopN(a.ByType, 0))
		writeHistogram(w, "By priority", query.TopN(a.ByPriority, 0))
		writeHistogram(w, "By channel", query.TopN(a.ByChannel, 0))
	})
}

// parseDateFlag accepts RFC3339 or a UTC calendar date. A date-only upper
// bound covers the whole day.
func parseDateFlag(name, raw string, upper bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, NewExitError(ExitCommandError, fmt.Sprintf("invalid --%s %q: want YYYY-MM-DD or RFC3339", name, raw))
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
