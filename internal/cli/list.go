package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/query"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Unread     bool
	Read       bool
	Types      []string
	Priorities []string
	Search     string
	From       string
	To         string
	Limit      int
}

// ListResult is the JSON payload of the list command.
type ListResult struct {
	Groups  []query.NotificationGroup `json:"groups"`
	Shown   int                       `json:"shown"`
	Total   int                       `json:"total"`
	Unread  int                       `json:"unread"`
	HasMore bool                      `json:"hasMore"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications grouped by day",
		Long: `Fetch the first page of notifications and print them grouped into
Today, Yesterday and dated buckets, newest first.

Filters are applied locally and combine with AND.

Examples:
  notifykit list
  notifykit list --unread --priority high --priority urgent
  notifykit list --type auction_outbid --search copper
  notifykit list --from 2026-10-01 --to 2026-10-19 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Unread, "unread", false, "only unread notifications")
	cmd.Flags().BoolVar(&opts.Read, "read", false, "only read notifications")
	cmd.Flags().StringSliceVar(&opts.Types, "type", nil, "notification type (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Priorities, "priority", nil, "priority (repeatable)")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "case-insensitive text in title or message")
	cmd.Flags().StringVar(&opts.From, "from", "", "created at or after (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&opts.To, "to", "", "created at or before (YYYY-MM-DD or RFC3339)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "page size (defaults to the configured limit)")
	cmd.MarkFlagsMutuallyExclusive("unread", "read")

	return cmd
}

func (o *ListOptions) filter() (query.FilterSpec, error) {
	spec := query.FilterSpec{Search: o.Search}

	types, err := parseTypes(o.Types)
	if err != nil {
		return spec, err
	}
	priorities, err := parsePriorities(o.Priorities)
	if err != nil {
		return spec, err
	}
	spec.Types = types
	spec.Priorities = priorities

	switch {
	case o.Unread:
		read := false
		spec.IsRead = &read
	case o.Read:
		read := true
		spec.IsRead = &read
	}
	if o.From != "" || o.To != "" {
		spec.DateRange = &query.DateRange{Start: o.From, End: o.To}
	}
	return spec, nil
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	spec, err := opts.filter()
	if err != nil {
		return err
	}

	sess, err := newSession(opts.RootOptions, cmd, opts.Limit)
	if err != nil {
		return err
	}
	if err := sess.hydrate(cmd); err != nil {
		return err
	}
	sess.center.SetFilter(spec)

	now := sess.clock.Now()
	groups := sess.center.View(now)
	total, hasMore := sess.center.Total()

	result := ListResult{
		Groups:  groups,
		Shown:   query.Count(groups),
		Total:   total,
		Unread:  sess.store.UnreadCount(),
		HasMore: hasMore,
	}
	return sess.out.Render(result, func(w io.Writer) {
		writeGroups(w, result)
	})
}

func writeGroups(w io.Writer, r ListResult) {
	if r.Shown == 0 {
		fmt.Fprintln(w, "No notifications.")
		return
	}
	for _, g := range r.Groups {
		fmt.Fprintf(w, "%s (%d unread)\n", g.Label, g.UnreadCount)
		for _, d := range g.Notifications {
			fmt.Fprintf(w, "  %s\n", formatRow(d))
		}
	}
	more := ""
	if r.HasMore {
		more = ", more on server"
	}
	fmt.Fprintf(w, "\n%d shown, %d unread, %d total%s\n", r.Shown, r.Unread, r.Total, more)
}

func formatRow(d notification.Display) string {
	mark := " "
	if !d.IsRead {
		mark = "●"
	}
	var extra []string
	if d.HasActions && !d.Expired {
		ids := make([]string, len(d.Actions))
		for i, a := range d.Actions {
			ids[i] = a.ID
		}
		extra = append(extra, "actions: "+strings.Join(ids, ","))
	}
	if d.Expired {
		extra = append(extra, "expired")
	}
	row := fmt.Sprintf("%s [%-6s] %s  (%s)  %s", mark, d.Priority, d.Title, d.TimeAgo, d.ID)
	if len(extra) > 0 {
		row += "  " + strings.Join(extra, "; ")
	}
	return row
}
