package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// MutationResult is the JSON payload of read, unread and delete.
type MutationResult struct {
	Op     string   `json:"op"`
	IDs    []string `json:"ids"`
	Unread int      `json:"unread"`
}

// NewReadCommand creates the read command.
func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read [id...]",
		Short: "Mark notifications as read",
		Long: `Mark one or more notifications as read. The local change is applied
first and rolled back if the backend rejects it.

Examples:
  notifykit read 64f1c2 64f1c3
  notifykit read --all`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return NewExitError(ExitCommandError, "pass notification ids or --all, not both")
			}
			return runMark(rootOpts, "mark_read", args, all, cmd)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "mark every loaded notification as read")

	return cmd
}

// NewUnreadCommand creates the unread command.
func NewUnreadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unread <id...>",
		Short: "Mark notifications as unread",
		Long: `Mark notifications as unread again.

Examples:
  notifykit unread 64f1c2`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMark(rootOpts, "mark_unread", args, false, cmd)
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id...>",
		Short: "Delete notifications",
		Long: `Delete notifications. Several ids are removed with one bulk request;
on failure every one of them is restored.

Examples:
  notifykit delete 64f1c2
  notifykit delete 64f1c2 64f1c3 64f1c4`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMark(rootOpts, "delete", args, false, cmd)
		},
	}
}

func runMark(opts *RootOptions, op string, ids []string, all bool, cmd *cobra.Command) error {
	sess, err := newSession(opts, cmd, 0)
	if err != nil {
		return err
	}
	if err := sess.hydrate(cmd); err != nil {
		return err
	}
	if err := sess.requireIDs(ids); err != nil {
		return err
	}

	ctx := cmd.Context()
	ctl := sess.center
	switch {
	case all:
		op = "mark_all_read"
		ids = []string{}
		for _, n := range sess.store.List() {
			if !n.IsRead {
				ids = append(ids, n.ID)
			}
		}
		err = ctl.MarkAllAsRead(ctx)
	case op == "mark_read":
		err = ctl.MarkAsRead(ctx, ids...)
	case op == "mark_unread":
		err = ctl.MarkAsUnread(ctx, ids...)
	case len(ids) == 1:
		err = ctl.Delete(ctx, ids[0])
	default:
		sess.store.Select(ids...)
		err = ctl.DeleteSelected(ctx)
	}
	if err != nil {
		return sess.out.Fail(ExitCommandError, op+" failed", err)
	}

	result := MutationResult{Op: op, IDs: ids, Unread: sess.store.UnreadCount()}
	return sess.out.Render(result, func(w io.Writer) {
		if len(ids) == 0 {
			fmt.Fprintln(w, "Nothing to do.")
			return
		}
		fmt.Fprintf(w, "%s: %s (%d unread)\n", op, strings.Join(ids, ", "), result.Unread)
	})
}
