package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/center"
)

// ActionOptions holds flags for the action command.
type ActionOptions struct {
	*RootOptions
	Data []string // key=value pairs merged over the action's own data
}

// ActionOutput is the JSON payload of the action command.
type ActionOutput struct {
	NotificationID string         `json:"notificationId"`
	ActionID       string         `json:"actionId"`
	Message        string         `json:"message,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

// NewActionCommand creates the action command.
func NewActionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ActionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "action <notification-id> <action-id>",
		Short: "Execute a notification action",
		Long: `Execute one of the actions attached to a notification, for example
placing a bid from an auction_ending alert. Expired notifications and unknown
actions are rejected locally. On success the notification is marked read.

Exit codes:
  0 - Action accepted
  1 - Action rejected, expired or unknown
  2 - Command error (bad config, backend unreachable, etc.)

Examples:
  notifykit action 64f1c2 view_auction
  notifykit action 64f1c2 place_bid --data amount=120.50`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Data, "data", "d", nil, "extra action data as key=value (repeatable)")

	return cmd
}

// parseData turns key=value pairs into a map. Values that parse as numbers
// or booleans keep that type.
func parseData(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --data %q: want key=value", p))
		}
		switch {
		case v == "true" || v == "false":
			out[k] = v == "true"
		default:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				out[k] = f
			} else {
				out[k] = v
			}
		}
	}
	return out, nil
}

func runAction(opts *ActionOptions, id, actionID string, cmd *cobra.Command) error {
	extra, err := parseData(opts.Data)
	if err != nil {
		return err
	}

	sess, err := newSession(opts.RootOptions, cmd, 0)
	if err != nil {
		return err
	}
	if err := sess.hydrate(cmd); err != nil {
		return err
	}

	res, err := sess.center.ExecuteAction(cmd.Context(), id, actionID, extra)
	if err != nil {
		code := ExitCommandError
		if isRejection(err) {
			code = ExitFailure
		}
		return sess.out.Fail(code, "action failed", err)
	}

	out := ActionOutput{NotificationID: id, ActionID: actionID}
	if res != nil {
		out.Message = res.Message
		out.Data = res.Data
	}
	return sess.out.Render(out, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s on %s\n", actionID, id)
		if out.Message != "" {
			fmt.Fprintf(w, "  %s\n", out.Message)
		}
	})
}

func isRejection(err error) bool {
	return errors.Is(err, center.ErrNotFound) ||
		errors.Is(err, center.ErrExpired) ||
		errors.Is(err, center.ErrUnknownAction) ||
		errors.Is(err, center.ErrActionRejected)
}

// NewOpenCommand creates the open command.
func NewOpenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open <notification-id>",
		Short: "Mark a notification read and print its link",
		Long: `Mark a notification as read and print the url it links to, if any.

Examples:
  notifykit open 64f1c2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(rootOpts, args[0], cmd)
		},
	}
}

func runOpen(opts *RootOptions, id string, cmd *cobra.Command) error {
	sess, err := newSession(opts, cmd, 0)
	if err != nil {
		return err
	}
	if err := sess.hydrate(cmd); err != nil {
		return err
	}

	link, err := sess.center.Open(cmd.Context(), id)
	if err != nil {
		code := ExitCommandError
		if errors.Is(err, center.ErrNotFound) {
			code = ExitFailure
		}
		return sess.out.Fail(code, "open failed", err)
	}

	return sess.out.Render(map[string]string{"id": id, "url": link}, func(w io.Writer) {
		if link == "" {
			fmt.Fprintf(w, "%s has no link\n", id)
			return
		}
		fmt.Fprintln(w, link)
	})
}
