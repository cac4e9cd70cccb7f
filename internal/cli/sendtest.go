package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/api"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

// SendTestOptions holds flags for the send-test command.
type SendTestOptions struct {
	*RootOptions
	Type     string
	Priority string
	Channels []string
	Title    string
	Message  string
}

// NewSendTestCommand creates the send-test command.
func NewSendTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SendTestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Ask the backend to emit a sample notification",
		Long: `Ask the backend to emit a sample notification to the current user.
Combine with 'notifykit watch' to check the realtime path end to end.

Examples:
  notifykit send-test
  notifykit send-test --type auction_outbid --priority urgent --channel in_app --channel push`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSendTest(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", string(notification.TypeSystemUpdate), "notification type")
	cmd.Flags().StringVarP(&opts.Priority, "priority", "p", string(notification.PriorityMedium), "priority")
	cmd.Flags().StringSliceVar(&opts.Channels, "channel", nil, "delivery channel (repeatable)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title override")
	cmd.Flags().StringVar(&opts.Message, "message", "", "message override")

	return cmd
}

func runSendTest(opts *SendTestOptions, cmd *cobra.Command) error {
	types, err := parseTypes([]string{opts.Type})
	if err != nil {
		return err
	}
	priorities, err := parsePriorities([]string{opts.Priority})
	if err != nil {
		return err
	}
	channels, err := parseChannels(opts.Channels)
	if err != nil {
		return err
	}

	client, err := opts.client(cmd)
	if err != nil {
		return err
	}
	out := opts.formatter(cmd)

	req := api.TestRequest{
		Type:     types[0],
		Priority: priorities[0],
		Channels: channels,
		Title:    opts.Title,
		Message:  opts.Message,
	}
	if err := client.SendTest(cmd.Context(), req); err != nil {
		return out.Fail(ExitCommandError, "failed to send test notification", err)
	}

	return out.Render(req, func(w io.Writer) {
		fmt.Fprintf(w, "✓ test %s notification requested (%s)\n", req.Type, req.Priority)
	})
}
