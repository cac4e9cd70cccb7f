package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/desktop"
)

// NewVAPIDCommand creates the vapid-keys command.
func NewVAPIDCommand(rootOpts *RootOptions) *cobra.Command {
	var subscriber string

	cmd := &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a web push key pair",
		Long: `Generate a VAPID application server key pair for web push delivery.
Paste the output under push.vapid in the config file.

Examples:
  notifykit vapid-keys --subscriber mailto:ops@example.com`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := desktop.GenerateVAPID(subscriber)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to generate keys", err)
			}
			return rootOpts.formatter(cmd).Render(keys, func(w io.Writer) {
				fmt.Fprintln(w, "push:")
				fmt.Fprintln(w, "  vapid:")
				if keys.Subscriber != "" {
					fmt.Fprintf(w, "    subscriber: %s\n", keys.Subscriber)
				}
				fmt.Fprintf(w, "    public_key: %s\n", keys.PublicKey)
				fmt.Fprintf(w, "    private_key: %s\n", keys.PrivateKey)
			})
		},
	}

	cmd.Flags().StringVar(&subscriber, "subscriber", "", "contact url sent to push services (mailto: or https:)")

	return cmd
}
