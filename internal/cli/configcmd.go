package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, the config file,
NOTIFYKIT_* environment variables and flags. Secrets are masked.

Examples:
  notifykit config
  notifykit config --config ./notifykit.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.config(cmd)
			if err != nil {
				return err
			}
			r := cfg.Redacted()
			return rootOpts.formatter(cmd).Render(r, func(w io.Writer) {
				fmt.Fprintf(w, "api_url:    %s\n", r.APIURL)
				fmt.Fprintf(w, "ws_url:     %s\n", r.WebSocketURL())
				fmt.Fprintf(w, "token:      %s\n", r.Token)
				fmt.Fprintf(w, "user_id:    %s\n", r.UserID)
				fmt.Fprintf(w, "limit:      %d\n", r.Limit)
				fmt.Fprintf(w, "journal:    %s\n", r.JournalPath)
				fmt.Fprintf(w, "log_level:  %s\n", r.LogLevel)
				fmt.Fprintf(w, "log_format: %s\n", r.LogFormat)
				fmt.Fprintf(w, "push:       %t\n", r.Push.Enabled())
			})
		},
	}
}
