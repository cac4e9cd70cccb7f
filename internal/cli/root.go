package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/api"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Config is loaded on first use. Tests may set it directly.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the notifykit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "notifykit",
		Short: "notifykit - marketplace notification client",
		Long: `A terminal client for the recycling marketplace notification service.

Lists and manages notifications over the REST API, follows the realtime
stream, and records frames to a local journal for replay.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVarP(&opts.ConfigFile, "config", "c", "", "config file (yaml, json or toml)")
	pf.String("api-url", "", "notifications API base url")
	pf.String("ws-url", "", "realtime websocket url (derived from --api-url when empty)")
	pf.String("token", "", "bearer token")
	pf.String("user", "", "user id sent with list and count requests")
	pf.String("journal", "", "sqlite journal path")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("log-format", "", "log format (text|json)")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewAnalyticsCommand(opts))
	cmd.AddCommand(NewReadCommand(opts))
	cmd.AddCommand(NewUnreadCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewActionCommand(opts))
	cmd.AddCommand(NewOpenCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewPrefsCommand(opts))
	cmd.AddCommand(NewSendTestCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))
	cmd.AddCommand(NewVAPIDCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// config loads the effective configuration once: defaults, then the config
// file, then NOTIFYKIT_* variables, then whichever flags were set.
func (o *RootOptions) config(cmd *cobra.Command) (*config.Config, error) {
	if o.Config != nil {
		return o.Config, nil
	}
	v := config.NewViper()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to bind flags", err)
	}
	cfg, err := config.Load(v, o.ConfigFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.Config = cfg
	return cfg, nil
}

// logger returns the command logger, writing to stderr. --verbose forces
// debug level.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	level := slog.LevelInfo
	format := "text"
	if o.Config != nil {
		level = o.Config.Level()
		format = o.Config.LogFormat
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = newLogger(cmd.ErrOrStderr(), format, level)
	return o.Logger
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// client builds an API client from the loaded configuration.
func (o *RootOptions) client(cmd *cobra.Command) (*api.Client, error) {
	cfg, err := o.config(cmd)
	if err != nil {
		return nil, err
	}
	return api.New(cfg.APIURL, api.WithToken(cfg.Token), api.WithUserID(cfg.UserID)), nil
}

// formatter returns an OutputFormatter bound to cmd's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
