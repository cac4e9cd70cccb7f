package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/batch"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/config"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/desktop"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/engine"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/journal"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/preference"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/realtime"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/toast"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/tui"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	TUI     bool
	Desktop bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the realtime notification stream",
		Long: `Load the current notifications, connect to the realtime stream and
apply every event as it arrives. Dropped connections are retried with
exponential backoff.

With --tui an interactive notification centre is shown. Otherwise each
applied event is printed as a line.

When a journal path is configured every raw frame is recorded and can be
replayed later with 'notifykit replay'.

Examples:
  notifykit watch
  notifykit watch --tui
  notifykit watch --desktop --journal ./frames.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.TUI, "tui", false, "interactive notification centre")
	cmd.Flags().BoolVar(&opts.Desktop, "desktop", false, "ring the terminal for push-channel notifications when web push is not configured")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	sess, err := newSession(opts.RootOptions, cmd, 0)
	if err != nil {
		return err
	}
	logger := opts.logger(cmd)
	cfg := sess.cfg
	st := sess.store
	ctl := sess.center

	if err := sess.hydrate(cmd); err != nil {
		return err
	}

	prefs, err := sess.client.GetPreferences(ctx)
	if err != nil {
		logger.Warn("using default preferences", "error", err)
		defaults := preference.Defaults()
		prefs = &defaults
	}
	st.SetPreferences(*prefs)

	toasts := toast.New(sess.clock)
	defer toasts.Close()

	coalescer := batch.New(sess.clock, prefs.BatchSettings, func(ns []notification.Notification) {
		toasts.ShowBatch(ns)
	})
	defer coalescer.Stop()

	engOpts := []engine.Option{
		engine.WithClock(sess.clock),
		engine.WithLogger(logger),
		engine.WithToaster(toasts),
		engine.WithBatcher(coalescer),
		engine.WithResync(func(ctx context.Context) {
			if err := ctl.Refresh(ctx); err != nil {
				logger.Warn("resync failed", "error", err)
			}
		}),
	}

	if surface := desktopSurface(cfg, opts.Desktop, cmd.ErrOrStderr(), logger); surface != nil {
		if perm := surface.RequestPermission(ctx); perm == desktop.PermissionGranted {
			engOpts = append(engOpts, engine.WithNotifier(surface))
		}
	}

	var j *journal.Journal
	if cfg.JournalPath != "" {
		j, err = journal.Open(cfg.JournalPath)
		if err != nil {
			return sess.out.Fail(ExitCommandError, "failed to open journal", err)
		}
		defer j.Close()
		engOpts = append(engOpts, engine.WithRecorder(j))
	}

	if !opts.TUI {
		w := cmd.OutOrStdout()
		engOpts = append(engOpts, engine.WithObserver(func(a engine.Applied) {
			writeApplied(w, a, st.UnreadCount())
		}))
	}

	eng := engine.New(st, engOpts...)

	wsURL := cfg.WebSocketURL()
	adapter, err := realtime.New(wsURL, cfg.Token, eng, realtime.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid realtime url", err)
	}
	if j != nil {
		adapter.OnState(func(s realtime.State) {
			if s != realtime.StateConnected {
				return
			}
			if _, err := j.BeginSession(ctx, uuid.NewString(), wsURL); err != nil {
				logger.Error("journal session failed", "error", err)
			}
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(gctx)
	})

	if opts.TUI {
		model := tui.New(gctx, ctl, tui.WithToasts(toasts), tui.WithClock(sess.clock))
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))
		stopForward := tui.Forward(p, st)
		defer stopForward()
		adapter.OnState(func(s realtime.State) {
			p.Send(tui.ConnChanged{State: string(s)})
		})
		g.Go(func() error {
			defer cancel()
			_, err := p.Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	} else {
		errW := cmd.ErrOrStderr()
		adapter.OnState(func(s realtime.State) {
			fmt.Fprintf(errW, "realtime: %s\n", s)
		})
	}

	logger.Info("watching notifications", "url", wsURL, "loaded", st.Len(), "unread", st.UnreadCount())
	if err := adapter.Connect(gctx); err != nil {
		logger.Warn("initial connect failed, retrying in background", "error", err)
	}

	err = g.Wait()
	adapter.Disconnect()
	coalescer.Flush()

	stats := eng.Stats()
	logger.Info("watch stopped",
		"frames", stats.Frames,
		"applied", stats.Applied,
		"malformed", stats.Malformed,
		"duplicates", stats.Duplicates,
	)

	if err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "watch failed", err)
	}
	return nil
}

// desktopSurface picks the OS-level delivery path: web push when configured,
// the terminal bell when requested, nothing otherwise.
func desktopSurface(cfg *config.Config, terminal bool, w io.Writer, logger *slog.Logger) *desktop.Surface {
	switch {
	case cfg.Push.Enabled():
		logger.Debug("desktop notices via web push", "endpoint", cfg.Push.Subscription.Endpoint)
		return desktop.NewSurface(desktop.NewWebPushSender(
			cfg.Push.Subscription,
			cfg.Push.VAPID,
			desktop.WithTTL(cfg.Push.TTL),
		))
	case terminal:
		return desktop.NewSurface(desktop.NewTerminalSender(w))
	}
	return nil
}

func writeApplied(w io.Writer, a engine.Applied, unread int) {
	line := fmt.Sprintf("%s %s", a.Event.JournalTag(), a.Outcome)
	if len(a.IDs) > 0 {
		line += " [" + strings.Join(a.IDs, ",") + "]"
	}
	if a.Event.Notification != nil && a.Outcome == engine.OutcomeAdded {
		n := a.Event.Notification
		line += fmt.Sprintf(" %s %q", n.Priority, n.Title)
	}
	if len(a.Channels) > 0 {
		chs := make([]string, len(a.Channels))
		for i, c := range a.Channels {
			chs[i] = string(c)
		}
		line += " via " + strings.Join(chs, ",")
	}
	fmt.Fprintf(w, "%s (unread %d)\n", line, unread)
}
