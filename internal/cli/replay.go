package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/engine"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/journal"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/query"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string // defaults to the configured journal
	After    int64  // replay frames with seq > After
	Sessions bool   // list recorded sessions instead of replaying
}

// ReplayOutput holds the replay result.
type ReplayOutput struct {
	Journal       string              `json:"journal"`
	After         int64               `json:"after"`
	LastSeq       int64               `json:"lastSeq"`
	Result        engine.ReplayResult `json:"result"`
	ByTag         map[string]int      `json:"byTag"`
	IDs           []string            `json:"ids"`
	Deterministic bool                `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a frame journal and verify determinism",
		Long: `Feed recorded realtime frames through a fresh engine, in sequence order,
and report the resulting store. The journal is replayed twice and the two
results compared to verify that applying frames is deterministic.

Replay never writes to the journal.

Exit codes:
  0 - Replay succeeded and was deterministic
  1 - The two replays differed
  2 - Command error (journal not found, etc.)

Examples:
  notifykit replay --db ./frames.db
  notifykit replay --db ./frames.db --after 120
  notifykit replay --db ./frames.db --sessions
  notifykit replay --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the journal (defaults to the configured journal)")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only frames with a greater sequence number")
	cmd.Flags().BoolVar(&opts.Sessions, "sessions", false, "list recorded connection sessions")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := opts.formatter(cmd)

	path := opts.Database
	if path == "" {
		cfg, err := opts.config(cmd)
		if err != nil {
			return err
		}
		path = cfg.JournalPath
	}
	if path == "" {
		return NewExitError(ExitCommandError, "no journal: pass --db or set journal in the config")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if outErr := out.Error(ErrCodeJournal, fmt.Sprintf("journal not found: %s", path), nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", path))
	}

	j, err := journal.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	if opts.Sessions {
		return listSessions(ctx, j, out)
	}

	frames, err := j.ReadAfter(ctx, opts.After)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	if len(frames) == 0 {
		return out.Render(ReplayOutput{Journal: path, After: opts.After, LastSeq: j.LastSeq(), ByTag: map[string]int{}, IDs: []string{}, Deterministic: true}, func(w io.Writer) {
			fmt.Fprintln(w, "No frames found in journal.")
		})
	}

	logger := opts.logger(cmd)
	first := store.New()
	res1, err := engine.Replay(ctx, first, frames, engine.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}
	second := store.New()
	res2, err := engine.Replay(ctx, second, frames, engine.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result := ReplayOutput{
		Journal:       path,
		After:         opts.After,
		LastSeq:       j.LastSeq(),
		Result:        res1,
		ByTag:         make(map[string]int),
		IDs:           storeIDs(first),
		Deterministic: res1 == res2 && reflect.DeepEqual(first.List(), second.List()),
	}
	for _, f := range frames {
		result.ByTag[f.EventType]++
	}

	if err := out.Render(result, func(w io.Writer) { writeReplay(w, result, opts.Verbose) }); err != nil {
		return err
	}
	if !result.Deterministic {
		return NewExitError(ExitFailure, "replay is not deterministic")
	}
	return nil
}

func storeIDs(s *store.Store) []string {
	ns := s.List()
	ids := make([]string, len(ns))
	for i, n := range ns {
		ids[i] = n.ID
	}
	return ids
}

func writeReplay(w io.Writer, r ReplayOutput, verbose bool) {
	status := "✓"
	if !r.Deterministic {
		status = "✗"
	}
	st := r.Result.Stats
	fmt.Fprintf(w, "%s %s: %d frames after seq %d (last %d)\n", status, r.Journal, r.Result.Frames, r.After, r.LastSeq)
	fmt.Fprintf(w, "  Applied: %d, Malformed: %d, Unknown: %d, Duplicates: %d, Missing: %d\n",
		st.Applied, st.Malformed, st.Unknown, st.Duplicates, st.Missing)
	fmt.Fprintf(w, "  Final: %d notifications, %d unread\n", r.Result.Len, r.Result.UnreadCount)
	if verbose {
		for _, kc := range query.TopN(r.ByTag, 0) {
			fmt.Fprintf(w, "    %-22s %d\n", kc.Key, kc.Count)
		}
		for _, id := range r.IDs {
			fmt.Fprintf(w, "    %s\n", id)
		}
	}
	if !r.Deterministic {
		fmt.Fprintln(w, "  Replays differed")
	}
}

func listSessions(ctx context.Context, j *journal.Journal, out *OutputFormatter) error {
	sessions, err := j.Sessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read sessions", err)
	}
	if sessions == nil {
		sessions = []journal.Session{}
	}
	return out.Render(sessions, func(w io.Writer) {
		if len(sessions) == 0 {
			fmt.Fprintln(w, "No sessions recorded.")
			return
		}
		for _, s := range sessions {
			fmt.Fprintf(w, "%s  %s  from seq %d  %s\n", s.StartedAt.Format("2006-01-02 15:04:05"), s.ID, s.FirstSeq, s.URL)
		}
	})
}
