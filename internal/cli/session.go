package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/api"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/center"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/clock"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/config"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/store"
)

// session bundles what a one-shot command needs to talk to the backend.
type session struct {
	cfg    *config.Config
	client *api.Client
	store  *store.Store
	center *center.Controller
	clock  clock.Clock
	out    *OutputFormatter
}

// newSession wires a store and controller to the configured backend.
// limit overrides the configured page size when positive.
func newSession(opts *RootOptions, cmd *cobra.Command, limit int) (*session, error) {
	cfg, err := opts.config(cmd)
	if err != nil {
		return nil, err
	}
	client, err := opts.client(cmd)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = cfg.Limit
	}

	clk := clock.New()
	st := store.New()
	ctl := center.New(st, client,
		center.WithClock(clk),
		center.WithLogger(opts.logger(cmd)),
		center.WithLimit(limit),
	)
	return &session{
		cfg:    cfg,
		client: client,
		store:  st,
		center: ctl,
		clock:  clk,
		out:    opts.formatter(cmd),
	}, nil
}

// hydrate loads the first page into the store.
func (s *session) hydrate(cmd *cobra.Command) error {
	s.out.VerboseLog("fetching notifications from %s", s.cfg.APIURL)
	if err := s.center.Refresh(cmd.Context()); err != nil {
		return s.out.Fail(ExitCommandError, "failed to fetch notifications", err)
	}
	return nil
}

// requireIDs fails with a not-found error for the first id the store lacks.
func (s *session) requireIDs(ids []string) error {
	for _, id := range ids {
		if !s.store.Has(id) {
			msg := fmt.Sprintf("notification not found: %s", id)
			if err := s.out.Error(ErrCodeNotFound, msg, nil); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		}
	}
	return nil
}

func parseTypes(raw []string) ([]notification.Type, error) {
	out := make([]notification.Type, 0, len(raw))
	for _, r := range raw {
		t := notification.Type(strings.TrimSpace(r))
		if !t.Valid() {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown notification type %q", r))
		}
		out = append(out, t)
	}
	return out, nil
}

func parsePriorities(raw []string) ([]notification.Priority, error) {
	out := make([]notification.Priority, 0, len(raw))
	for _, r := range raw {
		p := notification.Priority(strings.TrimSpace(r))
		if !p.Valid() {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown priority %q", r))
		}
		out = append(out, p)
	}
	return out, nil
}

func parseChannels(raw []string) ([]notification.Channel, error) {
	out := make([]notification.Channel, 0, len(raw))
	for _, r := range raw {
		c := notification.Channel(strings.TrimSpace(r))
		if !c.Valid() {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown channel %q", r))
		}
		out = append(out, c)
	}
	return out, nil
}
