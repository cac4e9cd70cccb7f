package engine

import (
	"context"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/journal"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/store"
)

// ReplayResult summarises a journal replay.
type ReplayResult struct {
	Frames      int   `json:"frames"`
	Stats       Stats `json:"stats"`
	Len         int   `json:"len"`
	UnreadCount int   `json:"unreadCount"`
}

// Replay feeds recorded frames through a fresh engine over s, in seq order,
// using the same decode and apply path as a live session. No recorder is
// attached, so replaying never writes to the journal. opts may attach
// observers or surfaces.
func Replay(ctx context.Context, s *store.Store, frames []journal.Frame, opts ...Option) (ReplayResult, error) {
	e := New(s, opts...)
	e.recorder = nil

	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return ReplayResult{}, err
		}
		e.HandleFrame(ctx, f.Payload)
		e.Drain(ctx)
	}

	return ReplayResult{
		Frames:      len(frames),
		Stats:       e.Stats(),
		Len:         s.Len(),
		UnreadCount: s.UnreadCount(),
	}, nil
}
