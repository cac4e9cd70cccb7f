package preference

import (
	"context"
	"fmt"
	"sync"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

// Saver persists a full preferences document and returns what the server
// stored. Implemented by api.Client.
type Saver interface {
	UpdatePreferences(ctx context.Context, p Preferences) (*Preferences, error)
}

// Editor holds a local draft of preferences against the last snapshot
// fetched from the server.
//
// Every setter marks the draft dirty. Save submits the whole draft (not a
// diff); the server overwrites its copy, last write wins. Reset discards the
// draft.
type Editor struct {
	mu         sync.Mutex
	snapshot   Preferences
	draft      Preferences
	hasChanges bool
}

// NewEditor starts an editor on snapshot.
func NewEditor(snapshot Preferences) *Editor {
	e := &Editor{}
	e.Load(snapshot)
	return e
}

// Load replaces both the snapshot and the draft and clears the dirty flag.
func (e *Editor) Load(snapshot Preferences) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshot = snapshot.Clone()
	e.draft = snapshot.Clone()
	e.hasChanges = false
}

// Draft returns a copy of the working draft.
func (e *Editor) Draft() Preferences {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Clone()
}

// Snapshot returns a copy of the last server state.
func (e *Editor) Snapshot() Preferences {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.Clone()
}

// HasChanges reports whether the draft was edited since the last Load, Save
// or Reset.
func (e *Editor) HasChanges() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasChanges
}

func (e *Editor) edit(fn func(d *Preferences)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.draft)
	e.hasChanges = true
}

func (e *Editor) SetChannelEnabled(c notification.Channel, enabled bool) {
	e.edit(func(d *Preferences) {
		r := d.Channels[c]
		r.Enabled = enabled
		d.Channels[c] = r
	})
}

func (e *Editor) SetChannelTypes(c notification.Channel, types []notification.Type) {
	e.edit(func(d *Preferences) {
		r := d.Channels[c]
		r.Types = append([]notification.Type(nil), types...)
		d.Channels[c] = r
	})
}

// SetQuietHours sets the channel's quiet window; nil removes it.
func (e *Editor) SetQuietHours(c notification.Channel, w *Window) {
	e.edit(func(d *Preferences) {
		r := d.Channels[c]
		if w == nil {
			r.QuietHours = nil
		} else {
			cp := *w
			r.QuietHours = &cp
		}
		d.Channels[c] = r
	})
}

func (e *Editor) SetPriorityEnabled(p notification.Priority, enabled bool) {
	e.edit(func(d *Preferences) {
		r := d.Priority[p]
		r.Enabled = enabled
		d.Priority[p] = r
	})
}

func (e *Editor) SetPriorityChannels(p notification.Priority, channels []notification.Channel) {
	e.edit(func(d *Preferences) {
		r := d.Priority[p]
		r.Channels = append([]notification.Channel(nil), channels...)
		d.Priority[p] = r
	})
}

func (e *Editor) SetBatch(b BatchSettings) {
	e.edit(func(d *Preferences) { d.BatchSettings = b })
}

func (e *Editor) SetDoNotDisturb(w Window) {
	e.edit(func(d *Preferences) { d.DoNotDisturb = w })
}

// Reset discards the draft back to the snapshot.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = e.snapshot.Clone()
	e.hasChanges = false
}

// Save validates the draft and submits it. On success the server response
// becomes the new snapshot and draft. On failure the draft and the dirty
// flag are left as they were.
func (e *Editor) Save(ctx context.Context, s Saver) (Preferences, error) {
	draft := e.Draft()
	if err := Validate(draft); err != nil {
		return Preferences{}, err
	}

	saved, err := s.UpdatePreferences(ctx, draft)
	if err != nil {
		return Preferences{}, fmt.Errorf("save preferences: %w", err)
	}
	if saved == nil {
		saved = &draft
	}

	e.Load(*saved)
	return saved.Clone(), nil
}
