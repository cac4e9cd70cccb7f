package toast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/clock"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

type entry struct {
	Toast
	countdown clock.Timer
	fade      clock.Timer
}

// Queue holds the live toasts, oldest first.
type Queue struct {
	mu         sync.Mutex
	clock      clock.Clock
	entries    []*entry
	maxVisible int
	newID      func() string
	closed     bool

	subMu  sync.Mutex
	subs   map[int]func(Transition)
	nextID int
}

// Option configures a Queue.
type Option func(*Queue)

// WithMaxVisible caps the number of non-removed toasts.
func WithMaxVisible(n int) Option {
	return func(q *Queue) { q.maxVisible = n }
}

// WithIDFunc replaces the UUIDv7 toast id generator.
func WithIDFunc(fn func() string) Option {
	return func(q *Queue) { q.newID = fn }
}

// New returns an empty queue driven by c.
func New(c clock.Clock, opts ...Option) *Queue {
	q := &Queue{
		clock:      c,
		maxVisible: MaxVisible,
		newID:      func() string { return uuid.Must(uuid.NewV7()).String() },
		subs:       make(map[int]func(Transition)),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Subscribe registers fn for state transitions.
func (q *Queue) Subscribe(fn func(Transition)) (unsubscribe func()) {
	q.subMu.Lock()
	id := q.nextID
	q.nextID++
	q.subs[id] = fn
	q.subMu.Unlock()

	return func() {
		q.subMu.Lock()
		delete(q.subs, id)
		q.subMu.Unlock()
	}
}

func (q *Queue) publish(ts []Transition) {
	if len(ts) == 0 {
		return
	}
	q.subMu.Lock()
	fns := make([]func(Transition), 0, len(q.subs))
	for _, fn := range q.subs {
		fns = append(fns, fn)
	}
	q.subMu.Unlock()

	for _, t := range ts {
		for _, fn := range fns {
			fn(t)
		}
	}
}

// Show queues a toast and returns its id. Returns "" after Close.
func (q *Queue) Show(o Options) string {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ""
	}

	e := &entry{Toast: Toast{
		ID:             q.newID(),
		NotificationID: o.NotificationID,
		Type:           o.Type,
		Priority:       o.Priority,
		Title:          o.Title,
		Message:        o.Message,
		Actions:        o.Actions,
		Persistent:     o.persistent(),
		ShownAt:        q.clock.Now(),
		State:          StateVisible,
	}}
	if !e.Persistent {
		e.Duration = o.Duration
		if e.Duration <= 0 {
			e.Duration = defaultDuration(o.Priority)
		}
		id := e.ID
		e.countdown = q.clock.AfterFunc(e.Duration, func() { q.expire(id) })
	}
	q.entries = append(q.entries, e)

	ts := []Transition{{ToastID: e.ID, From: "", To: StateVisible}}
	ts = append(ts, q.enforceCapLocked()...)
	q.mu.Unlock()

	slog.Debug("toast shown", "id", e.ID, "notification", e.NotificationID, "persistent", e.Persistent)
	q.publish(ts)
	return e.ID
}

// ShowNotification queues a toast for n.
func (q *Queue) ShowNotification(n notification.Notification) string {
	return q.Show(OptionsFor(n))
}

// ShowSummary queues one toast announcing count new notifications.
func (q *Queue) ShowSummary(count int) string {
	return q.Show(SummaryOptions(count))
}

// ShowBatch queues a single toast for a flushed batch: the notification
// itself when there is one, a summary otherwise.
func (q *Queue) ShowBatch(ns []notification.Notification) string {
	switch len(ns) {
	case 0:
		return ""
	case 1:
		return q.ShowNotification(ns[0])
	default:
		return q.ShowSummary(len(ns))
	}
}

// enforceCapLocked starts dismissing the oldest visible non-persistent
// toasts until at most maxVisible remain visible or none can be dismissed.
func (q *Queue) enforceCapLocked() []Transition {
	if q.maxVisible <= 0 {
		return nil
	}
	var ts []Transition
	for {
		visible := 0
		for _, e := range q.entries {
			if e.State == StateVisible {
				visible++
			}
		}
		if visible <= q.maxVisible {
			return ts
		}
		victim := q.oldestDismissableLocked()
		if victim == nil {
			return ts
		}
		ts = append(ts, q.beginDismissLocked(victim))
	}
}

func (q *Queue) oldestDismissableLocked() *entry {
	for _, e := range q.entries {
		if e.State == StateVisible && !e.Persistent {
			return e
		}
	}
	return nil
}

// Dismiss starts the fade-out of a visible toast. It reports false for
// unknown, already dismissing or removed toasts.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	e := q.findLocked(id)
	if e == nil || e.State != StateVisible {
		q.mu.Unlock()
		return false
	}
	t := q.beginDismissLocked(e)
	q.mu.Unlock()

	q.publish([]Transition{t})
	return true
}

// DismissAll starts dismissing every visible toast, persistent ones
// included.
func (q *Queue) DismissAll() {
	q.mu.Lock()
	var ts []Transition
	for _, e := range q.entries {
		if e.State == StateVisible {
			ts = append(ts, q.beginDismissLocked(e))
		}
	}
	q.mu.Unlock()
	q.publish(ts)
}

func (q *Queue) beginDismissLocked(e *entry) Transition {
	if e.countdown != nil {
		e.countdown.Stop()
		e.countdown = nil
	}
	e.State = StateDismissing
	id := e.ID
	e.fade = q.clock.AfterFunc(FadeOut, func() { q.remove(id) })
	return Transition{ToastID: id, From: StateVisible, To: StateDismissing}
}

// expire is the countdown callback.
func (q *Queue) expire(id string) {
	q.mu.Lock()
	e := q.findLocked(id)
	if e == nil || e.State != StateVisible {
		q.mu.Unlock()
		return
	}
	e.countdown = nil
	t := q.beginDismissLocked(e)
	q.mu.Unlock()

	q.publish([]Transition{t})
}

// remove is the fade-out callback.
func (q *Queue) remove(id string) {
	q.mu.Lock()
	var t *Transition
	for i, e := range q.entries {
		if e.ID != id {
			continue
		}
		if e.State != StateDismissing {
			break
		}
		e.State = StateRemoved
		q.entries = append(q.entries[:i:i], q.entries[i+1:]...)
		t = &Transition{ToastID: id, From: StateDismissing, To: StateRemoved}
		break
	}
	q.mu.Unlock()

	if t != nil {
		q.publish([]Transition{*t})
	}
}

func (q *Queue) findLocked(id string) *entry {
	for _, e := range q.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Get returns a snapshot of a live toast.
func (q *Queue) Get(id string) (Toast, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e := q.findLocked(id); e != nil {
		return e.Toast, true
	}
	return Toast{}, false
}

// State returns the toast's state; unknown ids report StateRemoved.
func (q *Queue) State(id string) State {
	t, ok := q.Get(id)
	if !ok {
		return StateRemoved
	}
	return t.State
}

// List returns snapshots of every live toast, oldest first.
func (q *Queue) List() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Toast, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.Toast
	}
	return out
}

// Len returns the number of live (visible or dismissing) toasts.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Progress returns the remaining fraction of a toast's countdown, from 1 at
// show time to 0 at expiry. Persistent toasts report 1; dismissing and
// unknown toasts report 0.
func (q *Queue) Progress(id string) float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	e := q.findLocked(id)
	if e == nil || e.State != StateVisible {
		return 0
	}
	if e.Persistent {
		return 1
	}
	elapsed := q.clock.Now().Sub(e.ShownAt)
	frac := 1 - float64(elapsed)/float64(e.Duration)
	return max(0, min(1, frac))
}

// Remaining returns the time left on a visible toast's countdown.
func (q *Queue) Remaining(id string) time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	e := q.findLocked(id)
	if e == nil || e.State != StateVisible || e.Persistent {
		return 0
	}
	return max(0, e.Duration-q.clock.Now().Sub(e.ShownAt))
}

// Close cancels every timer and drops all toasts. Later Show calls are
// ignored.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.countdown != nil {
			e.countdown.Stop()
		}
		if e.fade != nil {
			e.fade.Stop()
		}
	}
	q.entries = nil
	q.closed = true
}
