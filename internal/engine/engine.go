package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/clock"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/journal"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/preference"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/store"
)

// Recorder persists raw frames. Implemented by *journal.Journal.
type Recorder interface {
	Append(ctx context.Context, eventType string, payload []byte) (journal.Frame, error)
}

// Toaster shows in-app toasts. Implemented by *toast.Queue.
type Toaster interface {
	ShowNotification(n notification.Notification) string
	ShowSummary(count int) string
}

// Batcher coalesces in-app deliveries. Implemented by *batch.Coalescer.
type Batcher interface {
	Configure(s preference.BatchSettings)
	Add(n notification.Notification)
}

// Notifier shows an OS-level notice. Implemented by *desktop.Surface.
type Notifier interface {
	Show(ctx context.Context, n notification.Notification) error
}

// Outcome describes what applying an event did.
type Outcome string

const (
	OutcomeAdded      Outcome = "added"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeBatchAdded Outcome = "batch_added"
	OutcomeUpdated    Outcome = "updated"
	OutcomeMissing    Outcome = "missing"
	OutcomeRemoved    Outcome = "removed"
	OutcomeNotFound   Outcome = "not_found"
	OutcomeIgnored    Outcome = "ignored"
)

// Applied is reported to observers after every event.
type Applied struct {
	Event    Event
	Outcome  Outcome
	IDs      []string
	Channels []notification.Channel
}

// Stats counts frames seen by the engine.
type Stats struct {
	Frames     int64 `json:"frames"`
	Applied    int64 `json:"applied"`
	Malformed  int64 `json:"malformed"`
	Unknown    int64 `json:"unknown"`
	Duplicates int64 `json:"duplicates"`
	Missing    int64 `json:"missing"`
}

// Engine is the single-writer realtime event loop.
//
// Thread-safety model:
//   - HandleFrame, Enqueue: safe from any goroutine
//   - Run: exactly one goroutine
//   - Apply, Drain: only when Run is not running (tests, replay)
type Engine struct {
	store    *store.Store
	clock    clock.Clock
	inbox    *inbox
	recorder Recorder
	toaster  Toaster
	batcher  Batcher
	notifier Notifier
	resync   func(ctx context.Context)
	observer func(Applied)
	logger   *slog.Logger

	frames, applied, malformed, unknown, duplicates, missing atomic.Int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder journals every frame before it is applied.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithToaster(t Toaster) Option {
	return func(e *Engine) { e.toaster = t }
}

func WithBatcher(b Batcher) Option {
	return func(e *Engine) { e.batcher = b }
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithResync sets the hook called when an update names a notification that
// is not in the store.
func WithResync(fn func(ctx context.Context)) Option {
	return func(e *Engine) { e.resync = fn }
}

// WithObserver registers fn to be called, on the Run goroutine, after each
// event is applied.
func WithObserver(fn func(Applied)) Option {
	return func(e *Engine) { e.observer = fn }
}

func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an engine applying events to s.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		clock:  clock.New(),
		inbox:  newInbox(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleFrame decodes raw, journals it and enqueues the event. Undecodable
// frames are journaled under MalformedTag, logged and dropped.
func (e *Engine) HandleFrame(ctx context.Context, raw []byte) {
	e.frames.Add(1)

	ev, err := Decode(raw)
	tag := ev.JournalTag()
	if err != nil {
		tag = MalformedTag
	}
	if e.recorder != nil {
		if _, jerr := e.recorder.Append(ctx, tag, raw); jerr != nil {
			e.logger.Error("journal append failed", "type", tag, "error", jerr)
		}
	}

	if err != nil {
		e.malformed.Add(1)
		e.logger.Warn("dropping realtime frame", "error", err, "bytes", len(raw))
		return
	}
	if !e.Enqueue(ev) {
		e.logger.Debug("engine stopped, frame dropped", "type", tag)
	}
}

// Enqueue submits an already decoded event. Returns false once stopped.
func (e *Engine) Enqueue(ev Event) bool {
	return e.inbox.Push(ev)
}

// Run applies queued events until ctx is cancelled or Stop is called.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting")

	for {
		for _, ev := range e.inbox.TakeAll() {
			e.Apply(ctx, ev)
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.inbox.Close()
			return ctx.Err()

		case <-e.inbox.Ready():
			// Ready is closed by Stop.
			if e.inbox.Done() {
				e.logger.Info("engine stopping: inbox closed")
				return nil
			}
		}
	}
}

// Drain applies every queued event synchronously and returns how many were
// applied.
func (e *Engine) Drain(ctx context.Context) int {
	n := 0
	for {
		batch := e.inbox.TakeAll()
		if len(batch) == 0 {
			return n
		}
		for _, ev := range batch {
			e.Apply(ctx, ev)
		}
		n += len(batch)
	}
}

// Stop closes the inbox; Run returns after applying what is left.
func (e *Engine) Stop() {
	e.inbox.Close()
}

// Stats returns a snapshot of the frame counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Frames:     e.frames.Load(),
		Applied:    e.applied.Load(),
		Malformed:  e.malformed.Load(),
		Unknown:    e.unknown.Load(),
		Duplicates: e.duplicates.Load(),
		Missing:    e.missing.Load(),
	}
}

// Apply folds one event into the store.
func (e *Engine) Apply(ctx context.Context, ev Event) {
	res := Applied{Event: ev}

	switch ev.Type {
	case EventNew:
		n := *ev.Notification
		res.IDs = []string{n.ID}
		if e.store.Has(n.ID) {
			e.duplicates.Add(1)
			res.Outcome = OutcomeDuplicate
			e.logger.Debug("skipping duplicate notification", "id", n.ID)
			break
		}
		e.store.Add(n)
		res.Outcome = OutcomeAdded
		res.Channels = e.surface(ctx, n)

	case EventBatch:
		added := e.store.AddBatch(ev.Notifications)
		res.IDs = added
		res.Outcome = OutcomeBatchAdded
		e.duplicates.Add(int64(len(ev.Notifications) - len(added)))
		if len(added) > 0 && e.toaster != nil {
			e.toaster.ShowSummary(len(added))
		}

	case EventUpdate:
		res.IDs = []string{ev.NotificationID}
		if e.store.Update(ev.NotificationID, ev.Updates) {
			res.Outcome = OutcomeUpdated
			break
		}
		e.missing.Add(1)
		res.Outcome = OutcomeMissing
		e.logger.Warn("update for unknown notification", "id", ev.NotificationID)
		if e.resync != nil {
			e.resync(ctx)
		}

	case EventDeleted:
		res.IDs = []string{ev.NotificationID}
		if _, ok := e.store.Remove(ev.NotificationID); ok {
			res.Outcome = OutcomeRemoved
		} else {
			res.Outcome = OutcomeNotFound
			e.logger.Debug("delete for unknown notification", "id", ev.NotificationID)
		}

	default:
		e.unknown.Add(1)
		res.Outcome = OutcomeIgnored
		e.logger.Warn("ignoring unknown realtime event", "type", ev.Tag)
	}

	e.applied.Add(1)
	if e.observer != nil {
		e.observer(res)
	}
}

// surface delivers a newly added notification to the channels its
// preferences resolve to and returns them.
func (e *Engine) surface(ctx context.Context, n notification.Notification) []notification.Channel {
	prefs := e.store.Preferences()
	channels := prefs.Resolve(&n, e.clock.Now())

	for _, c := range channels {
		switch c {
		case notification.ChannelInApp:
			if prefs.BatchSettings.Enabled && e.batcher != nil {
				e.batcher.Configure(prefs.BatchSettings)
				e.batcher.Add(n)
			} else if e.toaster != nil {
				e.toaster.ShowNotification(n)
			}
		case notification.ChannelPush:
			if e.notifier == nil {
				continue
			}
			if err := e.notifier.Show(ctx, n); err != nil {
				e.logger.Warn("desktop notice failed", "id", n.ID, "error", err)
			}
		default:
			// email, sms and whatsapp are delivered server-side.
		}
	}
	return channels
}
