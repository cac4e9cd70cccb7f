package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/api"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/center"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/engine"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/preference"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/query"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/store"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/testutil"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/toast"
)

// Outcomes recorded for steps that are not engine events.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeMalformed = "malformed"
)

// Harness runs one scenario against a fresh store, engine, controller and
// toast queue, all driven by a fake clock.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	center  *center.Controller
	backend *scriptedBackend
	clock   *testutil.FakeClock
	toasts  *toast.Queue
	logger  *slog.Logger

	last     *engine.Applied
	outcomes map[string]int
}

// Run executes a scenario and returns the result.
//
// The returned error is for setup problems (bad preferences, invalid seeds).
// Behavioural failures are reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}
	defer h.toasts.Close()

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Flow {
		ev := h.runStep(ctx, i, step)
		result.AddTrace(ev)
		h.outcomes[ev.Outcome]++

		for _, msg := range h.checkStep(i, step, ev) {
			result.AddError(msg)
		}
		for _, msg := range h.checkInvariants(i) {
			result.AddError(msg)
		}
	}

	result.Final = h.finalState()
	actx := &AssertionContext{Store: h.store, Outcomes: h.outcomes}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(scenario *Scenario) (*Harness, error) {
	now, err := scenario.StartTime()
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store:    store.New(),
		backend:  &scriptedBackend{},
		clock:    testutil.NewFakeClock(now),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		outcomes: make(map[string]int),
	}

	seq := 0
	h.toasts = toast.New(h.clock, toast.WithIDFunc(func() string {
		seq++
		return "toast-" + strconv.Itoa(seq)
	}))

	h.center = center.New(h.store, h.backend,
		center.WithClock(h.clock),
		center.WithLogger(h.logger),
	)
	h.engine = engine.New(h.store,
		engine.WithToaster(h.toasts),
		engine.WithClock(h.clock),
		engine.WithLogger(h.logger),
		engine.WithObserver(func(a engine.Applied) { h.last = &a }),
	)

	if scenario.Preferences != nil {
		prefs, err := decodePreferences(scenario.Preferences)
		if err != nil {
			return nil, err
		}
		h.store.SetPreferences(prefs)
	}

	seeds := make([]notification.Notification, 0, len(scenario.Setup))
	for i, seed := range scenario.Setup {
		n, err := seedNotification(seed, now)
		if err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
		seeds = append(seeds, n)
	}
	h.store.Replace(seeds)
	return h, nil
}

// decodePreferences round-trips the scenario map through JSON so it is
// checked against the same schema as a server response.
func decodePreferences(raw map[string]any) (preference.Preferences, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return preference.Preferences{}, fmt.Errorf("preferences: %w", err)
	}
	if err := preference.ValidateJSON(data); err != nil {
		return preference.Preferences{}, fmt.Errorf("preferences: %w", err)
	}
	var p preference.Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		return preference.Preferences{}, fmt.Errorf("preferences: %w", err)
	}
	return p, nil
}

func seedNotification(seed Seed, now time.Time) (notification.Notification, error) {
	n := notification.Notification{
		ID:        seed.ID,
		Type:      notification.Type(seed.Type),
		Priority:  notification.Priority(seed.Priority),
		Title:     seed.Title,
		Message:   seed.Message,
		IsRead:    seed.Read,
		CreatedAt: now,
	}
	if n.Title == "" {
		n.Title = seed.ID
	}
	if seed.Age != "" {
		age, _ := time.ParseDuration(seed.Age)
		n.CreatedAt = now.Add(-age)
	}
	if seed.Expires != "" {
		d, _ := time.ParseDuration(seed.Expires)
		exp := now.Add(d)
		n.ExpiresAt = &exp
	}
	for _, c := range seed.Channels {
		n.Channels = append(n.Channels, notification.Channel(c))
	}
	for _, a := range seed.Actions {
		n.Actions = append(n.Actions, notification.Action{ID: a.ID, Label: a.Label, Style: notification.ActionPrimary})
	}
	if seed.URL != "" {
		n.Data = map[string]any{"url": seed.URL}
	}
	if err := n.Validate(); err != nil {
		return notification.Notification{}, err
	}
	return n, nil
}

func (h *Harness) runStep(ctx context.Context, index int, step Step) TraceEvent {
	if step.Op != "" {
		ev := TraceEvent{Step: index, Kind: KindOp, Op: step.Op, Outcome: OutcomeOK}
		h.backend.fail = step.Fail
		err := h.runOp(ctx, step)
		h.backend.fail = false
		if err != nil {
			ev.Outcome = OutcomeFailed
			ev.Error = err.Error()
		}
		ev.IDs = stepIDs(step)
		h.snapshot(&ev)
		return ev
	}

	raw := []byte(step.Raw)
	if step.Frame != nil {
		// Marshal of a YAML-decoded map cannot fail.
		raw, _ = json.Marshal(step.Frame)
	}

	h.last = nil
	h.engine.HandleFrame(ctx, raw)
	h.engine.Drain(ctx)

	ev := TraceEvent{Step: index, Kind: KindFrame}
	if h.last == nil {
		ev.Op = engine.MalformedTag
		ev.Outcome = OutcomeMalformed
	} else {
		ev.Op = h.last.Event.JournalTag()
		ev.Outcome = string(h.last.Outcome)
		ev.IDs = h.last.IDs
	}
	h.snapshot(&ev)
	return ev
}

func (h *Harness) runOp(ctx context.Context, step Step) error {
	switch step.Op {
	case OpMarkRead:
		return h.center.MarkAsRead(ctx, step.IDs...)
	case OpMarkUnread:
		return h.center.MarkAsUnread(ctx, step.IDs...)
	case OpMarkAllRead:
		return h.center.MarkAllAsRead(ctx)
	case OpDelete:
		return h.center.Delete(ctx, step.ID)
	case OpDeleteSelected:
		return h.center.DeleteSelected(ctx)
	case OpSelect:
		h.store.Select(step.IDs...)
	case OpDeselect:
		h.store.Deselect(step.IDs...)
	case OpSelectAll:
		h.store.SelectAll(step.IDs...)
	case OpClearSelection:
		h.store.ClearSelection()
	case OpSearch:
		h.center.Search(step.Search)
	case OpFilter:
		h.center.SetFilter(filterSpec(step.Filter))
	case OpClearFilter:
		h.center.ClearFilter()
	case OpExecute:
		_, err := h.center.ExecuteAction(ctx, step.ID, step.Action, nil)
		return err
	case OpAdvance:
		d, _ := time.ParseDuration(step.Duration)
		h.clock.Advance(d)
	case OpDismissToasts:
		h.toasts.DismissAll()
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

func filterSpec(f *FilterStep) query.FilterSpec {
	spec := query.FilterSpec{Search: f.Search, IsRead: f.Read}
	for _, t := range f.Types {
		spec.Types = append(spec.Types, notification.Type(t))
	}
	for _, p := range f.Priorities {
		spec.Priorities = append(spec.Priorities, notification.Priority(p))
	}
	if f.Start != "" || f.End != "" {
		spec.DateRange = &query.DateRange{Start: f.Start, End: f.End}
	}
	return spec
}

func stepIDs(step Step) []string {
	switch {
	case len(step.IDs) > 0:
		return step.IDs
	case step.ID != "":
		return []string{step.ID}
	}
	return nil
}

func (h *Harness) snapshot(ev *TraceEvent) {
	ev.Len = h.store.Len()
	ev.Unread = h.store.UnreadCount()
	ev.Toasts = h.toasts.Len()
}

func (h *Harness) checkStep(index int, step Step, ev TraceEvent) []string {
	var errs []string
	if ev.Error != "" && (step.Expect == nil || step.Expect.Error == nil) && !step.Fail {
		errs = append(errs, fmt.Sprintf("flow[%d]: unexpected error: %s", index, ev.Error))
	}

	x := step.Expect
	if x == nil {
		return errs
	}
	if x.Outcome != "" && x.Outcome != ev.Outcome {
		errs = append(errs, fmt.Sprintf("flow[%d]: outcome: expected %q, got %q", index, x.Outcome, ev.Outcome))
	}
	if x.Unread != nil && *x.Unread != ev.Unread {
		errs = append(errs, fmt.Sprintf("flow[%d]: unread: expected %d, got %d", index, *x.Unread, ev.Unread))
	}
	if x.Len != nil && *x.Len != ev.Len {
		errs = append(errs, fmt.Sprintf("flow[%d]: len: expected %d, got %d", index, *x.Len, ev.Len))
	}
	if x.Toasts != nil && *x.Toasts != ev.Toasts {
		errs = append(errs, fmt.Sprintf("flow[%d]: toasts: expected %d, got %d", index, *x.Toasts, ev.Toasts))
	}
	if x.Error != nil && *x.Error != (ev.Error != "") {
		errs = append(errs, fmt.Sprintf("flow[%d]: error: expected %t, got %q", index, *x.Error, ev.Error))
	}
	return errs
}

// checkInvariants verifies the store after every step: the unread counter
// agrees with the list, no id appears twice and every selected id exists.
func (h *Harness) checkInvariants(index int) []string {
	var errs []string
	list := h.store.List()
	if got, want := h.store.UnreadCount(), notification.CountUnread(list); got != want {
		errs = append(errs, fmt.Sprintf("flow[%d]: unread counter %d disagrees with list (%d)", index, got, want))
	}
	seen := make(map[string]bool, len(list))
	for _, n := range list {
		if seen[n.ID] {
			errs = append(errs, fmt.Sprintf("flow[%d]: duplicate id %q in store", index, n.ID))
		}
		seen[n.ID] = true
	}
	for _, id := range h.store.Selected() {
		if !seen[id] {
			errs = append(errs, fmt.Sprintf("flow[%d]: selected id %q not in store", index, id))
		}
	}
	return errs
}

func (h *Harness) finalState() FinalState {
	list := h.store.List()
	ids := make([]string, len(list))
	for i, n := range list {
		ids[i] = n.ID
	}
	return FinalState{
		IDs:      ids,
		Unread:   h.store.UnreadCount(),
		Visible:  len(h.store.Visible()),
		Selected: h.store.Selected(),
		Toasts:   h.toasts.Len(),
	}
}

// scriptedBackend acknowledges every call unless fail is set.
type scriptedBackend struct {
	fail bool
}

var _ center.Backend = (*scriptedBackend)(nil)

func (b *scriptedBackend) err() error {
	if b.fail {
		return &api.Error{StatusCode: 503, Message: "scripted failure"}
	}
	return nil
}

func (b *scriptedBackend) List(context.Context, api.ListParams) (*api.ListResponse, error) {
	if err := b.err(); err != nil {
		return nil, err
	}
	return &api.ListResponse{}, nil
}

func (b *scriptedBackend) MarkRead(context.Context, string) error { return b.err() }

func (b *scriptedBackend) Bulk(context.Context, []string, api.BulkAction) error { return b.err() }

func (b *scriptedBackend) Delete(context.Context, string) error { return b.err() }

func (b *scriptedBackend) ExecuteAction(context.Context, string, string, map[string]any) (*api.ActionResult, error) {
	if err := b.err(); err != nil {
		return nil, err
	}
	return &api.ActionResult{Success: true}, nil
}

// sortedOutcomes lists outcome names in a stable order.
func sortedOutcomes(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
