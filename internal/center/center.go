// Package center is the notification-centre controller: it hydrates the
// store from the REST backend, renders the grouped view and performs
// user mutations.
//
// Every mutation is applied to the store first and rolled back if the backend
// call fails. The failure is kept for Err and can be re-run with Retry.
package center

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/api"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/clock"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/query"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/store"
)

// DefaultLimit is the page size requested by Refresh.
const DefaultLimit = 50

// Backend is the subset of the REST API the centre mutates through.
type Backend interface {
	List(ctx context.Context, p api.ListParams) (*api.ListResponse, error)
	MarkRead(ctx context.Context, id string) error
	Bulk(ctx context.Context, ids []string, action api.BulkAction) error
	Delete(ctx context.Context, id string) error
	ExecuteAction(ctx context.Context, notificationID, actionID string, data map[string]any) (*api.ActionResult, error)
}

var _ Backend = (*api.Client)(nil)

// Controller drives the notification centre.
//
// Thread-safety: safe for concurrent use. The store serialises mutations;
// the controller only guards its error state.
type Controller struct {
	store   *store.Store
	backend Backend
	clock   clock.Clock
	logger  *slog.Logger
	limit   int

	mu      sync.Mutex
	lastErr error
	retry   func(ctx context.Context) error
	loading bool
	total   int
	hasMore bool
}

// Option configures a Controller.
type Option func(*Controller)

func WithClock(c clock.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(ctl *Controller) { ctl.logger = l }
}

// WithLimit sets the page size requested by Refresh.
func WithLimit(n int) Option {
	return func(ctl *Controller) {
		if n > 0 {
			ctl.limit = n
		}
	}
}

// New returns a controller over s backed by b.
func New(s *store.Store, b Backend, opts ...Option) *Controller {
	c := &Controller{
		store:   s,
		backend: b,
		clock:   clock.New(),
		logger:  slog.Default(),
		limit:   DefaultLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the underlying store.
func (c *Controller) Store() *store.Store {
	return c.store
}

// Refresh replaces the store contents with the first page from the backend.
func (c *Controller) Refresh(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)

	resp, err := c.backend.List(ctx, api.ListParams{Limit: c.limit})
	if err != nil {
		return c.fail("refresh", nil, err, c.Refresh)
	}

	valid := make([]notification.Notification, 0, len(resp.Notifications))
	for _, n := range resp.Notifications {
		if verr := n.Validate(); verr != nil {
			c.logger.Warn("skipping invalid notification", "id", n.ID, "error", verr)
			continue
		}
		valid = append(valid, n)
	}
	c.store.Replace(valid)

	c.mu.Lock()
	c.total = resp.Total
	c.hasMore = resp.HasMore
	c.mu.Unlock()
	c.succeed()
	return nil
}

// Loading reports whether a Refresh is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Total returns the server-side total and whether more pages exist, as of
// the last Refresh.
func (c *Controller) Total() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total, c.hasMore
}

func (c *Controller) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

// View returns the visible notifications grouped by day relative to now.
func (c *Controller) View(now time.Time) []query.NotificationGroup {
	return query.Group(c.store.Visible(), now)
}

// Search sets the free-text term of the active filter.
func (c *Controller) Search(text string) {
	f := c.store.Filter()
	f.Search = text
	c.store.SetFilter(f)
}

func (c *Controller) SetFilter(f query.FilterSpec) {
	c.store.SetFilter(f)
}

func (c *Controller) ClearFilter() {
	c.store.SetFilter(query.FilterSpec{})
}

// Stats aggregates the whole list, ignoring the active filter.
func (c *Controller) Stats(now time.Time) query.Stats {
	return query.ComputeStats(c.store.List(), now)
}

// MarkAsRead marks ids read. A single id uses the per-notification endpoint,
// several use the bulk endpoint. Ids already read are not sent.
func (c *Controller) MarkAsRead(ctx context.Context, ids ...string) error {
	changed := c.store.MarkAsRead(ids)
	if len(changed) == 0 {
		return nil
	}

	var err error
	if len(changed) == 1 {
		err = c.backend.MarkRead(ctx, changed[0])
	} else {
		err = c.backend.Bulk(ctx, changed, api.BulkMarkRead)
	}
	if err != nil {
		c.store.MarkAsUnread(changed)
		return c.fail("mark_read", changed, err, func(ctx context.Context) error {
			return c.MarkAsRead(ctx, changed...)
		})
	}
	c.succeed()
	return nil
}

// MarkAsUnread marks ids unread through the bulk endpoint.
func (c *Controller) MarkAsUnread(ctx context.Context, ids ...string) error {
	changed := c.store.MarkAsUnread(ids)
	if len(changed) == 0 {
		return nil
	}

	if err := c.backend.Bulk(ctx, changed, api.BulkMarkUnread); err != nil {
		c.store.MarkAsRead(changed)
		return c.fail("mark_unread", changed, err, func(ctx context.Context) error {
			return c.MarkAsUnread(ctx, changed...)
		})
	}
	c.succeed()
	return nil
}

// MarkAllAsRead marks every unread notification read.
func (c *Controller) MarkAllAsRead(ctx context.Context) error {
	changed := c.store.MarkAllAsRead()
	if len(changed) == 0 {
		return nil
	}

	if err := c.backend.Bulk(ctx, changed, api.BulkMarkRead); err != nil {
		c.store.MarkAsUnread(changed)
		return c.fail("mark_all_read", changed, err, c.MarkAllAsRead)
	}
	c.succeed()
	return nil
}

// Delete removes one notification.
func (c *Controller) Delete(ctx context.Context, id string) error {
	entry, ok := c.store.Remove(id)
	if !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}

	if err := c.backend.Delete(ctx, id); err != nil {
		c.store.Reinsert([]store.Entry{entry})
		return c.fail("delete", []string{id}, err, func(ctx context.Context) error {
			return c.Delete(ctx, id)
		})
	}
	c.succeed()
	return nil
}

// DeleteSelected removes every selected notification. On failure the
// records and their selection are restored.
func (c *Controller) DeleteSelected(ctx context.Context) error {
	entries := c.store.DeleteSelected()
	if len(entries) == 0 {
		return nil
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.Notification.ID
	}

	var err error
	if len(ids) == 1 {
		err = c.backend.Delete(ctx, ids[0])
	} else {
		err = c.backend.Bulk(ctx, ids, api.BulkDelete)
	}
	if err != nil {
		c.store.Reinsert(entries)
		c.store.Select(ids...)
		return c.fail("delete_selected", ids, err, c.DeleteSelected)
	}
	c.succeed()
	return nil
}

// ExecuteAction runs actionID on notification id. The action's own data is
// sent, overlaid with extra. Expired notifications and unknown actions are
// rejected without a backend call. While the call runs the notification is
// marked pending; on success it is marked read.
func (c *Controller) ExecuteAction(ctx context.Context, id, actionID string, extra map[string]any) (*api.ActionResult, error) {
	n, ok := c.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("execute %s/%s: %w", id, actionID, ErrNotFound)
	}
	if n.IsExpired(c.clock.Now()) {
		return nil, fmt.Errorf("execute %s/%s: %w", id, actionID, ErrExpired)
	}
	action, ok := n.FindAction(actionID)
	if !ok {
		return nil, fmt.Errorf("execute %s/%s: %w", id, actionID, ErrUnknownAction)
	}
	if running, busy := c.store.IsPending(id); busy {
		return nil, fmt.Errorf("execute %s/%s (running %s): %w", id, actionID, running, ErrActionPending)
	}

	var data map[string]any
	if len(action.Data) > 0 || len(extra) > 0 {
		data = make(map[string]any, len(action.Data)+len(extra))
		maps.Copy(data, action.Data)
		maps.Copy(data, extra)
	}

	c.store.SetPending(id, actionID)
	res, err := c.backend.ExecuteAction(ctx, id, actionID, data)
	c.store.ClearPending(id)

	if err == nil && res != nil && !res.Success {
		err = fmt.Errorf("%w: %s", ErrActionRejected, res.Message)
	}
	if err != nil {
		return nil, c.fail("execute_action", []string{id}, err, func(ctx context.Context) error {
			_, err := c.ExecuteAction(ctx, id, actionID, extra)
			return err
		})
	}

	c.logger.Info("action executed", "notification", id, "action", actionID)
	if !n.IsRead {
		if err := c.MarkAsRead(ctx, id); err != nil {
			return res, err
		}
	}
	c.succeed()
	return res, nil
}

// Open marks id read and returns the url it links to, if any.
func (c *Controller) Open(ctx context.Context, id string) (string, error) {
	n, ok := c.store.Get(id)
	if !ok {
		return "", fmt.Errorf("open %s: %w", id, ErrNotFound)
	}
	if !n.IsRead {
		if err := c.MarkAsRead(ctx, id); err != nil {
			return "", err
		}
	}
	return n.URL(), nil
}

// Err returns the last backend failure, or nil once an operation succeeds.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Retry re-runs the operation that produced Err.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	fn := c.retry
	c.mu.Unlock()
	if fn == nil {
		return ErrNothingToRetry
	}
	return fn(ctx)
}

func (c *Controller) fail(op string, ids []string, err error, retry func(ctx context.Context) error) error {
	oe := &OpError{Op: op, IDs: ids, Err: err}
	c.logger.Warn("notification centre operation failed, rolled back", "op", op, "ids", ids, "error", err)

	c.mu.Lock()
	c.lastErr = oe
	c.retry = retry
	c.mu.Unlock()
	return oe
}

func (c *Controller) succeed() {
	c.mu.Lock()
	c.lastErr = nil
	c.retry = nil
	c.mu.Unlock()
}
