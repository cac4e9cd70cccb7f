// Package batch coalesces in-app deliveries according to the user's batch
// settings. Items collect until MaxCount is reached or Interval has passed
// since the first pending item, then the whole batch is handed to the flush
// function at once.
package batch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/clock"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/preference"
)

// FlushFunc receives a completed batch, oldest first.
type FlushFunc func(batch []notification.Notification)

// Coalescer buffers notifications between flushes.
type Coalescer struct {
	mu       sync.Mutex
	clock    clock.Clock
	flush    FlushFunc
	settings preference.BatchSettings
	pending  []notification.Notification
	timer    clock.Timer
	stopped  bool
}

// New returns a coalescer using settings until Configure changes them.
func New(c clock.Clock, settings preference.BatchSettings, flush FlushFunc) *Coalescer {
	return &Coalescer{clock: c, flush: flush, settings: settings}
}

// Configure replaces the settings. A pending batch keeps its running timer;
// the new MaxCount applies from the next Add.
func (c *Coalescer) Configure(s preference.BatchSettings) {
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
}

// Add buffers n, flushing when the batch is full. After Stop, n is flushed
// on its own.
func (c *Coalescer) Add(n notification.Notification) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		c.flush([]notification.Notification{n})
		return
	}

	c.pending = append(c.pending, n)
	if limit := c.settings.MaxCount; limit > 0 && len(c.pending) >= limit {
		batch := c.takeLocked()
		c.mu.Unlock()
		c.emit(batch, "full")
		return
	}
	if c.timer == nil {
		c.timer = c.clock.AfterFunc(c.interval(), c.onTimer)
	}
	c.mu.Unlock()
}

func (c *Coalescer) interval() time.Duration {
	minutes := c.settings.Interval
	if minutes <= 0 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}

func (c *Coalescer) onTimer() {
	c.mu.Lock()
	c.timer = nil
	batch := c.takeLocked()
	c.mu.Unlock()
	c.emit(batch, "interval")
}

// takeLocked detaches the pending batch and cancels its timer.
func (c *Coalescer) takeLocked() []notification.Notification {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	batch := c.pending
	c.pending = nil
	return batch
}

func (c *Coalescer) emit(batch []notification.Notification, reason string) {
	if len(batch) == 0 {
		return
	}
	slog.Debug("flushing notification batch", "size", len(batch), "reason", reason)
	c.flush(batch)
}

// Flush delivers whatever is pending now.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	batch := c.takeLocked()
	c.mu.Unlock()
	c.emit(batch, "manual")
}

// Pending returns the number of buffered notifications.
func (c *Coalescer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Stop flushes the pending batch and switches to pass-through delivery.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	c.stopped = true
	batch := c.takeLocked()
	c.mu.Unlock()
	c.emit(batch, "stop")
}
