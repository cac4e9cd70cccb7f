// Package realtime maintains the websocket connection to the notification
// push service and hands every text frame to a FrameHandler.
//
// The adapter never parses frames. Decoding, journaling and applying them is
// the engine's job.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/clock"
)

const (
	// MaxAttempts bounds consecutive reconnects. The counter resets whenever
	// a connection opens.
	MaxAttempts = 5

	// BaseDelay is multiplied by 2^attempt to get the reconnect delay.
	BaseDelay = time.Second

	// MaxFrameSize caps a single inbound frame.
	MaxFrameSize = 1 << 20
)

// State is the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// ErrNoURL is returned by New and Endpoint when no url is configured.
var ErrNoURL = errors.New("realtime: no websocket url configured")

// FrameHandler receives every inbound text frame, in arrival order.
type FrameHandler interface {
	HandleFrame(ctx context.Context, raw []byte)
}

// HandlerFunc adapts a function to FrameHandler.
type HandlerFunc func(ctx context.Context, raw []byte)

func (f HandlerFunc) HandleFrame(ctx context.Context, raw []byte) { f(ctx, raw) }

// Adapter is a reconnecting websocket client.
//
// Thread-safety: all exported methods are safe for concurrent use. Frames are
// delivered to the handler from a single read goroutine per connection.
type Adapter struct {
	endpoint    string
	handler     FrameHandler
	dialer      *websocket.Dialer
	header      http.Header
	clock       clock.Clock
	logger      *slog.Logger
	maxAttempts int
	baseDelay   time.Duration

	mu        sync.Mutex
	state     State
	attempts  int
	conn      *websocket.Conn
	gen       int
	timer     clock.Timer
	retryAt   time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	listeners []func(State)
}

// Option configures an Adapter.
type Option func(*Adapter)

func WithDialer(d *websocket.Dialer) Option {
	return func(a *Adapter) { a.dialer = d }
}

// WithHeader adds headers to the upgrade request.
func WithHeader(h http.Header) Option {
	return func(a *Adapter) { a.header = h }
}

func WithClock(c clock.Clock) Option {
	return func(a *Adapter) { a.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithMaxAttempts overrides MaxAttempts. Zero disables reconnecting.
func WithMaxAttempts(n int) Option {
	return func(a *Adapter) { a.maxAttempts = n }
}

// WithBaseDelay overrides BaseDelay.
func WithBaseDelay(d time.Duration) Option {
	return func(a *Adapter) { a.baseDelay = d }
}

// New returns a disconnected adapter for the websocket at rawURL. A non-empty
// token is sent as the token query parameter.
func New(rawURL, token string, h FrameHandler, opts ...Option) (*Adapter, error) {
	endpoint, err := Endpoint(rawURL, token)
	if err != nil {
		return nil, err
	}
	a := &Adapter{
		endpoint:    endpoint,
		handler:     h,
		dialer:      websocket.DefaultDialer,
		clock:       clock.New(),
		logger:      slog.Default(),
		maxAttempts: MaxAttempts,
		baseDelay:   BaseDelay,
		state:       StateDisconnected,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Endpoint builds the websocket URL with the auth token attached.
func Endpoint(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", ErrNoURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("realtime: parse url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("realtime: unsupported scheme %q", u.Scheme)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// OnState registers fn to be called after every state transition. Callbacks
// run outside the adapter lock.
func (a *Adapter) OnState(fn func(State)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// State returns the current connection state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Attempts returns the number of consecutive reconnects scheduled since the
// last successful open.
func (a *Adapter) Attempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attempts
}

// NextRetry reports when the pending reconnect fires, if one is scheduled.
func (a *Adapter) NextRetry() (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer == nil {
		return time.Time{}, false
	}
	return a.retryAt, true
}

// Connect dials the endpoint. It is a no-op while connecting or connected.
// The adapter lives until ctx is cancelled or Disconnect is called; a failed
// dial still schedules reconnects and the dial error is returned.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	if a.state != StateDisconnected {
		a.mu.Unlock()
		return nil
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.attempts = 0
	lifetime := a.ctx
	a.mu.Unlock()

	context.AfterFunc(lifetime, func() { a.shutdown(lifetime) })
	return a.dial(lifetime)
}

// Disconnect closes the socket, cancels any scheduled reconnect and leaves
// the adapter disconnected. Safe to call more than once.
func (a *Adapter) Disconnect() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.mu.Lock()
	lifetime := a.ctx
	a.mu.Unlock()
	a.shutdown(lifetime)
}

// shutdown tears down everything owned by the lifetime context lifetime.
func (a *Adapter) shutdown(lifetime context.Context) {
	a.mu.Lock()
	if lifetime != a.ctx {
		a.mu.Unlock()
		return
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	conn := a.conn
	a.conn = nil
	a.gen++
	changed := a.setStateLocked(StateDisconnected)
	a.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect")
		_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
		_ = conn.Close()
	}
	notify(changed)
}

func (a *Adapter) dial(lifetime context.Context) error {
	a.mu.Lock()
	if lifetime != a.ctx || lifetime.Err() != nil {
		a.mu.Unlock()
		return nil
	}
	a.timer = nil
	changed := a.setStateLocked(StateConnecting)
	a.mu.Unlock()
	notify(changed)

	conn, resp, err := a.dialer.DialContext(lifetime, a.endpoint, a.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("realtime: dial: %w (status %d)", err, resp.StatusCode)
		} else {
			err = fmt.Errorf("realtime: dial: %w", err)
		}
		a.logger.Warn("websocket dial failed", "error", err)
		a.closed(lifetime, -1)
		return err
	}

	a.mu.Lock()
	if lifetime != a.ctx || lifetime.Err() != nil {
		a.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	conn.SetReadLimit(MaxFrameSize)
	a.conn = conn
	a.gen++
	gen := a.gen
	a.attempts = 0
	changed = a.setStateLocked(StateConnected)
	a.mu.Unlock()

	a.logger.Info("websocket connected")
	notify(changed)
	go a.readLoop(lifetime, conn, gen)
	return nil
}

func (a *Adapter) readLoop(ctx context.Context, conn *websocket.Conn, gen int) {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				a.logger.Warn("websocket closed", "error", err)
			} else {
				a.logger.Debug("websocket closed", "error", err)
			}
			_ = conn.Close()
			a.closed(ctx, gen)
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if a.handler != nil {
			a.handler.HandleFrame(ctx, data)
		}
	}
}

// closed handles a dropped connection (gen >= 0) or a failed dial (gen -1).
func (a *Adapter) closed(lifetime context.Context, gen int) {
	a.mu.Lock()
	if lifetime != a.ctx || lifetime.Err() != nil || (gen >= 0 && gen != a.gen) {
		a.mu.Unlock()
		return
	}
	a.conn = nil
	changed := a.setStateLocked(StateDisconnected)
	a.scheduleLocked(lifetime)
	a.mu.Unlock()
	notify(changed)
}

func (a *Adapter) scheduleLocked(lifetime context.Context) {
	if a.attempts >= a.maxAttempts {
		a.logger.Error("websocket reconnect attempts exhausted", "attempts", a.attempts)
		return
	}
	a.attempts++
	delay := a.baseDelay * time.Duration(1<<a.attempts)
	a.retryAt = a.clock.Now().Add(delay)
	a.logger.Info("websocket reconnect scheduled", "attempt", a.attempts, "delay", delay)
	a.timer = a.clock.AfterFunc(delay, func() { _ = a.dial(lifetime) })
}

// setStateLocked records s and returns the listener calls to make once the
// lock is released, or nil when nothing changed.
func (a *Adapter) setStateLocked(s State) func() {
	if a.state == s {
		return nil
	}
	a.state = s
	fns := append([]func(State){}, a.listeners...)
	return func() {
		for _, fn := range fns {
			fn(s)
		}
	}
}

func notify(changed func()) {
	if changed != nil {
		changed()
	}
}
