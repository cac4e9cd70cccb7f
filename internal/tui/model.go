// Package tui renders the notification centre in a terminal with
// bubbletea. All state lives in the store; the model only keeps the cursor,
// the search prompt and what to draw.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/center"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/clock"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/store"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/toast"
)

// StoreChanged asks the model to re-render from the store.
type StoreChanged struct{}

// ConnChanged reports a realtime connection state change.
type ConnChanged struct {
	State string
}

type opDone struct {
	label string
	err   error
}

type tickMsg time.Time

// readFilter cycles all -> unread -> read.
type readFilter int

const (
	filterAll readFilter = iota
	filterUnread
	filterRead
)

func (f readFilter) String() string {
	switch f {
	case filterUnread:
		return "unread"
	case filterRead:
		return "read"
	default:
		return "all"
	}
}

func (f readFilter) isRead() *bool {
	switch f {
	case filterUnread:
		v := false
		return &v
	case filterRead:
		v := true
		return &v
	default:
		return nil
	}
}

const (
	headerLines = 1
	footerLines = 1
	tickEvery   = time.Second
)

// Model is the bubbletea model of the notification centre.
type Model struct {
	ctx    context.Context
	ctl    *center.Controller
	toasts *toast.Queue
	clock  clock.Clock
	keys   keyMap

	viewport viewport.Model
	width    int
	height   int

	ids        []string
	cursor     int
	searchMode bool
	search     string
	readFilter readFilter
	conn       string
	status     string
	busy       int
}

// Option configures a Model.
type Option func(*Model)

// WithToasts shows the live toasts of q above the footer.
func WithToasts(q *toast.Queue) Option {
	return func(m *Model) { m.toasts = q }
}

func WithClock(c clock.Clock) Option {
	return func(m *Model) { m.clock = c }
}

// New returns a model driving ctl. Backend calls run with ctx.
func New(ctx context.Context, ctl *center.Controller, opts ...Option) *Model {
	m := &Model{
		ctx:      ctx,
		ctl:      ctl,
		clock:    clock.New(),
		keys:     defaultKeys(),
		viewport: viewport.New(80, 22),
		width:    80,
		height:   24,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.rebuild()
	return m
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Forward sends StoreChanged to p after store mutations, coalescing bursts,
// until the returned stop function is called.
func Forward(p Sender, s *store.Store) (stop func()) {
	pending := make(chan struct{}, 1)
	done := make(chan struct{})
	unsubscribe := s.Subscribe(func(store.Change) {
		select {
		case pending <- struct{}{}:
		default:
		}
	})
	go func() {
		for {
			select {
			case <-pending:
				p.Send(StoreChanged{})
			case <-done:
				return
			}
		}
	}()
	return func() {
		unsubscribe()
		close(done)
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init loads the first page and starts the refresh ticker.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.run("refreshed", m.ctl.Refresh), tick())
}

// Update handles messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport = viewport.New(msg.Width, max(1, msg.Height-headerLines-footerLines-m.toastLines()))
		m.rebuild()

	case StoreChanged:
		m.rebuild()

	case ConnChanged:
		m.conn = msg.State

	case opDone:
		m.busy = max(0, m.busy-1)
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
		} else {
			m.status = msg.label
		}
		m.rebuild()

	case tickMsg:
		m.rebuild()
		return m, tick()

	case tea.KeyMsg:
		if m.searchMode {
			return m, m.updateSearch(msg)
		}
		return m, m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchMode = false
		m.search = ""
	case tea.KeyEnter:
		m.searchMode = false
		return nil
	case tea.KeyBackspace:
		if r := []rune(m.search); len(r) > 0 {
			m.search = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.search += " "
	case tea.KeyRunes:
		m.search += string(msg.Runes)
	case tea.KeyCtrlC:
		return tea.Quit
	default:
		return nil
	}
	m.ctl.Search(m.search)
	m.cursor = 0
	m.rebuild()
	return nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) tea.Cmd {
	s := m.ctl.Store()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.ids)-1 {
			m.cursor++
		}
		m.rebuild()

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.rebuild()

	case key.Matches(msg, m.keys.Toggle):
		if id, ok := m.current(); ok {
			s.Toggle(id)
			m.rebuild()
		}

	case key.Matches(msg, m.keys.SelectAll):
		s.SelectAll(m.ids...)
		m.rebuild()

	case key.Matches(msg, m.keys.Clear):
		if len(s.Selected()) > 0 {
			s.ClearSelection()
			m.rebuild()
			break
		}
		m.search = ""
		m.readFilter = filterAll
		m.ctl.ClearFilter()
		m.rebuild()

	case key.Matches(msg, m.keys.MarkRead):
		if ids := m.targets(); len(ids) > 0 {
			return m.run(fmt.Sprintf("marked %d read", len(ids)), func(ctx context.Context) error {
				return m.ctl.MarkAsRead(ctx, ids...)
			})
		}

	case key.Matches(msg, m.keys.MarkUnread):
		if ids := m.targets(); len(ids) > 0 {
			return m.run(fmt.Sprintf("marked %d unread", len(ids)), func(ctx context.Context) error {
				return m.ctl.MarkAsUnread(ctx, ids...)
			})
		}

	case key.Matches(msg, m.keys.MarkAll):
		return m.run("marked all read", m.ctl.MarkAllAsRead)

	case key.Matches(msg, m.keys.Delete):
		if len(s.Selected()) > 0 {
			return m.run("deleted selection", m.ctl.DeleteSelected)
		}
		if id, ok := m.current(); ok {
			return m.run("deleted", func(ctx context.Context) error { return m.ctl.Delete(ctx, id) })
		}

	case key.Matches(msg, m.keys.Action):
		return m.runFirstAction()

	case key.Matches(msg, m.keys.Open):
		if id, ok := m.current(); ok {
			return m.open(id)
		}

	case key.Matches(msg, m.keys.Filter):
		m.readFilter = (m.readFilter + 1) % 3
		f := s.Filter()
		f.IsRead = m.readFilter.isRead()
		m.ctl.SetFilter(f)
		m.cursor = 0
		m.rebuild()

	case key.Matches(msg, m.keys.Refresh):
		return m.run("refreshed", m.ctl.Refresh)

	case key.Matches(msg, m.keys.Retry):
		return m.run("retried", m.ctl.Retry)
	}
	return nil
}

func (m *Model) runFirstAction() tea.Cmd {
	id, ok := m.current()
	if !ok {
		return nil
	}
	n, ok := m.ctl.Store().Get(id)
	if !ok {
		return nil
	}
	if len(n.Actions) == 0 || n.IsExpired(m.clock.Now()) {
		return m.open(id)
	}
	action := n.Actions[0]
	return m.run(action.Label+" done", func(ctx context.Context) error {
		_, err := m.ctl.ExecuteAction(ctx, id, action.ID, nil)
		return err
	})
}

func (m *Model) open(id string) tea.Cmd {
	m.busy++
	ctx := m.ctx
	return func() tea.Msg {
		u, err := m.ctl.Open(ctx, id)
		if err != nil || u == "" {
			return opDone{label: "opened", err: err}
		}
		return opDone{label: "open " + u}
	}
}

// run executes fn off the update loop and reports its outcome.
func (m *Model) run(label string, fn func(ctx context.Context) error) tea.Cmd {
	m.busy++
	ctx := m.ctx
	return func() tea.Msg {
		return opDone{label: label, err: fn(ctx)}
	}
}

func (m *Model) current() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.ids) {
		return "", false
	}
	return m.ids[m.cursor], true
}

// targets is the selection, or the cursor row when nothing is selected.
func (m *Model) targets() []string {
	if sel := m.ctl.Store().Selected(); len(sel) > 0 {
		return sel
	}
	if id, ok := m.current(); ok {
		return []string{id}
	}
	return nil
}

func (m *Model) rebuild() {
	s := m.ctl.Store()
	groups := m.ctl.View(m.clock.Now())

	m.ids = m.ids[:0]
	var b strings.Builder
	cursorLine, line := 0, 0
	for _, g := range groups {
		label := groupStyle.Render(fmt.Sprintf("%s (%d unread)", g.Label, g.UnreadCount))
		b.WriteString(label)
		b.WriteString("\n")
		line += lipgloss.Height(label)
		for _, d := range g.Notifications {
			idx := len(m.ids)
			m.ids = append(m.ids, d.ID)
			if idx == m.cursor {
				cursorLine = line
			}
			_, pending := s.IsPending(d.ID)
			b.WriteString(m.renderRow(d, idx == m.cursor, s.IsSelected(d.ID), pending))
			b.WriteString("\n")
			line += 2
		}
	}
	if len(m.ids) == 0 {
		b.WriteString(dimStyle.Render("No notifications"))
	}
	m.cursor = max(0, min(m.cursor, len(m.ids)-1))

	m.viewport.SetContent(strings.TrimSuffix(b.String(), "\n"))
	if cursorLine < m.viewport.YOffset {
		m.viewport.SetYOffset(cursorLine)
	} else if bottom := cursorLine + 1; bottom >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(bottom - m.viewport.Height + 1)
	}
}

func (m *Model) renderRow(d notification.Display, atCursor, selected, pending bool) string {
	marker := "  "
	if atCursor {
		marker = cursorStyle.Render("> ")
	}
	check := "[ ]"
	if selected {
		check = selectedStyle.Render("[x]")
	}
	dot := " "
	if !d.IsRead {
		dot = "●"
	}

	meta := dimStyle.Render(fmt.Sprintf("%s · %s", d.Priority, d.TimeAgo))
	if pending {
		meta += dimStyle.Render(" · running…")
	}
	title := titleStyle(d.Priority, !d.IsRead, d.Expired).Render(d.Title)
	first := fmt.Sprintf("%s%s %s %s  %s", marker, check, dot, title, meta)

	body := truncate(d.Message, max(10, m.width-10))
	if d.HasActions && !d.Expired {
		labels := make([]string, len(d.Actions))
		for i, a := range d.Actions {
			labels[i] = "[" + a.Label + "]"
		}
		body += "  " + dimStyle.Render(strings.Join(labels, " "))
	}
	return first + "\n" + strings.Repeat(" ", 8) + messageStyle.Render(body)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (m *Model) toastLines() int {
	if m.toasts == nil || m.toasts.Len() == 0 {
		return 0
	}
	return 3
}

// View renders the TUI.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	if t := m.renderToasts(); t != "" {
		b.WriteString("\n")
		b.WriteString(t)
	}
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m *Model) header() string {
	s := m.ctl.Store()
	parts := []string{
		fmt.Sprintf("Notifications · %d unread", s.UnreadCount()),
		"filter: " + m.readFilter.String(),
	}
	if m.search != "" {
		parts = append(parts, fmt.Sprintf("search: %q", m.search))
	}
	if n := len(s.Selected()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if m.conn != "" {
		parts = append(parts, m.conn)
	}
	if m.busy > 0 || m.ctl.Loading() {
		parts = append(parts, "working…")
	}
	return headerStyle.Width(m.width).Render(strings.Join(parts, " · "))
}

func (m *Model) renderToasts() string {
	if m.toasts == nil {
		return ""
	}
	var boxes []string
	for _, t := range m.toasts.List() {
		if t.State != toast.StateVisible {
			continue
		}
		text := t.Title
		if !t.Persistent {
			text += dimStyle.Render(fmt.Sprintf(" %3.0f%%", m.toasts.Progress(t.ID)*100))
		}
		boxes = append(boxes, toastBorder(t.Priority).Render(text))
	}
	if len(boxes) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (m *Model) footer() string {
	if m.searchMode {
		return "/" + m.search + "█"
	}
	if err := m.ctl.Err(); err != nil {
		return errorStyle.Render(err.Error()) + footerStyle.Render("  (t to retry)")
	}
	if m.status != "" {
		return footerStyle.Render(m.status)
	}
	help := m.keys.help()
	parts := make([]string, len(help))
	for i, k := range help {
		h := k.Help()
		parts[i] = h.Key + " " + h.Desc
	}
	return footerStyle.Render(strings.Join(parts, " · "))
}

// CursorID returns the id under the cursor, if any.
func (m *Model) CursorID() (string, bool) {
	return m.current()
}

// Searching reports whether the search prompt is open.
func (m *Model) Searching() bool {
	return m.searchMode
}

var _ tea.Model = (*Model)(nil)
