package tui

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/api"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/center"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/store"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/testutil"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/toast"
)

type recordingBackend struct {
	mu    sync.Mutex
	calls []string
}

func (b *recordingBackend) record(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, s)
}

func (b *recordingBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *recordingBackend) List(context.Context, api.ListParams) (*api.ListResponse, error) {
	b.record("list")
	return &api.ListResponse{}, nil
}

func (b *recordingBackend) MarkRead(_ context.Context, id string) error {
	b.record("read:" + id)
	return nil
}

func (b *recordingBackend) Bulk(_ context.Context, ids []string, action api.BulkAction) error {
	b.record("bulk:" + string(action) + ":" + join(ids))
	return nil
}

func (b *recordingBackend) Delete(_ context.Context, id string) error {
	b.record("delete:" + id)
	return nil
}

func (b *recordingBackend) ExecuteAction(_ context.Context, nid, aid string, _ map[string]any) (*api.ActionResult, error) {
	b.record("action:" + nid + "/" + aid)
	return &api.ActionResult{Success: true}, nil
}

func join(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// exec runs cmd and feeds its message back, the way the program loop would.
func exec(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	m.Update(cmd())
}

func newModel(t *testing.T, opts ...Option) (*Model, *store.Store, *recordingBackend) {
	t.Helper()
	s := store.New()
	s.Replace([]notification.Notification{
		testutil.NewNotification(testutil.WithID("a"), testutil.WithTitle("Bid on copper"), testutil.WithAge(time.Minute),
			testutil.WithActions(notification.Action{ID: "accept", Label: "Accept"})),
		testutil.NewNotification(testutil.WithID("b"), testutil.WithTitle("Order shipped"), testutil.WithAge(2*time.Minute),
			testutil.WithType(notification.TypeOrderShipped)),
		testutil.NewNotification(testutil.WithID("c"), testutil.WithTitle("Payment received"), testutil.WithAge(3*time.Minute),
			testutil.WithRead(true)),
	})
	b := &recordingBackend{}
	clk := testutil.NewFakeClock(testutil.Now)
	ctl := center.New(s, b, center.WithClock(clk), center.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	m := New(context.Background(), ctl, append([]Option{WithClock(clk)}, opts...)...)
	return m, s, b
}

func TestModel_RendersGroupsAndRows(t *testing.T) {
	m, _, _ := newModel(t)

	view := m.View()
	assert.Contains(t, view, "Today (2 unread)")
	assert.Contains(t, view, "Bid on copper")
	assert.Contains(t, view, "Order shipped")
	assert.Contains(t, view, "[Accept]")
	assert.Contains(t, view, "2 unread")
}

func TestModel_CursorMovement(t *testing.T) {
	m, _, _ := newModel(t)

	id, ok := m.CursorID()
	require.True(t, ok)
	assert.Equal(t, "a", id)

	m.Update(runes("j"))
	m.Update(runes("j"))
	m.Update(runes("j"))
	id, _ = m.CursorID()
	assert.Equal(t, "c", id, "cursor stops at the last row")

	m.Update(runes("k"))
	id, _ = m.CursorID()
	assert.Equal(t, "b", id)
}

func TestModel_Selection(t *testing.T) {
	m, s, _ := newModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, []string{"a"}, s.Selected())
	assert.Contains(t, m.View(), "1 selected")

	m.Update(runes("a"))
	assert.Equal(t, []string{"a", "b", "c"}, s.Selected())

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, s.Selected())
}

func TestModel_FilterCycle(t *testing.T) {
	m, s, _ := newModel(t)

	m.Update(runes("f"))
	require.NotNil(t, s.Filter().IsRead)
	assert.False(t, *s.Filter().IsRead)
	assert.Len(t, s.Visible(), 2)

	m.Update(runes("f"))
	assert.True(t, *s.Filter().IsRead)
	id, _ := m.CursorID()
	assert.Equal(t, "c", id)

	m.Update(runes("f"))
	assert.Nil(t, s.Filter().IsRead)
	assert.Len(t, s.Visible(), 3)
}

func TestModel_SearchMode(t *testing.T) {
	m, s, _ := newModel(t)

	m.Update(runes("/"))
	require.True(t, m.Searching())
	m.Update(runes("cop"))
	m.Update(runes("x"))
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	assert.Equal(t, "cop", s.Filter().Search)
	assert.Len(t, s.Visible(), 1)
	assert.Contains(t, m.View(), "/cop")

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Searching())
	assert.Equal(t, "cop", s.Filter().Search, "enter keeps the term")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, s.Filter().Search, "esc with no selection clears filters")
}

func TestModel_MarkReadUsesCursorOrSelection(t *testing.T) {
	m, s, b := newModel(t)

	_, cmd := m.Update(runes("r"))
	exec(t, m, cmd)
	assert.Equal(t, []string{"read:a"}, b.Calls())
	assert.Equal(t, 1, s.UnreadCount())
	assert.Contains(t, m.View(), "marked 1 read")

	s.Select("a", "b")
	_, cmd = m.Update(runes("u"))
	exec(t, m, cmd)
	assert.Equal(t, "bulk:mark_unread:a", b.Calls()[1], "already-unread b is not sent")
}

func TestModel_MarkAllAndDelete(t *testing.T) {
	m, s, b := newModel(t)

	_, cmd := m.Update(runes("R"))
	exec(t, m, cmd)
	assert.Zero(t, s.UnreadCount())

	s.Select("b", "c")
	_, cmd = m.Update(runes("d"))
	exec(t, m, cmd)
	assert.Equal(t, 1, s.Len())

	_, cmd = m.Update(runes("d"))
	exec(t, m, cmd)
	assert.Zero(t, s.Len())
	assert.Contains(t, m.View(), "No notifications")

	calls := b.Calls()
	assert.Equal(t, "bulk:delete:b,c", calls[1])
	assert.Equal(t, "delete:a", calls[2])
}

func TestModel_EnterRunsFirstAction(t *testing.T) {
	m, s, b := newModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	exec(t, m, cmd)
	assert.Equal(t, []string{"action:a/accept", "read:a"}, b.Calls())
	n, _ := s.Get("a")
	assert.True(t, n.IsRead)

	m.Update(runes("j"))
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	exec(t, m, cmd)
	assert.Equal(t, "read:b", b.Calls()[2], "no actions: enter opens")
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newModel(t)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_ConnectionAndToasts(t *testing.T) {
	clk := testutil.NewFakeClock(testutil.Now)
	q := toast.New(clk)
	defer q.Close()
	q.ShowNotification(testutil.NewNotification(testutil.WithTitle("Outbid on HDPE")))

	m, _, _ := newModel(t, WithToasts(q))
	m.Update(ConnChanged{State: "connected"})

	view := m.View()
	assert.Contains(t, view, "connected")
	assert.Contains(t, view, "Outbid on HDPE")
}

type msgSink struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *msgSink) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *msgSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func TestForward(t *testing.T) {
	s := store.New()
	sink := &msgSink{}
	stop := Forward(sink, s)

	s.Add(testutil.NewNotification())
	require.Eventually(t, func() bool { return sink.Len() >= 1 }, time.Second, 5*time.Millisecond)

	stop()
	before := sink.Len()
	s.Add(testutil.NewNotification())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, sink.Len())
}
