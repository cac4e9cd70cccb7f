package desktop

import (
	"bytes"
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/testutil"
)

func TestNewNotice(t *testing.T) {
	tests := []struct {
		priority  notification.Priority
		require   bool
		silent    bool
		autoClose int64
	}{
		{notification.PriorityLow, false, true, 5000},
		{notification.PriorityMedium, false, false, 5000},
		{notification.PriorityHigh, false, false, 5000},
		{notification.PriorityUrgent, true, false, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			n := testutil.NewNotification(
				testutil.WithID("n-1"),
				testutil.WithPriority(tt.priority),
				testutil.WithData(map[string]any{"url": "/orders/12"}),
			)
			got := NewNotice(n)

			assert.Equal(t, n.Title, got.Title)
			assert.Equal(t, n.Message, got.Body)
			assert.Equal(t, "n-1", got.Tag)
			assert.Equal(t, "/orders/12", got.URL)
			assert.Equal(t, tt.require, got.RequireInteraction)
			assert.Equal(t, tt.silent, got.Silent)
			assert.Equal(t, tt.autoClose, got.AutoCloseMillis)
		})
	}
}

type recordingSender struct {
	notices []Notice
	err     error
}

func (r *recordingSender) Send(_ context.Context, n Notice) error {
	r.notices = append(r.notices, n)
	return r.err
}

func TestSurface_RequiresPermission(t *testing.T) {
	ctx := context.Background()
	sender := &recordingSender{}
	s := NewSurface(sender)
	n := testutil.NewNotification()

	assert.Equal(t, PermissionDefault, s.Permission())
	require.NoError(t, s.Show(ctx, n))
	assert.Empty(t, sender.notices, "nothing shown before permission")

	assert.Equal(t, PermissionGranted, s.RequestPermission(ctx))
	require.NoError(t, s.Show(ctx, n))
	assert.Len(t, sender.notices, 1)
}

func TestSurface_NoSenderIsDenied(t *testing.T) {
	s := NewSurface(nil)
	assert.Equal(t, PermissionDenied, s.RequestPermission(context.Background()))
	assert.NoError(t, s.Show(context.Background(), testutil.NewNotification()))
}

func TestSurface_SenderError(t *testing.T) {
	sender := &recordingSender{err: errors.New("gone")}
	s := NewSurface(sender)
	s.RequestPermission(context.Background())

	err := s.Show(context.Background(), testutil.NewNotification(testutil.WithID("n-7")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "n-7")
}

func TestTerminalSender(t *testing.T) {
	var buf bytes.Buffer
	ts := NewTerminalSender(&buf)

	require.NoError(t, ts.Send(context.Background(), Notice{Title: "Outbid", Body: "New high bid", Priority: notification.PriorityHigh, URL: "/a/1"}))
	require.NoError(t, ts.Send(context.Background(), Notice{Title: "Viewed", Body: "x", Priority: notification.PriorityLow, Silent: true}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "\a[high] Outbid: New high bid (/a/1)", lines[0])
	assert.Equal(t, "[low] Viewed: x", lines[1])
}

// newBrowserSubscription fabricates the keys a browser would hand out.
func newBrowserSubscription(t *testing.T, endpoint string) Subscription {
	t.Helper()
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)

	return Subscription{
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(priv.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(auth),
	}
}

func TestWebPushSender(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	vapid, err := GenerateVAPID("ops@example.test")
	require.NoError(t, err)

	sender := NewWebPushSender(newBrowserSubscription(t, srv.URL+"/push/abc"), vapid,
		WithTTL(120), WithHTTPClient(srv.Client()))

	n := testutil.NewNotification(
		testutil.WithID("0192f0c4-7f3a-7cc1-9d2e-5b1f00000001"),
		testutil.WithPriority(notification.PriorityUrgent),
	)
	require.NoError(t, sender.Send(context.Background(), NewNotice(n)))

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/push/abc", got.URL.Path)
	assert.Equal(t, "aes128gcm", got.Header.Get("Content-Encoding"))
	assert.Equal(t, "120", got.Header.Get("TTL"))
	assert.Equal(t, "high", got.Header.Get("Urgency"))
	assert.Equal(t, "0192f0c47f3a7cc19d2e5b1f00000001", got.Header.Get("Topic"))
	assert.True(t, strings.HasPrefix(got.Header.Get("Authorization"), "vapid "))
}

func TestWebPushSender_RejectedByPushService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "subscription expired", http.StatusGone)
	}))
	defer srv.Close()

	vapid, err := GenerateVAPID("ops@example.test")
	require.NoError(t, err)
	sender := NewWebPushSender(newBrowserSubscription(t, srv.URL), vapid, WithHTTPClient(srv.Client()))

	err = sender.Send(context.Background(), NewNotice(testutil.NewNotification()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "abc123", topicFor("abc-123"))
	assert.Equal(t, "", topicFor(""))
	assert.Equal(t, "", topicFor("has space"))
	assert.Equal(t, "", topicFor(strings.Repeat("a", 33)))
}
