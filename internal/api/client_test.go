package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/preference"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/query"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/testutil"
)

type recorded struct {
	method string
	path   string
	query  map[string]string
	auth   string
	body   []byte
}

// newServer starts a test server that records the last request and answers
// with status and body.
func newServer(t *testing.T, status int, body string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.EscapedPath()
		rec.query = map[string]string{}
		for k := range r.URL.Query() {
			rec.query[k] = r.URL.Query().Get(k)
		}
		rec.auth = r.Header.Get("Authorization")
		rec.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newClient(srv *httptest.Server) *Client {
	return New(srv.URL+"/api/", WithToken("tok"), WithUserID("u-1"), WithHTTPClient(srv.Client()))
}

func TestListSendsFilterAndDecodes(t *testing.T) {
	n := testutil.NewNotification(testutil.WithID("n-1"))
	payload, err := json.Marshal(ListResponse{
		Notifications: []notification.Notification{n},
		Total:         7,
		UnreadCount:   3,
		HasMore:       true,
	})
	require.NoError(t, err)
	srv, rec := newServer(t, http.StatusOK, string(payload))

	unread := false
	resp, err := newClient(srv).List(context.Background(), ListParams{
		Limit: 20,
		Filter: query.FilterSpec{
			Search:     "bid",
			Types:      []notification.Type{notification.TypeAuctionBid, notification.TypeAuctionWon},
			Priorities: []notification.Priority{notification.PriorityHigh},
			IsRead:     &unread,
			DateRange:  &query.DateRange{Start: "2026-10-01", End: "2026-10-19"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/notifications", rec.path)
	assert.Equal(t, "Bearer tok", rec.auth)
	assert.Equal(t, map[string]string{
		"userId":    "u-1",
		"limit":     "20",
		"search":    "bid",
		"type":      "auction_bid,auction_won",
		"priority":  "high",
		"isRead":    "false",
		"startDate": "2026-10-01",
		"endDate":   "2026-10-19",
	}, rec.query)

	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "n-1", resp.Notifications[0].ID)
	assert.Equal(t, 7, resp.Total)
	assert.Equal(t, 3, resp.UnreadCount)
	assert.True(t, resp.HasMore)
}

func TestUnreadCount(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"count": 4}`)
	got, err := newClient(srv).UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, got)
	assert.Equal(t, "/api/notifications/count", rec.path)
	assert.Equal(t, "u-1", rec.query["userId"])
}

func TestMarkRead(t *testing.T) {
	srv, rec := newServer(t, http.StatusNoContent, "")
	require.NoError(t, newClient(srv).MarkRead(context.Background(), "n 1"))
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/api/notifications/n%201/read", rec.path)
}

func TestBulk(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{}`)
	require.NoError(t, newClient(srv).Bulk(context.Background(), []string{"a", "b"}, BulkMarkUnread))

	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/api/notifications/bulk", rec.path)
	assert.JSONEq(t, `{"notificationIds":["a","b"],"action":"mark_unread"}`, string(rec.body))
}

func TestDelete(t *testing.T) {
	srv, rec := newServer(t, http.StatusNoContent, "")
	require.NoError(t, newClient(srv).Delete(context.Background(), "a"))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/api/notifications/a", rec.path)
}

func TestExecuteAction(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"success": true, "message": "bid accepted"}`)
	res, err := newClient(srv).ExecuteAction(context.Background(), "n-1", "accept", map[string]any{"bidId": "b-9"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/notifications/n-1/actions/accept", rec.path)
	assert.JSONEq(t, `{"bidId":"b-9"}`, string(rec.body))
	assert.True(t, res.Success)
	assert.Equal(t, "bid accepted", res.Message)
}

func TestExecuteActionEmptyBody(t *testing.T) {
	srv, rec := newServer(t, http.StatusNoContent, "")
	res, err := newClient(srv).ExecuteAction(context.Background(), "n-1", "view", nil)
	require.NoError(t, err)
	assert.Empty(t, rec.body)
	assert.True(t, res.Success)
}

func TestPreferencesRoundTrip(t *testing.T) {
	prefs := preference.Defaults()
	prefs.BatchSettings.Enabled = true
	payload, err := json.Marshal(prefs)
	require.NoError(t, err)

	srv, rec := newServer(t, http.StatusOK, string(payload))
	c := newClient(srv)

	got, err := c.GetPreferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/notifications/preferences", rec.path)
	assert.True(t, got.BatchSettings.Enabled)

	saved, err := c.UpdatePreferences(context.Background(), prefs)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, rec.method)
	assert.JSONEq(t, string(payload), string(rec.body))
	assert.Equal(t, prefs, *saved)
}

func TestSendTest(t *testing.T) {
	srv, rec := newServer(t, http.StatusAccepted, "")
	err := newClient(srv).SendTest(context.Background(), TestRequest{
		Type:     notification.TypePriceAlert,
		Priority: notification.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/notifications/test", rec.path)
	assert.JSONEq(t, `{"type":"price_alert","priority":"high"}`, string(rec.body))
}

func TestAnalytics(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"total": 10, "read": 6, "unread": 4, "readRate": 0.6, "byType": {"auction_bid": 7}}`)
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	a, err := newClient(srv).Analytics(context.Background(), AnalyticsParams{From: from})
	require.NoError(t, err)

	assert.Equal(t, "2026-10-01T00:00:00Z", rec.query["from"])
	_, hasTo := rec.query["to"]
	assert.False(t, hasTo)
	assert.Equal(t, 10, a.Total)
	assert.InDelta(t, 0.6, a.ReadRate, 1e-9)
	assert.Equal(t, 7, a.ByType[notification.TypeAuctionBid])
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantMessage  string
		notFound     bool
		unauthorized bool
	}{
		{"message field", http.StatusNotFound, `{"message":"notification not found"}`, "notification not found", true, false},
		{"error field", http.StatusUnauthorized, `{"error":"token expired"}`, "token expired", false, true},
		{"plain text", http.StatusBadGateway, "upstream down", "upstream down", false, false},
		{"forbidden", http.StatusForbidden, "", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)
			err := newClient(srv).Delete(context.Background(), "x")
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.notFound, IsNotFound(err))
			assert.Equal(t, tt.unauthorized, IsUnauthorized(err))
		})
	}
}

func TestContextCancelled(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newClient(srv).UnreadCount(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
