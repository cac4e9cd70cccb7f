// Package api is the REST client for the notifications backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/preference"
)

const (
	defaultTimeout = 30 * time.Second
	basePath       = "/notifications"
	maxErrorBody   = 4 << 10
)

// Client talks to the notifications REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userID     string
}

var _ preference.Saver = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithUserID adds userId to the query of the endpoints that accept it.
func WithUserID(id string) Option {
	return func(c *Client) { c.userID = id }
}

// New returns a client rooted at baseURL (for example
// "https://api.example.com/api").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches a page of notifications.
func (c *Client) List(ctx context.Context, p ListParams) (*ListResponse, error) {
	q := c.userQuery()
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	f := p.Filter
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if len(f.Types) > 0 {
		vals := make([]string, len(f.Types))
		for i, t := range f.Types {
			vals[i] = string(t)
		}
		q.Set("type", strings.Join(vals, ","))
	}
	if len(f.Priorities) > 0 {
		vals := make([]string, len(f.Priorities))
		for i, pr := range f.Priorities {
			vals[i] = string(pr)
		}
		q.Set("priority", strings.Join(vals, ","))
	}
	if f.IsRead != nil {
		q.Set("isRead", strconv.FormatBool(*f.IsRead))
	}
	if f.DateRange != nil {
		if f.DateRange.Start != "" {
			q.Set("startDate", f.DateRange.Start)
		}
		if f.DateRange.End != "" {
			q.Set("endDate", f.DateRange.End)
		}
	}

	var resp ListResponse
	if err := c.do(ctx, http.MethodGet, basePath, q, nil, &resp); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return &resp, nil
}

// UnreadCount fetches the server-side unread counter.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, basePath+"/count", c.userQuery(), nil, &resp); err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return resp.Count, nil
}

// MarkRead marks a single notification read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	path := basePath + "/" + url.PathEscape(id) + "/read"
	if err := c.do(ctx, http.MethodPut, path, c.userQuery(), nil, nil); err != nil {
		return fmt.Errorf("mark %s read: %w", id, err)
	}
	return nil
}

// Bulk applies action to every id.
func (c *Client) Bulk(ctx context.Context, ids []string, action BulkAction) error {
	body := bulkRequest{NotificationIDs: ids, Action: action}
	if err := c.do(ctx, http.MethodPatch, basePath+"/bulk", nil, body, nil); err != nil {
		return fmt.Errorf("bulk %s: %w", action, err)
	}
	return nil
}

// Delete removes one notification.
func (c *Client) Delete(ctx context.Context, id string) error {
	path := basePath + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// ExecuteAction invokes an action attached to a notification. data is sent
// as the request body when non-nil.
func (c *Client) ExecuteAction(ctx context.Context, notificationID, actionID string, data map[string]any) (*ActionResult, error) {
	path := basePath + "/" + url.PathEscape(notificationID) + "/actions/" + url.PathEscape(actionID)
	var body any
	if data != nil {
		body = data
	}
	res := ActionResult{Success: true}
	if err := c.do(ctx, http.MethodPost, path, nil, body, &res); err != nil {
		return nil, fmt.Errorf("execute action %s on %s: %w", actionID, notificationID, err)
	}
	return &res, nil
}

// GetPreferences fetches the user's delivery preferences.
func (c *Client) GetPreferences(ctx context.Context) (*preference.Preferences, error) {
	var p preference.Preferences
	if err := c.do(ctx, http.MethodGet, basePath+"/preferences", nil, nil, &p); err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return &p, nil
}

// UpdatePreferences replaces the stored preferences with p and returns what
// the server stored. An empty response body returns p itself.
func (c *Client) UpdatePreferences(ctx context.Context, p preference.Preferences) (*preference.Preferences, error) {
	out := p.Clone()
	if err := c.do(ctx, http.MethodPut, basePath+"/preferences", nil, p, &out); err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return &out, nil
}

// SendTest asks the backend to deliver a sample notification.
func (c *Client) SendTest(ctx context.Context, req TestRequest) error {
	if err := c.do(ctx, http.MethodPost, basePath+"/test", nil, req, nil); err != nil {
		return fmt.Errorf("send test notification: %w", err)
	}
	return nil
}

// Analytics fetches delivery analytics.
func (c *Client) Analytics(ctx context.Context, p AnalyticsParams) (*Analytics, error) {
	q := c.userQuery()
	if !p.From.IsZero() {
		q.Set("from", p.From.UTC().Format(time.RFC3339))
	}
	if !p.To.IsZero() {
		q.Set("to", p.To.UTC().Format(time.RFC3339))
	}
	var a Analytics
	if err := c.do(ctx, http.MethodGet, basePath+"/analytics", q, nil, &a); err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	return &a, nil
}

func (c *Client) userQuery() url.Values {
	q := url.Values{}
	if c.userID != "" {
		q.Set("userId", c.userID)
	}
	return q
}

// do sends one request. in is JSON-encoded when non-nil; out is decoded from
// a non-empty 2xx body when non-nil.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &Error{StatusCode: resp.StatusCode}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
