package desktop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

// Subscription is a browser push subscription.
type Subscription struct {
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	P256dh   string `json:"p256dh" mapstructure:"p256dh"`
	Auth     string `json:"auth" mapstructure:"auth"`
}

// IsZero reports whether no subscription is configured.
func (s Subscription) IsZero() bool {
	return s.Endpoint == ""
}

func (s Subscription) toWebPush() *webpush.Subscription {
	return &webpush.Subscription{
		Endpoint: s.Endpoint,
		Keys: webpush.Keys{
			Auth:   s.Auth,
			P256dh: s.P256dh,
		},
	}
}

// VAPID holds the application server key pair.
type VAPID struct {
	Subscriber string `json:"subscriber,omitempty" mapstructure:"subscriber"`
	PublicKey  string `json:"public_key,omitempty" mapstructure:"public_key"`
	PrivateKey string `json:"private_key,omitempty" mapstructure:"private_key"`
}

// GenerateVAPID creates a new application server key pair.
func GenerateVAPID(subscriber string) (VAPID, error) {
	priv, pub, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return VAPID{}, fmt.Errorf("generate vapid keys: %w", err)
	}
	return VAPID{Subscriber: subscriber, PublicKey: pub, PrivateKey: priv}, nil
}

// WebPushSender delivers notices as encrypted Web Push messages.
type WebPushSender struct {
	sub        Subscription
	vapid      VAPID
	ttl        int
	httpClient webpush.HTTPClient
}

// WebPushOption configures a WebPushSender.
type WebPushOption func(*WebPushSender)

// WithTTL sets how long, in seconds, the push service keeps undelivered
// messages.
func WithTTL(seconds int) WebPushOption {
	return func(w *WebPushSender) { w.ttl = seconds }
}

// WithHTTPClient replaces the client used to reach the push service.
func WithHTTPClient(c webpush.HTTPClient) WebPushOption {
	return func(w *WebPushSender) { w.httpClient = c }
}

// NewWebPushSender returns a sender for one subscription.
func NewWebPushSender(sub Subscription, vapid VAPID, opts ...WebPushOption) *WebPushSender {
	w := &WebPushSender{sub: sub, vapid: vapid, ttl: 60}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Send encrypts n as JSON and posts it to the subscription endpoint.
func (w *WebPushSender) Send(ctx context.Context, n Notice) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}

	opts := &webpush.Options{
		Subscriber:      w.vapid.Subscriber,
		VAPIDPublicKey:  w.vapid.PublicKey,
		VAPIDPrivateKey: w.vapid.PrivateKey,
		TTL:             w.ttl,
		Urgency:         urgencyFor(n.Priority),
		Topic:           topicFor(n.Tag),
		HTTPClient:      w.client(),
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, w.sub.toWebPush(), opts)
	if err != nil {
		return fmt.Errorf("send web push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (w *WebPushSender) client() webpush.HTTPClient {
	if w.httpClient != nil {
		return w.httpClient
	}
	return http.DefaultClient
}

func urgencyFor(p notification.Priority) webpush.Urgency {
	switch p {
	case notification.PriorityLow:
		return webpush.UrgencyLow
	case notification.PriorityHigh, notification.PriorityUrgent:
		return webpush.UrgencyHigh
	default:
		return webpush.UrgencyNormal
	}
}

// topicFor derives a push Topic (at most 32 URL-safe base64 characters) from
// a notice tag so the push service collapses redeliveries. Tags that cannot
// be mapped get no topic.
func topicFor(tag string) string {
	t := strings.ReplaceAll(tag, "-", "")
	if t == "" || len(t) > 32 {
		return ""
	}
	for _, r := range t {
		ok := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_'
		if !ok {
			return ""
		}
	}
	return t
}
