// Package config loads notifykit settings from an optional YAML file,
// NOTIFYKIT_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/desktop"
)

// EnvPrefix prefixes every environment variable, e.g. NOTIFYKIT_API_URL.
const EnvPrefix = "NOTIFYKIT"

// Config is the effective configuration.
type Config struct {
	APIURL      string `json:"api_url" mapstructure:"api_url"`
	WSURL       string `json:"ws_url" mapstructure:"ws_url"`
	Token       string `json:"token" mapstructure:"token"`
	UserID      string `json:"user_id" mapstructure:"user_id"`
	Limit       int    `json:"limit" mapstructure:"limit"`
	JournalPath string `json:"journal" mapstructure:"journal"`
	LogLevel    string `json:"log_level" mapstructure:"log_level"`
	LogFormat   string `json:"log_format" mapstructure:"log_format"`
	Push        Push   `json:"push" mapstructure:"push"`
}

// Push configures the web push channel. It is disabled unless both the
// VAPID keys and a subscription are present.
type Push struct {
	VAPID        desktop.VAPID        `json:"vapid" mapstructure:"vapid"`
	Subscription desktop.Subscription `json:"subscription" mapstructure:"subscription"`
	TTL          int                  `json:"ttl" mapstructure:"ttl"`
}

// Enabled reports whether push delivery is fully configured.
func (p Push) Enabled() bool {
	return !p.Subscription.IsZero() && p.VAPID.PublicKey != "" && p.VAPID.PrivateKey != ""
}

var defaults = map[string]any{
	"api_url":                    "http://localhost:8080/api",
	"ws_url":                     "",
	"token":                      "",
	"user_id":                    "",
	"limit":                      50,
	"journal":                    "",
	"log_level":                  "info",
	"log_format":                 "text",
	"push.vapid.subscriber":      "",
	"push.vapid.public_key":      "",
	"push.vapid.private_key":     "",
	"push.subscription.endpoint": "",
	"push.subscription.p256dh":   "",
	"push.subscription.auth":     "",
	"push.ttl":                   60,
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"api-url":    "api_url",
	"ws-url":     "ws_url",
	"token":      "token",
	"user":       "user_id",
	"limit":      "limit",
	"journal":    "journal",
	"log-level":  "log_level",
	"log-format": "log_format",
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds whichever known flags fs defines. Unset flags do not
// override the file or environment.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads file (if non-empty) into v and decodes the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks urls, limits and log settings.
func (c *Config) Validate() error {
	var errs []error
	if c.APIURL != "" {
		if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("api_url %q is not an absolute url", c.APIURL))
		}
	}
	if c.WSURL != "" {
		if u, err := url.Parse(c.WSURL); err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("ws_url %q is not an absolute url", c.WSURL))
		}
	}
	if c.Limit < 1 || c.Limit > 500 {
		errs = append(errs, fmt.Errorf("limit must be between 1 and 500, got %d", c.Limit))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if c.Push.TTL < 0 {
		errs = append(errs, errors.New("push.ttl must not be negative"))
	}
	return errors.Join(errs...)
}

// WebSocketURL returns ws_url, or one derived from api_url by swapping the
// scheme and appending /notifications/ws.
func (c *Config) WebSocketURL() string {
	if c.WSURL != "" {
		return c.WSURL
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Host == "" {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/notifications/ws"
	return u.String()
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", s, err)
	}
	return l, nil
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() Config {
	r := *c
	r.Token = mask(r.Token)
	r.Push.VAPID.PrivateKey = mask(r.Push.VAPID.PrivateKey)
	r.Push.Subscription.Auth = mask(r.Push.Subscription.Auth)
	return r
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
