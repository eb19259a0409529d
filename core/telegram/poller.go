package telegram

import (
	"net"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/shopbot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// AllowedUpdates are the update kinds the storefront handles. Telegram drops
// everything else before it reaches the poller.
var AllowedUpdates = []string{"message", "callback_query"}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	Webhook                bool
	LongPollTimeoutSeconds int
	ListenHost             string
	ListenPort             int
	PublicURL              string
}

// LongPollTimeout returns the configured long-poll timeout or the default.
func (o PollerOptions) LongPollTimeout() time.Duration {
	if o.LongPollTimeoutSeconds <= 0 {
		return defaultLongPollTimeout
	}
	return time.Duration(o.LongPollTimeoutSeconds) * time.Second
}

// ListenAddr is the webhook listener address.
func (o PollerOptions) ListenAddr() string {
	return net.JoinHostPort(o.ListenHost, strconv.Itoa(o.ListenPort))
}

// PollerOptionsFrom maps the core configuration onto poller options.
func PollerOptionsFrom(cfg *coreconfig.Config) PollerOptions {
	return PollerOptions{
		Webhook:                strings.EqualFold(strings.TrimSpace(cfg.Telegram.RunMode), coreconfig.RunModeWebhook),
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		ListenHost:             cfg.Webhook.Listen,
		ListenPort:             cfg.Webhook.Port,
		PublicURL:              cfg.Webhook.URL,
	}
}

// BuildPoller returns a webhook or long poller limited to AllowedUpdates.
func BuildPoller(opts PollerOptions) tele.Poller {
	if opts.Webhook {
		return &tele.Webhook{
			Listen:         opts.ListenAddr(),
			AllowedUpdates: AllowedUpdates,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: opts.PublicURL},
		}
	}
	return &tele.LongPoller{Timeout: opts.LongPollTimeout(), AllowedUpdates: AllowedUpdates}
}
