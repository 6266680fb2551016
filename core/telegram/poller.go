package telegram

import (
	"fmt"
	"net/http"
	"time"

	coreconfig "github.com/m3rciful/quotebot/core/config"
	"github.com/m3rciful/quotebot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

// AllowedUpdates are the update types the bot subscribes to.
var AllowedUpdates = []string{"message", "callback_query", "inline_query"}

const defaultLongPollTimeout = 10 * time.Second

// BuildPoller returns a webhook or long poller for an already normalized config.
func BuildPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:         fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port),
			Endpoint:       &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
			AllowedUpdates: AllowedUpdates,
		}
	}
	return &tele.LongPoller{Timeout: longPollTimeout(cfg), AllowedUpdates: AllowedUpdates}
}

func longPollTimeout(cfg *coreconfig.Config) time.Duration {
	if cfg.Telegram.LongPollTimeoutSeconds > 0 {
		return time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second
	}
	return defaultLongPollTimeout
}

// BuildHTTPClient returns the client used for Bot API calls: transient
// network errors are retried up to three times.
func BuildHTTPClient() *http.Client {
	return netutil.NewClient(netutil.ClientOptions{Retries: 3, Backoff: 2 * time.Second})
}
