package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

// maxMessageRunes is the Bot API limit for one sendMessage text.
const maxMessageRunes = 4096

// Telegram sends alerts through the Bot API sendMessage method.
type Telegram struct {
	client *resty.Client
	token  string
	chatID string
}

// NewTelegram creates a Telegram notifier. apiURL is normally
// https://api.telegram.org. Empty credentials yield a notifier that returns
// ErrNotConfigured on every call.
func NewTelegram(apiURL, token, chatID string, timeout time.Duration) *Telegram {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(apiURL, "/"))
	client.SetTimeout(timeout)

	return &Telegram{client: client, token: token, chatID: chatID}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Notify(ctx context.Context, title, message string) error {
	if t.token == "" || t.chatID == "" {
		return fmt.Errorf("telegram: %w", ErrNotConfigured)
	}

	res, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id": t.chatID,
			"text":    truncateRunes(title+"\n"+message, maxMessageRunes),
		}).
		Post("/bot" + t.token + "/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram: send: %w", t.redact(err))
	}
	if res.IsError() {
		return fmt.Errorf("telegram: send: status %d: %s", res.StatusCode(), strings.TrimSpace(res.String()))
	}
	return nil
}

// redact strips the bot token from transport errors, which embed the request URL.
func (t *Telegram) redact(err error) error {
	const mask = "<redacted>"
	var uerr *url.Error
	if errors.As(err, &uerr) {
		inner := uerr.Err
		if strings.Contains(inner.Error(), t.token) {
			inner = errors.New(strings.ReplaceAll(inner.Error(), t.token, mask))
		}
		return fmt.Errorf("%s %q: %w", uerr.Op, strings.ReplaceAll(uerr.URL, t.token, mask), inner)
	}
	if strings.Contains(err.Error(), t.token) {
		return errors.New(strings.ReplaceAll(err.Error(), t.token, mask))
	}
	return err
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
