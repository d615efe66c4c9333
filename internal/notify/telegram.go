package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramConfig configures a TelegramSender. Endpoint and HTTPClient are
// optional and mostly useful for pointing the sender at a test server.
type TelegramConfig struct {
	Token      string
	ChatID     string
	MaxRetries int
	RetryDelay time.Duration
	Endpoint   string // defaults to tgbotapi.APIEndpoint
	HTTPClient *http.Client
}

// TelegramSender delivers notifications via the Telegram Bot API.
type TelegramSender struct {
	bot        *tgbotapi.BotAPI
	chatID     int64
	maxRetries int
	retryDelay time.Duration
}

// NewTelegramSender creates a TelegramSender. Creating the bot validates the
// token against the API, so this fails fast on a bad token.
func NewTelegramSender(cfg TelegramConfig) (*TelegramSender, error) {
	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram: invalid chat id %q: %w", cfg.ChatID, err)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = tgbotapi.APIEndpoint
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.Endpoint, cfg.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}

	return &TelegramSender{
		bot:        bot,
		chatID:     chatID,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// Send posts ev to the configured chat. The title and field names are bold
// MarkdownV2; every part is escaped. Failed sends are retried with a linear
// backoff until ctx is done.
func (t *TelegramSender) Send(ctx context.Context, ev Event) error {
	msg := tgbotapi.NewMessage(t.chatID, telegramText(ev))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for attempt := range t.maxRetries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("telegram: send: %w", err)
		}
		_, err := t.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == t.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("telegram: send: %w", ctx.Err())
		case <-time.After(t.retryDelay * time.Duration(attempt+1)):
		}
	}

	return fmt.Errorf("telegram: send failed after %d attempts: %w", t.maxRetries, lastErr)
}

// telegramMessageLimit bounds the free-text part of a message; the Bot API
// rejects texts over 4096 characters.
const telegramMessageLimit = 3000

func telegramText(ev Event) string {
	esc := func(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s) }

	var b strings.Builder
	b.WriteString("*" + esc(ev.Title) + "*")
	if ev.Message != "" {
		b.WriteString("\n" + esc(truncateRunes(ev.Message, telegramMessageLimit)))
	}
	for _, f := range ev.Fields {
		fmt.Fprintf(&b, "\n*%s:* %s", esc(f.Name), esc(f.Value))
	}
	return b.String()
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}
