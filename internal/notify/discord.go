package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Discord embed limits.
const (
	discordTitleLimit       = 256
	discordDescriptionLimit = 4096
	discordFieldNameLimit   = 256
	discordFieldValueLimit  = 1024
	discordMaxFields        = 25
)

// Embed colours by event level.
const (
	discordColorInfo  = 0x3498DB
	discordColorWarn  = 0xF39C12
	discordColorError = 0xE74C3C
)

// DiscordSender delivers notifications via a Discord webhook as one embed per
// event.
type DiscordSender struct {
	webhookURL string
	username   string
	client     *http.Client
}

// NewDiscordSender creates a DiscordSender for the given webhook URL. It uses a
// default HTTP client with a 10-second timeout.
func NewDiscordSender(webhookURL, username string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		username:   username,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type discordPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Footer      *discordFooter `json:"footer,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// discordEmbedFor lays ev out as an embed: message as description, each field
// inline, the event type in the footer.
func discordEmbedFor(ev Event) discordEmbed {
	embed := discordEmbed{
		Title:       truncateRunes(ev.Title, discordTitleLimit),
		Description: truncateRunes(ev.Message, discordDescriptionLimit),
		Color:       discordColor(ev.Level),
	}
	for i, f := range ev.Fields {
		if i == discordMaxFields {
			break
		}
		value := f.Value
		if value == "" {
			value = "-"
		}
		embed.Fields = append(embed.Fields, discordField{
			Name:   truncateRunes(f.Name, discordFieldNameLimit),
			Value:  truncateRunes(value, discordFieldValueLimit),
			Inline: true,
		})
	}
	if !ev.Time.IsZero() {
		embed.Timestamp = ev.Time.UTC().Format(time.RFC3339)
	}
	if ev.Type != "" {
		embed.Footer = &discordFooter{Text: ev.Type}
	}
	return embed
}

func discordColor(level slog.Level) int {
	switch {
	case level >= slog.LevelError:
		return discordColorError
	case level >= slog.LevelWarn:
		return discordColorWarn
	default:
		return discordColorInfo
	}
}

// Send posts ev to the Discord webhook.
func (d *DiscordSender) Send(ctx context.Context, ev Event) error {
	body, err := json.Marshal(discordPayload{
		Username: d.username,
		Embeds:   []discordEmbed{discordEmbedFor(ev)},
	})
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	// Discord returns 204 No Content on success.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}
