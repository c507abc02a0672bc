// Package telegram is the Telegram dispatch gateway: it decodes inbound
// updates (webhook or long polling) into normalized bus messages and
// delivers outbound text with chunking. The session core never sees a
// Telegram type.
package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"

	"github.com/shahakz11/SomeoneSomethingTira/pkg/bus"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/logger"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/summary"
)

// ChannelName is the bus channel identifier for Telegram traffic.
const ChannelName = "telegram"

// Channel owns the Telegram bot connection.
type Channel struct {
	bot       *telego.Bot
	bus       *bus.MessageBus
	chunkSize int
}

// NewChannel creates the channel. The token is validated for shape only; no
// network call happens here.
func NewChannel(token string, b *bus.MessageBus, chunkSize int) (*Channel, error) {
	bot, err := telego.NewBot(token, telego.WithDiscardLogger())
	if err != nil {
		return nil, err
	}
	if chunkSize <= 0 {
		chunkSize = summary.DefaultChunkSize
	}
	return &Channel{bot: bot, bus: b, chunkSize: chunkSize}, nil
}

// SetWebhook registers url with Telegram, replacing any long-poll delivery.
func (c *Channel) SetWebhook(ctx context.Context, url string) error {
	return c.bot.SetWebhook(ctx, &telego.SetWebhookParams{URL: url})
}

// DeleteWebhook removes the webhook registration (used before long polling).
func (c *Channel) DeleteWebhook(ctx context.Context) error {
	return c.bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{})
}

// WebhookHandler returns the HTTP handler for Telegram webhook posts.
// Malformed bodies are acknowledged with 200 and dropped — Telegram retries
// failed acknowledgements forever, and a broken update will never parse
// better the second time.
func (c *Channel) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var update telego.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			logger.WarnCF(ChannelName, "Malformed webhook body ignored", map[string]interface{}{
				"error": err.Error(),
			})
			w.WriteHeader(http.StatusOK)
			return
		}
		if msg, ok := toInbound(update); ok {
			c.bus.PublishInbound(msg)
		}
		w.WriteHeader(http.StatusOK)
	}
}

// RunLongPolling consumes updates via getUpdates until ctx is cancelled.
// Used when no public webhook URL is configured.
func (c *Channel) RunLongPolling(ctx context.Context) error {
	if err := c.DeleteWebhook(ctx); err != nil {
		logger.WarnCF(ChannelName, "DeleteWebhook before polling failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	updates, err := c.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return err
	}
	logger.InfoC(ChannelName, "Long polling started")
	for update := range updates {
		if msg, ok := toInbound(update); ok {
			c.bus.PublishInbound(msg)
		}
	}
	return nil
}

// RunOutbound consumes outbound messages addressed to this channel and
// delivers them, chunked to the transport ceiling. Delivery failures are
// logged and never retried; state already mutated stays mutated.
func (c *Channel) RunOutbound(ctx context.Context) {
	for {
		msg, ok := c.bus.ConsumeOutbound(ctx)
		if !ok {
			return
		}
		if msg.Channel != ChannelName {
			continue
		}
		c.deliver(ctx, msg)
	}
}

func (c *Channel) deliver(ctx context.Context, msg bus.OutboundMessage) {
	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		logger.ErrorCF(ChannelName, "Outbound message with non-numeric chat id dropped", map[string]interface{}{
			"chat_id": msg.ChatID,
		})
		return
	}
	chunks := summary.Chunk(msg.Content, c.chunkSize)
	for i, chunk := range chunks {
		params := &telego.SendMessageParams{
			ChatID: telego.ChatID{ID: chatID},
			Text:   chunk,
		}
		// Thread only the first chunk under the triggering message.
		if i == 0 && msg.ReplyToMessageID != "" {
			if replyTo, err := strconv.Atoi(msg.ReplyToMessageID); err == nil {
				params.ReplyParameters = &telego.ReplyParameters{MessageID: replyTo}
			}
		}
		if _, err := c.bot.SendMessage(ctx, params); err != nil {
			logger.ErrorCF(ChannelName, "Send failed", map[string]interface{}{
				"chat_id": msg.ChatID,
				"chunk":   i,
				"error":   err.Error(),
			})
		}
	}
}

// toInbound normalizes a Telegram update. Updates without a text message
// (edits, stickers, joins) are dropped.
func toInbound(update telego.Update) (bus.InboundMessage, bool) {
	m := update.Message
	if m == nil || m.Text == "" || m.From == nil {
		return bus.InboundMessage{}, false
	}
	return bus.InboundMessage{
		Channel:    ChannelName,
		ChatID:     strconv.FormatInt(m.Chat.ID, 10),
		SenderID:   strconv.FormatInt(m.From.ID, 10),
		SenderName: displayName(m.From),
		MessageID:  strconv.Itoa(m.MessageID),
		Content:    m.Text,
	}, true
}

func displayName(u *telego.User) string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return strconv.FormatInt(u.ID, 10)
}
