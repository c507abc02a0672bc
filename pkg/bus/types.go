package bus

import "context"

// InboundMessage is a normalized inbound event: the core is agnostic to the
// wire format the channel decoded it from.
type InboundMessage struct {
	Channel    string `json:"channel"`
	ChatID     string `json:"chat_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	MessageID  string `json:"message_id"`
	Content    string `json:"content"`
}

// OutboundMessage is text to be delivered by a channel. ReplyToMessageID is
// optional; channels that cannot thread replies ignore it.
type OutboundMessage struct {
	Channel          string `json:"channel"`
	ChatID           string `json:"chat_id"`
	Content          string `json:"content"`
	ReplyToMessageID string `json:"reply_to_message_id,omitempty"`
}

// MessageHandler processes one inbound message. Handlers may run
// concurrently; shared state behind a handler must be synchronized.
type MessageHandler func(ctx context.Context, msg InboundMessage) error
