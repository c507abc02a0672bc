// Package session implements the ordering session state machine: who may
// start and stop a round, which conversation may submit orders, and how
// ordinary text becomes ledger records.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/shahakz11/SomeoneSomethingTira/pkg/bus"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/classifier"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/logger"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/orders"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/summary"
)

// User-visible notices. Plain text, conversation register, no internals.
const (
	StartPrompt          = "מישהו משהו מטירה?"
	NoticeWrongChat      = "הבוט כבר משויך לשיחה אחרת."
	NoticeNotCoordinator = "רק רכז ההזמנות יכול לבצע את הפעולה הזו."
	NoticeResetDone      = "הסבב אופס. אפשר לפתוח סבב חדש עם /start."
)

// Options configures a Controller. ChatID and CoordinatorID pre-bind the
// conversation and coordinator; when empty, /start binds them (opt-in
// convenience for development — production should set both).
type Options struct {
	Bus           *bus.MessageBus
	Classifier    classifier.Classifier
	ChatID        string
	CoordinatorID string
	ChunkSize     int
}

// Status is the observational snapshot exposed by the liveness endpoint.
type Status struct {
	Active            bool   `json:"active"`
	ConversationBound bool   `json:"conversation_bound"`
	CoordinatorBound  bool   `json:"coordinator_bound"`
	OrderCount        int    `json:"order_count"`
	Generation        string `json:"generation,omitempty"`
}

// Controller is the single process-wide session state machine. One mutex
// guards the session flags and the ledger together; only classification
// (the potentially slow delegated path) runs outside it.
type Controller struct {
	bus        *bus.MessageBus
	classifier classifier.Classifier
	chunkSize  int

	mu            sync.Mutex
	active        bool
	chatID        string
	coordinatorID string
	generation    string
	ledger        *orders.Ledger
}

// NewController creates the controller and registers nothing: callers wire
// it into the bus with RegisterHandler per channel name.
func NewController(opts Options) *Controller {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = summary.DefaultChunkSize
	}
	return &Controller{
		bus:           opts.Bus,
		classifier:    opts.Classifier,
		chunkSize:     chunkSize,
		chatID:        opts.ChatID,
		coordinatorID: opts.CoordinatorID,
		ledger:        orders.NewLedger(),
	}
}

// Status returns an observational snapshot. No mutation.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Active:            c.active,
		ConversationBound: c.chatID != "",
		CoordinatorBound:  c.coordinatorID != "",
		OrderCount:        c.ledger.Len(),
		Generation:        c.generation,
	}
}

// HandleMessage is the bus handler: one inbound event in, zero or more
// outbound messages published. Never returns an error for user mistakes;
// those become notices in the conversation.
func (c *Controller) HandleMessage(ctx context.Context, msg bus.InboundMessage) error {
	switch ParseCommand(msg.Content) {
	case CommandStart:
		c.handleStart(msg)
	case CommandSummary:
		c.handleSummary(msg)
	case CommandReset:
		c.handleReset(msg)
	case CommandUnknown:
		// Command-like but unrecognized: ignored, never classified.
	case CommandNone:
		c.handleOrders(ctx, msg)
	}
	return nil
}

func (c *Controller) handleStart(msg bus.InboundMessage) {
	c.mu.Lock()
	if c.chatID != "" && c.chatID != msg.ChatID {
		c.mu.Unlock()
		c.reply(msg, NoticeWrongChat)
		return
	}
	if c.chatID == "" {
		c.chatID = msg.ChatID
	}
	if c.coordinatorID == "" {
		c.coordinatorID = msg.SenderID
		logger.InfoCF("session", "Coordinator auto-bound on /start", map[string]interface{}{
			"coordinator": msg.SenderID,
		})
	}
	c.active = true
	c.ledger.Clear()
	c.generation = uuid.NewString()
	generation := c.generation
	c.mu.Unlock()

	logger.InfoCF("session", "Session started", map[string]interface{}{
		"chat":       msg.ChatID,
		"generation": generation,
	})
	c.send(msg.Channel, msg.ChatID, StartPrompt)
}

func (c *Controller) handleSummary(msg bus.InboundMessage) {
	c.mu.Lock()
	if c.coordinatorID == "" || msg.SenderID != c.coordinatorID {
		c.mu.Unlock()
		c.reply(msg, NoticeNotCoordinator)
		return
	}
	groups := c.ledger.GroupByCategory()
	c.mu.Unlock()

	text := summary.Build(groups)
	for _, chunk := range summary.Chunk(text, c.chunkSize) {
		c.send(msg.Channel, msg.ChatID, chunk)
	}
}

func (c *Controller) handleReset(msg bus.InboundMessage) {
	c.mu.Lock()
	if c.coordinatorID == "" || msg.SenderID != c.coordinatorID {
		c.mu.Unlock()
		c.reply(msg, NoticeNotCoordinator)
		return
	}
	c.ledger.Clear()
	c.active = false
	c.generation = ""
	c.mu.Unlock()

	logger.InfoCF("session", "Session reset", map[string]interface{}{
		"chat": msg.ChatID,
	})
	c.reply(msg, NoticeResetDone)
}

// handleOrders turns ordinary text into ledger records. The active/binding
// check and the append run under the lock; classification runs between them,
// outside, and the append is discarded if the session generation changed
// underneath it (a /start or /reset raced the classification).
func (c *Controller) handleOrders(ctx context.Context, msg bus.InboundMessage) {
	c.mu.Lock()
	if !c.active || c.chatID != msg.ChatID {
		c.mu.Unlock()
		return // silent ignore, plain text outside an active bound session
	}
	generation := c.generation
	c.mu.Unlock()

	lines := orderLines(msg.Content)
	if len(lines) == 0 {
		return
	}

	categories := make([]orders.Category, len(lines))
	for i, line := range lines {
		categories[i] = c.classifier.Classify(ctx, line)
	}

	c.mu.Lock()
	if !c.active || c.generation != generation {
		c.mu.Unlock()
		logger.WarnCF("session", "Discarding orders, session rolled during classification", map[string]interface{}{
			"chat":  msg.ChatID,
			"lines": len(lines),
		})
		return
	}
	for i, line := range lines {
		c.ledger.Append(orders.OrderRecord{
			SenderID:   msg.SenderID,
			SenderName: msg.SenderName,
			Text:       line,
			Category:   categories[i],
			MessageID:  msg.MessageID,
		})
	}
	c.mu.Unlock()

	labels := make([]string, len(categories))
	for i, cat := range categories {
		labels[i] = cat.String()
	}
	c.reply(msg, strings.Join(labels, "\n"))
}

// orderLines splits text into trimmed non-empty lines, dropping
// command-like lines entirely.
func orderLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isCommandLine(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func (c *Controller) reply(msg bus.InboundMessage, text string) {
	c.bus.PublishOutbound(bus.OutboundMessage{
		Channel:          msg.Channel,
		ChatID:           msg.ChatID,
		Content:          text,
		ReplyToMessageID: msg.MessageID,
	})
}

func (c *Controller) send(channel, chatID, text string) {
	c.bus.PublishOutbound(bus.OutboundMessage{
		Channel: channel,
		ChatID:  chatID,
		Content: text,
	})
}
