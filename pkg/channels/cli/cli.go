// Package cli is a local development channel: stdin lines become inbound
// messages for a synthetic conversation and outbound text is printed back.
// Lets the session flow be exercised without Telegram credentials.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/chzyer/readline"

	"github.com/shahakz11/SomeoneSomethingTira/pkg/bus"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/logger"
)

// ChannelName is the bus channel identifier for the local console.
const ChannelName = "cli"

// Synthetic identities for the local conversation.
const (
	ChatID     = "cli:local"
	SenderID   = "cli-user"
	SenderName = "מקומי"
)

// Channel reads order lines from the terminal.
type Channel struct {
	bus *bus.MessageBus
}

// NewChannel creates the console channel.
func NewChannel(b *bus.MessageBus) *Channel {
	return &Channel{bus: b}
}

// Run reads lines until EOF, interrupt, or ctx cancellation. Each line is
// published as one inbound message.
func (c *Channel) Run(ctx context.Context) error {
	rl, err := readline.New("tira> ")
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()
	logger.InfoC(ChannelName, "Console channel ready, type /start to open a round")

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	seq := 0
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		seq++
		c.bus.PublishInbound(bus.InboundMessage{
			Channel:    ChannelName,
			ChatID:     ChatID,
			SenderID:   SenderID,
			SenderName: SenderName,
			MessageID:  strconv.Itoa(seq),
			Content:    line,
		})
	}
}

// RunOutbound prints outbound messages addressed to this channel.
func (c *Channel) RunOutbound(ctx context.Context) {
	for {
		msg, ok := c.bus.ConsumeOutbound(ctx)
		if !ok {
			return
		}
		if msg.Channel != ChannelName {
			continue
		}
		fmt.Println(msg.Content)
	}
}
