// Package bus decouples channels (Telegram, CLI) from the session core.
// Channels publish inbound messages and consume outbound ones; the core
// registers a handler per channel name and replies through the outbound side.
package bus

import (
	"context"
	"sync"

	"github.com/shahakz11/SomeoneSomethingTira/pkg/logger"
)

type MessageBus struct {
	inbound   chan InboundMessage
	outbound  chan OutboundMessage
	handlers  map[string]MessageHandler
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:  make(chan InboundMessage, 100),
		outbound: make(chan OutboundMessage, 100),
		handlers: make(map[string]MessageHandler),
	}
}

func (mb *MessageBus) PublishInbound(msg InboundMessage) {
	mb.mu.RLock()
	if mb.closed {
		mb.mu.RUnlock()
		return
	}
	mb.mu.RUnlock()

	select {
	case mb.inbound <- msg:
	default:
		// Channel full — drop oldest and retry
		select {
		case <-mb.inbound:
		default:
		}
		select {
		case mb.inbound <- msg:
		default:
		}
	}
}

func (mb *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case msg, ok := <-mb.inbound:
		return msg, ok
	case <-ctx.Done():
		return InboundMessage{}, false
	}
}

func (mb *MessageBus) PublishOutbound(msg OutboundMessage) {
	mb.mu.RLock()
	if mb.closed {
		mb.mu.RUnlock()
		return
	}
	mb.mu.RUnlock()

	select {
	case mb.outbound <- msg:
	default:
		// Channel full — drop oldest and retry
		select {
		case <-mb.outbound:
		default:
		}
		select {
		case mb.outbound <- msg:
		default:
		}
	}
}

func (mb *MessageBus) ConsumeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case msg, ok := <-mb.outbound:
		return msg, ok
	case <-ctx.Done():
		return OutboundMessage{}, false
	}
}

func (mb *MessageBus) RegisterHandler(channel string, handler MessageHandler) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.handlers[channel] = handler
}

func (mb *MessageBus) GetHandler(channel string) (MessageHandler, bool) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	handler, ok := mb.handlers[channel]
	return handler, ok
}

// Dispatch consumes inbound messages and runs the registered handler for
// each, one goroutine per message. Handlers own their synchronization.
// Blocks until ctx is cancelled.
func (mb *MessageBus) Dispatch(ctx context.Context) {
	for {
		msg, ok := mb.ConsumeInbound(ctx)
		if !ok {
			return
		}
		handler, ok := mb.GetHandler(msg.Channel)
		if !ok {
			logger.WarnCF("bus", "No handler registered for channel", map[string]interface{}{
				"channel": msg.Channel,
			})
			continue
		}
		go func(m InboundMessage) {
			if err := handler(ctx, m); err != nil {
				logger.ErrorCF("bus", "Handler error", map[string]interface{}{
					"channel": m.Channel,
					"error":   err.Error(),
				})
			}
		}(msg)
	}
}

func (mb *MessageBus) Close() {
	mb.closeOnce.Do(func() {
		mb.mu.Lock()
		mb.closed = true
		mb.mu.Unlock()
		close(mb.inbound)
		close(mb.outbound)
	})
}
