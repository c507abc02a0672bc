package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahakz11/SomeoneSomethingTira/pkg/bus"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/classifier"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/orders"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/summary"
)

const (
	chatGroup     = "1001"
	chatOther     = "2002"
	coordinator   = "42"
	anotherMember = "43"
)

func newTestController(t *testing.T, opts Options) (*Controller, *bus.MessageBus) {
	t.Helper()
	b := bus.NewMessageBus()
	opts.Bus = b
	if opts.Classifier == nil {
		opts.Classifier = classifier.NewKeywordClassifier(nil)
	}
	return NewController(opts), b
}

func inbound(chatID, senderID, text string) bus.InboundMessage {
	return bus.InboundMessage{
		Channel:    "telegram",
		ChatID:     chatID,
		SenderID:   senderID,
		SenderName: "חבר",
		MessageID:  "7",
		Content:    text,
	}
}

// drainOutbound collects everything the controller published.
func drainOutbound(t *testing.T, b *bus.MessageBus) []bus.OutboundMessage {
	t.Helper()
	var out []bus.OutboundMessage
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		msg, ok := b.ConsumeOutbound(ctx)
		cancel()
		if !ok {
			return out
		}
		out = append(out, msg)
	}
}

func handle(t *testing.T, c *Controller, msg bus.InboundMessage) {
	t.Helper()
	require.NoError(t, c.HandleMessage(context.Background(), msg))
}

func TestStartBindsConversationAndCoordinator(t *testing.T) {
	c, b := newTestController(t, Options{})

	handle(t, c, inbound(chatGroup, coordinator, "/start"))

	out := drainOutbound(t, b)
	require.Len(t, out, 1)
	assert.Equal(t, StartPrompt, out[0].Content)
	assert.Equal(t, chatGroup, out[0].ChatID)

	st := c.Status()
	assert.True(t, st.Active)
	assert.True(t, st.ConversationBound)
	assert.True(t, st.CoordinatorBound)
	assert.Zero(t, st.OrderCount)
	assert.NotEmpty(t, st.Generation)
}

func TestStartFromWrongConversationRejected(t *testing.T) {
	c, b := newTestController(t, Options{})
	handle(t, c, inbound(chatGroup, coordinator, "/start"))
	drainOutbound(t, b)

	handle(t, c, inbound(chatOther, "99", "/start"))

	out := drainOutbound(t, b)
	require.Len(t, out, 1)
	assert.Equal(t, NoticeWrongChat, out[0].Content)
	assert.Equal(t, chatOther, out[0].ChatID)

	// Binding unchanged: orders from the original chat still accepted.
	handle(t, c, inbound(chatGroup, anotherMember, "חלב"))
	assert.Equal(t, 1, c.Status().OrderCount)
}

func TestStartReArmsClearingLedgerKeepingBindings(t *testing.T) {
	c, b := newTestController(t, Options{})
	handle(t, c, inbound(chatGroup, coordinator, "/start"))
	handle(t, c, inbound(chatGroup, anotherMember, "חלב"))
	require.Equal(t, 1, c.Status().OrderCount)
	firstGen := c.Status().Generation
	drainOutbound(t, b)

	// A second /start from another member of the bound chat re-arms; the
	// coordinator stays whoever started first.
	handle(t, c, inbound(chatGroup, anotherMember, "/start"))

	st := c.Status()
	assert.True(t, st.Active)
	assert.Zero(t, st.OrderCount, "re-arm must clear the ledger")
	assert.NotEqual(t, firstGen, st.Generation)

	handle(t, c, inbound(chatGroup, anotherMember, "/summary"))
	out := drainOutbound(t, b)
	require.NotEmpty(t, out)
	assert.Equal(t, NoticeNotCoordinator, out[len(out)-1].Content,
		"coordinator binding must not move on re-arm")
}

func TestPreBoundCoordinatorNeverAutoAssigns(t *testing.T) {
	c, b := newTestController(t, Options{CoordinatorID: coordinator, ChatID: chatGroup})

	// Someone else starts the round; they do not become coordinator.
	handle(t, c, inbound(chatGroup, anotherMember, "/start"))
	drainOutbound(t, b)

	handle(t, c, inbound(chatGroup, anotherMember, "/reset"))
	out := drainOutbound(t, b)
	require.Len(t, out, 1)
	assert.Equal(t, NoticeNotCoordinator, out[0].Content)
	assert.True(t, c.Status().Active, "unauthorized reset must not change state")
}

func TestMultiLineFanOut(t *testing.T) {
	c, b := newTestController(t, Options{})
	handle(t, c, inbound(chatGroup, coordinator, "/start"))
	drainOutbound(t, b)

	handle(t, c, inbound(chatGroup, anotherMember, "חלב\nעוף"))

	assert.Equal(t, 2, c.Status().OrderCount)
	out := drainOutbound(t, b)
	require.Len(t, out, 1)
	assert.Equal(t, "מכולת\nבשר", out[0].Content)
	assert.Equal(t, "7", out[0].ReplyToMessageID)
}

func TestSingleLineGetsBareLabel(t *testing.T) {
	c, b := newTestController(t, Options{})
	handle(t, c, inbound(chatGroup, coordinator, "/start"))
	drainOutbound(t, b)

	handle(t, c, inbound(chatGroup, anotherMember, "סלמון"))

	out := drainOutbound(t, b)
	require.Len(t, out, 1)
	assert.Equal(t, "דגים", out[0].Content)
}

func TestCommandLikeLinesNeverClassified(t *testing.T) {
	c, b := newTestController(t, Options{})
	handle(t, c, inbound(chatGroup, coordinator, "/start"))
	drainOutbound(t, b)

	handle(t, c, inbound(chatGroup, anotherMember, "/whoami\nחלב\n\n  \n/help"))

	assert.Equal(t, 1, c.Status().OrderCount)
	out := drainOutbound(t, b)
	require.Len(t, out, 1)
	assert.Equal(t, "מכולת", out[0].Content)
}

func TestPlainTextSilentlyIgnoredOutsideSession(t *testing.T) {
	t.Run("idle", func(t *testing.T) {
		c, b := newTestController(t, Options{})
		handle(t, c, inbound(chatGroup, anotherMember, "חלב"))
		assert.Empty(t, drainOutbound(t, b))
		assert.Zero(t, c.Status().OrderCount)
	})

	t.Run("wrong conversation while collecting", func(t *testing.T) {
		c, b := newTestController(t, Options{})
		handle(t, c, inbound(chatGroup, coordinator, "/start"))
		drainOutbound(t, b)

		handle(t, c, inbound(chatOther, anotherMember, "חלב"))
		assert.Empty(t, drainOutbound(t, b))
		assert.Zero(t, c.Status().OrderCount)
	})

	t.Run("unknown command", func(t *testing.T) {
		c, b := newTestController(t, Options{})
		handle(t, c, inbound(chatGroup, coordinator, "/start"))
		drainOutbound(t, b)

		handle(t, c, inbound(chatGroup, anotherMember, "/whoami"))
		assert.Empty(t, drainOutbound(t, b))
		assert.Zero(t, c.Status().OrderCount)
	})
}

func TestSummaryAuthorization(t *testing.T) {
	c, b := newTestController(t, Options{})
	handle(t, c, inbound(chatGroup, coordinator, "/start"))
	handle(t, c, inbound(chatGroup, anotherMember, "חלב"))
	drainOutbound(t, b)

	t.Run("non-coordinator gets a notice and no data", func(t *testing.T) {
		handle(t, c, inbound(chatGroup, anotherMember, "/summary"))
		out := drainOutbound(t, b)
		require.Len(t, out, 1)
		assert.Equal(t, NoticeNotCoordinator, out[0].Content)
		assert.NotContains(t, out[0].Content, "חלב")
	})

	t.Run("coordinator gets the grouped summary", func(t *testing.T) {
		handle(t, c, inbound(chatGroup, coordinator, "/summary"))
		out := drainOutbound(t, b)
		require.Len(t, out, 1)
		assert.Contains(t, out[0].Content, "מכולת:")
		assert.Contains(t, out[0].Content, "- חבר: חלב")
	})

	t.Run("summary does not change state", func(t *testing.T) {
		st := c.Status()
		assert.True(t, st.Active)
		assert.Equal(t, 1, st.OrderCount)
	})
}

func TestSummaryEmptyLedgerSentinel(t *testing.T) {
	c, b := newTestController(t, Options{})
	handle(t, c, inbound(chatGroup, coordinator, "/start"))
	drainOutbound(t, b)

	handle(t, c, inbound(chatGroup, coordinator, "/summary"))
	out := drainOutbound(t, b)
	require.Len(t, out, 1)
	assert.Equal(t, summary.NoOrders, out[0].Content)
}

func TestSummaryChunkedWhenLong(t *testing.T) {
	c, b := newTestController(t, Options{ChunkSize: 64})
	handle(t, c, inbound(chatGroup, coordinator, "/start"))
	for i := 0; i < 10; i++ {
		handle(t, c, inbound(chatGroup, anotherMember, "חלב בקרטון גדול במיוחד"))
	}
	drainOutbound(t, b)

	handle(t, c, inbound(chatGroup, coordinator, "/summary"))
	out := drainOutbound(t, b)
	require.Greater(t, len(out), 1, "long summary must arrive in several chunks")

	var joined strings.Builder
	for _, msg := range out {
		assert.LessOrEqual(t, len(msg.Content), 64)
		joined.WriteString(msg.Content)
	}
	assert.Contains(t, joined.String(), "מכולת:")
}

func TestResetIdempotentAndCoordinatorOnly(t *testing.T) {
	c, b := newTestController(t, Options{})
	handle(t, c, inbound(chatGroup, coordinator, "/start"))
	handle(t, c, inbound(chatGroup, anotherMember, "עוף"))
	drainOutbound(t, b)

	t.Run("unauthorized reset rejected", func(t *testing.T) {
		handle(t, c, inbound(chatGroup, anotherMember, "/reset"))
		out := drainOutbound(t, b)
		require.Len(t, out, 1)
		assert.Equal(t, NoticeNotCoordinator, out[0].Content)
		assert.True(t, c.Status().Active)
		assert.Equal(t, 1, c.Status().OrderCount)
	})

	t.Run("coordinator reset clears and idles", func(t *testing.T) {
		handle(t, c, inbound(chatGroup, coordinator, "/reset"))
		st := c.Status()
		assert.False(t, st.Active)
		assert.Zero(t, st.OrderCount)
	})

	t.Run("second reset is a clean no-op", func(t *testing.T) {
		handle(t, c, inbound(chatGroup, coordinator, "/reset"))
		st := c.Status()
		assert.False(t, st.Active)
		assert.Zero(t, st.OrderCount)
		out := drainOutbound(t, b)
		require.NotEmpty(t, out)
		assert.Equal(t, NoticeResetDone, out[len(out)-1].Content)
	})
}

// blockingClassifier parks classification until released, to race a reset
// against an in-flight classification.
type blockingClassifier struct {
	entered chan struct{}
	release chan struct{}
}

func (bc *blockingClassifier) Classify(ctx context.Context, line string) orders.Category {
	bc.entered <- struct{}{}
	<-bc.release
	return orders.DefaultCategory
}

func TestOrdersDiscardedWhenSessionRollsDuringClassification(t *testing.T) {
	bc := &blockingClassifier{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c, b := newTestController(t, Options{Classifier: bc})
	handle(t, c, inbound(chatGroup, coordinator, "/start"))
	drainOutbound(t, b)

	done := make(chan struct{})
	go func() {
		_ = c.HandleMessage(context.Background(), inbound(chatGroup, anotherMember, "חלב"))
		close(done)
	}()

	<-bc.entered // classification in flight, lock released
	handle(t, c, inbound(chatGroup, coordinator, "/reset"))
	close(bc.release)
	<-done

	assert.Zero(t, c.Status().OrderCount,
		"orders classified against a rolled session must be discarded")
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text string
		want Command
	}{
		{"/start", CommandStart},
		{"/start@TiraBot", CommandStart},
		{"/summary", CommandSummary},
		{"/reset", CommandReset},
		{"/Start", CommandUnknown}, // case-sensitive
		{"/whoami", CommandUnknown},
		{"חלב", CommandNone},
		{"", CommandNone},
		{" /start", CommandNone}, // prefix must be at string start
	}
	for _, tt := range tests {
		if got := ParseCommand(tt.text); got != tt.want {
			t.Errorf("ParseCommand(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
