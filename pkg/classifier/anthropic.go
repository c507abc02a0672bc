package classifier

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicLabeler asks the Anthropic messages API for a single label.
type anthropicLabeler struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicClassifier creates the Anthropic-delegated strategy. An empty
// model selects the latest Haiku, the smallest model that handles a
// constrained-vocabulary pick.
func NewAnthropicClassifier(apiKey, model string, fallback *KeywordClassifier) *DelegatedClassifier {
	m := anthropic.ModelClaude3_5HaikuLatest
	if model != "" {
		m = anthropic.Model(model)
	}
	return &DelegatedClassifier{
		provider: "anthropic",
		labeler: &anthropicLabeler{
			client: anthropic.NewClient(option.WithAPIKey(apiKey)),
			model:  m,
		},
		fallback: fallback,
		timeout:  requestTimeout,
	}
}

func (a *anthropicLabeler) label(ctx context.Context, line string) (string, error) {
	system, userPrefix := classificationPrompt()
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 20,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrefix + line)),
		},
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
