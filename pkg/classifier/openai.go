package classifier

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiLabeler asks the OpenAI chat completions API for a single label.
type openaiLabeler struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAIClassifier creates the OpenAI-delegated strategy. An empty model
// selects gpt-4o-mini.
func NewOpenAIClassifier(apiKey, model string, fallback *KeywordClassifier) *DelegatedClassifier {
	m := openai.ChatModelGPT4oMini
	if model != "" {
		m = openai.ChatModel(model)
	}
	return &DelegatedClassifier{
		provider: "openai",
		labeler: &openaiLabeler{
			client: openai.NewClient(option.WithAPIKey(apiKey)),
			model:  m,
		},
		fallback: fallback,
		timeout:  requestTimeout,
	}
}

func (o *openaiLabeler) label(ctx context.Context, line string) (string, error) {
	system, userPrefix := classificationPrompt()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(userPrefix + line),
		},
		MaxTokens: openai.Int(20),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
