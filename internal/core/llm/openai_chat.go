package llm

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Abdelbosspie/smartifyai-server/internal/core"
	"github.com/Abdelbosspie/smartifyai-server/internal/models"
)

type OpenAIChat struct {
	client       *openai.Client
	defaultModel string
}

func NewOpenAIChat(apiKey, defaultModel string) (*OpenAIChat, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if defaultModel == "" {
		defaultModel = openai.GPT4oMini
	}
	return &OpenAIChat{client: openai.NewClient(apiKey), defaultModel: defaultModel}, nil
}

// Complete sends the assembled message list to the chat-completion
// endpoint. The agent's model string is passed through; an empty model
// falls back to the configured default.
func (o *OpenAIChat) Complete(ctx context.Context, model string, messages []models.Message) (string, error) {
	if model == "" {
		model = o.defaultModel
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

var _ core.ChatProvider = (*OpenAIChat)(nil)
