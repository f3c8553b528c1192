package generator

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Provider abstracts the external LLM completion API. Implementations must be
// treated as fallible and slow; callers apply timeout and retry.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OpenAIProvider implements Provider using the OpenAI chat completions API
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates a provider for the given API key and model
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Complete sends a chat completion request and returns the response text
func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
