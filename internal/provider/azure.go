package provider

import (
	"context"
	"fmt"
	"io"

	"fodmate-backend/internal/config"

	openai "github.com/sashabaranov/go-openai"
)

// AzureProvider talks to an Azure OpenAI deployment through the go-openai
// client.
type AzureProvider struct {
	client     *openai.Client
	deployment string
}

func NewAzure(cfg *config.AzureConfig) *AzureProvider {
	clientConfig := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)

	return &AzureProvider{
		client:     openai.NewClientWithConfig(clientConfig),
		deployment: cfg.Deployment,
	}
}

func (p *AzureProvider) Name() string {
	return "azure"
}

func (p *AzureProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.deployment,
		Messages: convertMessages(messages),
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	return resp.Choices[0].Message.Content, nil
}

func (p *AzureProvider) Stream(ctx context.Context, messages []Message) (<-chan Chunk, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    p.deployment,
		Messages: convertMessages(messages),
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}

	out := make(chan Chunk, 16)

	go func() {
		defer close(out)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if err != nil {
				if err != io.EOF {
					out <- Chunk{Err: err}
				}
				return
			}

			if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
				out <- Chunk{Content: resp.Choices[0].Delta.Content}
			}
		}
	}()

	return out, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		// Empty assistant turns can make the completion API reject the
		// whole request, skip them.
		if msg.Content == "" && msg.Role == RoleAssistant {
			continue
		}
		result = append(result, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return result
}
