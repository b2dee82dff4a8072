package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fodmate-backend/internal/config"
)

const (
	defaultOllamaURL   = "http://127.0.0.1:11434"
	defaultOllamaModel = "llama3.1:8b"
)

// OllamaProvider talks to a local Ollama runtime over its /api/chat endpoint.
// Streaming responses arrive as newline-delimited JSON objects, one message
// fragment per line, terminated by an object with done=true.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOllama(cfg *config.OllamaConfig) *OllamaProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

func (p *OllamaProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	resp, err := p.send(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama: %s", result.Error)
	}

	return result.Message.Content, nil
}

func (p *OllamaProvider) Stream(ctx context.Context, messages []Message) (<-chan Chunk, error) {
	resp, err := p.send(ctx, messages, true)
	if err != nil {
		return nil, err
	}

	out := make(chan Chunk, 16)

	go func() {
		defer close(out)
		defer resp.Body.Close()

		decoder := json.NewDecoder(resp.Body)
		for {
			var chunk ollamaChatResponse
			if err := decoder.Decode(&chunk); err != nil {
				out <- Chunk{Err: fmt.Errorf("failed to decode ollama stream: %w", err)}
				return
			}
			if chunk.Error != "" {
				out <- Chunk{Err: fmt.Errorf("ollama: %s", chunk.Error)}
				return
			}
			if chunk.Message.Content != "" {
				out <- Chunk{Content: chunk.Message.Content}
			}
			if chunk.Done {
				return
			}
		}
	}()

	return out, nil
}

func (p *OllamaProvider) send(ctx context.Context, messages []Message, stream bool) (*http.Response, error) {
	reqBody := ollamaChatRequest{
		Model:  p.model,
		Stream: stream,
	}
	for _, msg := range messages {
		reqBody.Messages = append(reqBody.Messages, ollamaMessage(msg))
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status from ollama: %s", resp.Status)
	}

	return resp, nil
}
