package provider

import (
	"context"

	"fodmate-backend/internal/config"
	"fodmate-backend/pkg/logger"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prompt turn, kept provider-neutral so the orchestrator does
// not depend on any vendor SDK types.
type Message struct {
	Role    string
	Content string
}

// Chunk is one fragment of a natively streamed reply.
type Chunk struct {
	Content string
	Err     error
}

// Provider is the minimal generative-model capability: messages in, full
// reply text out.
type Provider interface {
	Name() string
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Streamer is the optional incremental capability. Providers that implement
// it have their fragments forwarded as received; for the rest the reply is
// re-chunked synthetically (see SplitTokens).
type Streamer interface {
	Stream(ctx context.Context, messages []Message) (<-chan Chunk, error)
}

// New selects the model backend. An explicit llm.provider key wins; with no
// key the backend is detected from what is configured. A missing Azure
// endpoint is a supported deployment mode, not an error — it just means the
// local or mock backend serves the traffic.
func New(cfg *config.LLMConfig) Provider {
	switch cfg.Provider {
	case "azure":
		return NewAzure(&cfg.Azure)
	case "ollama":
		return NewOllama(&cfg.Ollama)
	case "mock":
		return NewMock()
	}

	if cfg.Azure.Endpoint != "" && cfg.Azure.APIKey != "" {
		return NewAzure(&cfg.Azure)
	}
	if cfg.Ollama.BaseURL != "" {
		return NewOllama(&cfg.Ollama)
	}

	logger.Warn("No model backend configured, falling back to mock provider")
	return NewMock()
}
