package model

// ChatMessage is one turn of a conversation as sent by the client.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatContext carries per-request correlation data from the client.
type ChatContext struct {
	SessionID string `json:"sessionId"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Context  *ChatContext  `json:"context,omitempty"`
}
