package model

import "time"

// Delta is one incremental fragment of the assistant reply.
type Delta struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// FoodResult is the compact food summary attached to every delta so the UI
// can render rating cards while text is still streaming.
type FoodResult struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Rating           string `json:"rating"`
	SafeForLowFodmap bool   `json:"safeForLowFodmap"`
	Recommendation   string `json:"recommendation"`
}

// DeltaContext correlates a delta with its session and grounding matches.
type DeltaContext struct {
	SessionID   string       `json:"sessionId"`
	FoodResults []FoodResult `json:"foodResults,omitempty"`
}

// ProtocolDelta is one line of the newline-delimited JSON chat stream.
// Exactly one delta per response carries FinishReason "stop", and it is
// always the last line written.
type ProtocolDelta struct {
	Delta        Delta        `json:"delta"`
	Context      DeltaContext `json:"context"`
	FinishReason string       `json:"finishReason,omitempty"`
}

type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionSummary is the /history list entry.
type SessionSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MessageCount int       `json:"messageCount"`
}
