package provider

import (
	"context"
	"strings"
)

// MockProvider serves deployments with no model backend configured and the
// test suite. Replies are deterministic functions of the prompt, and it
// deliberately implements only Generate so the synthetic chunking path gets
// exercised.
type MockProvider struct {
	// Reply overrides the generated text when non-empty.
	Reply string
}

func NewMock() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() string {
	return "mock"
}

func (p *MockProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	if p.Reply != "" {
		return p.Reply, nil
	}

	var lastUser string
	grounded := false
	for _, msg := range messages {
		if msg.Role == RoleUser {
			lastUser = msg.Content
		}
		if msg.Role == RoleSystem && strings.Contains(msg.Content, "FODMAP") {
			grounded = true
		}
	}

	var b strings.Builder
	b.WriteString("Here's what I found for you. ")
	if grounded {
		b.WriteString("Based on the FODMAP ratings above, check the highlighted foods before adding them to your cart. ")
	}
	if lastUser != "" {
		b.WriteString("You asked: " + strings.TrimSpace(lastUser))
	}
	return b.String(), nil
}
