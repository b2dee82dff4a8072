package service

import (
	"context"
	"strings"
	"time"

	"fodmate-backend/internal/provider"
	"fodmate-backend/pkg/logger"
)

const maxTitleLen = 32

const defaultTitlePrompt = "Write a very short title (four words or fewer, no quotes) for a grocery chat that starts with the following question."

// deriveTitle asks the model for a short session title and attaches it to the
// session metadata. It runs off the request path on its own deadline; a
// failure just leaves the session untitled.
func (s *ChatService) deriveTitle(sessionID, utterance string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	prompt := s.cfg.Agent.TitlePrompt
	if prompt == "" {
		prompt = defaultTitlePrompt
	}

	title, err := s.provider.Generate(ctx, []provider.Message{
		{Role: provider.RoleSystem, Content: prompt},
		{Role: provider.RoleUser, Content: utterance},
	})
	if err != nil {
		logger.Warnf("Title generation failed for session %s: %v", sessionID, err)
		return
	}

	title = sanitizeTitle(title)
	if title == "" {
		return
	}

	session, err := s.storage.GetSession(sessionID)
	if err != nil {
		logger.Warnf("Failed to load session %s for title update: %v", sessionID, err)
		return
	}
	if session.Title != "" {
		return
	}

	session.Title = title
	session.UpdatedAt = time.Now()
	if err := s.storage.UpdateSession(session); err != nil {
		logger.Warnf("Failed to store title for session %s: %v", sessionID, err)
	}
}

// sanitizeTitle strips quote characters and caps the length the UI expects.
func sanitizeTitle(title string) string {
	title = strings.NewReplacer(`"`, "", "'", "", "`", "").Replace(title)
	title = strings.TrimSpace(title)

	runes := []rune(title)
	if len(runes) > maxTitleLen {
		title = strings.TrimSpace(string(runes[:maxTitleLen]))
	}
	return title
}
