package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fodmate-backend/internal/catalog"
	"fodmate-backend/internal/config"
	"fodmate-backend/internal/model"
	"fodmate-backend/internal/provider"
	"fodmate-backend/internal/storage"
	"fodmate-backend/pkg/logger"

	"github.com/google/uuid"
)

// maxFoodResults bounds the structured side channel carried on every delta.
const maxFoodResults = 3

// ChatService orchestrates one chat turn: validate, resolve the session,
// build grounding context, invoke the model and stream the reply as ordered
// protocol deltas.
type ChatService struct {
	storage   storage.Storage
	provider  provider.Provider
	assembler *ContextAssembler
	cfg       *config.Config
}

func NewChatService(cfg *config.Config, cat *catalog.Store, store storage.Storage, p provider.Provider) *ChatService {
	s := &ChatService{
		storage:   store,
		provider:  p,
		assembler: NewContextAssembler(cat),
		cfg:       cfg,
	}

	if cfg.Session.CleanupInterval > 0 && cfg.Session.TTL > 0 {
		go s.cleanupOldSessions()
	}

	return s
}

// StreamChat validates the request and starts the generation pipeline. A
// non-nil error return is a client error; failures after that surface on the
// error channel and map to 503 until the first delta is flushed.
func (s *ChatService) StreamChat(ctx context.Context, req model.ChatRequest) (string, <-chan model.ProtocolDelta, <-chan error, error) {
	if len(req.Messages) == 0 {
		return "", nil, nil, ErrNoMessages
	}
	last := req.Messages[len(req.Messages)-1]
	if strings.TrimSpace(last.Content) == "" {
		return "", nil, nil, ErrEmptyMessage
	}

	sessionID := ""
	if req.Context != nil {
		sessionID = req.Context.SessionID
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	deltaChan := make(chan model.ProtocolDelta, 64)
	errChan := make(chan error, 1)

	go s.run(ctx, sessionID, req, last.Content, deltaChan, errChan)

	return sessionID, deltaChan, errChan, nil
}

func (s *ChatService) run(ctx context.Context, sessionID string, req model.ChatRequest, utterance string, deltaChan chan<- model.ProtocolDelta, errChan chan<- error) {
	defer close(deltaChan)
	defer close(errChan)

	session := s.ensureSession(sessionID)
	s.appendMessage(sessionID, provider.RoleUser, utterance)

	promptBlock, matches := s.assembler.BuildContext(utterance)
	foodResults := summarize(matches)

	messages := s.buildPrompt(promptBlock, req.Messages)

	emit := func(content string) bool {
		select {
		case deltaChan <- model.ProtocolDelta{
			Delta:   model.Delta{Content: content, Role: provider.RoleAssistant},
			Context: model.DeltaContext{SessionID: sessionID, FoodResults: foodResults},
		}:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var reply string
	var err error
	if streamer, ok := s.provider.(provider.Streamer); ok {
		reply, err = s.streamNative(ctx, streamer, messages, emit)
	} else {
		reply, err = s.streamSynthetic(ctx, messages, emit)
	}
	if err != nil {
		logger.Errorf("Generation failed for session %s: %v", sessionID, err)
		errChan <- err
		return
	}

	// Terminal delta: exactly one per stream, always last.
	select {
	case deltaChan <- model.ProtocolDelta{
		Delta:        model.Delta{Role: provider.RoleAssistant},
		Context:      model.DeltaContext{SessionID: sessionID, FoodResults: foodResults},
		FinishReason: "stop",
	}:
	case <-ctx.Done():
	}

	s.appendMessage(sessionID, provider.RoleAssistant, reply)

	if session != nil && session.Title == "" {
		// Best effort, never blocks the reply stream.
		go s.deriveTitle(sessionID, utterance)
	}
}

// streamNative forwards provider fragments in arrival order.
func (s *ChatService) streamNative(ctx context.Context, streamer provider.Streamer, messages []provider.Message, emit func(string) bool) (string, error) {
	chunks, err := streamer.Stream(ctx, messages)
	if err != nil {
		return "", err
	}

	var full strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			return "", chunk.Err
		}
		full.WriteString(chunk.Content)
		if !emit(chunk.Content) {
			return full.String(), nil
		}
	}

	return full.String(), nil
}

// streamSynthetic takes a single-shot reply and re-chunks it on whitespace
// boundaries, pacing deltas so the client sees typing-speed output. The
// pacing is cosmetic; concatenating the deltas always reproduces the reply
// exactly.
func (s *ChatService) streamSynthetic(ctx context.Context, messages []provider.Message, emit func(string) bool) (string, error) {
	reply, err := s.provider.Generate(ctx, messages)
	if err != nil {
		return "", err
	}

	delay := s.cfg.Agent.StreamDelay
	for i, token := range provider.SplitTokens(reply) {
		if !emit(token) {
			return reply, nil
		}
		if delay > 0 && i%2 == 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return reply, nil
			}
		}
	}

	return reply, nil
}

// buildPrompt prepends the grounding block to the base system prompt (never
// replacing it) and appends the bounded conversation tail.
func (s *ChatService) buildPrompt(promptBlock string, history []model.ChatMessage) []provider.Message {
	system := s.cfg.Agent.SystemPrompt
	if promptBlock != "" {
		system = promptBlock + "\n\n" + system
	}

	if max := s.cfg.Agent.MaxHistoryMessages; max > 0 && len(history) > max {
		history = history[len(history)-max:]
	}

	messages := make([]provider.Message, 0, len(history)+1)
	messages = append(messages, provider.Message{Role: provider.RoleSystem, Content: system})
	for _, msg := range history {
		messages = append(messages, provider.Message{Role: msg.Role, Content: msg.Content})
	}

	return messages
}

// ensureSession returns the stored session, creating an untitled one when the
// id is new. Storage failures are logged, not fatal: history is a side
// effect, the reply stream still runs.
func (s *ChatService) ensureSession(sessionID string) *model.Session {
	session, err := s.storage.GetSession(sessionID)
	if err == nil {
		return session
	}
	if err != storage.ErrSessionNotFound {
		logger.Errorf("Failed to load session %s: %v", sessionID, err)
		return nil
	}

	session = &model.Session{
		ID:        sessionID,
		Messages:  make([]model.Message, 0),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.storage.CreateSession(session); err != nil {
		logger.Errorf("Failed to create session %s: %v", sessionID, err)
		return nil
	}
	return session
}

func (s *ChatService) appendMessage(sessionID, role, content string) {
	message := &model.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	if err := s.storage.AddMessage(sessionID, message); err != nil {
		logger.Errorf("Failed to persist %s message for session %s: %v", role, sessionID, err)
	}
}

func summarize(matches []catalog.RatingResult) []model.FoodResult {
	if len(matches) > maxFoodResults {
		matches = matches[:maxFoodResults]
	}
	results := make([]model.FoodResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, model.FoodResult{
			ID:               m.Food.ID,
			Name:             m.Food.Name,
			Rating:           m.Verdict,
			SafeForLowFodmap: m.SafeForLowFodmap,
			Recommendation:   m.Recommendation,
		})
	}
	return results
}

func (s *ChatService) GetSessions() ([]model.SessionSummary, error) {
	sessions, err := s.storage.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	summaries := make([]model.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, model.SessionSummary{
			ID:           session.ID,
			Title:        session.Title,
			UpdatedAt:    session.UpdatedAt,
			MessageCount: len(session.Messages),
		})
	}
	return summaries, nil
}

func (s *ChatService) GetSessionMessages(sessionID string) ([]model.Message, error) {
	messages, err := s.storage.GetMessages(sessionID)
	if err != nil {
		return nil, err
	}

	result := make([]model.Message, len(messages))
	for i, msg := range messages {
		result[i] = *msg
	}
	return result, nil
}

func (s *ChatService) DeleteSession(sessionID string) error {
	return s.storage.DeleteSession(sessionID)
}

func (s *ChatService) cleanupOldSessions() {
	ticker := time.NewTicker(s.cfg.Session.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		sessions, err := s.storage.ListSessions()
		if err != nil {
			logger.Errorf("Failed to list sessions for cleanup: %v", err)
			continue
		}

		cutoff := time.Now().Add(-s.cfg.Session.TTL)
		for _, session := range sessions {
			if session.UpdatedAt.Before(cutoff) {
				if err := s.storage.DeleteSession(session.ID); err != nil {
					logger.Errorf("Failed to delete expired session %s: %v", session.ID, err)
				} else {
					logger.Infof("Cleaned up expired session: %s", session.ID)
				}
			}
		}
	}
}
