package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fodmate-backend/internal/catalog"
	"fodmate-backend/internal/config"
	"fodmate-backend/internal/model"
	"fodmate-backend/internal/provider"
	"fodmate-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Agent: config.AgentConfig{
			SystemPrompt:       "You are a grocery assistant.",
			MaxHistoryMessages: 20,
		},
	}
}

func newTestService(p provider.Provider) (*ChatService, storage.Storage) {
	store := storage.NewMemoryStorage()
	svc := NewChatService(testConfig(), testCatalog(), store, p)
	return svc, store
}

// collect drains the stream and returns all deltas plus the first error.
func collect(t *testing.T, deltas <-chan model.ProtocolDelta, errs <-chan error) ([]model.ProtocolDelta, error) {
	t.Helper()

	var out []model.ProtocolDelta
	for d := range deltas {
		out = append(out, d)
	}
	return out, <-errs
}

func userRequest(content, sessionID string) model.ChatRequest {
	req := model.ChatRequest{
		Messages: []model.ChatMessage{{Role: "user", Content: content}},
	}
	if sessionID != "" {
		req.Context = &model.ChatContext{SessionID: sessionID}
	}
	return req
}

type fakeStreamer struct {
	chunks []string
}

func (f *fakeStreamer) Name() string { return "fake" }

func (f *fakeStreamer) Generate(ctx context.Context, messages []provider.Message) (string, error) {
	return strings.Join(f.chunks, ""), nil
}

func (f *fakeStreamer) Stream(ctx context.Context, messages []provider.Message) (<-chan provider.Chunk, error) {
	out := make(chan provider.Chunk)
	go func() {
		defer close(out)
		for _, c := range f.chunks {
			out <- provider.Chunk{Content: c}
		}
	}()
	return out, nil
}

type failingProvider struct{}

func (f *failingProvider) Name() string { return "failing" }

func (f *failingProvider) Generate(ctx context.Context, messages []provider.Message) (string, error) {
	return "", errors.New("model exploded")
}

func TestStreamChatValidation(t *testing.T) {
	svc, _ := newTestService(provider.NewMock())

	_, _, _, err := svc.StreamChat(context.Background(), model.ChatRequest{})
	assert.ErrorIs(t, err, ErrNoMessages)

	_, _, _, err = svc.StreamChat(context.Background(), userRequest("   ", ""))
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestStreamChatConcatenationLaw(t *testing.T) {
	reply := "Bananas are a safe low-FODMAP choice.\nEnjoy one medium banana."
	svc, _ := newTestService(&provider.MockProvider{Reply: reply})

	sessionID, deltas, errs, err := svc.StreamChat(context.Background(), userRequest("tell me about bananas", ""))
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	all, streamErr := collect(t, deltas, errs)
	require.NoError(t, streamErr)
	require.NotEmpty(t, all)

	var b strings.Builder
	terminals := 0
	for _, d := range all {
		b.WriteString(d.Delta.Content)
		assert.Equal(t, "assistant", d.Delta.Role)
		assert.Equal(t, sessionID, d.Context.SessionID)
		if d.FinishReason != "" {
			terminals++
			assert.Equal(t, "stop", d.FinishReason)
		}
	}

	// No gaps, no duplication.
	assert.Equal(t, reply, b.String())
	// Exactly one terminal delta, emitted last.
	assert.Equal(t, 1, terminals)
	assert.Equal(t, "stop", all[len(all)-1].FinishReason)
}

func TestStreamChatNativeStreamOrder(t *testing.T) {
	svc, _ := newTestService(&fakeStreamer{chunks: []string{"Hel", "lo ", "world", "!"}})

	_, deltas, errs, err := svc.StreamChat(context.Background(), userRequest("say hello", ""))
	require.NoError(t, err)

	all, streamErr := collect(t, deltas, errs)
	require.NoError(t, streamErr)
	require.Len(t, all, 5)

	var got []string
	for _, d := range all[:4] {
		got = append(got, d.Delta.Content)
	}
	assert.Equal(t, []string{"Hel", "lo ", "world", "!"}, got)
	assert.Equal(t, "stop", all[4].FinishReason)
}

func TestStreamChatCarriesFoodResults(t *testing.T) {
	svc, _ := newTestService(provider.NewMock())

	_, deltas, errs, err := svc.StreamChat(context.Background(), userRequest("Is banana low FODMAP?", ""))
	require.NoError(t, err)

	all, streamErr := collect(t, deltas, errs)
	require.NoError(t, streamErr)
	require.NotEmpty(t, all)

	for _, d := range all {
		require.Len(t, d.Context.FoodResults, 1)
		assert.Equal(t, "f1", d.Context.FoodResults[0].ID)
		assert.True(t, d.Context.FoodResults[0].SafeForLowFodmap)
	}
}

func TestStreamChatFoodResultsCapped(t *testing.T) {
	store := catalog.NewStoreWithRecords([]catalog.FoodRecord{
		{ID: "f1", Name: "Apple", Category: "Fruits", Rating: "high"},
		{ID: "f2", Name: "Pear", Category: "Fruits", Rating: "high"},
		{ID: "f3", Name: "Kiwi", Category: "Fruits", Rating: "low"},
		{ID: "f4", Name: "Orange", Category: "Fruits", Rating: "low"},
		{ID: "f5", Name: "Mango", Category: "Fruits", Rating: "high"},
	})
	svc := NewChatService(testConfig(), store, storage.NewMemoryStorage(), provider.NewMock())

	_, deltas, errs, err := svc.StreamChat(context.Background(), userRequest("fruits", ""))
	require.NoError(t, err)

	all, streamErr := collect(t, deltas, errs)
	require.NoError(t, streamErr)

	for _, d := range all {
		assert.Len(t, d.Context.FoodResults, maxFoodResults)
	}
}

func TestStreamChatGenerationFailure(t *testing.T) {
	svc, _ := newTestService(&failingProvider{})

	_, deltas, errs, err := svc.StreamChat(context.Background(), userRequest("hello", ""))
	require.NoError(t, err)

	all, streamErr := collect(t, deltas, errs)
	assert.Error(t, streamErr)
	// No terminal delta on failure.
	for _, d := range all {
		assert.Empty(t, d.FinishReason)
	}
}

func TestStreamChatPersistsConversation(t *testing.T) {
	reply := "Carrots are always safe."
	svc, store := newTestService(&provider.MockProvider{Reply: reply})

	sessionID, deltas, errs, err := svc.StreamChat(context.Background(), userRequest("can I eat carrots", "sess-1"))
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sessionID)

	_, streamErr := collect(t, deltas, errs)
	require.NoError(t, streamErr)

	messages, err := store.GetMessages("sess-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "can I eat carrots", messages[0].Content)
	assert.Equal(t, "assistant", messages[1].Role)
	assert.Equal(t, reply, messages[1].Content)
}

func TestStreamChatDerivesTitle(t *testing.T) {
	svc, store := newTestService(&provider.MockProvider{Reply: "A short banana answer"})

	sessionID, deltas, errs, err := svc.StreamChat(context.Background(), userRequest("Is banana ok?", ""))
	require.NoError(t, err)

	_, streamErr := collect(t, deltas, errs)
	require.NoError(t, streamErr)

	// Title generation is a best-effort side effect off the request path.
	require.Eventually(t, func() bool {
		session, err := store.GetSession(sessionID)
		return err == nil && session.Title != ""
	}, 2*time.Second, 10*time.Millisecond)

	session, err := store.GetSession(sessionID)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(session.Title)), maxTitleLen)
	assert.NotContains(t, session.Title, `"`)
}

func TestSanitizeTitle(t *testing.T) {
	assert.Equal(t, "Banana shopping", sanitizeTitle(` "Banana shopping" `))
	long := strings.Repeat("banana ", 10)
	assert.LessOrEqual(t, len([]rune(sanitizeTitle(long))), maxTitleLen)
}
