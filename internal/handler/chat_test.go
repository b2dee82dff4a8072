package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fodmate-backend/internal/catalog"
	"fodmate-backend/internal/config"
	"fodmate-backend/internal/model"
	"fodmate-backend/internal/provider"
	"fodmate-backend/internal/service"
	"fodmate-backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(p provider.Provider, foods []catalog.FoodRecord) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Agent: config.AgentConfig{
			SystemPrompt:       "You are a grocery assistant.",
			MaxHistoryMessages: 20,
		},
	}

	store := catalog.NewStoreWithRecords(foods)
	svc := service.NewChatService(cfg, store, storage.NewMemoryStorage(), p)

	router := gin.New()
	router.POST("/chat", NewChatHandler(svc).Chat)
	router.GET("/search", NewSearchHandler(store).Search)
	router.GET("/history", NewHistoryHandler(svc).ListSessions)
	router.GET("/history/:session_id", NewHistoryHandler(svc).GetMessages)
	router.DELETE("/history/:session_id", NewHistoryHandler(svc).DeleteSession)
	return router
}

func defaultFoods() []catalog.FoodRecord {
	return []catalog.FoodRecord{
		{ID: "f1", Name: "Banana", Category: "Fruits", Rating: "low", SafeServing: "1 medium ripe banana"},
		{ID: "f2", Name: "Apple", Category: "Fruits", Rating: "high"},
	}
}

func postChat(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeDeltas(t *testing.T, body string) []model.ProtocolDelta {
	t.Helper()

	var deltas []model.ProtocolDelta
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var d model.ProtocolDelta
		require.NoError(t, json.Unmarshal([]byte(line), &d), "line %q", line)
		deltas = append(deltas, d)
	}
	return deltas
}

func TestChatEmptyMessagesRejected(t *testing.T) {
	router := testRouter(provider.NewMock(), defaultFoods())

	w := postChat(router, `{"messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatEmptyLastMessageRejected(t *testing.T) {
	router := testRouter(provider.NewMock(), defaultFoods())

	w := postChat(router, `{"messages":[{"role":"user","content":""}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatMalformedBodyRejected(t *testing.T) {
	router := testRouter(provider.NewMock(), defaultFoods())

	w := postChat(router, `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatStreamsNDJSON(t *testing.T) {
	reply := "Bananas are safe. Enjoy!"
	router := testRouter(&provider.MockProvider{Reply: reply}, defaultFoods())

	w := postChat(router, `{"messages":[{"role":"user","content":"Is banana low FODMAP?"}],"context":{"sessionId":"s1"}}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))

	deltas := decodeDeltas(t, w.Body.String())
	require.NotEmpty(t, deltas)

	var b strings.Builder
	terminals := 0
	for _, d := range deltas {
		b.WriteString(d.Delta.Content)
		assert.Equal(t, "s1", d.Context.SessionID)
		require.NotEmpty(t, d.Context.FoodResults)
		assert.Equal(t, "f1", d.Context.FoodResults[0].ID)
		if d.FinishReason != "" {
			terminals++
		}
	}

	assert.Equal(t, reply, b.String())
	assert.Equal(t, 1, terminals)
	assert.Equal(t, "stop", deltas[len(deltas)-1].FinishReason)
}

type failingProvider struct{}

func (f *failingProvider) Name() string { return "failing" }

func (f *failingProvider) Generate(ctx context.Context, _ []provider.Message) (string, error) {
	return "", errors.New("model exploded")
}

func TestChatUpstreamFailureIs503(t *testing.T) {
	router := testRouter(&failingProvider{}, defaultFoods())

	w := postChat(router, `{"messages":[{"role":"user","content":"hello"}]}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	// Upstream detail is never echoed to the client.
	assert.NotContains(t, w.Body.String(), "exploded")
}

func TestHistoryRoundTrip(t *testing.T) {
	router := testRouter(&provider.MockProvider{Reply: "ok"}, defaultFoods())

	postChat(router, `{"messages":[{"role":"user","content":"Is banana ok?"}],"context":{"sessionId":"h1"}}`)

	req := httptest.NewRequest(http.MethodGet, "/history/h1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var messages []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0]["role"])
	assert.Equal(t, "assistant", messages[1]["role"])
	assert.Equal(t, "ok", messages[1]["content"])
}

func TestHistoryUnknownSessionIs404(t *testing.T) {
	router := testRouter(provider.NewMock(), defaultFoods())

	req := httptest.NewRequest(http.MethodGet, "/history/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
