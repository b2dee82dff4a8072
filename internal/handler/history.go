package handler

import (
	"errors"
	"net/http"

	"fodmate-backend/internal/service"
	"fodmate-backend/internal/storage"

	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	chatService *service.ChatService
}

func NewHistoryHandler(chatService *service.ChatService) *HistoryHandler {
	return &HistoryHandler{chatService: chatService}
}

func (h *HistoryHandler) ListSessions(c *gin.Context) {
	sessions, err := h.chatService.GetSessions()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not load sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}

func (h *HistoryHandler) GetMessages(c *gin.Context) {
	sessionID := c.Param("session_id")

	messages, err := h.chatService.GetSessionMessages(sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not load messages"})
		return
	}

	out := make([]gin.H, 0, len(messages))
	for _, msg := range messages {
		out = append(out, gin.H{"role": msg.Role, "content": msg.Content})
	}

	c.JSON(http.StatusOK, out)
}

func (h *HistoryHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	if err := h.chatService.DeleteSession(sessionID); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not delete session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}
