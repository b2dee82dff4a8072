package handler

import (
	"net/http"

	"fodmate-backend/internal/model"
	"fodmate-backend/internal/service"
	"fodmate-backend/internal/utils"
	"fodmate-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const unavailableMessage = "The assistant is unavailable right now, please try again later"

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// Chat streams the assistant reply as newline-delimited JSON deltas. Client
// errors are rejected before the stream starts; once the first delta is
// flushed a failure simply ends the stream, nothing already written is
// retracted.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sessionID, deltaChan, errChan, err := h.chatService.StreamChat(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger.Debugf("Streaming chat reply for session %s", sessionID)

	// The writer is created on the first delta so a pre-stream failure can
	// still answer with a plain JSON 503.
	var writer *utils.NDJSONWriter

	for {
		select {
		case delta, ok := <-deltaChan:
			if !ok {
				// Generation failed; the detail stays in the server log.
				if genErr := <-errChan; genErr != nil && writer == nil {
					c.JSON(http.StatusServiceUnavailable, gin.H{"error": unavailableMessage})
				}
				return
			}

			if writer == nil {
				writer = utils.NewNDJSONWriter(c.Writer)
			}
			if err := writer.Write(delta); err != nil {
				logger.Warnf("Client went away mid-stream for session %s: %v", sessionID, err)
				return
			}

		case <-c.Request.Context().Done():
			return
		}
	}
}
