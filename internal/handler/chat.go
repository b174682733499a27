package handler

import (
	"net/http"
	"strconv"

	"flatmate/internal/model"
	"flatmate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ChatHandler handles chat and conversation HTTP requests
type ChatHandler struct {
	chat *service.ChatService
	log  logrus.FieldLogger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService, log logrus.FieldLogger) *ChatHandler {
	return &ChatHandler{chat: chat, log: log}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.chat.HandleChatTurn(c.Request.Context(), currentUserID(c), req.Message, req.ConversationID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListConversations handles GET /api/v1/conversations
func (h *ChatHandler) ListConversations(c *gin.Context) {
	convs, err := h.chat.ListConversations(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// ListMessages handles GET /api/v1/conversations/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	msgs, err := h.chat.ListMessages(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
