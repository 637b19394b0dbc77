package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"order_chat/internal/middleware"
	"order_chat/internal/service"
	"order_chat/pkg/logger"
)

type ChatHandler struct {
	chatService service.ChatService
	log         logger.Logger
}

func NewChatHandler(chatService service.ChatService, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		log:         log,
	}
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.chatService.GetMessages(c.Request.Context(), middleware.IdentityFromContext(c), orderID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

type SendMessageRequest struct {
	Content    string `json:"content" binding:"required"`
	ReceiverID *int64 `json:"receiver_id"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), middleware.IdentityFromContext(c), orderID, req.Content, req.ReceiverID)
	if err != nil {
		if message != nil {
			h.log.Warn("Message stored but follow-up failed", "error", err, "message_id", message.ID)
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

func (h *ChatHandler) MarkAsRead(c *gin.Context) {
	messageID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.chatService.MarkAsRead(c.Request.Context(), middleware.IdentityFromContext(c), messageID); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) UnreadCount(c *gin.Context) {
	count, err := h.chatService.UnreadCount(c.Request.Context(), middleware.IdentityFromContext(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// pathID parses a positive int64 path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

