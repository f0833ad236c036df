// Package handlers provides HTTP handlers for the API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/havenmind/agent-service/internal/api/dto"
	"github.com/havenmind/agent-service/internal/api/middleware"
	"github.com/havenmind/agent-service/internal/domain/errors"
	"github.com/havenmind/agent-service/internal/services/pipeline"
)

const defaultHistoryLimit = 50

// MessagesHandler handles message endpoints.
type MessagesHandler struct {
	orchestrator *pipeline.Orchestrator
}

// NewMessagesHandler creates a new MessagesHandler.
func NewMessagesHandler(orchestrator *pipeline.Orchestrator) *MessagesHandler {
	return &MessagesHandler{orchestrator: orchestrator}
}

// SendMessage handles POST /users/{userId}/messages
// @Summary Send a message
// @Description Processes one user message through the support pipeline and returns the agent reply
// @Tags Messages
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param request body dto.SendMessageRequest true "Message content, with optional conversationId"
// @Success 200 {object} dto.SendMessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/agent/users/{userId}/messages [post]
func (h *MessagesHandler) SendMessage(c *gin.Context) {
	userID := c.Param("userId")

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	message, err := h.orchestrator.ProcessMessage(c.Request.Context(), userID, req.Content, req.ConversationID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SendMessageResponse{Message: message})
}

// GetHistory handles GET /users/{userId}/messages
// @Summary Get message history
// @Description Retrieves the user's most recent messages across conversations, newest first
// @Tags Messages
// @Produce json
// @Param userId path string true "User ID"
// @Param limit query int false "Maximum number of messages" default(50) minimum(1) maximum(200)
// @Success 200 {object} dto.GetMessagesResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/agent/users/{userId}/messages [get]
func (h *MessagesHandler) GetHistory(c *gin.Context) {
	userID := c.Param("userId")

	var req dto.GetMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid query parameters", err.Error()))
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultHistoryLimit
	}

	messages, err := h.orchestrator.GetHistory(c.Request.Context(), userID, req.Limit)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GetMessagesResponse{
		Messages: messages,
		Limit:    req.Limit,
	})
}

// ListConversations handles GET /users/{userId}/conversations
// @Summary List conversations
// @Description Lists the user's conversations, newest first
// @Tags Messages
// @Produce json
// @Param userId path string true "User ID"
// @Param limit query int false "Maximum number of conversations" default(50) minimum(1) maximum(100)
// @Success 200 {object} dto.ListConversationsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/agent/users/{userId}/conversations [get]
func (h *MessagesHandler) ListConversations(c *gin.Context) {
	userID := c.Param("userId")

	var req dto.ListConversationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid query parameters", err.Error()))
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultHistoryLimit
	}

	conversations, err := h.orchestrator.ListConversations(c.Request.Context(), userID, req.Limit)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListConversationsResponse{Conversations: conversations})
}
