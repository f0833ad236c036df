package dto

import "github.com/havenmind/agent-service/internal/domain/models"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// SendMessageResponse represents the response for sending a message.
type SendMessageResponse struct {
	Message *models.Message `json:"message"`
}

// GetMessagesResponse represents the response for message history.
type GetMessagesResponse struct {
	Messages []*models.Message `json:"messages"`
	Limit    int64             `json:"limit"`
}

// ListConversationsResponse represents the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []*models.Conversation `json:"conversations"`
}
