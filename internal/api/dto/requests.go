// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	Content        string `json:"content" binding:"required,min=1"`
	ConversationID string `json:"conversationId"`
}

// GetMessagesRequest represents the query parameters for message history.
type GetMessagesRequest struct {
	Limit int64 `form:"limit" binding:"omitempty,min=1,max=200"`
}

// ListConversationsRequest represents the query parameters for listing
// conversations.
type ListConversationsRequest struct {
	Limit int64 `form:"limit" binding:"omitempty,min=1,max=100"`
}
