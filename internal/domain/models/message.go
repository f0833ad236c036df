// Package models contains domain models for the Haven support-agent service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a message.
type Sender string

const (
	// SenderUser is a message written by the user.
	SenderUser Sender = "USER"
	// SenderAgent is a message produced by the support agent.
	SenderAgent Sender = "AGENT"
)

// Message is one utterance in a conversation. Messages are immutable once
// persisted; within a conversation they are totally ordered by CreatedAt.
type Message struct {
	ID             string    `json:"id" bson:"_id"`
	ConversationID string    `json:"conversationId" bson:"conversationId"`
	Sender         Sender    `json:"sender" bson:"sender"`
	Content        string    `json:"content" bson:"content"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
}

// NewMessage creates a message with a fresh ID and UTC timestamp.
func NewMessage(conversationID string, sender Sender, content string) *Message {
	return &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
}

// Conversation groups the messages of one user session.
type Conversation struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId" bson:"userId"`
	Title     string    `json:"title" bson:"title"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// NewConversation creates a conversation with a fresh ID and UTC timestamp.
func NewConversation(userID, title string) *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
}
