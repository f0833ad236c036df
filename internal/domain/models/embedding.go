package models

import "time"

// EmbeddingRecord is one embedded text chunk of a completed turn,
// append-only. TurnIndex is derived from the conversation's message count
// at storage time and stays monotonically non-decreasing per conversation.
type EmbeddingRecord struct {
	ConversationID string    `json:"conversationId"`
	TurnIndex      int       `json:"turnIndex"`
	Speaker        string    `json:"speaker"`
	TextChunk      string    `json:"textChunk"`
	Vector         []float32 `json:"vector"`
	Timestamp      time.Time `json:"timestamp"`
}

// UserProfile is a long-lived contextual summary for one user,
// regenerated at most once per rolling window by a background task.
type UserProfile struct {
	UserID    string    `json:"userId" bson:"_id"`
	Summary   string    `json:"summary" bson:"summary"`
	Topics    []string  `json:"topics" bson:"topics"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
