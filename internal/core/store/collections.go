package store

import (
	"context"
	"time"

	"github.com/havenmind/agent-service/internal/domain/models"
)

// ListMessagesOptions contains options for listing messages.
type ListMessagesOptions struct {
	ConversationID string
	Limit          int64
	OrderBy        SortOrder // order by createdAt
}

// MessagesCollection defines the interface for message operations.
// Messages are immutable: there is no update operation.
type MessagesCollection interface {
	// Add inserts a new message.
	Add(ctx context.Context, message *models.Message) error

	// List lists messages for a conversation ordered by creation time.
	List(ctx context.Context, opts *ListMessagesOptions) ([]*models.Message, error)

	// ListByUser lists the most recent messages across all of a user's
	// conversations, newest first.
	ListByUser(ctx context.Context, userID string, limit int64) ([]*models.Message, error)

	// CountByConversation returns the count of messages in a conversation.
	CountByConversation(ctx context.Context, conversationID string) (int64, error)
}

// ConversationsCollection defines the interface for conversation operations.
type ConversationsCollection interface {
	// Add inserts a new conversation.
	Add(ctx context.Context, conversation *models.Conversation) error

	// Get retrieves a conversation by ID. Returns nil if not found.
	Get(ctx context.Context, id string) (*models.Conversation, error)

	// ListByUser lists a user's conversations created at or after since,
	// newest first, up to limit.
	ListByUser(ctx context.Context, userID string, since time.Time, limit int64) ([]*models.Conversation, error)

	// MostRecentByUser returns the user's most recently created
	// conversation, or nil if the user has none.
	MostRecentByUser(ctx context.Context, userID string) (*models.Conversation, error)

	// UpdateTitle sets the title of a conversation.
	UpdateTitle(ctx context.Context, id, title string) error
}

// ProfilesCollection defines the interface for user profile operations.
type ProfilesCollection interface {
	// Get retrieves a user's profile. Returns nil if not found.
	Get(ctx context.Context, userID string) (*models.UserProfile, error)

	// Upsert inserts or replaces a user's profile.
	Upsert(ctx context.Context, profile *models.UserProfile) error
}
