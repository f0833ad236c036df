// Package store defines the conversation store client interface.
package store

import (
	"context"
)

// Client defines the interface for the conversation store.
type Client interface {
	// Conversations returns the conversations collection.
	Conversations() ConversationsCollection

	// Messages returns the messages collection.
	Messages() MessagesCollection

	// Profiles returns the user profiles collection.
	Profiles() ProfilesCollection

	// EnsureIndexes creates the indexes the pipeline's ordered reads rely on.
	EnsureIndexes(ctx context.Context) error

	// Ping verifies the store connection.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close(ctx context.Context) error
}
