package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/havenmind/agent-service/internal/domain/models"
)

// ConversationsCollectionName is the name of the conversations collection.
const ConversationsCollectionName = "conversations"

// ConversationsCollection implements store.ConversationsCollection for MongoDB.
type ConversationsCollection struct {
	collection *mongo.Collection
}

// NewConversationsCollection creates a new conversations collection wrapper.
func NewConversationsCollection(db *mongo.Database) *ConversationsCollection {
	return &ConversationsCollection{
		collection: db.Collection(ConversationsCollectionName),
	}
}

// Add inserts a new conversation.
func (c *ConversationsCollection) Add(ctx context.Context, conversation *models.Conversation) error {
	if conversation.ID == "" {
		return fmt.Errorf("conversation ID is required")
	}

	if _, err := c.collection.InsertOne(ctx, conversation); err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

// Get retrieves a conversation by ID. Returns nil if not found.
func (c *ConversationsCollection) Get(ctx context.Context, id string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := c.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&conversation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conversation, nil
}

// ListByUser lists a user's conversations created at or after since,
// newest first, up to limit.
func (c *ConversationsCollection) ListByUser(ctx context.Context, userID string, since time.Time, limit int64) ([]*models.Conversation, error) {
	filter := bson.M{
		"userId":    userID,
		"createdAt": bson.M{"$gte": since},
	}

	findOpts := options.Find().SetSort(bson.M{"createdAt": -1})
	if limit > 0 {
		findOpts.SetLimit(limit)
	}

	cursor, err := c.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var conversations []*models.Conversation
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	if conversations == nil {
		conversations = []*models.Conversation{}
	}
	return conversations, nil
}

// MostRecentByUser returns the user's most recently created conversation,
// or nil if the user has none.
func (c *ConversationsCollection) MostRecentByUser(ctx context.Context, userID string) (*models.Conversation, error) {
	findOpts := options.FindOne().SetSort(bson.M{"createdAt": -1})

	var conversation models.Conversation
	err := c.collection.FindOne(ctx, bson.M{"userId": userID}, findOpts).Decode(&conversation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get most recent conversation: %w", err)
	}
	return &conversation, nil
}

// UpdateTitle sets the title of a conversation.
func (c *ConversationsCollection) UpdateTitle(ctx context.Context, id, title string) error {
	update := bson.M{"$set": bson.M{"title": title}}
	if _, err := c.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("failed to update conversation title: %w", err)
	}
	return nil
}

// EnsureIndexes creates necessary indexes for the collection.
func (c *ConversationsCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
	}

	if _, err := c.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create conversation indexes: %w", err)
	}
	return nil
}
