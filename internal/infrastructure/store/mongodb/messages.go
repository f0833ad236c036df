package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/havenmind/agent-service/internal/core/store"
	"github.com/havenmind/agent-service/internal/domain/models"
	"github.com/havenmind/agent-service/internal/pkg/encryption"
)

// MessagesCollectionName is the name of the messages collection.
const MessagesCollectionName = "messages"

// MessagesCollection implements store.MessagesCollection for MongoDB.
// Message content is encrypted before insert and decrypted on read.
type MessagesCollection struct {
	collection *mongo.Collection
	encryptor  encryption.Encryptor
}

// NewMessagesCollection creates a new messages collection wrapper.
func NewMessagesCollection(db *mongo.Database, encryptor encryption.Encryptor) *MessagesCollection {
	return &MessagesCollection{
		collection: db.Collection(MessagesCollectionName),
		encryptor:  encryptor,
	}
}

// Add inserts a new message.
func (c *MessagesCollection) Add(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		return fmt.Errorf("message ID is required")
	}

	sealed, err := c.encryptor.EncryptString(message.Content)
	if err != nil {
		return fmt.Errorf("failed to encrypt message content: %w", err)
	}

	doc := *message
	doc.Content = sealed

	if _, err := c.collection.InsertOne(ctx, &doc); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// List lists messages for a conversation ordered by creation time.
func (c *MessagesCollection) List(ctx context.Context, opts *store.ListMessagesOptions) ([]*models.Message, error) {
	sort := 1
	if opts.OrderBy == store.SortOrderDesc {
		sort = -1
	}

	findOpts := options.Find().SetSort(bson.M{"createdAt": sort})
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cursor, err := c.collection.Find(ctx, bson.M{"conversationId": opts.ConversationID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	return c.decodeAll(ctx, cursor)
}

// ListByUser lists the most recent messages across all of a user's
// conversations, newest first.
func (c *MessagesCollection) ListByUser(ctx context.Context, userID string, limit int64) ([]*models.Message, error) {
	// Resolve the user's conversation IDs first; messages do not carry userId.
	convCursor, err := c.collection.Database().Collection(ConversationsCollectionName).
		Find(ctx, bson.M{"userId": userID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list user conversations: %w", err)
	}
	defer convCursor.Close(ctx)

	var convs []struct {
		ID string `bson:"_id"`
	}
	if err := convCursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("failed to decode user conversations: %w", err)
	}
	if len(convs) == 0 {
		return []*models.Message{}, nil
	}

	ids := make([]string, len(convs))
	for i, conv := range convs {
		ids[i] = conv.ID
	}

	findOpts := options.Find().SetSort(bson.M{"createdAt": -1})
	if limit > 0 {
		findOpts.SetLimit(limit)
	}

	cursor, err := c.collection.Find(ctx, bson.M{"conversationId": bson.M{"$in": ids}}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list user messages: %w", err)
	}
	defer cursor.Close(ctx)

	return c.decodeAll(ctx, cursor)
}

// CountByConversation returns the count of messages in a conversation.
func (c *MessagesCollection) CountByConversation(ctx context.Context, conversationID string) (int64, error) {
	count, err := c.collection.CountDocuments(ctx, bson.M{"conversationId": conversationID})
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// EnsureIndexes creates necessary indexes for the collection.
func (c *MessagesCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "conversationId", Value: 1},
				{Key: "createdAt", Value: 1},
			},
		},
	}

	if _, err := c.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}
	return nil
}

func (c *MessagesCollection) decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]*models.Message, error) {
	var messages []*models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	for _, message := range messages {
		content, err := c.encryptor.DecryptString(message.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt message %s: %w", message.ID, err)
		}
		message.Content = content
	}

	if messages == nil {
		messages = []*models.Message{}
	}
	return messages, nil
}
