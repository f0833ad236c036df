package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/havenmind/agent-service/internal/domain/models"
)

// ProfilesCollectionName is the name of the user profiles collection.
const ProfilesCollectionName = "user_profiles"

// ProfilesCollection implements store.ProfilesCollection for MongoDB.
type ProfilesCollection struct {
	collection *mongo.Collection
}

// NewProfilesCollection creates a new profiles collection wrapper.
func NewProfilesCollection(db *mongo.Database) *ProfilesCollection {
	return &ProfilesCollection{
		collection: db.Collection(ProfilesCollectionName),
	}
}

// Get retrieves a user's profile. Returns nil if not found.
func (c *ProfilesCollection) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := c.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// Upsert inserts or replaces a user's profile.
func (c *ProfilesCollection) Upsert(ctx context.Context, profile *models.UserProfile) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := c.collection.ReplaceOne(ctx, bson.M{"_id": profile.UserID}, profile, opts); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
