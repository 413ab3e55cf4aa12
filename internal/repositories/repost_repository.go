package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/gymbro-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RepostRepository defines the interface for repost data operations
type RepostRepository interface {
	CreateRepost(ctx context.Context, repost *models.Repost) error
	DeleteRepost(ctx context.Context, userID uint, threadID string) error
	HasUserReposted(ctx context.Context, userID uint, threadID string) (bool, error)
	CountByThread(ctx context.Context, threadID string) (int64, error)
	GetRepostedThreadIDs(ctx context.Context, userID uint, threadIDs []string) (map[string]bool, error)
}

// MongoRepostRepository implements RepostRepository for MongoDB
type MongoRepostRepository struct {
	collection *mongo.Collection
}

// NewMongoRepostRepository creates a new MongoRepostRepository
func NewMongoRepostRepository(db *mongo.Database) *MongoRepostRepository {
	return &MongoRepostRepository{collection: db.Collection("reposts")}
}

func (r *MongoRepostRepository) CreateRepost(ctx context.Context, repost *models.Repost) error {
	repost.ID = primitive.NewObjectID()
	repost.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, repost)
	return err
}

func (r *MongoRepostRepository) DeleteRepost(ctx context.Context, userID uint, threadID string) error {
	objID, err := primitive.ObjectIDFromHex(threadID)
	if err != nil {
		return fmt.Errorf("invalid thread ID format: %w", err)
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "thread_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("repost not found")
	}
	return nil
}

func (r *MongoRepostRepository) HasUserReposted(ctx context.Context, userID uint, threadID string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(threadID)
	if err != nil {
		return false, fmt.Errorf("invalid thread ID format: %w", err)
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "thread_id": objID})
	return count > 0, err
}

// CountByThread is the thread's repost count; derived, never stored.
func (r *MongoRepostRepository) CountByThread(ctx context.Context, threadID string) (int64, error) {
	objID, err := primitive.ObjectIDFromHex(threadID)
	if err != nil {
		return 0, fmt.Errorf("invalid thread ID format: %w", err)
	}
	return r.collection.CountDocuments(ctx, bson.M{"thread_id": objID})
}

// GetRepostedThreadIDs returns which of the given threads the user reposted.
func (r *MongoRepostRepository) GetRepostedThreadIDs(ctx context.Context, userID uint, threadIDs []string) (map[string]bool, error) {
	objIDs := make([]primitive.ObjectID, 0, len(threadIDs))
	for _, id := range threadIDs {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objIDs = append(objIDs, objID)
	}

	reposted := make(map[string]bool)
	if len(objIDs) == 0 {
		return reposted, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID, "thread_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reposts []models.Repost
	if err = cursor.All(ctx, &reposts); err != nil {
		return nil, err
	}
	for _, rp := range reposts {
		reposted[rp.ThreadID.Hex()] = true
	}
	return reposted, nil
}
