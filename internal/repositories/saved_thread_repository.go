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

// SavedThreadRepository defines the interface for bookmark operations
type SavedThreadRepository interface {
	SaveThread(ctx context.Context, saved *models.SavedThread) error
	UnsaveThread(ctx context.Context, userID uint, threadID string) error
	IsSaved(ctx context.Context, userID uint, threadID string) (bool, error)
	GetSavedThreadIDs(ctx context.Context, userID uint, threadIDs []string) (map[string]bool, error)
}

// MongoSavedThreadRepository implements SavedThreadRepository for MongoDB
type MongoSavedThreadRepository struct {
	collection *mongo.Collection
}

// NewMongoSavedThreadRepository creates a new MongoSavedThreadRepository
func NewMongoSavedThreadRepository(db *mongo.Database) *MongoSavedThreadRepository {
	return &MongoSavedThreadRepository{collection: db.Collection("saved_threads")}
}

func (r *MongoSavedThreadRepository) SaveThread(ctx context.Context, saved *models.SavedThread) error {
	saved.ID = primitive.NewObjectID()
	saved.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, saved)
	return err
}

func (r *MongoSavedThreadRepository) UnsaveThread(ctx context.Context, userID uint, threadID string) error {
	objID, err := primitive.ObjectIDFromHex(threadID)
	if err != nil {
		return fmt.Errorf("invalid thread ID format: %w", err)
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "thread_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("saved thread not found")
	}
	return nil
}

func (r *MongoSavedThreadRepository) IsSaved(ctx context.Context, userID uint, threadID string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(threadID)
	if err != nil {
		return false, fmt.Errorf("invalid thread ID format: %w", err)
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "thread_id": objID})
	return count > 0, err
}

// GetSavedThreadIDs returns which of the given threads the user has saved.
func (r *MongoSavedThreadRepository) GetSavedThreadIDs(ctx context.Context, userID uint, threadIDs []string) (map[string]bool, error) {
	objIDs := make([]primitive.ObjectID, 0, len(threadIDs))
	for _, id := range threadIDs {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objIDs = append(objIDs, objID)
	}

	saved := make(map[string]bool)
	if len(objIDs) == 0 {
		return saved, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID, "thread_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.SavedThread
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		saved[d.ThreadID.Hex()] = true
	}
	return saved, nil
}
