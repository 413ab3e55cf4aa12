package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/gymbro-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	ListByThread(ctx context.Context, threadID string, limit int64) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	CountByThread(ctx context.Context, threadID string) (int64, error)
	ToggleLike(ctx context.Context, id string, userID uint, liked bool) error
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection("comments")}
}

func (r *MongoCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	if comment.LikedBy == nil {
		comment.LikedBy = []uint{}
	}
	_, err := r.collection.InsertOne(ctx, comment)
	return err
}

func (r *MongoCommentRepository) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid comment ID format: %w", err)
	}

	var comment models.Comment
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&comment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("comment not found")
		}
		return nil, err
	}
	return &comment, nil
}

func (r *MongoCommentRepository) ListByThread(ctx context.Context, threadID string, limit int64) ([]models.Comment, error) {
	objID, err := primitive.ObjectIDFromHex(threadID)
	if err != nil {
		return nil, fmt.Errorf("invalid thread ID format: %w", err)
	}

	findOptions := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"thread_id": objID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	if err = cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *MongoCommentRepository) DeleteComment(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid comment ID format: %w", err)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("comment not found")
	}
	return nil
}

// CountByThread is the thread's reply count; derived, never stored.
func (r *MongoCommentRepository) CountByThread(ctx context.Context, threadID string) (int64, error) {
	objID, err := primitive.ObjectIDFromHex(threadID)
	if err != nil {
		return 0, fmt.Errorf("invalid thread ID format: %w", err)
	}
	return r.collection.CountDocuments(ctx, bson.M{"thread_id": objID})
}

// ToggleLike adds or removes userID from the comment's like set atomically.
func (r *MongoCommentRepository) ToggleLike(ctx context.Context, id string, userID uint, liked bool) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid comment ID format: %w", err)
	}
	update := bson.M{"$addToSet": bson.M{"liked_by": userID}}
	if liked {
		update = bson.M{"$pull": bson.M{"liked_by": userID}}
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("comment not found")
	}
	return nil
}
