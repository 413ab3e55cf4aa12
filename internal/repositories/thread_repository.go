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

// ThreadRepository defines the interface for thread data operations. The
// three List methods back the feed's two content streams and the author
// timeline. (until, ref) name the first row to return in the
// (created_at DESC, _id DESC) sort order; the ref id is what lets the scan
// advance through runs of identical timestamps. Zero until means unbounded.
type ThreadRepository interface {
	CreateThread(ctx context.Context, thread *models.Thread) error
	GetThreadByID(ctx context.Context, id string) (*models.Thread, error)
	DeleteThread(ctx context.Context, id string) error
	ListByAuthors(ctx context.Context, authorIDs []uint, until time.Time, ref primitive.ObjectID, limit int64) ([]models.Thread, error)
	ListExcludingAuthors(ctx context.Context, authorIDs []uint, until time.Time, ref primitive.ObjectID, limit int64) ([]models.Thread, error)
	ListByAuthor(ctx context.Context, authorID uint, until time.Time, ref primitive.ObjectID, limit int64) ([]models.Thread, error)
	AddLike(ctx context.Context, id string, userID uint) (bool, error)
	RemoveLike(ctx context.Context, id string, userID uint) (bool, error)
}

// MongoThreadRepository implements ThreadRepository for MongoDB
type MongoThreadRepository struct {
	collection *mongo.Collection
}

// NewMongoThreadRepository creates a new MongoThreadRepository
func NewMongoThreadRepository(db *mongo.Database) *MongoThreadRepository {
	return &MongoThreadRepository{collection: db.Collection("threads")}
}

// CreateThread creates a new thread in MongoDB
func (r *MongoThreadRepository) CreateThread(ctx context.Context, thread *models.Thread) error {
	thread.ID = primitive.NewObjectID()
	thread.CreatedAt = time.Now()
	thread.UpdatedAt = thread.CreatedAt
	if thread.Tags == nil {
		thread.Tags = []string{}
	}
	if thread.Media == nil {
		thread.Media = []models.ThreadMedia{}
	}
	if thread.LikedBy == nil {
		thread.LikedBy = []uint{}
	}
	_, err := r.collection.InsertOne(ctx, thread)
	return err
}

// GetThreadByID retrieves a thread by ID from MongoDB
func (r *MongoThreadRepository) GetThreadByID(ctx context.Context, id string) (*models.Thread, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid thread ID format: %w", err)
	}

	var thread models.Thread
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&thread)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("thread not found")
		}
		return nil, err
	}
	return &thread, nil
}

// DeleteThread deletes a thread by ID from MongoDB
func (r *MongoThreadRepository) DeleteThread(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid thread ID format: %w", err)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("thread not found")
	}
	return nil
}

func (r *MongoThreadRepository) list(ctx context.Context, filter bson.M, until time.Time, ref primitive.ObjectID, limit int64) ([]models.Thread, error) {
	if !until.IsZero() {
		if ref.IsZero() {
			filter["created_at"] = bson.M{"$lte": until}
		} else {
			// Resume at the (until, ref) row: strictly older, or same
			// timestamp at or below the ref id in the _id DESC order.
			filter["$or"] = []bson.M{
				{"created_at": bson.M{"$lt": until}},
				{"created_at": until, "_id": bson.M{"$lte": ref}},
			}
		}
	}
	findOptions := options.Find().
		SetLimit(limit).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var threads []models.Thread
	if err = cursor.All(ctx, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// ListByAuthors retrieves threads authored by any of the given users (the
// followed stream), newest first.
func (r *MongoThreadRepository) ListByAuthors(ctx context.Context, authorIDs []uint, until time.Time, ref primitive.ObjectID, limit int64) ([]models.Thread, error) {
	return r.list(ctx, bson.M{"author_id": bson.M{"$in": authorIDs}}, until, ref, limit)
}

// ListExcludingAuthors retrieves threads authored by anyone outside the given
// set (the other stream), newest first.
func (r *MongoThreadRepository) ListExcludingAuthors(ctx context.Context, authorIDs []uint, until time.Time, ref primitive.ObjectID, limit int64) ([]models.Thread, error) {
	return r.list(ctx, bson.M{"author_id": bson.M{"$nin": authorIDs}}, until, ref, limit)
}

// ListByAuthor retrieves a single author's threads, newest first.
func (r *MongoThreadRepository) ListByAuthor(ctx context.Context, authorID uint, until time.Time, ref primitive.ObjectID, limit int64) ([]models.Thread, error) {
	return r.list(ctx, bson.M{"author_id": authorID}, until, ref, limit)
}

// AddLike adds userID to the thread's like set. Returns false when the user
// had already liked the thread. $addToSet keeps concurrent toggles atomic.
func (r *MongoThreadRepository) AddLike(ctx context.Context, id string, userID uint) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("invalid thread ID format: %w", err)
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$addToSet": bson.M{"liked_by": userID}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, fmt.Errorf("thread not found")
	}
	return res.ModifiedCount > 0, nil
}

// RemoveLike removes userID from the thread's like set. Returns false when
// there was no like to remove.
func (r *MongoThreadRepository) RemoveLike(ctx context.Context, id string, userID uint) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("invalid thread ID format: %w", err)
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$pull": bson.M{"liked_by": userID}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, fmt.Errorf("thread not found")
	}
	return res.ModifiedCount > 0, nil
}
