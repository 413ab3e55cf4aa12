package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repost marks that a user reshared a thread, stored in MongoDB. One per
// (user, thread) pair.
type Repost struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    uint               `json:"user_id" bson:"user_id"`
	ThreadID  primitive.ObjectID `json:"thread_id" bson:"thread_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
