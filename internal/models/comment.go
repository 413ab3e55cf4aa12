package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a reply on a thread, stored in MongoDB.
type Comment struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ThreadID  primitive.ObjectID `json:"thread_id" bson:"thread_id"`
	AuthorID  uint               `json:"author_id" bson:"author_id"`
	Text      string             `json:"text" bson:"text"`
	LikedBy   []uint             `json:"-" bson:"liked_by"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// CreateCommentRequest defines the request body for commenting on a thread
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}
