package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ThreadMedia is one attached image or video.
type ThreadMedia struct {
	Type     string  `json:"type" bson:"type" validate:"required,oneof=image video"`
	URL      string  `json:"url" bson:"url" validate:"required,url"`
	Width    int     `json:"width,omitempty" bson:"width,omitempty"`
	Height   int     `json:"height,omitempty" bson:"height,omitempty"`
	Duration float64 `json:"duration,omitempty" bson:"duration,omitempty"`
}

// ThreadFitness is the optional workout summary chip block on a thread.
type ThreadFitness struct {
	Chips []string `json:"chips" bson:"chips"`
	Line  string   `json:"line,omitempty" bson:"line,omitempty"`
	PR    bool     `json:"pr,omitempty" bson:"pr,omitempty"`
}

// Thread is a post stored in MongoDB. Like membership lives in LikedBy and is
// mutated only with $addToSet/$pull; reply and repost counts are derived from
// their own collections rather than kept as counters.
type Thread struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID  uint               `json:"author_id" bson:"author_id"`
	Text      string             `json:"text" bson:"text"`
	Tags      []string           `json:"tags" bson:"tags"`
	Media     []ThreadMedia      `json:"media" bson:"media"`
	Fitness   *ThreadFitness     `json:"fitness,omitempty" bson:"fitness,omitempty"`
	LikedBy   []uint             `json:"-" bson:"liked_by"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// LikedByUser reports whether userID is in the thread's like set.
func (t *Thread) LikedByUser(userID uint) bool {
	for _, id := range t.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// CreateThreadRequest defines the request body for creating a new thread
type CreateThreadRequest struct {
	Text    string         `json:"text" validate:"max=500"`
	Media   []ThreadMedia  `json:"media,omitempty" validate:"omitempty,max=6,dive"`
	Fitness *ThreadFitness `json:"fitness,omitempty"`
}
