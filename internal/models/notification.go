package models

import "time"

// Notification types. Like and comment events collapse into display groups;
// follow, repost and post events are always shown individually.
const (
	NotificationTypeFollow  = "follow"
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
	NotificationTypeRepost  = "repost"
	NotificationTypePost    = "post"
)

// Notification entity types.
const (
	EntityTypeUser   = "user"
	EntityTypeThread = "thread"
)

// Notification is one immutable user-action event (PostgreSQL). ReadAt is the
// only mutable field; nil means unread.
type Notification struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	RecipientID uint       `json:"recipient_id" gorm:"index:idx_recipient_created"`
	ActorID     uint       `json:"actor_id" gorm:"index"`
	Type        string     `json:"type" gorm:"size:30"`
	EntityType  string     `json:"entity_type" gorm:"size:20"`
	EntityID    string     `json:"entity_id" gorm:"size:40;index"` // thread ObjectID hex or user ID
	Text        string     `json:"text"`
	ReadAt      *time.Time `json:"read_at"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index:idx_recipient_created"`
}
