package notifications

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gymbro-app/backend/internal/models"
	"github.com/gymbro-app/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidReference is returned when an identifier in a notify call is not
// a well-formed entity reference. Nothing is persisted in that case.
var ErrInvalidReference = errors.New("invalid entity reference")

// EventNewNotification is the realtime event name for pushed notifications.
const EventNewNotification = "new-notification"

// Pusher delivers a payload to a connected recipient. Delivery is
// best-effort: the return value reports whether anything was attempted, and
// callers must never treat false as a failure.
type Pusher interface {
	Push(userID uint, event string, data any) bool
}

// PushPayload is the wire shape of a new-notification event.
type PushPayload struct {
	ID          uint      `json:"id"`
	Type        string    `json:"type"`
	EntityType  string    `json:"entityType"`
	EntityID    string    `json:"entityId"`
	ActorID     uint      `json:"actorId"`
	Text        string    `json:"text"`
	RecipientID uint      `json:"recipientId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Dispatcher turns user actions into durable notification events and pushes
// them to connected recipients. The durable write is the operation's success
// criterion; the push never blocks, retries or unwinds it.
type Dispatcher struct {
	store    repositories.NotificationRepository
	presence Pusher
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(store repositories.NotificationRepository, presence Pusher) *Dispatcher {
	return &Dispatcher{store: store, presence: presence}
}

// Notify records one event and pushes it if the recipient is connected.
// Self-notifications are suppressed: the call returns (nil, nil) and nothing
// is stored or pushed.
func (d *Dispatcher) Notify(recipientID, actorID uint, notifType, entityType, entityID, text string) (*models.Notification, error) {
	if recipientID == actorID {
		return nil, nil
	}
	if err := validateRefs(recipientID, actorID, notifType, entityType, entityID); err != nil {
		return nil, err
	}

	n := &models.Notification{
		RecipientID: recipientID,
		ActorID:     actorID,
		Type:        notifType,
		EntityType:  entityType,
		EntityID:    entityID,
		Text:        text,
		CreatedAt:   time.Now(),
	}
	if err := d.store.CreateNotification(n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	// Durable write succeeded; from here the operation cannot fail. An absent
	// recipient simply reads the event from the inbox later.
	d.presence.Push(recipientID, EventNewNotification, PushPayload{
		ID:          n.ID,
		Type:        n.Type,
		EntityType:  n.EntityType,
		EntityID:    n.EntityID,
		ActorID:     n.ActorID,
		Text:        n.Text,
		RecipientID: n.RecipientID,
		CreatedAt:   n.CreatedAt,
	})
	return n, nil
}

// Revoke deletes the event(s) a now-undone action created (unlike,
// un-repost, unfollow). No push is attempted.
func (d *Dispatcher) Revoke(recipientID, actorID uint, notifType, entityType, entityID string) error {
	if recipientID == actorID {
		return nil
	}
	return d.store.DeleteByTuple(recipientID, actorID, notifType, entityType, entityID)
}

func validateRefs(recipientID, actorID uint, notifType, entityType, entityID string) error {
	if recipientID == 0 || actorID == 0 {
		return ErrInvalidReference
	}
	switch notifType {
	case models.NotificationTypeFollow, models.NotificationTypeLike, models.NotificationTypeComment,
		models.NotificationTypeRepost, models.NotificationTypePost:
	default:
		return ErrInvalidReference
	}
	switch entityType {
	case models.EntityTypeUser:
		if id, err := strconv.ParseUint(entityID, 10, 32); err != nil || id == 0 {
			return ErrInvalidReference
		}
	case models.EntityTypeThread:
		if _, err := primitive.ObjectIDFromHex(entityID); err != nil {
			return ErrInvalidReference
		}
	default:
		return ErrInvalidReference
	}
	return nil
}
