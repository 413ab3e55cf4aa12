package repositories

import (
	"time"

	"github.com/gymbro-app/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository is the durable store for notification events. Group
// collapsing happens above it; this layer only speaks in rows and tuples.
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	GetByID(id uint) (*models.Notification, error)
	ListByRecipient(recipientID uint) ([]models.Notification, error)
	MarkRead(id uint, at time.Time) error
	MarkGroupRead(recipientID uint, notifType, entityType, entityID string, at time.Time) error
	MarkAllRead(recipientID uint, at time.Time) (int64, error)
	Delete(id uint) error
	DeleteGroup(recipientID uint, notifType, entityType, entityID string) error
	DeleteByTuple(recipientID, actorID uint, notifType, entityType, entityID string) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *postgresNotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByRecipient returns every event for the recipient, newest first. Groups
// are recomputed per request from this list.
func (r *postgresNotificationRepository) ListByRecipient(recipientID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) MarkRead(id uint, at time.Time) error {
	return r.db.Model(&models.Notification{}).Where("id = ?", id).Update("read_at", at).Error
}

func (r *postgresNotificationRepository) MarkGroupRead(recipientID uint, notifType, entityType, entityID string, at time.Time) error {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ? AND entity_type = ? AND entity_id = ? AND read_at IS NULL",
			recipientID, notifType, entityType, entityID).
		Update("read_at", at).Error
}

func (r *postgresNotificationRepository) MarkAllRead(recipientID uint, at time.Time) (int64, error) {
	res := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}

func (r *postgresNotificationRepository) Delete(id uint) error {
	return r.db.Delete(&models.Notification{}, id).Error
}

func (r *postgresNotificationRepository) DeleteGroup(recipientID uint, notifType, entityType, entityID string) error {
	return r.db.Where("recipient_id = ? AND type = ? AND entity_type = ? AND entity_id = ?",
		recipientID, notifType, entityType, entityID).
		Delete(&models.Notification{}).Error
}

// DeleteByTuple removes the event(s) created by an action that has been undone
// (unlike, un-repost, unfollow).
func (r *postgresNotificationRepository) DeleteByTuple(recipientID, actorID uint, notifType, entityType, entityID string) error {
	return r.db.Where("recipient_id = ? AND actor_id = ? AND type = ? AND entity_type = ? AND entity_id = ?",
		recipientID, actorID, notifType, entityType, entityID).
		Delete(&models.Notification{}).Error
}
