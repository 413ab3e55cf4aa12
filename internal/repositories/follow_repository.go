package repositories

import (
	"fmt"
	"time"

	"github.com/gymbro-app/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	CreateFollow(follow *models.Follow) error
	DeleteFollow(followerID, followingID uint) error
	IsFollowing(followerID, followingID uint) (bool, error)
	GetFollowersCount(userID uint) (int64, error)
	GetFollowingCount(userID uint) (int64, error)
	GetFollowingIDs(userID uint) ([]uint, error)
	GetFollowerIDs(userID uint) ([]uint, error)
	ListFollowers(userID uint, before time.Time, beforeID uint, limit int) ([]models.Follow, error)
	ListFollowing(userID uint, before time.Time, beforeID uint, limit int) ([]models.Follow, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) CreateFollow(follow *models.Follow) error {
	return r.db.Create(follow).Error
}

func (r *PostgresFollowRepository) DeleteFollow(followerID, followingID uint) error {
	res := r.db.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("follow relationship not found")
	}
	return nil
}

func (r *PostgresFollowRepository) IsFollowing(followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Follow{}).Where("follower_id = ? AND following_id = ?", followerID, followingID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresFollowRepository) GetFollowersCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).Where("following_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *PostgresFollowRepository) GetFollowingCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *PostgresFollowRepository) GetFollowingIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Follow{}).Where("follower_id = ?", userID).Pluck("following_id", &ids).Error
	return ids, err
}

func (r *PostgresFollowRepository) GetFollowerIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Follow{}).Where("following_id = ?", userID).Pluck("follower_id", &ids).Error
	return ids, err
}

// ListFollowers pages a user's followers. (before, beforeID) name the first
// edge to return in (created_at DESC, id DESC) order; the id keeps the scan
// advancing through runs of identical timestamps.
func (r *PostgresFollowRepository) ListFollowers(userID uint, before time.Time, beforeID uint, limit int) ([]models.Follow, error) {
	var follows []models.Follow
	q := pageEdges(r.db.Where("following_id = ?", userID), before, beforeID)
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&follows).Error
	return follows, err
}

// ListFollowing pages who a user follows, same cursor contract as
// ListFollowers.
func (r *PostgresFollowRepository) ListFollowing(userID uint, before time.Time, beforeID uint, limit int) ([]models.Follow, error) {
	var follows []models.Follow
	q := pageEdges(r.db.Where("follower_id = ?", userID), before, beforeID)
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&follows).Error
	return follows, err
}

func pageEdges(q *gorm.DB, before time.Time, beforeID uint) *gorm.DB {
	if before.IsZero() {
		return q
	}
	if beforeID == 0 {
		return q.Where("created_at <= ?", before)
	}
	return q.Where("created_at < ? OR (created_at = ? AND id <= ?)", before, before, beforeID)
}
