package repositories

import (
	"context"

	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// GormNotificationRepository handles notification data access
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create inserts a notification row
func (r *GormNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListByUser lists a user's notifications, newest first
func (r *GormNotificationRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*models.Notification, int64, error) {
	var notifications []*models.Notification
	var total int64

	r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID).Count(&total)

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}
