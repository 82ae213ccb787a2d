package persistent

import (
	"errors"
	"fmt"
	"time"

	"taskflow/services/notification/internal/entity"
	"taskflow/services/notification/internal/model"

	"gorm.io/gorm"
)

// NotificationRepository is the durable store for notification rows. It holds
// no policy: every method is a single atomic data operation, and "not found"
// is an empty result rather than an error.
type NotificationRepository interface {
	Create(n *entity.Notification) (string, error)
	GetByID(id string) (*entity.Notification, error)
	ListByUser(userID string, limit, offset int) ([]entity.Notification, error)
	CountByUser(userID string) (int64, error)
	CountUnread(userID string) (int64, error)
	MarkRead(id, userID string) (int64, error)
	MarkAllRead(userID string) (int64, error)
	Update(id string, fields map[string]interface{}) (int64, error)
	Delete(id, userID string) (int64, error)
	FindCollapsible(userID string, typ entity.NotificationType, relatedID string) (*entity.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(n *entity.Notification) (string, error) {
	m := ToNotificationModel(n)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := r.db.Create(m).Error; err != nil {
		return "", err
	}
	return m.ID, nil
}

func (r *notificationRepository) GetByID(id string) (*entity.Notification, error) {
	var m model.NotificationModel
	err := r.db.Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return ToNotificationEntity(&m), nil
}

func (r *notificationRepository) ListByUser(userID string, limit, offset int) ([]entity.Notification, error) {
	var models []model.NotificationModel
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return ToNotificationEntities(models), nil
}

func (r *notificationRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.NotificationModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) CountUnread(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(id, userID string) (int64, error) {
	result := r.db.Model(&model.NotificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *notificationRepository) MarkAllRead(userID string) (int64, error) {
	result := r.db.Model(&model.NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *notificationRepository) Update(id string, fields map[string]interface{}) (int64, error) {
	result := r.db.Model(&model.NotificationModel{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update notification: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *notificationRepository) Delete(id, userID string) (int64, error) {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.NotificationModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// FindCollapsible looks up the one row the comment dedup rule may collapse
// into, via the (user_id, type, related_id) index.
func (r *notificationRepository) FindCollapsible(userID string, typ entity.NotificationType, relatedID string) (*entity.Notification, error) {
	var m model.NotificationModel
	err := r.db.Where("user_id = ? AND type = ? AND related_id = ?", userID, string(typ), relatedID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up collapsible notification: %w", err)
	}
	return ToNotificationEntity(&m), nil
}
