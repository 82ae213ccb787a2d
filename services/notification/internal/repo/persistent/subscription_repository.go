package persistent

import (
	"fmt"
	"time"

	"taskflow/services/notification/internal/entity"
	"taskflow/services/notification/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository persists per-user web push endpoints. The
// (user_id, endpoint) pair is unique; Upsert relies on the database constraint
// so concurrent registrations of the same endpoint cannot duplicate rows.
type SubscriptionRepository interface {
	ListByUser(userID string) ([]entity.PushSubscription, error)
	Upsert(userID, endpoint, p256dh, auth string) (created bool, err error)
	RemoveByUser(userID string) (int64, error)
	RemoveByID(id string) (int64, error)
	CountByUser(userID string) (int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) ListByUser(userID string) ([]entity.PushSubscription, error) {
	var models []model.PushSubscriptionModel
	err := r.db.Where("user_id = ?", userID).Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	return ToPushSubscriptionEntities(models), nil
}

func (r *subscriptionRepository) Upsert(userID, endpoint, p256dh, auth string) (bool, error) {
	var existing int64
	err := r.db.Model(&model.PushSubscriptionModel{}).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Count(&existing).Error
	if err != nil {
		return false, fmt.Errorf("failed to check push subscription: %w", err)
	}

	now := time.Now().UTC()
	m := &model.PushSubscriptionModel{
		UserID:    userID,
		Endpoint:  endpoint,
		P256dh:    p256dh,
		Auth:      auth,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// ON CONFLICT keeps this a single logical write even when two clients
	// register the same endpoint at once.
	err = r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "endpoint"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"p256dh":     p256dh,
			"auth":       auth,
			"updated_at": now,
		}),
	}).Create(m).Error
	if err != nil {
		return false, fmt.Errorf("failed to upsert push subscription: %w", err)
	}

	return existing == 0, nil
}

func (r *subscriptionRepository) RemoveByUser(userID string) (int64, error) {
	result := r.db.Where("user_id = ?", userID).Delete(&model.PushSubscriptionModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to remove push subscriptions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *subscriptionRepository) RemoveByID(id string) (int64, error) {
	result := r.db.Where("id = ?", id).Delete(&model.PushSubscriptionModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to remove push subscription: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *subscriptionRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.PushSubscriptionModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count push subscriptions: %w", err)
	}
	return count, nil
}
