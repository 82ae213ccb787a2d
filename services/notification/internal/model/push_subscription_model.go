package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PushSubscriptionModel struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string    `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uniq_push_subscriptions_user_endpoint"`
	Endpoint  string    `gorm:"column:endpoint;not null;uniqueIndex:uniq_push_subscriptions_user_endpoint"`
	P256dh    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"column:auth;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (PushSubscriptionModel) TableName() string {
	return "push_subscriptions"
}

func (m *PushSubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
