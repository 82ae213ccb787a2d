package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationModel struct {
	ID           string    `gorm:"column:id;type:uuid;primaryKey"`
	UserID       string    `gorm:"column:user_id;type:uuid;not null;index:idx_notifications_user"`
	Title        string    `gorm:"column:title;not null"`
	Message      string    `gorm:"column:message;not null"`
	Type         string    `gorm:"column:type;type:varchar(32);not null"`
	RelatedID    *string   `gorm:"column:related_id;type:uuid"`
	AssignerName *string   `gorm:"column:assigner_name"`
	IsRead       bool      `gorm:"column:is_read;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}

func (m *NotificationModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
