package persistent

import (
	"taskflow/services/notification/internal/entity"
	"taskflow/services/notification/internal/model"
)

func ToNotificationModel(n *entity.Notification) *model.NotificationModel {
	return &model.NotificationModel{
		ID:           n.ID,
		UserID:       n.UserID,
		Title:        n.Title,
		Message:      n.Message,
		Type:         string(n.Type),
		RelatedID:    n.RelatedID,
		AssignerName: n.AssignerName,
		IsRead:       n.IsRead,
		CreatedAt:    n.CreatedAt,
	}
}

func ToNotificationEntity(m *model.NotificationModel) *entity.Notification {
	if m == nil {
		return nil
	}
	return &entity.Notification{
		ID:           m.ID,
		UserID:       m.UserID,
		Title:        m.Title,
		Message:      m.Message,
		Type:         entity.NotificationType(m.Type),
		RelatedID:    m.RelatedID,
		AssignerName: m.AssignerName,
		IsRead:       m.IsRead,
		CreatedAt:    m.CreatedAt,
	}
}

func ToNotificationEntities(models []model.NotificationModel) []entity.Notification {
	entities := make([]entity.Notification, len(models))
	for i := range models {
		entities[i] = *ToNotificationEntity(&models[i])
	}
	return entities
}

func ToPushSubscriptionEntity(m *model.PushSubscriptionModel) *entity.PushSubscription {
	if m == nil {
		return nil
	}
	return &entity.PushSubscription{
		ID:        m.ID,
		UserID:    m.UserID,
		Endpoint:  m.Endpoint,
		P256dh:    m.P256dh,
		Auth:      m.Auth,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func ToPushSubscriptionEntities(models []model.PushSubscriptionModel) []entity.PushSubscription {
	entities := make([]entity.PushSubscription, len(models))
	for i := range models {
		entities[i] = *ToPushSubscriptionEntity(&models[i])
	}
	return entities
}
