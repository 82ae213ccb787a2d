package push

import (
	"taskflow/services/notification/internal/entity"
)

const defaultIcon = "/icons/notification-badge.png"

// Payload is what the client's service worker receives and renders.
type Payload struct {
	Title          string                  `json:"title"`
	Message        string                  `json:"message"`
	URL            string                  `json:"url"`
	NotificationID string                  `json:"notification_id"`
	Type           entity.NotificationType `json:"type"`
	Icon           string                  `json:"icon"`
}

// PayloadFor builds the push payload for a stored notification.
func PayloadFor(n entity.Notification) Payload {
	return Payload{
		Title:          n.Title,
		Message:        n.Message,
		URL:            RouteURL(n.Type, n.RelatedID),
		NotificationID: n.ID,
		Type:           n.Type,
		Icon:           defaultIcon,
	}
}

// RouteURL maps a notification to the client view a tap should open.
func RouteURL(typ entity.NotificationType, relatedID *string) string {
	if relatedID == nil || *relatedID == "" {
		return "/notifications"
	}
	switch typ {
	case entity.TypeTaskAssigned, entity.TypeTaskUpdated, entity.TypeTaskCompleted, entity.TypeCommentAdded:
		return "/tasks/" + *relatedID
	case entity.TypeLeadAssigned, entity.TypeLeadUpdated:
		return "/leads/" + *relatedID
	default:
		return "/notifications"
	}
}
