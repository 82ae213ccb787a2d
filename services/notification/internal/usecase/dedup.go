package usecase

import (
	"errors"
	"time"

	"taskflow/services/notification/internal/entity"

	"gorm.io/gorm"
)

// resolve decides create-vs-collapse for an event and performs the write.
// Only comment_added events with a related object collapse: repeated comments
// on one task read as a single evolving thread, while assignment and status
// events are discrete facts that always get their own row.
func (uc *notificationUseCase) resolve(event entity.Event) (id string, collapsed bool, err error) {
	if event.Collapsible() {
		existing, err := uc.notificationRepo.FindCollapsible(event.UserID, event.Type, *event.RelatedID)
		if err != nil {
			return "", false, err
		}
		if existing != nil {
			return uc.collapse(existing.ID, event)
		}
	}

	id, err = uc.notificationRepo.Create(&entity.Notification{
		UserID:       event.UserID,
		Title:        event.Title,
		Message:      event.Message,
		Type:         event.Type,
		RelatedID:    event.RelatedID,
		AssignerName: event.AssignerName,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		// The partial unique index backstops the comment invariant across
		// service instances; losing that race means the row exists now, so
		// fall through to the collapse path.
		if event.Collapsible() && errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, ferr := uc.notificationRepo.FindCollapsible(event.UserID, event.Type, *event.RelatedID)
			if ferr != nil {
				return "", false, ferr
			}
			if existing != nil {
				return uc.collapse(existing.ID, event)
			}
		}
		return "", false, err
	}
	return id, false, nil
}

// collapse refreshes an existing comment notification in place. A new comment
// is new information even if earlier ones were read, so the row goes back to
// unread and its CreatedAt moves to now.
func (uc *notificationUseCase) collapse(id string, event entity.Event) (string, bool, error) {
	_, err := uc.notificationRepo.Update(id, map[string]interface{}{
		"title":         event.Title,
		"message":       event.Message,
		"assigner_name": event.AssignerName,
		"is_read":       false,
		"created_at":    time.Now().UTC(),
	})
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}
