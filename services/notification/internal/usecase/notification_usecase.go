package usecase

import (
	"fmt"
	"strings"

	"taskflow/pkg/logger"
	"taskflow/services/notification/internal/entity"
	"taskflow/services/notification/internal/push"
	"taskflow/services/notification/internal/realtime"
	"taskflow/services/notification/internal/repo/persistent"
)

// RealtimePublisher pushes an event to the live sessions of a user.
// Implemented by realtime.Hub.
type RealtimePublisher interface {
	Publish(userID, event string, payload interface{})
}

// PushSender delivers a payload to a user's registered push endpoints.
// Implemented by push.Service.
type PushSender interface {
	SendToUser(userID string, payload push.Payload)
}

type NotifyResult struct {
	Notification *entity.Notification
	Collapsed    bool
}

type NotificationUseCase interface {
	Notify(event entity.Event) (*NotifyResult, error)
	GetNotifications(userID string, limit, offset int) ([]entity.Notification, int64, error)
	GetUnreadCount(userID string) (int64, error)
	MarkRead(userID, notificationID string) error
	MarkAllRead(userID string) (int64, error)
	DeleteNotification(userID, notificationID string) error
	Subscribe(userID, endpoint, p256dh, auth string) (created bool, err error)
	Unsubscribe(userID string) (int64, error)
	HasSubscription(userID string) (bool, error)
}

type notificationUseCase struct {
	notificationRepo persistent.NotificationRepository
	subscriptionRepo persistent.SubscriptionRepository
	hub              RealtimePublisher
	push             PushSender
	logger           *logger.Logger
	dedupKeys        *keyedMutex
}

func NewNotificationUseCase(
	notificationRepo persistent.NotificationRepository,
	subscriptionRepo persistent.SubscriptionRepository,
	hub RealtimePublisher,
	pushSender PushSender,
	log *logger.Logger,
) NotificationUseCase {
	return &notificationUseCase{
		notificationRepo: notificationRepo,
		subscriptionRepo: subscriptionRepo,
		hub:              hub,
		push:             pushSender,
		logger:           log,
		dedupKeys:        newKeyedMutex(),
	}
}

// Notify turns a domain event into a notification row and fans it out. The
// row write is durable before it returns; the realtime and push deliveries
// run detached from the caller and their failures never propagate.
func (uc *notificationUseCase) Notify(event entity.Event) (*NotifyResult, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	// Concurrent comment events on the same thread must not race the
	// read-check-then-write below into duplicate rows.
	if event.Collapsible() {
		key := dedupKey(event)
		uc.dedupKeys.Lock(key)
		defer uc.dedupKeys.Unlock(key)
	}

	id, collapsed, err := uc.resolve(event)
	if err != nil {
		return nil, err
	}

	notification, err := uc.notificationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, fmt.Errorf("notification %s vanished after write", id)
	}

	eventName := realtime.EventNewNotification
	if collapsed {
		eventName = realtime.EventUpdateNotification
	}
	go uc.deliverRealtime(*notification, eventName)
	go uc.deliverPush(*notification)

	return &NotifyResult{Notification: notification, Collapsed: collapsed}, nil
}

func (uc *notificationUseCase) deliverRealtime(n entity.Notification, eventName string) {
	unread, err := uc.notificationRepo.CountUnread(n.UserID)
	if err != nil {
		uc.logger.Warn("Failed to count unread for realtime event, user %s: %v", n.UserID, err)
	}
	uc.hub.Publish(n.UserID, eventName, map[string]interface{}{
		"notification": n,
		"unread_count": unread,
	})
}

func (uc *notificationUseCase) deliverPush(n entity.Notification) {
	uc.push.SendToUser(n.UserID, push.PayloadFor(n))
}

func (uc *notificationUseCase) GetNotifications(userID string, limit, offset int) ([]entity.Notification, int64, error) {
	notifications, err := uc.notificationRepo.ListByUser(userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := uc.notificationRepo.CountByUser(userID)
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (uc *notificationUseCase) GetUnreadCount(userID string) (int64, error) {
	return uc.notificationRepo.CountUnread(userID)
}

func (uc *notificationUseCase) MarkRead(userID, notificationID string) error {
	affected, err := uc.notificationRepo.MarkRead(notificationID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (uc *notificationUseCase) MarkAllRead(userID string) (int64, error) {
	return uc.notificationRepo.MarkAllRead(userID)
}

func (uc *notificationUseCase) DeleteNotification(userID, notificationID string) error {
	affected, err := uc.notificationRepo.Delete(notificationID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (uc *notificationUseCase) Subscribe(userID, endpoint, p256dh, auth string) (bool, error) {
	if endpoint == "" || p256dh == "" || auth == "" {
		return false, fmt.Errorf("%w: endpoint and keys are required", ErrValidation)
	}
	return uc.subscriptionRepo.Upsert(userID, endpoint, p256dh, auth)
}

func (uc *notificationUseCase) Unsubscribe(userID string) (int64, error) {
	return uc.subscriptionRepo.RemoveByUser(userID)
}

func (uc *notificationUseCase) HasSubscription(userID string) (bool, error) {
	count, err := uc.subscriptionRepo.CountByUser(userID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func validateEvent(event entity.Event) error {
	var missing []string
	if event.UserID == "" {
		missing = append(missing, "user_id")
	}
	if event.Title == "" {
		missing = append(missing, "title")
	}
	if event.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if !event.Type.Valid() {
		return fmt.Errorf("%w: unknown notification type %q", ErrValidation, event.Type)
	}
	return nil
}

func dedupKey(event entity.Event) string {
	return event.UserID + "|" + string(event.Type) + "|" + *event.RelatedID
}
