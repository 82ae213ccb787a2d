package push

import (
	"encoding/json"
	"net/http"
	"sync"

	"taskflow/pkg/config"
	"taskflow/pkg/logger"
	"taskflow/services/notification/internal/entity"
	"taskflow/services/notification/internal/repo/persistent"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// sendFunc matches webpush.SendNotification so tests can stub the transport.
type sendFunc func(message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// Service fans a notification payload out to every registered push endpoint
// of a user. Endpoints fail independently; an endpoint the transport reports
// as gone is pruned from the registry, anything else is logged and dropped.
// There is no retry here: the next domain event re-attempts delivery to
// whatever subscriptions remain.
type Service struct {
	subscriptionRepo persistent.SubscriptionRepository
	logger           *logger.Logger
	options          *webpush.Options
	send             sendFunc
}

func NewService(subscriptionRepo persistent.SubscriptionRepository, log *logger.Logger, cfg *config.Config) *Service {
	return &Service{
		subscriptionRepo: subscriptionRepo,
		logger:           log,
		options: &webpush.Options{
			Subscriber:      cfg.VAPIDSubject,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             cfg.PushTTL,
			HTTPClient:      &http.Client{Timeout: cfg.PushTimeout},
		},
		send: webpush.SendNotification,
	}
}

// SendToUser delivers payload to all of the user's subscriptions. With no
// subscriptions it is a silent no-op.
func (s *Service) SendToUser(userID string, payload Payload) {
	subs, err := s.subscriptionRepo.ListByUser(userID)
	if err != nil {
		s.logger.Error("Failed to list push subscriptions for user %s: %v", userID, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to marshal push payload for user %s: %v", userID, err)
		return
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub entity.PushSubscription) {
			defer wg.Done()
			s.sendOne(sub, body)
		}(sub)
	}
	wg.Wait()
}

// SendToUsers fans SendToUser out across users; one user's total failure does
// not affect the others.
func (s *Service) SendToUsers(userIDs []string, payload Payload) {
	var wg sync.WaitGroup
	for _, userID := range userIDs {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			s.SendToUser(userID, payload)
		}(userID)
	}
	wg.Wait()
}

func (s *Service) sendOne(sub entity.PushSubscription, body []byte) {
	resp, err := s.send(body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, s.options)
	if err != nil {
		s.logger.Warn("Push delivery to endpoint %s failed: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		// The push service says this endpoint no longer exists: prune it.
		if _, err := s.subscriptionRepo.RemoveByID(sub.ID); err != nil {
			s.logger.Error("Failed to prune dead push subscription %s: %v", sub.ID, err)
			return
		}
		s.logger.Info("Pruned dead push subscription %s for user %s", sub.ID, sub.UserID)
	case resp.StatusCode >= 400:
		s.logger.Warn("Push delivery to endpoint %s returned status %d", sub.Endpoint, resp.StatusCode)
	}
}
