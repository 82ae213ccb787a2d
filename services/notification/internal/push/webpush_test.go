package push

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"taskflow/pkg/config"
	"taskflow/pkg/logger"
	"taskflow/services/notification/internal/entity"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
)

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]entity.PushSubscription
}

func newFakeSubscriptionRepo(subs ...entity.PushSubscription) *fakeSubscriptionRepo {
	f := &fakeSubscriptionRepo{subs: make(map[string]entity.PushSubscription)}
	for _, s := range subs {
		f.subs[s.ID] = s
	}
	return f
}

func (f *fakeSubscriptionRepo) ListByUser(userID string) ([]entity.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.PushSubscription
	for _, s := range f.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) Upsert(userID, endpoint, p256dh, auth string) (bool, error) {
	return false, nil
}

func (f *fakeSubscriptionRepo) RemoveByUser(userID string) (int64, error) {
	return 0, nil
}

func (f *fakeSubscriptionRepo) RemoveByID(id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[id]; ok {
		delete(f.subs, id)
		return 1, nil
	}
	return 0, nil
}

func (f *fakeSubscriptionRepo) CountByUser(userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, s := range f.subs {
		if s.UserID == userID {
			count++
		}
	}
	return count, nil
}

func pushResponse(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}
}

func newTestService(repo *fakeSubscriptionRepo, send sendFunc) *Service {
	cfg := &config.Config{
		VAPIDSubject:    "mailto:test@taskflow.local",
		VAPIDPublicKey:  "test-public",
		VAPIDPrivateKey: "test-private",
		PushTimeout:     time.Second,
		PushTTL:         60,
	}
	svc := NewService(repo, logger.New(), cfg)
	svc.send = send
	return svc
}

func sub(id, userID, endpoint string) entity.PushSubscription {
	return entity.PushSubscription{
		ID: id, UserID: userID, Endpoint: endpoint, P256dh: "p", Auth: "a",
	}
}

func TestSendToUser_DeliversToAllEndpoints(t *testing.T) {
	repo := newFakeSubscriptionRepo(
		sub("s-1", "user-1", "https://push.example/1"),
		sub("s-2", "user-1", "https://push.example/2"),
	)

	var mu sync.Mutex
	var delivered []string
	svc := newTestService(repo, func(message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
		mu.Lock()
		delivered = append(delivered, s.Endpoint)
		mu.Unlock()
		return pushResponse(http.StatusCreated), nil
	})

	svc.SendToUser("user-1", Payload{Title: "t", Message: "m"})

	assert.ElementsMatch(t, []string{"https://push.example/1", "https://push.example/2"}, delivered)
}

func TestSendToUser_NoSubscriptionsIsNoOp(t *testing.T) {
	repo := newFakeSubscriptionRepo()

	called := false
	svc := newTestService(repo, func(message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
		called = true
		return pushResponse(http.StatusCreated), nil
	})

	svc.SendToUser("user-1", Payload{Title: "t", Message: "m"})

	assert.False(t, called)
}

func TestSendToUser_PermanentGonePrunesOnlyDeadEndpoint(t *testing.T) {
	repo := newFakeSubscriptionRepo(
		sub("s-1", "user-1", "https://push.example/alive-1"),
		sub("s-2", "user-1", "https://push.example/dead"),
		sub("s-3", "user-1", "https://push.example/alive-2"),
	)

	var mu sync.Mutex
	var delivered []string
	svc := newTestService(repo, func(message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
		mu.Lock()
		delivered = append(delivered, s.Endpoint)
		mu.Unlock()
		if s.Endpoint == "https://push.example/dead" {
			return pushResponse(http.StatusGone), nil
		}
		return pushResponse(http.StatusCreated), nil
	})

	svc.SendToUser("user-1", Payload{Title: "t", Message: "m"})

	// All three endpoints were attempted
	assert.Len(t, delivered, 3)

	// Only the dead one was removed
	count, err := repo.CountByUser("user-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
	_, stillThere := repo.subs["s-2"]
	assert.False(t, stillThere)
}

func TestSendToUser_TransientFailureDoesNotPrune(t *testing.T) {
	repo := newFakeSubscriptionRepo(
		sub("s-1", "user-1", "https://push.example/flaky"),
	)

	svc := newTestService(repo, func(message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
		return pushResponse(http.StatusServiceUnavailable), nil
	})

	svc.SendToUser("user-1", Payload{Title: "t", Message: "m"})

	count, err := repo.CountByUser("user-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSendToUsers_IsolatesUsers(t *testing.T) {
	repo := newFakeSubscriptionRepo(
		sub("s-1", "user-1", "https://push.example/u1"),
		sub("s-2", "user-2", "https://push.example/u2"),
	)

	var mu sync.Mutex
	var delivered []string
	svc := newTestService(repo, func(message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
		mu.Lock()
		delivered = append(delivered, s.Endpoint)
		mu.Unlock()
		if s.Endpoint == "https://push.example/u1" {
			return nil, assert.AnError
		}
		return pushResponse(http.StatusCreated), nil
	})

	svc.SendToUsers([]string{"user-1", "user-2"}, Payload{Title: "t", Message: "m"})

	assert.ElementsMatch(t, []string{"https://push.example/u1", "https://push.example/u2"}, delivered)
}

func TestRouteURL(t *testing.T) {
	taskID := "task-7"
	leadID := "lead-9"

	assert.Equal(t, "/tasks/task-7", RouteURL(entity.TypeTaskAssigned, &taskID))
	assert.Equal(t, "/tasks/task-7", RouteURL(entity.TypeTaskUpdated, &taskID))
	assert.Equal(t, "/tasks/task-7", RouteURL(entity.TypeTaskCompleted, &taskID))
	assert.Equal(t, "/tasks/task-7", RouteURL(entity.TypeCommentAdded, &taskID))
	assert.Equal(t, "/leads/lead-9", RouteURL(entity.TypeLeadAssigned, &leadID))
	assert.Equal(t, "/leads/lead-9", RouteURL(entity.TypeLeadUpdated, &leadID))
	assert.Equal(t, "/notifications", RouteURL(entity.TypeTaskAssigned, nil))
}

func TestPayloadFor(t *testing.T) {
	relatedID := "task-42"
	payload := PayloadFor(entity.Notification{
		ID:        "n-1",
		UserID:    "user-1",
		Title:     "New comment",
		Message:   "hi",
		Type:      entity.TypeCommentAdded,
		RelatedID: &relatedID,
	})

	assert.Equal(t, "New comment", payload.Title)
	assert.Equal(t, "hi", payload.Message)
	assert.Equal(t, "/tasks/task-42", payload.URL)
	assert.Equal(t, "n-1", payload.NotificationID)
	assert.Equal(t, entity.TypeCommentAdded, payload.Type)
	assert.NotEmpty(t, payload.Icon)
}
