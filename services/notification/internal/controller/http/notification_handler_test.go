package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskflow/pkg/logger"
	"taskflow/services/notification/internal/entity"
	"taskflow/services/notification/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupNotificationTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// fakeUseCase satisfies usecase.NotificationUseCase with canned results.
type fakeUseCase struct {
	notifyResult *usecase.NotifyResult
	notifyErr    error
	markReadErr  error
	deleteErr    error
	unread       int64
	subscribed   bool
	lastEvent    entity.Event
}

func (f *fakeUseCase) Notify(event entity.Event) (*usecase.NotifyResult, error) {
	f.lastEvent = event
	return f.notifyResult, f.notifyErr
}

func (f *fakeUseCase) GetNotifications(userID string, limit, offset int) ([]entity.Notification, int64, error) {
	return []entity.Notification{}, 0, nil
}

func (f *fakeUseCase) GetUnreadCount(userID string) (int64, error) {
	return f.unread, nil
}

func (f *fakeUseCase) MarkRead(userID, notificationID string) error {
	return f.markReadErr
}

func (f *fakeUseCase) MarkAllRead(userID string) (int64, error) {
	return 0, nil
}

func (f *fakeUseCase) DeleteNotification(userID, notificationID string) error {
	return f.deleteErr
}

func (f *fakeUseCase) Subscribe(userID, endpoint, p256dh, auth string) (bool, error) {
	return true, nil
}

func (f *fakeUseCase) Unsubscribe(userID string) (int64, error) {
	return 1, nil
}

func (f *fakeUseCase) HasSubscription(userID string) (bool, error) {
	return f.subscribed, nil
}

func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func TestGetNotifications_Unauthorized(t *testing.T) {
	handler := &NotificationHandler{
		logger: logger.New(),
	}

	router := setupNotificationTestRouter()
	router.GET("/notifications", handler.GetNotifications)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Contains(t, response["error"], "Unauthorized")
}

func TestGetNotifications_Success(t *testing.T) {
	handler := &NotificationHandler{
		notificationUseCase: &fakeUseCase{},
		logger:              logger.New(),
	}

	router := setupNotificationTestRouter()
	router.GET("/notifications", withUser("user-1"), handler.GetNotifications)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications?limit=10", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, float64(0), response["count"])
}

func TestGetUnreadCount_Success(t *testing.T) {
	handler := &NotificationHandler{
		notificationUseCase: &fakeUseCase{unread: 4},
		logger:              logger.New(),
	}

	router := setupNotificationTestRouter()
	router.GET("/notifications/unread-count", withUser("user-1"), handler.GetUnreadCount)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications/unread-count", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, float64(4), response["unread_count"])
}

func TestMarkRead_NotFound(t *testing.T) {
	handler := &NotificationHandler{
		notificationUseCase: &fakeUseCase{markReadErr: usecase.ErrNotFound},
		logger:              logger.New(),
	}

	router := setupNotificationTestRouter()
	router.PATCH("/notifications/:id/read", withUser("user-1"), handler.MarkRead)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/notifications/missing-id/read", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteNotification_Unauthorized(t *testing.T) {
	handler := &NotificationHandler{
		logger: logger.New(),
	}

	router := setupNotificationTestRouter()
	router.DELETE("/notifications/:id", handler.DeleteNotification)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/notifications/n-1", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPublishEvent_Success(t *testing.T) {
	fake := &fakeUseCase{
		notifyResult: &usecase.NotifyResult{
			Notification: &entity.Notification{ID: "n-1", UserID: "user-1"},
			Collapsed:    false,
		},
	}
	handler := &NotificationHandler{
		notificationUseCase: fake,
		logger:              logger.New(),
	}

	router := setupNotificationTestRouter()
	router.POST("/notifications/events", handler.PublishEvent)

	body, _ := json.Marshal(map[string]interface{}{
		"user_id": "user-1",
		"title":   "New comment",
		"message": "hi",
		"type":    "comment_added",
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/notifications/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", fake.lastEvent.UserID)
	assert.Equal(t, entity.TypeCommentAdded, fake.lastEvent.Type)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, false, response["collapsed"])
}

func TestPublishEvent_MissingFields(t *testing.T) {
	handler := &NotificationHandler{
		notificationUseCase: &fakeUseCase{},
		logger:              logger.New(),
	}

	router := setupNotificationTestRouter()
	router.POST("/notifications/events", handler.PublishEvent)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/notifications/events", bytes.NewReader([]byte(`{"user_id":"user-1"}`)))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleWebSocket_MissingToken(t *testing.T) {
	handler := &NotificationHandler{
		logger: logger.New(),
	}

	router := setupNotificationTestRouter()
	router.GET("/notifications/ws", handler.HandleWebSocket)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications/ws", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
