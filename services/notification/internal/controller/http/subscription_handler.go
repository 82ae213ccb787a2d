package http

import (
	"errors"
	"net/http"

	"taskflow/pkg/logger"
	"taskflow/services/notification/internal/usecase"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	notificationUseCase usecase.NotificationUseCase
	logger              *logger.Logger
}

func NewSubscriptionHandler(notificationUseCase usecase.NotificationUseCase, logger *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		notificationUseCase: notificationUseCase,
		logger:              logger,
	}
}

// SubscribeRequest mirrors the browser PushSubscription JSON shape.
type SubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// Subscribe godoc
// @Summary      Register a push endpoint
// @Description  Registers or refreshes a web push subscription for the authenticated user
// @Tags         push
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        subscription body SubscribeRequest true "Browser push subscription"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /push/subscribe [post]
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.notificationUseCase.Subscribe(userID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		if errors.Is(err, usecase.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to register push subscription: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Push subscription registered",
		"created": created,
	})
}

// Unsubscribe godoc
// @Summary      Remove all push endpoints
// @Tags         push
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /push/subscribe [delete]
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	removed, err := h.notificationUseCase.Unsubscribe(userID)
	if err != nil {
		h.logger.Error("Failed to remove push subscriptions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove subscriptions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Push subscriptions removed",
		"removed": removed,
	})
}

// GetStatus godoc
// @Summary      Check push subscription status
// @Tags         push
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /push/status [get]
func (h *SubscriptionHandler) GetStatus(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	subscribed, err := h.notificationUseCase.HasSubscription(userID)
	if err != nil {
		h.logger.Error("Failed to check push subscription status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check subscription status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscribed": subscribed})
}
