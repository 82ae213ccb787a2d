package internal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskflow/pkg/config"
	"taskflow/pkg/jwt"
	"taskflow/pkg/logger"
	"taskflow/pkg/middleware"
	"taskflow/pkg/queue"
	notificationHTTP "taskflow/services/notification/internal/controller/http"
	"taskflow/services/notification/internal/entity"
	"taskflow/services/notification/internal/push"
	"taskflow/services/notification/internal/realtime"
	"taskflow/services/notification/internal/repo/persistent"
	"taskflow/services/notification/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "taskflow/services/notification/docs" // Swagger docs
)

func Run(cfg *config.Config, log *logger.Logger, db *gorm.DB, redisClient *redis.Client, queueClient *queue.Client) {
	jwtService := jwt.NewService(cfg.JWTSecret)

	// Initialize repositories
	notificationRepo := persistent.NewNotificationRepository(db)
	subscriptionRepo := persistent.NewSubscriptionRepository(db)

	// Delivery channels
	hub := realtime.NewHub(log)
	pushService := push.NewService(subscriptionRepo, log, cfg)

	// Orchestrator
	notificationUseCase := usecase.NewNotificationUseCase(notificationRepo, subscriptionRepo, hub, pushService, log)

	// HTTP handlers
	notificationHandler := notificationHTTP.NewNotificationHandler(notificationUseCase, hub, log, jwtService)
	subscriptionHandler := notificationHTTP.NewSubscriptionHandler(notificationUseCase, log)

	// Setup router
	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	// Protected routes - require authentication
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisClient, 120, time.Minute))
	{
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.GetUnreadCount)
		protected.PATCH("/notifications/read-all", notificationHandler.MarkAllRead)
		protected.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
		protected.DELETE("/notifications/:id", notificationHandler.DeleteNotification)

		protected.POST("/push/subscribe", subscriptionHandler.Subscribe)
		protected.DELETE("/push/subscribe", subscriptionHandler.Unsubscribe)
		protected.GET("/push/status", subscriptionHandler.GetStatus)
	}
	// WebSocket endpoint - handles authentication internally via query parameter
	api.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	// Internal routes - no auth required (for internal service calls)
	{
		api.POST("/notifications/events", notificationHandler.PublishEvent)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Consume domain events published by the task and comment code paths
	go func() {
		log.Info("Starting domain event consumer...")

		err := queueClient.ConsumeDomainEvents(func(body []byte) error {
			var event entity.Event
			if err := json.Unmarshal(body, &event); err != nil {
				log.Error("Dropping malformed domain event: %v, body=%s", err, string(body))
				return nil // poison message, do not requeue
			}

			_, err := notificationUseCase.Notify(event)
			if errors.Is(err, usecase.ErrValidation) {
				log.Error("Dropping invalid domain event: %v", err)
				return nil
			}
			return err // storage errors requeue for a later retry
		})
		if err != nil {
			log.Error("Error starting domain event consumer: %v", err)
		}
	}()

	// Start server in a goroutine
	go func() {
		log.Info("Notification service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down notification service...")

	// The context is used to inform the server it has 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Close Redis connection
	if err := redisClient.Close(); err != nil {
		log.Error("Error closing Redis: %v", err)
	}

	// Close RabbitMQ connection
	if queueClient != nil {
		queueClient.Close()
	}

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
		panic(err)
	}

	log.Info("Notification service exited")
}
