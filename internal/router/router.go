// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/trafficdept/dlms-backend/internal/config"
	"github.com/trafficdept/dlms-backend/internal/events"
	"github.com/trafficdept/dlms-backend/internal/handlers"
	"github.com/trafficdept/dlms-backend/internal/middleware"
	"github.com/trafficdept/dlms-backend/internal/services"
	"github.com/trafficdept/dlms-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config, dispatcher *events.Dispatcher) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db)
	activityService := services.NewActivityService(db)
	storageService, _ := services.NewStorageService(cfg)
	licenseService := services.NewLicenseService(db, cfg, dispatcher)
	violationService := services.NewViolationService(db, licenseService, dispatcher)
	applicationService := services.NewApplicationService(db, licenseService, dispatcher)
	paymentService := services.NewPaymentService(db, cfg, dispatcher)

	// Notification and activity side effects ride on the event bus.
	services.RegisterSideEffects(dispatcher, notificationService, activityService)

	// Initialize handlers
	applicationHandler := handlers.NewApplicationHandler(applicationService, storageService)
	licenseHandler := handlers.NewLicenseHandler(licenseService)
	violationHandler := handlers.NewViolationHandler(violationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	activityHandler := handlers.NewActivityHandler(activityService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Application routes
		applications := v1.Group("/applications")
		applications.Use(middleware.AuthRequired())
		{
			applications.POST("", middleware.UploadRateLimit(), applicationHandler.Submit)
			applications.GET("/user/:userId", applicationHandler.GetUserApplications)
			applications.GET("/:id", applicationHandler.GetApplication)
			applications.PATCH("/:id/status", middleware.AdminRequired(), applicationHandler.UpdateStatus)
			applications.DELETE("/:id", middleware.AdminRequired(), applicationHandler.Delete)
		}

		// License routes
		licenses := v1.Group("/licenses")
		licenses.Use(middleware.AuthRequired())
		{
			licenses.GET("/user/:userId", licenseHandler.GetStatus)
		}

		// Violation routes
		violations := v1.Group("/violations")
		violations.Use(middleware.AuthRequired())
		{
			violations.GET("/user/:userId", violationHandler.GetUserViolations)

			admin := violations.Group("")
			admin.Use(middleware.AdminRequired())
			{
				admin.POST("", violationHandler.Record)
				admin.GET("", violationHandler.GetAll)
				admin.PATCH("/:id", violationHandler.Update)
				admin.DELETE("/:id", violationHandler.Delete)
			}
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.POST("", middleware.AdminRequired(), notificationHandler.Create)
			notifications.GET("/user/:userId", notificationHandler.GetUserNotifications)
			notifications.PATCH("/:id/seen", notificationHandler.MarkSeen)
			notifications.PATCH("/user/:userId/seen", notificationHandler.MarkAllSeen)
			notifications.DELETE("/:id", notificationHandler.Delete)
		}

		// Activity routes
		activities := v1.Group("/activities")
		activities.Use(middleware.AuthRequired())
		{
			activities.GET("/user/:userId", activityHandler.GetUserActivities)
			activities.GET("/user/:userId/history", activityHandler.GetUserHistory)
		}

		// Payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("/intent", paymentHandler.CreateFeeIntent)
			payments.POST("/confirm", paymentHandler.Confirm)
		}
	}

	return r
}
