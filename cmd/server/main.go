// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/trafficdept/dlms-backend/internal/config"
	"github.com/trafficdept/dlms-backend/internal/database"
	"github.com/trafficdept/dlms-backend/internal/events"
	"github.com/trafficdept/dlms-backend/internal/router"
	"github.com/trafficdept/dlms-backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	// Event bus for notification and activity side effects
	dispatcher := events.NewDispatcher()

	// Initialize router
	r := router.Initialize(db, cfg, dispatcher)

	// Background sweep moving stale pending applications to expired
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runExpirySweep(sweepCtx, db, cfg, dispatcher)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	stopSweep()

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("Server forced to shutdown")
	}

	// Let in-flight notification and activity handlers finish.
	dispatcher.Wait()

	logrus.Info("Server exited")
}

// runExpirySweep expires overdue pending applications once at startup and then
// every 12 hours.
func runExpirySweep(ctx context.Context, db *gorm.DB, cfg *config.Config, dispatcher *events.Dispatcher) {
	licenseService := services.NewLicenseService(db, cfg, dispatcher)
	applicationService := services.NewApplicationService(db, licenseService, dispatcher)
	maxAge := time.Duration(cfg.License.ApplicationMaxAgeDays) * 24 * time.Hour

	sweep := func() {
		expired, err := applicationService.ExpireOverdue(maxAge)
		if err != nil {
			logrus.WithError(err).Error("Application expiry sweep failed")
			return
		}
		if expired > 0 {
			logrus.WithField("expired", expired).Info("Expired overdue applications")
		}
	}

	sweep()

	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
