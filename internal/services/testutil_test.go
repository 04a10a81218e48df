// internal/services/testutil_test.go
package services

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trafficdept/dlms-backend/internal/config"
	"github.com/trafficdept/dlms-backend/internal/models"
)

// setupTestDB opens a per-test in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Application{},
		&models.License{},
		&models.Violation{},
		&models.Notification{},
		&models.ActivityLog{},
		&models.ExamSchedule{},
		&models.ExamResult{},
		&models.Payment{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Port: "8080",
		},
		JWT: config.JWTConfig{
			SecretKey:      "test-secret",
			AccessTokenTTL: 1,
		},
		Payment: config.PaymentConfig{
			ApplicationFee:  40.0,
			ExamFee:         25.0,
			DefaultCurrency: "usd",
		},
		License: config.LicenseConfig{
			ValidityYears:          10,
			BootstrapValidityYears: 5,
			MaxPoints:              models.DefaultMaxPoints,
			ApplicationMaxAgeDays:  90,
		},
	}
}

func testDocuments() map[string]models.DocumentDescriptor {
	docs := make(map[string]models.DocumentDescriptor, len(models.RequiredDocumentTypes))
	for _, docType := range models.RequiredDocumentTypes {
		docs[docType] = models.DocumentDescriptor{
			Name:     docType + ".pdf",
			URL:      "http://localhost:8080/uploads/documents/" + docType + ".pdf",
			Key:      "documents/" + docType + ".pdf",
			Size:     1024,
			MimeType: "application/pdf",
		}
	}
	return docs
}
