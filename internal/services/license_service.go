// internal/services/license_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trafficdept/dlms-backend/internal/config"
	"github.com/trafficdept/dlms-backend/internal/events"
	"github.com/trafficdept/dlms-backend/internal/models"
)

type LicenseService struct {
	db         *gorm.DB
	config     *config.Config
	dispatcher *events.Dispatcher
}

type LicenseStatusView struct {
	HasLicense      bool            `json:"has_license"`
	License         *models.License `json:"license,omitempty"`
	DaysUntilExpiry int             `json:"days_until_expiry,omitempty"`
}

func NewLicenseService(db *gorm.DB, cfg *config.Config, dispatcher *events.Dispatcher) *LicenseService {
	return &LicenseService{
		db:         db,
		config:     cfg,
		dispatcher: dispatcher,
	}
}

// IssueOrRenew upserts the license for a user. On insert all fields are
// initialized; on update the number, class, dates, status and restrictions are
// overwritten while the point balance and violation history are left alone.
func (s *LicenseService) IssueOrRenew(userID uuid.UUID, class, restrictions string) (*models.License, error) {
	if restrictions == "" {
		restrictions = "None"
	}

	now := time.Now()
	expiry := now.AddDate(s.config.License.ValidityYears, 0, 0)

	var license models.License
	err := s.db.Where("user_id = ?", userID).First(&license).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	renewed := err == nil
	if !renewed {
		license = models.License{
			UserID:    userID,
			Number:    s.generateNumber(now),
			Class:     class,
			IssueDate: now,
			ExpiryDate: expiry,
			Status:    models.LicenseStatusValid,
			Points:    0,
			MaxPoints: s.config.License.MaxPoints,
			Restrictions: restrictions,
		}
		if err := s.db.Create(&license).Error; err != nil {
			return nil, fmt.Errorf("failed to create license: %w", err)
		}
	} else {
		license.Number = s.generateNumber(now)
		license.Class = class
		license.IssueDate = now
		license.ExpiryDate = expiry
		license.Status = models.LicenseStatusValid
		license.Restrictions = restrictions
		if err := s.db.Save(&license).Error; err != nil {
			return nil, fmt.Errorf("failed to update license: %w", err)
		}
	}

	s.dispatcher.Publish(events.Event{
		Name:   events.LicenseIssued,
		UserID: userID,
		Payload: map[string]interface{}{
			"license_id": license.ID,
			"number":     license.Number,
			"class":      license.Class,
			"expiry":     license.ExpiryDate,
			"renewed":    renewed,
		},
	})

	return &license, nil
}

// BootstrapDefault creates a provisional license so that recording a violation
// against a licenseless user cannot fail. It runs on the caller's transaction;
// the shorter validity window and the synthetic exam/payment references mark
// the record as bootstrap-issued.
func (s *LicenseService) BootstrapDefault(tx *gorm.DB, userID uuid.UUID) (*models.License, error) {
	now := time.Now()

	var count int64
	if err := tx.Model(&models.License{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count licenses: %w", err)
	}

	license := &models.License{
		UserID:           userID,
		Number:           fmt.Sprintf("DL-%06d", count+1),
		Class:            "B",
		IssueDate:        now,
		ExpiryDate:       now.AddDate(s.config.License.BootstrapValidityYears, 0, 0),
		Status:           models.LicenseStatusValid,
		Points:           0,
		MaxPoints:        s.config.License.MaxPoints,
		Restrictions:     "None",
		ExamReference:    "SYSTEM-EXEMPT",
		PaymentReference: "SYSTEM-WAIVED",
	}

	if err := tx.Create(license).Error; err != nil {
		return nil, fmt.Errorf("failed to bootstrap license: %w", err)
	}

	return license, nil
}

// GetStatus returns the license view for a user, flipping and persisting the
// expiry status if the validity window has lapsed since the last read.
func (s *LicenseService) GetStatus(userID uuid.UUID) (*LicenseStatusView, error) {
	var license models.License
	err := s.db.Preload("Violations").Where("user_id = ?", userID).First(&license).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &LicenseStatusView{HasLicense: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	now := time.Now()
	if license.IsExpired(now) && license.Status != models.LicenseStatusExpired {
		license.Status = models.LicenseStatusExpired
		if err := s.db.Model(&models.License{}).
			Where("id = ?", license.ID).
			Update("status", models.LicenseStatusExpired).Error; err != nil {
			return nil, fmt.Errorf("failed to persist expiry status: %w", err)
		}
	}

	days := int(time.Until(license.ExpiryDate).Hours() / 24)
	if days < 0 {
		days = 0
	}

	return &LicenseStatusView{
		HasLicense:      true,
		License:         &license,
		DaysUntilExpiry: days,
	}, nil
}

// generateNumber builds the approval-path license number from the issue year
// and a timestamp suffix.
func (s *LicenseService) generateNumber(now time.Time) string {
	return fmt.Sprintf("DL-%d-%06d", now.Year(), now.UnixNano()%1000000)
}
