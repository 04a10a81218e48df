// internal/services/violation_service.go
package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trafficdept/dlms-backend/internal/apperrors"
	"github.com/trafficdept/dlms-backend/internal/database"
	"github.com/trafficdept/dlms-backend/internal/events"
	"github.com/trafficdept/dlms-backend/internal/models"
)

type ViolationService struct {
	db         *gorm.DB
	licenses   *LicenseService
	dispatcher *events.Dispatcher
}

type RecordViolationRequest struct {
	UserID      uuid.UUID  `json:"user_id" validate:"required"`
	Type        string     `json:"type" validate:"required"`
	Points      int        `json:"points" validate:"required,min=1"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Date        time.Time  `json:"date"`
	RecordedBy  *uuid.UUID `json:"recorded_by"`
}

type UpdateViolationRequest struct {
	Type        *string    `json:"type"`
	Points      *int       `json:"points"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	Date        *time.Time `json:"date"`
}

func NewViolationService(db *gorm.DB, licenses *LicenseService, dispatcher *events.Dispatcher) *ViolationService {
	return &ViolationService{
		db:         db,
		licenses:   licenses,
		dispatcher: dispatcher,
	}
}

// Record adds a demerit-point event against the user's license, bootstrapping
// a default license first when none exists. The point balance and the
// violation row are written in one transaction; the balance is clamped at the
// license cap, never recomputed from the row sum.
func (s *ViolationService) Record(req *RecordViolationRequest) (*models.Violation, error) {
	if fieldErrors := validateRequest(req); fieldErrors != nil {
		return nil, fieldErrors
	}

	if req.Date.IsZero() {
		req.Date = time.Now()
	}

	var violation *models.Violation
	var bootstrapped bool

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var license models.License
		err := tx.Where("user_id = ?", req.UserID).First(&license).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created, berr := s.licenses.BootstrapDefault(tx, req.UserID)
			if berr != nil {
				return berr
			}
			license = *created
			bootstrapped = true
		} else if err != nil {
			return fmt.Errorf("database error: %w", err)
		}

		newPoints := license.Points + req.Points
		if newPoints > license.MaxPoints {
			newPoints = license.MaxPoints
		}

		if err := tx.Model(&models.License{}).
			Where("id = ?", license.ID).
			Update("points", newPoints).Error; err != nil {
			return fmt.Errorf("failed to update points: %w", err)
		}

		violation = &models.Violation{
			LicenseID:   license.ID,
			Type:        req.Type,
			Points:      req.Points,
			Description: req.Description,
			Location:    req.Location,
			Date:        req.Date,
			RecordedBy:  req.RecordedBy,
		}

		if err := tx.Create(violation).Error; err != nil {
			return fmt.Errorf("failed to create violation: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if bootstrapped {
		s.dispatcher.Publish(events.Event{
			Name:   events.LicenseBootstrapped,
			UserID: req.UserID,
			Payload: map[string]interface{}{
				"violation_id": violation.ID,
			},
		})
	}

	s.dispatcher.Publish(events.Event{
		Name:   events.ViolationRecorded,
		UserID: req.UserID,
		Payload: map[string]interface{}{
			"violation_id": violation.ID,
			"type":         violation.Type,
			"points":       violation.Points,
			"location":     violation.Location,
		},
	})

	return violation, nil
}

// Update patches a violation and shifts the license balance by the point
// delta, clamped to [0, max].
func (s *ViolationService) Update(id uuid.UUID, req *UpdateViolationRequest) (*models.Violation, error) {
	var violation models.Violation
	var userID uuid.UUID

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&violation, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFound("violation")
			}
			return fmt.Errorf("database error: %w", err)
		}

		var license models.License
		if err := tx.First(&license, "id = ?", violation.LicenseID).Error; err != nil {
			return fmt.Errorf("failed to load license: %w", err)
		}
		userID = license.UserID

		oldPoints := violation.Points

		if req.Type != nil {
			violation.Type = *req.Type
		}
		if req.Points != nil {
			if *req.Points < 1 {
				return apperrors.NewValidation("points", "points must be at least 1")
			}
			violation.Points = *req.Points
		}
		if req.Description != nil {
			violation.Description = *req.Description
		}
		if req.Location != nil {
			violation.Location = *req.Location
		}
		if req.Date != nil {
			violation.Date = *req.Date
		}

		if err := tx.Save(&violation).Error; err != nil {
			return fmt.Errorf("failed to update violation: %w", err)
		}

		newBalance := clamp(license.Points+(violation.Points-oldPoints), 0, license.MaxPoints)
		if err := tx.Model(&models.License{}).
			Where("id = ?", license.ID).
			Update("points", newBalance).Error; err != nil {
			return fmt.Errorf("failed to update points: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Publish(events.Event{
		Name:   events.ViolationUpdated,
		UserID: userID,
		Payload: map[string]interface{}{
			"violation_id": violation.ID,
			"type":         violation.Type,
			"points":       violation.Points,
		},
	})

	return &violation, nil
}

// Delete removes a violation and debits its recorded points, floored at zero.
func (s *ViolationService) Delete(id uuid.UUID) error {
	var userID uuid.UUID
	var removed models.Violation

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&removed, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFound("violation")
			}
			return fmt.Errorf("database error: %w", err)
		}

		var license models.License
		if err := tx.First(&license, "id = ?", removed.LicenseID).Error; err != nil {
			return fmt.Errorf("failed to load license: %w", err)
		}
		userID = license.UserID

		if err := tx.Delete(&removed).Error; err != nil {
			return fmt.Errorf("failed to delete violation: %w", err)
		}

		newBalance := license.Points - removed.Points
		if newBalance < 0 {
			newBalance = 0
		}
		if err := tx.Model(&models.License{}).
			Where("id = ?", license.ID).
			Update("points", newBalance).Error; err != nil {
			return fmt.Errorf("failed to update points: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.dispatcher.Publish(events.Event{
		Name:   events.ViolationDeleted,
		UserID: userID,
		Payload: map[string]interface{}{
			"violation_id": removed.ID,
			"type":         removed.Type,
			"points":       removed.Points,
		},
	})

	return nil
}

// GetAll flattens violations across every license, newest first.
func (s *ViolationService) GetAll() ([]models.UserViolation, error) {
	var licenses []models.License
	if err := s.db.Preload("Violations").Find(&licenses).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch licenses: %w", err)
	}

	return flattenViolations(licenses), nil
}

// GetUserViolations returns one user's violations, newest first.
func (s *ViolationService) GetUserViolations(userID uuid.UUID) ([]models.UserViolation, error) {
	var licenses []models.License
	if err := s.db.Preload("Violations").Where("user_id = ?", userID).Find(&licenses).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch licenses: %w", err)
	}

	return flattenViolations(licenses), nil
}

func flattenViolations(licenses []models.License) []models.UserViolation {
	var flattened []models.UserViolation
	for _, license := range licenses {
		for _, violation := range license.Violations {
			flattened = append(flattened, models.UserViolation{
				Violation:     violation,
				UserID:        license.UserID,
				LicenseNumber: license.Number,
			})
		}
	}

	sort.SliceStable(flattened, func(i, j int) bool {
		return flattened[i].Date.After(flattened[j].Date)
	})
	return flattened
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
