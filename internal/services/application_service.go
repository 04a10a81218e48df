// internal/services/application_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/trafficdept/dlms-backend/internal/apperrors"
	"github.com/trafficdept/dlms-backend/internal/events"
	"github.com/trafficdept/dlms-backend/internal/models"
	"github.com/trafficdept/dlms-backend/internal/utils"
)

const submittedStatusMessage = "Application submitted and pending review"

type ApplicationService struct {
	db         *gorm.DB
	licenses   *LicenseService
	dispatcher *events.Dispatcher
}

type SubmitApplicationRequest struct {
	UserID      uuid.UUID                            `json:"user_id" validate:"required"`
	FullName    string                               `json:"full_name" validate:"required"`
	NationalID  string                               `json:"national_id" validate:"required"`
	DateOfBirth string                               `json:"date_of_birth" validate:"required"`
	Address     string                               `json:"address" validate:"required"`
	Email       string                               `json:"email" validate:"required,email"`
	Phone       string                               `json:"phone" validate:"required,phone"`
	LicenseType string                               `json:"license_type" validate:"required"`
	Documents   map[string]models.DocumentDescriptor `json:"documents"`
}

type ReviewRequest struct {
	Status     models.ApplicationStatus `json:"status" validate:"required"`
	Message    string                   `json:"message"`
	ReviewerID uuid.UUID                `json:"reviewer_id" validate:"required"`
}

func NewApplicationService(db *gorm.DB, licenses *LicenseService, dispatcher *events.Dispatcher) *ApplicationService {
	return &ApplicationService{
		db:         db,
		licenses:   licenses,
		dispatcher: dispatcher,
	}
}

// Submit validates and persists a new application with status pending. No
// side effect of submission can fail the request; they ride on the event bus.
func (s *ApplicationService) Submit(req *SubmitApplicationRequest) (*models.Application, error) {
	if fieldErrors := validateRequest(req); fieldErrors != nil {
		return nil, fieldErrors
	}

	if !models.IsValidLicenseClass(req.LicenseType) {
		return nil, apperrors.NewValidation("license_type", "unknown license category")
	}

	if verr := validateDocuments(req.Documents); verr != nil {
		return nil, verr
	}

	documents := make(models.JSONB, len(req.Documents))
	for docType, descriptor := range req.Documents {
		documents[docType] = map[string]interface{}{
			"name":      descriptor.Name,
			"url":       descriptor.URL,
			"key":       descriptor.Key,
			"size":      descriptor.Size,
			"mime_type": descriptor.MimeType,
		}
	}

	application := &models.Application{
		UserID:          req.UserID,
		FullName:        req.FullName,
		NationalID:      req.NationalID,
		DateOfBirth:     req.DateOfBirth,
		Address:         req.Address,
		Email:           req.Email,
		Phone:           req.Phone,
		LicenseType:     req.LicenseType,
		Documents:       documents,
		Status:          models.ApplicationStatusPending,
		StatusMessage:   submittedStatusMessage,
		ApplicationDate: time.Now(),
	}

	if err := s.db.Create(application).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.NewConflict("application")
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	s.dispatcher.Publish(events.Event{
		Name:   events.ApplicationSubmitted,
		UserID: application.UserID,
		Payload: map[string]interface{}{
			"application_id": application.ID,
			"license_type":   application.LicenseType,
		},
	})

	return application, nil
}

// reviewTargets is the set of statuses a reviewer may set. Expired is set only
// by the overdue sweep, never by review.
var reviewTargets = map[models.ApplicationStatus]bool{
	models.ApplicationStatusApproved:    true,
	models.ApplicationStatusRejected:    true,
	models.ApplicationStatusPending:     true,
	models.ApplicationStatusUnderReview: true,
}

// Review drives the status state machine. A transition to approved issues the
// license synchronously before returning; notification and activity side
// effects go through the dispatcher and cannot fail the review.
//
// Concurrent reviews of the same application are last-write-wins; double
// approval is harmless because issuance is an upsert keyed by user.
func (s *ApplicationService) Review(applicationID uuid.UUID, req *ReviewRequest) (*models.Application, error) {
	if !reviewTargets[req.Status] {
		return nil, apperrors.NewValidation("status", "invalid status value")
	}
	if req.ReviewerID == uuid.Nil {
		return nil, apperrors.NewValidation("reviewer_id", "reviewer_id is required")
	}

	var application models.Application
	if err := s.db.First(&application, "id = ?", applicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("application")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	message := req.Message
	if message == "" {
		message = defaultStatusMessage(req.Status)
	}

	now := time.Now()
	application.Status = req.Status
	application.StatusMessage = message
	application.ReviewedBy = &req.ReviewerID
	application.ReviewedAt = &now

	if err := s.db.Save(&application).Error; err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}

	// License issuance is part of the approval's observable effect: its
	// failure fails the review call.
	if req.Status == models.ApplicationStatusApproved {
		if _, err := s.licenses.IssueOrRenew(application.UserID, application.LicenseType, ""); err != nil {
			return nil, fmt.Errorf("license issuance failed: %w", err)
		}
	}

	s.dispatcher.Publish(events.Event{
		Name:   events.ApplicationReviewed,
		UserID: application.UserID,
		Payload: map[string]interface{}{
			"application_id": application.ID,
			"status":         string(application.Status),
			"message":        application.StatusMessage,
			"reviewer_id":    req.ReviewerID,
		},
	})

	return &application, nil
}

func (s *ApplicationService) GetApplication(id uuid.UUID) (*models.Application, error) {
	var application models.Application
	if err := s.db.First(&application, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("application")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &application, nil
}

func (s *ApplicationService) GetUserApplications(userID uuid.UUID, params utils.PaginationParams) ([]models.Application, int64, error) {
	query := s.db.Model(&models.Application{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	allowedSortFields := []string{"created_at", "application_date", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var applications []models.Application
	if err := query.Find(&applications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch applications: %w", err)
	}

	return applications, total, nil
}

func (s *ApplicationService) Delete(id uuid.UUID) error {
	var application models.Application
	if err := s.db.First(&application, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("application")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Delete(&application).Error; err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}

	return nil
}

// ExpireOverdue moves stale pending applications to expired. Run from a
// scheduler, not from review.
func (s *ApplicationService) ExpireOverdue(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)

	var stale []models.Application
	if err := s.db.Where("status = ? AND application_date < ?",
		models.ApplicationStatusPending, cutoff).Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("failed to fetch stale applications: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	result := s.db.Model(&models.Application{}).
		Where("status = ? AND application_date < ?", models.ApplicationStatusPending, cutoff).
		Updates(map[string]interface{}{
			"status":         models.ApplicationStatusExpired,
			"status_message": "Application expired without review",
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire applications: %w", result.Error)
	}

	for _, application := range stale {
		s.dispatcher.Publish(events.Event{
			Name:   events.ApplicationExpired,
			UserID: application.UserID,
			Payload: map[string]interface{}{
				"application_id": application.ID,
			},
		})
	}

	return result.RowsAffected, nil
}

func defaultStatusMessage(status models.ApplicationStatus) string {
	switch status {
	case models.ApplicationStatusApproved:
		return "Your application has been approved"
	case models.ApplicationStatusRejected:
		return "Your application has been rejected"
	case models.ApplicationStatusUnderReview:
		return "Your application is under review"
	case models.ApplicationStatusPending:
		return submittedStatusMessage
	default:
		return "Application status updated"
	}
}

func validateDocuments(documents map[string]models.DocumentDescriptor) error {
	var missing []apperrors.FieldError
	for _, docType := range models.RequiredDocumentTypes {
		if _, ok := documents[docType]; !ok {
			missing = append(missing, apperrors.FieldError{
				Field:   "documents." + docType,
				Message: docType + " document is required",
			})
		}
	}

	if len(missing) > 0 {
		return &apperrors.ValidationError{Fields: missing}
	}
	return nil
}

// validateRequest runs struct-tag validation and converts failures into the
// application error type.
func validateRequest(req interface{}) error {
	if err := utils.ValidateStruct(req); err != nil {
		if fields := utils.GetValidationErrors(err); len(fields) > 0 {
			return &apperrors.ValidationError{Fields: fields}
		}
		return apperrors.NewValidation("request", "invalid request")
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
