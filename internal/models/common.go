// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}
	return nil
}

// StringArray is stored as a JSON-encoded list
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	}
	return nil
}

// Enums
type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "pending"
	ApplicationStatusUnderReview ApplicationStatus = "under_review"
	ApplicationStatusApproved    ApplicationStatus = "approved"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
	ApplicationStatusExpired     ApplicationStatus = "expired"
)

type LicenseStatus string

const (
	LicenseStatusValid   LicenseStatus = "Valid"
	LicenseStatusExpired LicenseStatus = "Expired"
)

type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeWarning NotificationType = "warning"
	NotificationTypeError   NotificationType = "error"
)

type ActivityType string

const (
	ActivityTypeLicenseApplication ActivityType = "license_application"
	ActivityTypeApplicationReview  ActivityType = "application_review"
	ActivityTypeLicenseIssued      ActivityType = "license_issued"
	ActivityTypeLicenseRenewed     ActivityType = "license_renewed"
	ActivityTypeLicenseExpired     ActivityType = "license_expired"
	ActivityTypeViolationRecorded  ActivityType = "violation_recorded"
	ActivityTypeViolationUpdated   ActivityType = "violation_updated"
	ActivityTypeViolationRemoved   ActivityType = "violation_removed"
	ActivityTypeExamScheduled      ActivityType = "exam_scheduled"
	ActivityTypeExamCompleted      ActivityType = "exam_completed"
	ActivityTypePayment            ActivityType = "payment"
	ActivityTypeNotification       ActivityType = "notification"
	ActivityTypeDocumentUpload     ActivityType = "document_upload"
	ActivityTypeProfileUpdate      ActivityType = "profile_update"
	ActivityTypeSystem             ActivityType = "system"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// LicenseClasses is the closed set of category codes an application may request.
var LicenseClasses = []string{
	"A1", "A", "B1", "B", "C1", "C", "D1", "D", "BE", "C1E", "CE", "D1E",
}

func IsValidLicenseClass(class string) bool {
	for _, c := range LicenseClasses {
		if c == class {
			return true
		}
	}
	return false
}

func IsValidApplicationStatus(status ApplicationStatus) bool {
	switch status {
	case ApplicationStatusPending, ApplicationStatusUnderReview,
		ApplicationStatusApproved, ApplicationStatusRejected, ApplicationStatusExpired:
		return true
	}
	return false
}
