// internal/models/application.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Application is a driving-license request moving through the review workflow.
// UserID is carried as a plain column rather than a foreign key; account
// management lives in a separate system.
type Application struct {
	BaseModel
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	FullName    string    `json:"full_name" gorm:"size:255;not null"`
	NationalID  string    `json:"national_id" gorm:"size:50;not null;index"`
	DateOfBirth string    `json:"date_of_birth" gorm:"size:20"`
	Address     string    `json:"address" gorm:"type:text"`
	Email       string    `json:"email" gorm:"size:255;not null"`
	Phone       string    `json:"phone" gorm:"size:30;not null"`
	LicenseType string    `json:"license_type" gorm:"size:10;not null"`

	// Documents maps a document type ("national_id", "personal_id",
	// "driving_school_certificate") to its stored file descriptor.
	Documents JSONB `json:"documents" gorm:"type:jsonb"`

	Status        ApplicationStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	StatusMessage string            `json:"status_message" gorm:"type:text"`
	ReviewedBy    *uuid.UUID        `json:"reviewed_by" gorm:"type:uuid"`
	ReviewedAt    *time.Time        `json:"reviewed_at"`

	ApplicationDate time.Time `json:"application_date" gorm:"index"`
}

// DocumentDescriptor is the shape stored under each Documents key.
type DocumentDescriptor struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// RequiredDocumentTypes must all be present on submission.
var RequiredDocumentTypes = []string{
	"national_id",
	"personal_id",
	"driving_school_certificate",
}
