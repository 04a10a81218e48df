// internal/models/license.go
package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultMaxPoints = 12

// License is the issued credential: class, validity window and demerit-point
// balance. One license per user, enforced by the unique index on user_id.
type License struct {
	BaseModel
	UserID     uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	Number     string        `json:"number" gorm:"size:40;not null"`
	Class      string        `json:"class" gorm:"size:10;not null"`
	IssueDate  time.Time     `json:"issue_date"`
	ExpiryDate time.Time     `json:"expiry_date"`
	Status     LicenseStatus `json:"status" gorm:"type:varchar(20);default:'Valid'"`

	// Points is updated incrementally by the violation ledger and clamped to
	// [0, MaxPoints]; it is not recomputed from the violation rows.
	Points    int `json:"points" gorm:"default:0"`
	MaxPoints int `json:"max_points" gorm:"default:12"`

	Restrictions     string `json:"restrictions" gorm:"size:255;default:'None'"`
	ExamReference    string `json:"exam_reference,omitempty" gorm:"size:64"`
	PaymentReference string `json:"payment_reference,omitempty" gorm:"size:64"`

	Violations []Violation `json:"violations,omitempty" gorm:"foreignKey:LicenseID"`
}

// IsExpired reports whether the validity window has passed at t.
func (l *License) IsExpired(t time.Time) bool {
	return t.After(l.ExpiryDate)
}

// Violation is a demerit-point event recorded against a license.
type Violation struct {
	BaseModel
	LicenseID   uuid.UUID  `json:"license_id" gorm:"type:uuid;not null;index"`
	Type        string     `json:"type" gorm:"size:100;not null"`
	Points      int        `json:"points" gorm:"not null"`
	Description string     `json:"description" gorm:"type:text"`
	Location    string     `json:"location" gorm:"size:255"`
	Date        time.Time  `json:"date" gorm:"index"`
	RecordedBy  *uuid.UUID `json:"recorded_by" gorm:"type:uuid"`
}

// UserViolation is a violation flattened with its owner, the shape returned
// by the ledger's read operations.
type UserViolation struct {
	Violation
	UserID        uuid.UUID `json:"user_id"`
	LicenseNumber string    `json:"license_number"`
}
