// internal/models/activity.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog is an append-only audit/history record. Rows are never mutated;
// IsVisible allows soft-hiding an entry from user-facing views.
type ActivityLog struct {
	BaseModel
	UserID       uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;index"`
	ActivityType ActivityType `json:"activity_type" gorm:"type:varchar(40);not null;index"`
	Action       string       `json:"action" gorm:"size:255;not null"`
	Description  string       `json:"description" gorm:"type:text;not null"`
	Details      JSONB        `json:"details,omitempty" gorm:"type:jsonb"`

	RelatedEntityType string     `json:"related_entity_type,omitempty" gorm:"size:50"`
	RelatedEntityID   *uuid.UUID `json:"related_entity_id,omitempty" gorm:"type:uuid"`

	Severity  string      `json:"severity" gorm:"type:varchar(20);default:'info'"`
	Status    string      `json:"status" gorm:"type:varchar(30);default:'completed';index"`
	IsVisible bool        `json:"is_visible" gorm:"default:true"`
	Tags      StringArray `json:"tags,omitempty" gorm:"type:jsonb"`
}

// ExamSchedule and ExamResult are owned by the examination subsystem; they are
// persisted here because the activity timeline is reconstructed from them.
type ExamSchedule struct {
	BaseModel
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	ExamType    string    `json:"exam_type" gorm:"size:30;not null"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Center      string    `json:"center" gorm:"size:255"`
	Status      string    `json:"status" gorm:"type:varchar(20);default:'scheduled'"`
}

type ExamResult struct {
	BaseModel
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	ExamType string    `json:"exam_type" gorm:"size:30;not null"`
	Score    int       `json:"score"`
	Passed   bool      `json:"passed"`
	TakenAt  time.Time `json:"taken_at"`
}

// Payment records a license or exam fee.
type Payment struct {
	BaseModel
	UserID    uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	Purpose   string        `json:"purpose" gorm:"size:100;not null"`
	Amount    float64       `json:"amount" gorm:"type:decimal(10,2);not null"`
	Currency  string        `json:"currency" gorm:"size:10;default:'usd'"`
	Status    PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	Reference string        `json:"reference,omitempty" gorm:"size:64"`
	PaidAt    *time.Time    `json:"paid_at"`
}
