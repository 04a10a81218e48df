// internal/models/notification.go
package models

import "github.com/google/uuid"

// Notification is a user-facing message produced as a side effect of a state
// change. It is read and dismissed independently of whatever produced it.
type Notification struct {
	BaseModel
	UserID  uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Title   string           `json:"title" gorm:"size:255;not null"`
	Message string           `json:"message" gorm:"type:text;not null"`
	Type    NotificationType `json:"type" gorm:"type:varchar(20);default:'info'"`
	Seen    bool             `json:"seen" gorm:"default:false;index"`
	Link    string           `json:"link,omitempty" gorm:"size:255"`
}
