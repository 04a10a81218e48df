// internal/services/notification_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/trafficdept/dlms-backend/internal/apperrors"
	"github.com/trafficdept/dlms-backend/internal/models"
)

// userNotificationCap bounds the list-by-user read.
const userNotificationCap = 50

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) Create(userID uuid.UUID, title, message string, typ models.NotificationType, link string) (*models.Notification, error) {
	if typ == "" {
		typ = models.NotificationTypeInfo
	}

	notification := &models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    typ,
		Seen:    false,
		Link:    link,
	}

	if err := s.db.Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return notification, nil
}

// Dispatch creates a notification on behalf of another component. Failures are
// logged and swallowed; the caller's primary operation never sees them.
func (s *NotificationService) Dispatch(userID uuid.UUID, title, message string, typ models.NotificationType, link string) {
	if _, err := s.Create(userID, title, message, typ, link); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"title":   title,
		}).Error("Failed to dispatch notification")
	}
}

func (s *NotificationService) GetUserNotifications(userID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(userNotificationCap).
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, nil
}

func (s *NotificationService) MarkSeen(id uuid.UUID) error {
	result := s.db.Model(&models.Notification{}).Where("id = ?", id).Update("seen", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification seen: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("notification")
	}

	return nil
}

func (s *NotificationService) MarkAllSeen(userID uuid.UUID) (int64, error) {
	result := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND seen = ?", userID, false).
		Update("seen", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications seen: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (s *NotificationService) Delete(id uuid.UUID) error {
	var notification models.Notification
	if err := s.db.First(&notification, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("notification")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Delete(&notification).Error; err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	return nil
}

func (s *NotificationService) UnreadCount(userID uuid.UUID) (int64, error) {
	var count int64
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND seen = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}
