// internal/services/notification_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/trafficdept/dlms-backend/internal/apperrors"
	"github.com/trafficdept/dlms-backend/internal/models"
)

type NotificationServiceTestSuite struct {
	suite.Suite
	db            *gorm.DB
	notifications *NotificationService
}

func (suite *NotificationServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.notifications = NewNotificationService(suite.db)
}

func (suite *NotificationServiceTestSuite) TestCreateDefaultsType() {
	notification, err := suite.notifications.Create(uuid.New(), "Title", "Message", "", "/link")
	suite.Require().NoError(err)
	suite.Equal(models.NotificationTypeInfo, notification.Type)
	suite.False(notification.Seen)
}

func (suite *NotificationServiceTestSuite) TestMarkSeen() {
	userID := uuid.New()
	notification, err := suite.notifications.Create(userID, "Title", "Message", models.NotificationTypeInfo, "")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.notifications.MarkSeen(notification.ID))

	unread, err := suite.notifications.UnreadCount(userID)
	suite.Require().NoError(err)
	suite.Zero(unread)
}

func (suite *NotificationServiceTestSuite) TestMarkSeenNotFound() {
	err := suite.notifications.MarkSeen(uuid.New())
	suite.True(apperrors.IsNotFound(err))
}

func (suite *NotificationServiceTestSuite) TestMarkAllSeen() {
	userID := uuid.New()
	otherID := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := suite.notifications.Create(userID, "Title", "Message", models.NotificationTypeInfo, "")
		suite.Require().NoError(err)
	}
	_, err := suite.notifications.Create(otherID, "Title", "Message", models.NotificationTypeInfo, "")
	suite.Require().NoError(err)

	updated, err := suite.notifications.MarkAllSeen(userID)
	suite.Require().NoError(err)
	suite.Equal(int64(3), updated)

	unread, err := suite.notifications.UnreadCount(userID)
	suite.Require().NoError(err)
	suite.Zero(unread)

	// The other user's notification is untouched.
	otherUnread, err := suite.notifications.UnreadCount(otherID)
	suite.Require().NoError(err)
	suite.Equal(int64(1), otherUnread)

	// Marking again is a no-op.
	updated, err = suite.notifications.MarkAllSeen(userID)
	suite.Require().NoError(err)
	suite.Zero(updated)
}

func (suite *NotificationServiceTestSuite) TestDelete() {
	notification, err := suite.notifications.Create(uuid.New(), "Title", "Message", models.NotificationTypeInfo, "")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.notifications.Delete(notification.ID))
	suite.True(apperrors.IsNotFound(suite.notifications.Delete(notification.ID)))
}

func (suite *NotificationServiceTestSuite) TestGetUserNotificationsNewestFirstCapped() {
	userID := uuid.New()
	for i := 0; i < userNotificationCap+10; i++ {
		_, err := suite.notifications.Create(userID, "Title", "Message", models.NotificationTypeInfo, "")
		suite.Require().NoError(err)
	}

	notifications, err := suite.notifications.GetUserNotifications(userID)
	suite.Require().NoError(err)
	suite.Len(notifications, userNotificationCap)

	for i := 1; i < len(notifications); i++ {
		suite.False(notifications[i-1].CreatedAt.Before(notifications[i].CreatedAt))
	}
}

func TestNotificationServiceSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceTestSuite))
}
