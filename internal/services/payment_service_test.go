// internal/services/payment_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/trafficdept/dlms-backend/internal/apperrors"
	"github.com/trafficdept/dlms-backend/internal/events"
	"github.com/trafficdept/dlms-backend/internal/models"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	db            *gorm.DB
	payments      *PaymentService
	notifications *NotificationService
}

func (suite *PaymentServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	dispatcher := events.NewSyncDispatcher()

	// No Stripe key configured: fee intents use local references.
	suite.payments = NewPaymentService(suite.db, newTestConfig(), dispatcher)
	suite.notifications = NewNotificationService(suite.db)

	RegisterSideEffects(dispatcher, suite.notifications, NewActivityService(suite.db))
}

func (suite *PaymentServiceTestSuite) TestCreateFeeIntentLocalFallback() {
	userID := uuid.New()

	intent, err := suite.payments.CreateFeeIntent(&CreateFeeIntentRequest{
		UserID:  userID,
		Purpose: "application_fee",
	})
	suite.Require().NoError(err)
	suite.Equal(40.0, intent.Amount)
	suite.Equal("usd", intent.Currency)
	suite.Contains(intent.Reference, "LOCAL-")
	suite.Empty(intent.ClientSecret)

	var payment models.Payment
	suite.Require().NoError(suite.db.First(&payment, "id = ?", intent.PaymentID).Error)
	suite.Equal(models.PaymentStatusPending, payment.Status)
}

func (suite *PaymentServiceTestSuite) TestCreateFeeIntentRejectsUnknownPurpose() {
	_, err := suite.payments.CreateFeeIntent(&CreateFeeIntentRequest{
		UserID:  uuid.New(),
		Purpose: "bribe",
	})
	_, ok := apperrors.IsValidation(err)
	suite.True(ok)
}

func (suite *PaymentServiceTestSuite) TestConfirmCompletesAndNotifies() {
	userID := uuid.New()

	intent, err := suite.payments.CreateFeeIntent(&CreateFeeIntentRequest{
		UserID:  userID,
		Purpose: "exam_fee",
	})
	suite.Require().NoError(err)

	payment, err := suite.payments.Confirm(&ConfirmPaymentRequest{PaymentID: intent.PaymentID})
	suite.Require().NoError(err)
	suite.Equal(models.PaymentStatusCompleted, payment.Status)
	suite.NotNil(payment.PaidAt)

	notifications, err := suite.notifications.GetUserNotifications(userID)
	suite.Require().NoError(err)
	suite.Require().Len(notifications, 1)
	suite.Equal("Payment Received", notifications[0].Title)

	// Confirming again is idempotent: no second notification.
	_, err = suite.payments.Confirm(&ConfirmPaymentRequest{PaymentID: intent.PaymentID})
	suite.Require().NoError(err)

	notifications, err = suite.notifications.GetUserNotifications(userID)
	suite.Require().NoError(err)
	suite.Len(notifications, 1)
}

func (suite *PaymentServiceTestSuite) TestConfirmNotFound() {
	_, err := suite.payments.Confirm(&ConfirmPaymentRequest{PaymentID: uuid.New()})
	suite.True(apperrors.IsNotFound(err))
}

func TestPaymentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
