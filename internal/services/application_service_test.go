// internal/services/application_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/trafficdept/dlms-backend/internal/apperrors"
	"github.com/trafficdept/dlms-backend/internal/events"
	"github.com/trafficdept/dlms-backend/internal/models"
	"github.com/trafficdept/dlms-backend/internal/utils"
)

type ApplicationServiceTestSuite struct {
	suite.Suite
	db            *gorm.DB
	dispatcher    *events.Dispatcher
	licenses      *LicenseService
	violations    *ViolationService
	applications  *ApplicationService
	notifications *NotificationService
	activities    *ActivityService
}

func (suite *ApplicationServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.dispatcher = events.NewSyncDispatcher()

	cfg := newTestConfig()
	suite.licenses = NewLicenseService(suite.db, cfg, suite.dispatcher)
	suite.violations = NewViolationService(suite.db, suite.licenses, suite.dispatcher)
	suite.applications = NewApplicationService(suite.db, suite.licenses, suite.dispatcher)
	suite.notifications = NewNotificationService(suite.db)
	suite.activities = NewActivityService(suite.db)

	RegisterSideEffects(suite.dispatcher, suite.notifications, suite.activities)
}

func (suite *ApplicationServiceTestSuite) submitRequest(userID uuid.UUID) *SubmitApplicationRequest {
	return &SubmitApplicationRequest{
		UserID:      userID,
		FullName:    "Amina Diallo",
		NationalID:  "NID-4471209",
		DateOfBirth: "1994-03-18",
		Address:     "12 Harbor Road",
		Email:       "amina.diallo@example.com",
		Phone:       "+15550142233",
		LicenseType: "B",
		Documents:   testDocuments(),
	}
}

func (suite *ApplicationServiceTestSuite) submit(userID uuid.UUID) *models.Application {
	application, err := suite.applications.Submit(suite.submitRequest(userID))
	suite.Require().NoError(err)
	return application
}

func (suite *ApplicationServiceTestSuite) TestSubmitCreatesPendingApplication() {
	userID := uuid.New()
	application := suite.submit(userID)

	suite.Equal(models.ApplicationStatusPending, application.Status)
	suite.Equal("Application submitted and pending review", application.StatusMessage)
	suite.WithinDuration(time.Now(), application.ApplicationDate, 5*time.Second)
	suite.Len(application.Documents, len(models.RequiredDocumentTypes))

	notifications, err := suite.notifications.GetUserNotifications(userID)
	suite.Require().NoError(err)
	suite.Require().Len(notifications, 1)
	suite.Equal("Application Submitted", notifications[0].Title)
}

func (suite *ApplicationServiceTestSuite) TestSubmitRejectsMissingDocuments() {
	req := suite.submitRequest(uuid.New())
	delete(req.Documents, "personal_id")

	_, err := suite.applications.Submit(req)
	ve, ok := apperrors.IsValidation(err)
	suite.Require().True(ok)
	suite.Equal("documents.personal_id", ve.Fields[0].Field)

	// A rejected submission leaves nothing behind.
	var count int64
	suite.Require().NoError(suite.db.Model(&models.Application{}).Count(&count).Error)
	suite.Zero(count)
}

func (suite *ApplicationServiceTestSuite) TestSubmitRejectsUnknownLicenseClass() {
	req := suite.submitRequest(uuid.New())
	req.LicenseType = "Z9"

	_, err := suite.applications.Submit(req)
	_, ok := apperrors.IsValidation(err)
	suite.True(ok)
}

func (suite *ApplicationServiceTestSuite) TestSubmitRejectsInvalidContact() {
	req := suite.submitRequest(uuid.New())
	req.Email = "not-an-email"

	_, err := suite.applications.Submit(req)
	_, ok := apperrors.IsValidation(err)
	suite.True(ok)

	req = suite.submitRequest(uuid.New())
	req.Phone = "abc"

	_, err = suite.applications.Submit(req)
	_, ok = apperrors.IsValidation(err)
	suite.True(ok)
}

func (suite *ApplicationServiceTestSuite) TestApproveIssuesLicense() {
	userID := uuid.New()
	reviewerID := uuid.New()
	application := suite.submit(userID)

	reviewed, err := suite.applications.Review(application.ID, &ReviewRequest{
		Status:     models.ApplicationStatusApproved,
		Message:    "Documents verified",
		ReviewerID: reviewerID,
	})
	suite.Require().NoError(err)
	suite.Equal(models.ApplicationStatusApproved, reviewed.Status)
	suite.Equal("Documents verified", reviewed.StatusMessage)
	suite.Equal(reviewerID, *reviewed.ReviewedBy)
	suite.NotNil(reviewed.ReviewedAt)

	status, err := suite.licenses.GetStatus(userID)
	suite.Require().NoError(err)
	suite.Require().True(status.HasLicense)
	suite.Equal("B", status.License.Class)
	suite.Equal(models.LicenseStatusValid, status.License.Status)
	suite.Zero(status.License.Points)

	years := status.License.ExpiryDate.Sub(status.License.IssueDate).Hours() / 24 / 365
	suite.InDelta(10.0, years, 0.1)

	notifications, err := suite.notifications.GetUserNotifications(userID)
	suite.Require().NoError(err)
	suite.Require().Len(notifications, 2)
	suite.Equal("Application Approved", notifications[0].Title)
	suite.Equal(models.NotificationTypeSuccess, notifications[0].Type)
}

func (suite *ApplicationServiceTestSuite) TestApprovalPreservesPointBalance() {
	userID := uuid.New()

	// An existing license with points, created through the violation ledger.
	_, err := suite.violations.Record(&RecordViolationRequest{
		UserID: userID,
		Type:   "speeding",
		Points: 4,
	})
	suite.Require().NoError(err)

	application := suite.submit(userID)
	_, err = suite.applications.Review(application.ID, &ReviewRequest{
		Status:     models.ApplicationStatusApproved,
		ReviewerID: uuid.New(),
	})
	suite.Require().NoError(err)

	status, err := suite.licenses.GetStatus(userID)
	suite.Require().NoError(err)
	suite.Require().True(status.HasLicense)

	// Renewal overwrote class and dates but kept the ledger.
	suite.Equal(4, status.License.Points)
	suite.Len(status.License.Violations, 1)
	suite.NotEqual("DL-000001", status.License.Number)
}

func (suite *ApplicationServiceTestSuite) TestReviewRejectsInvalidStatus() {
	application := suite.submit(uuid.New())

	_, err := suite.applications.Review(application.ID, &ReviewRequest{
		Status:     models.ApplicationStatusExpired,
		ReviewerID: uuid.New(),
	})
	_, ok := apperrors.IsValidation(err)
	suite.True(ok)

	// No mutation happened.
	stored, err := suite.applications.GetApplication(application.ID)
	suite.Require().NoError(err)
	suite.Equal(models.ApplicationStatusPending, stored.Status)
	suite.Nil(stored.ReviewedBy)
}

func (suite *ApplicationServiceTestSuite) TestReviewNotFound() {
	_, err := suite.applications.Review(uuid.New(), &ReviewRequest{
		Status:     models.ApplicationStatusApproved,
		ReviewerID: uuid.New(),
	})
	suite.True(apperrors.IsNotFound(err))
}

func (suite *ApplicationServiceTestSuite) TestReviewDefaultsStatusMessage() {
	application := suite.submit(uuid.New())

	reviewed, err := suite.applications.Review(application.ID, &ReviewRequest{
		Status:     models.ApplicationStatusRejected,
		ReviewerID: uuid.New(),
	})
	suite.Require().NoError(err)
	suite.Equal("Your application has been rejected", reviewed.StatusMessage)

	notifications, err := suite.notifications.GetUserNotifications(application.UserID)
	suite.Require().NoError(err)
	suite.Require().Len(notifications, 2)
	suite.Equal("Application Rejected", notifications[0].Title)
	suite.Equal(models.NotificationTypeError, notifications[0].Type)
}

func (suite *ApplicationServiceTestSuite) TestGetUserApplicationsPaginated() {
	userID := uuid.New()
	for i := 0; i < 3; i++ {
		suite.submit(userID)
	}
	suite.submit(uuid.New())

	params := utils.PaginationParams{Page: 1, Limit: 2, Sort: "created_at", Order: "desc"}
	applications, total, err := suite.applications.GetUserApplications(userID, params)
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Len(applications, 2)
}

func (suite *ApplicationServiceTestSuite) TestExpireOverdue() {
	userID := uuid.New()
	stale := suite.submit(userID)
	fresh := suite.submit(userID)

	suite.Require().NoError(suite.db.Model(&models.Application{}).
		Where("id = ?", stale.ID).
		Update("application_date", time.Now().Add(-120*24*time.Hour)).Error)

	expired, err := suite.applications.ExpireOverdue(90 * 24 * time.Hour)
	suite.Require().NoError(err)
	suite.Equal(int64(1), expired)

	storedStale, err := suite.applications.GetApplication(stale.ID)
	suite.Require().NoError(err)
	suite.Equal(models.ApplicationStatusExpired, storedStale.Status)

	storedFresh, err := suite.applications.GetApplication(fresh.ID)
	suite.Require().NoError(err)
	suite.Equal(models.ApplicationStatusPending, storedFresh.Status)
}

func (suite *ApplicationServiceTestSuite) TestDelete() {
	application := suite.submit(uuid.New())

	suite.Require().NoError(suite.applications.Delete(application.ID))
	_, err := suite.applications.GetApplication(application.ID)
	suite.True(apperrors.IsNotFound(err))

	suite.True(apperrors.IsNotFound(suite.applications.Delete(application.ID)))
}

func TestApplicationServiceSuite(t *testing.T) {
	suite.Run(t, new(ApplicationServiceTestSuite))
}
