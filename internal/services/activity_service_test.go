// internal/services/activity_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/trafficdept/dlms-backend/internal/apperrors"
	"github.com/trafficdept/dlms-backend/internal/models"
	"github.com/trafficdept/dlms-backend/internal/utils"
)

type ActivityServiceTestSuite struct {
	suite.Suite
	db         *gorm.DB
	activities *ActivityService
}

func (suite *ActivityServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.activities = NewActivityService(suite.db)
}

func (suite *ActivityServiceTestSuite) defaultParams() utils.PaginationParams {
	return utils.PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}
}

func (suite *ActivityServiceTestSuite) TestLogValidatesRequiredFields() {
	_, err := suite.activities.Log(LogEntry{
		ActivityType: models.ActivityTypeSystem,
		Action:       "noop",
		Description:  "missing user",
	})
	_, ok := apperrors.IsValidation(err)
	suite.True(ok)

	_, err = suite.activities.Log(LogEntry{
		UserID:       uuid.New(),
		ActivityType: models.ActivityTypeSystem,
		Action:       "noop",
	})
	_, ok = apperrors.IsValidation(err)
	suite.True(ok)
}

func (suite *ActivityServiceTestSuite) TestLogDefaultsSeverityAndStatus() {
	log, err := suite.activities.Log(LogEntry{
		UserID:       uuid.New(),
		ActivityType: models.ActivityTypeSystem,
		Action:       "noop",
		Description:  "defaults check",
	})
	suite.Require().NoError(err)
	suite.Equal("info", log.Severity)
	suite.Equal("completed", log.Status)
	suite.True(log.IsVisible)
}

func (suite *ActivityServiceTestSuite) TestStoredRowsServeTheTimeline() {
	userID := uuid.New()

	_, err := suite.activities.Log(LogEntry{
		UserID:       userID,
		ActivityType: models.ActivityTypeLicenseApplication,
		Action:       "submitted",
		Description:  "Driving license application submitted",
		Tags:         []string{"license_application"},
	})
	suite.Require().NoError(err)

	entries, total, synthesized, err := suite.activities.GetUserActivities(userID, ActivityFilters{}, suite.defaultParams())
	suite.Require().NoError(err)
	suite.False(synthesized)
	suite.Equal(int64(1), total)
	suite.Require().Len(entries, 1)
	suite.Equal("submitted", entries[0].Action)
}

func (suite *ActivityServiceTestSuite) TestEmptyLogSynthesizesFromSources() {
	userID := uuid.New()

	// No activity rows, but an application and a license exist.
	suite.Require().NoError(suite.db.Create(&models.Application{
		UserID:          userID,
		FullName:        "Amina Diallo",
		NationalID:      "NID-1",
		Email:           "amina@example.com",
		Phone:           "+15550142233",
		LicenseType:     "B",
		Status:          models.ApplicationStatusApproved,
		ApplicationDate: time.Now().Add(-48 * time.Hour),
	}).Error)
	suite.Require().NoError(suite.db.Create(&models.License{
		UserID:    userID,
		Number:    "DL-2026-000001",
		Class:     "B",
		IssueDate: time.Now().Add(-24 * time.Hour),
		Status:    models.LicenseStatusValid,
	}).Error)

	entries, total, synthesized, err := suite.activities.GetUserActivities(userID, ActivityFilters{}, suite.defaultParams())
	suite.Require().NoError(err)
	suite.True(synthesized)
	suite.Equal(int64(2), total)
	suite.Require().Len(entries, 2)
	suite.Equal(models.ActivityTypeLicenseIssued, entries[0].ActivityType)
	suite.Equal(models.ActivityTypeLicenseApplication, entries[1].ActivityType)
}

func (suite *ActivityServiceTestSuite) TestTypeAndTagFilters() {
	userID := uuid.New()

	_, err := suite.activities.Log(LogEntry{
		UserID:       userID,
		ActivityType: models.ActivityTypeViolationRecorded,
		Action:       "recorded",
		Description:  "Violation recorded: speeding",
		Tags:         []string{"violation", "recorded"},
	})
	suite.Require().NoError(err)

	_, err = suite.activities.Log(LogEntry{
		UserID:       userID,
		ActivityType: models.ActivityTypeLicenseApplication,
		Action:       "submitted",
		Description:  "Driving license application submitted",
		Tags:         []string{"license_application"},
	})
	suite.Require().NoError(err)

	entries, _, _, err := suite.activities.GetUserActivities(userID, ActivityFilters{
		Type: string(models.ActivityTypeViolationRecorded),
	}, suite.defaultParams())
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.Equal("recorded", entries[0].Action)

	entries, _, _, err = suite.activities.GetUserActivities(userID, ActivityFilters{
		Tags: []string{"license_application"},
	}, suite.defaultParams())
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.Equal("submitted", entries[0].Action)
}

func (suite *ActivityServiceTestSuite) TestHiddenRowsAreExcluded() {
	userID := uuid.New()

	log, err := suite.activities.Log(LogEntry{
		UserID:       userID,
		ActivityType: models.ActivityTypeSystem,
		Action:       "hidden",
		Description:  "internal bookkeeping",
	})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.db.Model(&models.ActivityLog{}).
		Where("id = ?", log.ID).
		Update("is_visible", false).Error)

	entries, _, synthesized, err := suite.activities.GetUserActivities(userID, ActivityFilters{}, suite.defaultParams())
	suite.Require().NoError(err)

	// Rows exist, so the view is not synthesized, but nothing is visible.
	suite.False(synthesized)
	suite.Empty(entries)
}

func (suite *ActivityServiceTestSuite) TestPagination() {
	userID := uuid.New()
	for i := 0; i < 5; i++ {
		_, err := suite.activities.Log(LogEntry{
			UserID:       userID,
			ActivityType: models.ActivityTypeSystem,
			Action:       "noop",
			Description:  "page filler",
		})
		suite.Require().NoError(err)
	}

	params := utils.PaginationParams{Page: 2, Limit: 2, Sort: "created_at", Order: "desc"}
	entries, total, _, err := suite.activities.GetUserActivities(userID, ActivityFilters{}, params)
	suite.Require().NoError(err)
	suite.Equal(int64(5), total)
	suite.Len(entries, 2)

	params.Page = 4
	entries, _, _, err = suite.activities.GetUserActivities(userID, ActivityFilters{}, params)
	suite.Require().NoError(err)
	suite.Empty(entries)
}

func TestActivityServiceSuite(t *testing.T) {
	suite.Run(t, new(ActivityServiceTestSuite))
}
