// internal/services/license_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/trafficdept/dlms-backend/internal/events"
	"github.com/trafficdept/dlms-backend/internal/models"
)

type LicenseServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	licenses *LicenseService
}

func (suite *LicenseServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.licenses = NewLicenseService(suite.db, newTestConfig(), events.NewSyncDispatcher())
}

func (suite *LicenseServiceTestSuite) TestGetStatusWithoutLicense() {
	status, err := suite.licenses.GetStatus(uuid.New())
	suite.Require().NoError(err)
	suite.False(status.HasLicense)
	suite.Nil(status.License)
}

func (suite *LicenseServiceTestSuite) TestIssueCreatesLicense() {
	userID := uuid.New()

	license, err := suite.licenses.IssueOrRenew(userID, "B", "")
	suite.Require().NoError(err)
	suite.Equal(models.LicenseStatusValid, license.Status)
	suite.Equal("None", license.Restrictions)
	suite.Zero(license.Points)
	suite.Equal(models.DefaultMaxPoints, license.MaxPoints)
	suite.Contains(license.Number, "DL-")

	status, err := suite.licenses.GetStatus(userID)
	suite.Require().NoError(err)
	suite.True(status.HasLicense)
	suite.Positive(status.DaysUntilExpiry)
}

func (suite *LicenseServiceTestSuite) TestRenewalKeepsOneLicensePerUser() {
	userID := uuid.New()

	first, err := suite.licenses.IssueOrRenew(userID, "B", "")
	suite.Require().NoError(err)

	second, err := suite.licenses.IssueOrRenew(userID, "C", "Corrective lenses")
	suite.Require().NoError(err)

	suite.Equal(first.ID, second.ID)
	suite.Equal("C", second.Class)
	suite.Equal("Corrective lenses", second.Restrictions)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.License{}).
		Where("user_id = ?", userID).Count(&count).Error)
	suite.Equal(int64(1), count)
}

func (suite *LicenseServiceTestSuite) TestGetStatusFlipsExpiredStatus() {
	userID := uuid.New()

	license, err := suite.licenses.IssueOrRenew(userID, "B", "")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.db.Model(&models.License{}).
		Where("id = ?", license.ID).
		Update("expiry_date", time.Now().Add(-24*time.Hour)).Error)

	status, err := suite.licenses.GetStatus(userID)
	suite.Require().NoError(err)
	suite.Equal(models.LicenseStatusExpired, status.License.Status)
	suite.Zero(status.DaysUntilExpiry)

	// The flip was persisted.
	var stored models.License
	suite.Require().NoError(suite.db.First(&stored, "id = ?", license.ID).Error)
	suite.Equal(models.LicenseStatusExpired, stored.Status)
}

func (suite *LicenseServiceTestSuite) TestRenewalRestoresValidStatus() {
	userID := uuid.New()

	license, err := suite.licenses.IssueOrRenew(userID, "B", "")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.db.Model(&models.License{}).
		Where("id = ?", license.ID).
		Updates(map[string]interface{}{
			"expiry_date": time.Now().Add(-24 * time.Hour),
			"status":      models.LicenseStatusExpired,
		}).Error)

	renewed, err := suite.licenses.IssueOrRenew(userID, "B", "")
	suite.Require().NoError(err)
	suite.Equal(models.LicenseStatusValid, renewed.Status)
	suite.True(renewed.ExpiryDate.After(time.Now()))
}

func TestLicenseServiceSuite(t *testing.T) {
	suite.Run(t, new(LicenseServiceTestSuite))
}
