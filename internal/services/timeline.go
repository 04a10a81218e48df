// internal/services/timeline.go
package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trafficdept/dlms-backend/internal/models"
)

// TimelineEntry is the shape served by the activity endpoints, whether the
// entry came from a stored log row or was derived from a source collection.
type TimelineEntry struct {
	ID           uuid.UUID           `json:"id"`
	ActivityType models.ActivityType `json:"activity_type"`
	Action       string              `json:"action"`
	Description  string              `json:"description"`
	Status       string              `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	Details      models.JSONB        `json:"details,omitempty"`
}

// TimelineSources is a snapshot of every collection the projection reads.
type TimelineSources struct {
	Applications  []models.Application
	ExamSchedules []models.ExamSchedule
	ExamResults   []models.ExamResult
	Payments      []models.Payment
	Licenses      []models.License
	Notifications []models.Notification
}

// BuildTimeline derives an activity view from the source collections. It is a
// pure function of its input: each record maps through a fixed per-collection
// rule, the lists are concatenated, and the result is sorted newest-first.
func BuildTimeline(src TimelineSources) []TimelineEntry {
	entries := make([]TimelineEntry, 0,
		len(src.Applications)+len(src.ExamSchedules)+len(src.ExamResults)+
			len(src.Payments)+len(src.Licenses)+len(src.Notifications))

	for _, app := range src.Applications {
		entries = append(entries, TimelineEntry{
			ID:           app.ID,
			ActivityType: models.ActivityTypeLicenseApplication,
			Action:       "Submitted driving license application",
			Description:  fmt.Sprintf("Applied for a category %s driving license", app.LicenseType),
			Status:       string(app.Status),
			CreatedAt:    app.ApplicationDate,
			Details: models.JSONB{
				"license_type":   app.LicenseType,
				"status":         string(app.Status),
				"status_message": app.StatusMessage,
			},
		})
	}

	for _, exam := range src.ExamSchedules {
		entries = append(entries, TimelineEntry{
			ID:           exam.ID,
			ActivityType: models.ActivityTypeExamScheduled,
			Action:       "Scheduled " + exam.ExamType + " exam",
			Description:  fmt.Sprintf("%s exam scheduled at %s", exam.ExamType, exam.Center),
			Status:       exam.Status,
			CreatedAt:    exam.CreatedAt,
			Details: models.JSONB{
				"exam_type":    exam.ExamType,
				"scheduled_at": exam.ScheduledAt,
				"center":       exam.Center,
			},
		})
	}

	for _, result := range src.ExamResults {
		action := "Failed " + result.ExamType + " exam"
		status := "failed"
		if result.Passed {
			action = "Passed " + result.ExamType + " exam"
			status = "passed"
		}
		entries = append(entries, TimelineEntry{
			ID:           result.ID,
			ActivityType: models.ActivityTypeExamCompleted,
			Action:       action,
			Description:  fmt.Sprintf("Scored %d on the %s exam", result.Score, result.ExamType),
			Status:       status,
			CreatedAt:    result.TakenAt,
			Details: models.JSONB{
				"exam_type": result.ExamType,
				"score":     result.Score,
				"passed":    result.Passed,
			},
		})
	}

	for _, payment := range src.Payments {
		entries = append(entries, TimelineEntry{
			ID:           payment.ID,
			ActivityType: models.ActivityTypePayment,
			Action:       "Payment for " + payment.Purpose,
			Description:  fmt.Sprintf("Paid %.2f %s for %s", payment.Amount, payment.Currency, payment.Purpose),
			Status:       string(payment.Status),
			CreatedAt:    payment.CreatedAt,
			Details: models.JSONB{
				"purpose":   payment.Purpose,
				"amount":    payment.Amount,
				"currency":  payment.Currency,
				"reference": payment.Reference,
			},
		})
	}

	for _, license := range src.Licenses {
		entries = append(entries, TimelineEntry{
			ID:           license.ID,
			ActivityType: models.ActivityTypeLicenseIssued,
			Action:       "License issued",
			Description:  fmt.Sprintf("Category %s license %s issued", license.Class, license.Number),
			Status:       string(license.Status),
			CreatedAt:    license.IssueDate,
			Details: models.JSONB{
				"number":      license.Number,
				"class":       license.Class,
				"issue_date":  license.IssueDate,
				"expiry_date": license.ExpiryDate,
			},
		})

		for _, violation := range license.Violations {
			entries = append(entries, TimelineEntry{
				ID:           violation.ID,
				ActivityType: models.ActivityTypeViolationRecorded,
				Action:       "Traffic violation recorded",
				Description:  fmt.Sprintf("%s (%d points)", violation.Type, violation.Points),
				Status:       "recorded",
				CreatedAt:    violation.Date,
				Details: models.JSONB{
					"type":     violation.Type,
					"points":   violation.Points,
					"location": violation.Location,
				},
			})
		}
	}

	for _, notification := range src.Notifications {
		entries = append(entries, TimelineEntry{
			ID:           notification.ID,
			ActivityType: models.ActivityTypeNotification,
			Action:       notification.Title,
			Description:  notification.Message,
			Status:       string(notification.Type),
			CreatedAt:    notification.CreatedAt,
			Details: models.JSONB{
				"type": string(notification.Type),
				"seen": notification.Seen,
			},
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	return entries
}
