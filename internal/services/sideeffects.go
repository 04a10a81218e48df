// internal/services/sideeffects.go
package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/trafficdept/dlms-backend/internal/events"
	"github.com/trafficdept/dlms-backend/internal/models"
)

// statusNotification is the fixed per-status notification table used on every
// review transition.
var statusNotifications = map[models.ApplicationStatus]struct {
	Title string
	Type  models.NotificationType
}{
	models.ApplicationStatusApproved:    {"Application Approved", models.NotificationTypeSuccess},
	models.ApplicationStatusRejected:    {"Application Rejected", models.NotificationTypeError},
	models.ApplicationStatusUnderReview: {"Application Under Review", models.NotificationTypeInfo},
}

// RegisterSideEffects subscribes the notification dispatcher and activity
// logger to the domain events. Handler failures are logged by the dispatcher
// and never reach the publishing operation.
func RegisterSideEffects(d *events.Dispatcher, notifications *NotificationService, activities *ActivityService) {
	d.Subscribe(events.ApplicationSubmitted, func(e events.Event) error {
		notifications.Dispatch(e.UserID,
			"Application Submitted",
			"Your driving license application has been received and is pending review.",
			models.NotificationTypeSuccess, "/applications")

		activities.Record(LogEntry{
			UserID:            e.UserID,
			ActivityType:      models.ActivityTypeLicenseApplication,
			Action:            "submitted",
			Description:       "Driving license application submitted",
			Details:           models.JSONB(e.Payload),
			RelatedEntityType: "application",
			RelatedEntityID:   payloadID(e.Payload, "application_id"),
			Tags:              []string{"license_application", "submitted"},
		})
		return nil
	})

	d.Subscribe(events.ApplicationReviewed, func(e events.Event) error {
		status := models.ApplicationStatus(payloadString(e.Payload, "status"))

		entry, ok := statusNotifications[status]
		if !ok {
			entry.Title = "Application Updated"
			entry.Type = models.NotificationTypeInfo
		}
		notifications.Dispatch(e.UserID, entry.Title,
			payloadString(e.Payload, "message"), entry.Type, "/applications")

		activities.Record(LogEntry{
			UserID:            e.UserID,
			ActivityType:      models.ActivityTypeApplicationReview,
			Action:            string(status),
			Description:       fmt.Sprintf("Application moved to %s", status),
			Details:           models.JSONB(e.Payload),
			RelatedEntityType: "application",
			RelatedEntityID:   payloadID(e.Payload, "application_id"),
			Tags:              []string{"license_application", string(status)},
		})
		return nil
	})

	d.Subscribe(events.ApplicationExpired, func(e events.Event) error {
		notifications.Dispatch(e.UserID,
			"Application Expired",
			"Your driving license application expired without review. Please submit a new application.",
			models.NotificationTypeWarning, "/applications")

		activities.Record(LogEntry{
			UserID:            e.UserID,
			ActivityType:      models.ActivityTypeApplicationReview,
			Action:            "expired",
			Description:       "Application expired without review",
			Details:           models.JSONB(e.Payload),
			RelatedEntityType: "application",
			RelatedEntityID:   payloadID(e.Payload, "application_id"),
			Tags:              []string{"license_application", "expired"},
		})
		return nil
	})

	d.Subscribe(events.LicenseIssued, func(e events.Event) error {
		activityType := models.ActivityTypeLicenseIssued
		action := "issued"
		if renewed, _ := e.Payload["renewed"].(bool); renewed {
			activityType = models.ActivityTypeLicenseRenewed
			action = "renewed"
		}

		activities.Record(LogEntry{
			UserID:            e.UserID,
			ActivityType:      activityType,
			Action:            action,
			Description:       fmt.Sprintf("License %s %s", payloadString(e.Payload, "number"), action),
			Details:           models.JSONB(e.Payload),
			RelatedEntityType: "license",
			RelatedEntityID:   payloadID(e.Payload, "license_id"),
			Tags:              []string{"license", action},
		})
		return nil
	})

	d.Subscribe(events.LicenseBootstrapped, func(e events.Event) error {
		activities.Record(LogEntry{
			UserID:       e.UserID,
			ActivityType: models.ActivityTypeLicenseIssued,
			Action:       "bootstrapped",
			Description:  "Default license created to record a violation",
			Details:      models.JSONB(e.Payload),
			Severity:     "warning",
			Tags:         []string{"license", "bootstrap"},
		})
		return nil
	})

	d.Subscribe(events.ViolationRecorded, func(e events.Event) error {
		notifications.Dispatch(e.UserID,
			"Traffic Violation Recorded",
			fmt.Sprintf("A %s violation (%v points) has been recorded against your license.",
				payloadString(e.Payload, "type"), e.Payload["points"]),
			models.NotificationTypeWarning, "/violations")

		activities.Record(LogEntry{
			UserID:            e.UserID,
			ActivityType:      models.ActivityTypeViolationRecorded,
			Action:            "recorded",
			Description:       fmt.Sprintf("Violation recorded: %s", payloadString(e.Payload, "type")),
			Details:           models.JSONB(e.Payload),
			RelatedEntityType: "violation",
			RelatedEntityID:   payloadID(e.Payload, "violation_id"),
			Severity:          "warning",
			Tags:              []string{"violation", "recorded"},
		})
		return nil
	})

	d.Subscribe(events.ViolationUpdated, func(e events.Event) error {
		activities.Record(LogEntry{
			UserID:            e.UserID,
			ActivityType:      models.ActivityTypeViolationUpdated,
			Action:            "updated",
			Description:       fmt.Sprintf("Violation updated: %s", payloadString(e.Payload, "type")),
			Details:           models.JSONB(e.Payload),
			RelatedEntityType: "violation",
			RelatedEntityID:   payloadID(e.Payload, "violation_id"),
			Tags:              []string{"violation", "updated"},
		})
		return nil
	})

	d.Subscribe(events.ViolationDeleted, func(e events.Event) error {
		activities.Record(LogEntry{
			UserID:            e.UserID,
			ActivityType:      models.ActivityTypeViolationRemoved,
			Action:            "deleted",
			Description:       fmt.Sprintf("Violation removed: %s", payloadString(e.Payload, "type")),
			Details:           models.JSONB(e.Payload),
			RelatedEntityType: "violation",
			RelatedEntityID:   payloadID(e.Payload, "violation_id"),
			Tags:              []string{"violation", "deleted"},
		})
		return nil
	})

	d.Subscribe(events.PaymentCompleted, func(e events.Event) error {
		notifications.Dispatch(e.UserID,
			"Payment Received",
			fmt.Sprintf("Your payment for %s has been processed.", payloadString(e.Payload, "purpose")),
			models.NotificationTypeSuccess, "/payments")

		activities.Record(LogEntry{
			UserID:            e.UserID,
			ActivityType:      models.ActivityTypePayment,
			Action:            "completed",
			Description:       fmt.Sprintf("Payment completed for %s", payloadString(e.Payload, "purpose")),
			Details:           models.JSONB(e.Payload),
			RelatedEntityType: "payment",
			RelatedEntityID:   payloadID(e.Payload, "payment_id"),
			Tags:              []string{"payment", "completed"},
		})
		return nil
	})
}

func payloadString(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadID(payload map[string]interface{}, key string) *uuid.UUID {
	if v, ok := payload[key].(uuid.UUID); ok {
		return &v
	}
	return nil
}
