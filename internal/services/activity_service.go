// internal/services/activity_service.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/trafficdept/dlms-backend/internal/apperrors"
	"github.com/trafficdept/dlms-backend/internal/models"
	"github.com/trafficdept/dlms-backend/internal/utils"
)

type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

type LogEntry struct {
	UserID            uuid.UUID
	ActivityType      models.ActivityType
	Action            string
	Description       string
	Details           models.JSONB
	RelatedEntityType string
	RelatedEntityID   *uuid.UUID
	Severity          string
	Status            string
	Tags              []string
}

type ActivityFilters struct {
	Type   string
	Status string
	From   *time.Time
	To     *time.Time
	Tags   []string
}

func (s *ActivityService) Log(entry LogEntry) (*models.ActivityLog, error) {
	if entry.UserID == uuid.Nil {
		return nil, apperrors.NewValidation("user_id", "user_id is required")
	}
	if entry.ActivityType == "" {
		return nil, apperrors.NewValidation("activity_type", "activity_type is required")
	}
	if entry.Action == "" {
		return nil, apperrors.NewValidation("action", "action is required")
	}
	if entry.Description == "" {
		return nil, apperrors.NewValidation("description", "description is required")
	}

	severity := entry.Severity
	if severity == "" {
		severity = "info"
	}
	status := entry.Status
	if status == "" {
		status = "completed"
	}

	log := &models.ActivityLog{
		UserID:            entry.UserID,
		ActivityType:      entry.ActivityType,
		Action:            entry.Action,
		Description:       entry.Description,
		Details:           entry.Details,
		RelatedEntityType: entry.RelatedEntityType,
		RelatedEntityID:   entry.RelatedEntityID,
		Severity:          severity,
		Status:            status,
		IsVisible:         true,
		Tags:              entry.Tags,
	}

	if err := s.db.Create(log).Error; err != nil {
		return nil, fmt.Errorf("failed to create activity log: %w", err)
	}

	return log, nil
}

// Record logs an entry on behalf of another component, swallowing failures.
func (s *ActivityService) Record(entry LogEntry) {
	if _, err := s.Log(entry); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":       entry.UserID,
			"activity_type": entry.ActivityType,
		}).Error("Failed to record activity")
	}
}

// GetUserActivities returns the stored, visible activity rows for a user. When
// the user has no stored rows at all, the timeline is synthesized from the
// source collections instead, so the user always sees a history.
func (s *ActivityService) GetUserActivities(userID uuid.UUID, filters ActivityFilters, params utils.PaginationParams) ([]TimelineEntry, int64, bool, error) {
	var stored int64
	if err := s.db.Model(&models.ActivityLog{}).
		Where("user_id = ?", userID).
		Count(&stored).Error; err != nil {
		return nil, 0, false, fmt.Errorf("failed to count activities: %w", err)
	}

	if stored == 0 {
		entries, err := s.SynthesizeTimeline(userID)
		if err != nil {
			return nil, 0, false, err
		}
		page := paginateEntries(entries, params)
		return page, int64(len(entries)), true, nil
	}

	query := s.db.Model(&models.ActivityLog{}).
		Where("user_id = ? AND is_visible = ?", userID, true)

	if filters.Type != "" {
		query = query.Where("activity_type = ?", filters.Type)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.From != nil {
		query = query.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("created_at <= ?", *filters.To)
	}

	var logs []models.ActivityLog
	if err := query.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, false, fmt.Errorf("failed to fetch activities: %w", err)
	}

	// Tag filtering happens here rather than in SQL; tags are stored as a
	// JSON-encoded list.
	if len(filters.Tags) > 0 {
		logs = filterByTags(logs, filters.Tags)
	}

	entries := make([]TimelineEntry, 0, len(logs))
	for _, log := range logs {
		entries = append(entries, TimelineEntry{
			ID:           log.ID,
			ActivityType: log.ActivityType,
			Action:       log.Action,
			Description:  log.Description,
			Status:       log.Status,
			CreatedAt:    log.CreatedAt,
			Details:      log.Details,
		})
	}

	total := int64(len(entries))
	return paginateEntries(entries, params), total, false, nil
}

// SynthesizeTimeline loads the source collections for a user and derives the
// activity view from them.
func (s *ActivityService) SynthesizeTimeline(userID uuid.UUID) ([]TimelineEntry, error) {
	var src TimelineSources

	if err := s.db.Where("user_id = ?", userID).Find(&src.Applications).Error; err != nil {
		return nil, fmt.Errorf("failed to load applications: %w", err)
	}
	if err := s.db.Where("user_id = ?", userID).Find(&src.ExamSchedules).Error; err != nil {
		return nil, fmt.Errorf("failed to load exam schedules: %w", err)
	}
	if err := s.db.Where("user_id = ?", userID).Find(&src.ExamResults).Error; err != nil {
		return nil, fmt.Errorf("failed to load exam results: %w", err)
	}
	if err := s.db.Where("user_id = ?", userID).Find(&src.Payments).Error; err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	if err := s.db.Preload("Violations").Where("user_id = ?", userID).Find(&src.Licenses).Error; err != nil {
		return nil, fmt.Errorf("failed to load licenses: %w", err)
	}
	if err := s.db.Where("user_id = ?", userID).Find(&src.Notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	return BuildTimeline(src), nil
}

func filterByTags(logs []models.ActivityLog, tags []string) []models.ActivityLog {
	filtered := logs[:0]
	for _, log := range logs {
		if hasAnyTag(log.Tags, tags) {
			filtered = append(filtered, log)
		}
	}
	return filtered
}

func hasAnyTag(have models.StringArray, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func paginateEntries(entries []TimelineEntry, params utils.PaginationParams) []TimelineEntry {
	start := (params.Page - 1) * params.Limit
	if start >= len(entries) {
		return []TimelineEntry{}
	}
	end := start + params.Limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end]
}
