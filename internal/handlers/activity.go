// internal/handlers/activity.go
package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trafficdept/dlms-backend/internal/services"
	"github.com/trafficdept/dlms-backend/internal/utils"
)

type ActivityHandler struct {
	activityService *services.ActivityService
}

func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// GET /activities/user/:userId
//
// Filters: type, status, from, to (RFC 3339), tags (comma-separated). When the
// user has no stored activity rows the response carries synthesized=true and
// the timeline is derived from the source collections.
func (h *ActivityHandler) GetUserActivities(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	filters := services.ActivityFilters{
		Type:   c.Query("type"),
		Status: c.Query("status"),
	}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid from timestamp", nil)
			return
		}
		filters.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid to timestamp", nil)
			return
		}
		filters.To = &t
	}
	if tags := c.Query("tags"); tags != "" {
		filters.Tags = strings.Split(tags, ",")
	}

	params := utils.GetPaginationParams(c)

	entries, total, synthesized, err := h.activityService.GetUserActivities(userID, filters, params)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(entries, total, params)
	utils.SetPaginationHeaders(c, result)
	utils.SuccessResponseWithMeta(c, gin.H{
		"activities":  entries,
		"synthesized": synthesized,
	}, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

// GET /activities/user/:userId/history
//
// Always rebuilds the timeline from the source collections, regardless of what
// activity rows exist.
func (h *ActivityHandler) GetUserHistory(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	entries, err := h.activityService.SynthesizeTimeline(userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"history": entries,
	})
}
