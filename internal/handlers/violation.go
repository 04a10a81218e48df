// internal/handlers/violation.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trafficdept/dlms-backend/internal/services"
	"github.com/trafficdept/dlms-backend/internal/utils"
)

type ViolationHandler struct {
	violationService *services.ViolationService
}

func NewViolationHandler(violationService *services.ViolationService) *ViolationHandler {
	return &ViolationHandler{violationService: violationService}
}

// POST /violations
func (h *ViolationHandler) Record(c *gin.Context) {
	var req services.RecordViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if officerIDStr, ok := utils.GetUserIDFromContext(c); ok {
		if officerID, err := uuid.Parse(officerIDStr); err == nil {
			req.RecordedBy = &officerID
		}
	}

	violation, err := h.violationService.Record(&req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"violation": violation,
	})
}

// GET /violations
func (h *ViolationHandler) GetAll(c *gin.Context) {
	violations, err := h.violationService.GetAll()
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"violations": violations,
	})
}

// GET /violations/user/:userId
func (h *ViolationHandler) GetUserViolations(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	violations, err := h.violationService.GetUserViolations(userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"violations": violations,
	})
}

// PATCH /violations/:id
func (h *ViolationHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid violation ID", nil)
		return
	}

	var req services.UpdateViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	violation, err := h.violationService.Update(id, &req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"violation": violation,
	})
}

// DELETE /violations/:id
func (h *ViolationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid violation ID", nil)
		return
	}

	if err := h.violationService.Delete(id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"deleted": true,
	})
}
