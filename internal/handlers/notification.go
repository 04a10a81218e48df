// internal/handlers/notification.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trafficdept/dlms-backend/internal/models"
	"github.com/trafficdept/dlms-backend/internal/services"
	"github.com/trafficdept/dlms-backend/internal/utils"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

type createNotificationRequest struct {
	UserID  uuid.UUID               `json:"user_id" binding:"required"`
	Title   string                  `json:"title" binding:"required"`
	Message string                  `json:"message" binding:"required"`
	Type    models.NotificationType `json:"type"`
	Link    string                  `json:"link"`
}

// POST /notifications
func (h *NotificationHandler) Create(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	notification, err := h.notificationService.Create(req.UserID, req.Title, req.Message, req.Type, req.Link)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"notification": notification,
	})
}

// GET /notifications/user/:userId
func (h *NotificationHandler) GetUserNotifications(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	notifications, err := h.notificationService.GetUserNotifications(userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	unread, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// PATCH /notifications/:id/seen
func (h *NotificationHandler) MarkSeen(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid notification ID", nil)
		return
	}

	if err := h.notificationService.MarkSeen(id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"seen": true,
	})
}

// PATCH /notifications/user/:userId/seen
func (h *NotificationHandler) MarkAllSeen(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	updated, err := h.notificationService.MarkAllSeen(userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"updated": updated,
	})
}

// DELETE /notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid notification ID", nil)
		return
	}

	if err := h.notificationService.Delete(id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"deleted": true,
	})
}
