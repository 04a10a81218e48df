// internal/handlers/application.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trafficdept/dlms-backend/internal/apperrors"
	"github.com/trafficdept/dlms-backend/internal/models"
	"github.com/trafficdept/dlms-backend/internal/services"
	"github.com/trafficdept/dlms-backend/internal/utils"
)

type ApplicationHandler struct {
	applicationService *services.ApplicationService
	storageService     *services.StorageService
}

func NewApplicationHandler(applicationService *services.ApplicationService, storageService *services.StorageService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
		storageService:     storageService,
	}
}

// POST /applications
// Multipart form: applicant fields plus one file part per document, named
// documents[<type>].
func (h *ApplicationHandler) Submit(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Expected multipart form data", err.Error())
		return
	}

	userID, err := uuid.Parse(c.PostForm("user_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	req := services.SubmitApplicationRequest{
		UserID:      userID,
		FullName:    c.PostForm("full_name"),
		NationalID:  c.PostForm("national_id"),
		DateOfBirth: c.PostForm("date_of_birth"),
		Address:     c.PostForm("address"),
		Email:       c.PostForm("email"),
		Phone:       c.PostForm("phone"),
		LicenseType: c.PostForm("license_type"),
		Documents:   make(map[string]models.DocumentDescriptor),
	}

	// Check the mandatory document parts before touching storage so a
	// rejected submission uploads nothing.
	var missing []apperrors.FieldError
	for _, docType := range models.RequiredDocumentTypes {
		if len(form.File["documents["+docType+"]"]) == 0 {
			missing = append(missing, apperrors.FieldError{
				Field:   "documents." + docType,
				Message: docType + " document is required",
			})
		}
	}
	if len(missing) > 0 {
		utils.ValidationErrorResponse(c, missing)
		return
	}

	for key, headers := range form.File {
		docType, ok := parseDocumentKey(key)
		if !ok || len(headers) == 0 {
			continue
		}

		header := headers[0]
		file, err := header.Open()
		if err != nil {
			utils.BadRequestResponse(c, "Failed to read uploaded file", err.Error())
			return
		}

		descriptor, err := h.storageService.UploadDocument(file, header)
		file.Close()
		if err != nil {
			utils.BadRequestResponse(c, err.Error(), nil)
			return
		}

		req.Documents[docType] = *descriptor
	}

	application, err := h.applicationService.Submit(&req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"application": application,
	})
}

// GET /applications/user/:userId
func (h *ApplicationHandler) GetUserApplications(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	params := utils.GetPaginationParams(c)

	applications, total, err := h.applicationService.GetUserApplications(userID, params)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(applications, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /applications/:id
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid application ID", nil)
		return
	}

	application, err := h.applicationService.GetApplication(id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"application": application,
	})
}

// PATCH /applications/:id/status
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid application ID", nil)
		return
	}

	var req services.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	// A reviewer id from the authenticated context wins over the body.
	if reviewerIDStr, ok := utils.GetUserIDFromContext(c); ok {
		if reviewerID, err := uuid.Parse(reviewerIDStr); err == nil {
			req.ReviewerID = reviewerID
		}
	}

	application, err := h.applicationService.Review(id, &req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"application": application,
	})
}

// DELETE /applications/:id
func (h *ApplicationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid application ID", nil)
		return
	}

	if err := h.applicationService.Delete(id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"deleted": true,
	})
}

func parseDocumentKey(key string) (string, bool) {
	if !strings.HasPrefix(key, "documents[") || !strings.HasSuffix(key, "]") {
		return "", false
	}
	docType := key[len("documents[") : len(key)-1]
	return docType, docType != ""
}
