package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	"github.com/noah-isme/issue-tracker-api/internal/service"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
	"github.com/noah-isme/issue-tracker-api/pkg/response"
)

// AttachmentHandler exposes attachment endpoints.
type AttachmentHandler struct {
	service *service.AttachmentService
}

// NewAttachmentHandler constructs an attachment handler.
func NewAttachmentHandler(svc *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: svc}
}

// Upload godoc
// @Summary Upload an attachment to an issue
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Issue ID"
// @Param file formData file true "File"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /issues/{id}/attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	attachment, err := h.service.Upload(
		c.Request.Context(),
		c.Param("id"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		src,
		actorFromContext(c),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, attachment, nil)
}

// ListByIssue godoc
// @Summary List attachments on an issue
// @Tags Attachments
// @Produce json
// @Param id path string true "Issue ID"
// @Param include_deleted query bool false "Include soft-deleted attachments"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/attachments [get]
func (h *AttachmentHandler) ListByIssue(c *gin.Context) {
	filter := models.AttachmentFilter{
		IssueID:        c.Param("id"),
		IncludeDeleted: queryBool(c, "include_deleted"),
	}
	filter.Page, filter.PageSize = queryPagination(c)

	attachments, pagination, err := h.service.ListByIssue(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attachments, pagination)
}

// Get godoc
// @Summary Get attachment metadata
// @Tags Attachments
// @Produce json
// @Param id path string true "Attachment ID"
// @Param include_deleted query bool false "Include soft-deleted attachments"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attachments/{id} [get]
func (h *AttachmentHandler) Get(c *gin.Context) {
	attachment, err := h.service.Get(c.Request.Context(), c.Param("id"), queryBool(c, "include_deleted"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attachment, nil)
}

// Download godoc
// @Summary Download attachment bytes
// @Tags Attachments
// @Produce octet-stream
// @Param id path string true "Attachment ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /attachments/{id}/download [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	attachment, file, err := h.service.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", attachment.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, attachment.SizeBytes, attachment.ContentType, file, nil)
}

// Delete godoc
// @Summary Soft delete attachment metadata
// @Description Stored bytes are kept so the row can be restored later.
// @Tags Attachments
// @Produce json
// @Param id path string true "Attachment ID"
// @Param expected_version query int true "Last seen version"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(c *gin.Context) {
	version, err := queryExpectedVersion(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.SoftDelete(c.Request.Context(), c.Param("id"), version); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
