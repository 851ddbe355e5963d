package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/issue-tracker-api/internal/dto"
	"github.com/noah-isme/issue-tracker-api/internal/models"
	"github.com/noah-isme/issue-tracker-api/internal/service"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
	"github.com/noah-isme/issue-tracker-api/pkg/response"
)

// LabelHandler exposes label definition endpoints. Attaching labels to
// issues lives on the issue routes.
type LabelHandler struct {
	service *service.LabelService
}

// NewLabelHandler constructs a label handler.
func NewLabelHandler(svc *service.LabelService) *LabelHandler {
	return &LabelHandler{service: svc}
}

// List godoc
// @Summary List labels
// @Tags Labels
// @Produce json
// @Param project_id query string false "Project scope"
// @Param global query bool false "Only global labels"
// @Param search query string false "Search keyword"
// @Param include_deleted query bool false "Include soft-deleted labels"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /labels [get]
func (h *LabelHandler) List(c *gin.Context) {
	filter := models.LabelFilter{
		ProjectID:      c.Query("project_id"),
		GlobalOnly:     queryBool(c, "global"),
		Search:         strings.TrimSpace(c.Query("search")),
		IncludeDeleted: queryBool(c, "include_deleted"),
	}
	filter.Page, filter.PageSize = queryPagination(c)

	labels, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, labels, pagination)
}

// ListByIssue godoc
// @Summary List labels attached to an issue
// @Tags Labels
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /issues/{id}/labels [get]
func (h *LabelHandler) ListByIssue(c *gin.Context) {
	labels, err := h.service.ListByIssue(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, labels, nil)
}

// Get godoc
// @Summary Get label detail
// @Tags Labels
// @Produce json
// @Param id path string true "Label ID"
// @Param include_deleted query bool false "Include soft-deleted labels"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /labels/{id} [get]
func (h *LabelHandler) Get(c *gin.Context) {
	label, err := h.service.Get(c.Request.Context(), c.Param("id"), queryBool(c, "include_deleted"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, label, nil)
}

// Create godoc
// @Summary Create label
// @Description Omitting project_id creates a global label.
// @Tags Labels
// @Accept json
// @Produce json
// @Param payload body service.CreateLabelRequest true "Label payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /labels [post]
func (h *LabelHandler) Create(c *gin.Context) {
	var req service.CreateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	label, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, label)
}

// Update godoc
// @Summary Patch label fields
// @Tags Labels
// @Accept json
// @Produce json
// @Param id path string true "Label ID"
// @Param payload body dto.UpdateLabelRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /labels/{id} [patch]
func (h *LabelHandler) Update(c *gin.Context) {
	var req dto.UpdateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	label, err := h.service.Update(c.Request.Context(), c.Param("id"), req.ExpectedVersion, req.Patch())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, label, nil)
}

// Delete godoc
// @Summary Soft delete label
// @Tags Labels
// @Produce json
// @Param id path string true "Label ID"
// @Param expected_version query int true "Last seen version"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /labels/{id} [delete]
func (h *LabelHandler) Delete(c *gin.Context) {
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
