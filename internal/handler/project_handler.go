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

// ProjectHandler exposes project CRUD endpoints.
type ProjectHandler struct {
	service *service.ProjectService
}

// NewProjectHandler constructs a project handler.
func NewProjectHandler(svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: svc}
}

// List godoc
// @Summary List projects
// @Tags Projects
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param owner_id query string false "Owner filter"
// @Param search query string false "Search keyword"
// @Param include_deleted query bool false "Include soft-deleted projects"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	var filter models.ProjectFilter
	filter.OwnerID = c.Query("owner_id")
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.IncludeDeleted = queryBool(c, "include_deleted")
	filter.Page, filter.PageSize = queryPagination(c)
	for _, part := range splitList(c.Query("status")) {
		filter.Status = append(filter.Status, models.ProjectStatus(part))
	}

	projects, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projects, pagination)
}

// Get godoc
// @Summary Get project detail
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Param include_deleted query bool false "Include soft-deleted projects"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.service.Get(c.Request.Context(), c.Param("id"), queryBool(c, "include_deleted"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// Create godoc
// @Summary Create project
// @Tags Projects
// @Accept json
// @Produce json
// @Param payload body service.CreateProjectRequest true "Project payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	project, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Update godoc
// @Summary Patch project fields
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body dto.UpdateProjectRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects/{id} [patch]
func (h *ProjectHandler) Update(c *gin.Context) {
	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	project, err := h.service.Update(c.Request.Context(), c.Param("id"), req.ExpectedVersion, req.Patch())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// Delete godoc
// @Summary Soft delete project
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Param expected_version query int true "Last seen version"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
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

// Restore godoc
// @Summary Restore a soft-deleted project
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body dto.VersionedRequest true "Last seen version"
// @Success 200 {object} response.Envelope
// @Router /projects/{id}/restore [post]
func (h *ProjectHandler) Restore(c *gin.Context) {
	var req dto.VersionedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	project, err := h.service.Restore(c.Request.Context(), c.Param("id"), req.ExpectedVersion)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}
