package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/issue-tracker-api/internal/dto"
	"github.com/noah-isme/issue-tracker-api/internal/models"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
	"github.com/noah-isme/issue-tracker-api/pkg/response"
)

type issueService interface {
	Create(ctx context.Context, input models.IssueCreate, actorID *string) (*models.Issue, error)
	Get(ctx context.Context, id string, includeDeleted bool) (*models.Issue, error)
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error)
	Update(ctx context.Context, id string, expectedVersion int64, patch models.IssuePatch, actorID *string) (*models.Issue, error)
	Transition(ctx context.Context, id string, expectedVersion int64, to models.IssueStatus, actorID *string) (*models.Issue, error)
	Assign(ctx context.Context, id string, expectedVersion int64, assigneeID *string, actorID *string) (*models.Issue, error)
	SoftDelete(ctx context.Context, id string, expectedVersion int64, actorID *string) error
	Restore(ctx context.Context, id string, expectedVersion int64, actorID *string) (*models.Issue, error)
	AttachLabel(ctx context.Context, issueID string, expectedVersion int64, labelID string, actorID *string) (*models.Issue, error)
	DetachLabel(ctx context.Context, issueID string, expectedVersion int64, labelID string, actorID *string) (*models.Issue, error)
}

// IssueHandler exposes the versioned issue mutation endpoints.
type IssueHandler struct {
	service issueService
}

// NewIssueHandler constructs the handler.
func NewIssueHandler(service issueService) *IssueHandler {
	return &IssueHandler{service: service}
}

// Create godoc
// @Summary Create an issue
// @Tags Issues
// @Accept json
// @Produce json
// @Param payload body dto.CreateIssueRequest true "Issue payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /issues [post]
func (h *IssueHandler) Create(c *gin.Context) {
	var req dto.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid issue payload"))
		return
	}
	issue, err := h.service.Create(c.Request.Context(), req.Model(actorFromContext(c)), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, issue, nil)
}

// List godoc
// @Summary List issues
// @Tags Issues
// @Produce json
// @Param project_id query string false "Project filter"
// @Param status query string false "Comma separated statuses"
// @Param priority query string false "Comma separated priorities"
// @Param type query string false "Comma separated types"
// @Param assignee_id query string false "Assignee filter"
// @Param creator_id query string false "Creator filter"
// @Param search query string false "Title/description search"
// @Param include_deleted query bool false "Include soft-deleted issues"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /issues [get]
func (h *IssueHandler) List(c *gin.Context) {
	filter := h.filterFromQuery(c)
	issues, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, issues, pagination)
}

// Search godoc
// @Summary Search issues by title or description
// @Tags Issues
// @Produce json
// @Param q query string true "Search term"
// @Param project_id query string false "Project filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /issues/search [get]
func (h *IssueHandler) Search(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "q query parameter is required"))
		return
	}
	filter := h.filterFromQuery(c)
	filter.Search = term
	issues, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, issues, pagination)
}

// Get godoc
// @Summary Get issue detail
// @Tags Issues
// @Produce json
// @Param id path string true "Issue ID"
// @Param include_deleted query bool false "Include soft-deleted issues"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /issues/{id} [get]
func (h *IssueHandler) Get(c *gin.Context) {
	issue, err := h.service.Get(c.Request.Context(), c.Param("id"), queryBool(c, "include_deleted"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// Update godoc
// @Summary Apply a versioned field patch
// @Description Applies the patch only when expected_version matches the stored version.
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param payload body dto.UpdateIssueRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /issues/{id} [patch]
func (h *IssueHandler) Update(c *gin.Context) {
	var req dto.UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid patch payload"))
		return
	}
	issue, err := h.service.Update(c.Request.Context(), c.Param("id"), req.ExpectedVersion, req.Patch(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// Transition godoc
// @Summary Move an issue through the workflow
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param payload body dto.TransitionIssueRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /issues/{id}/transition [post]
func (h *IssueHandler) Transition(c *gin.Context) {
	var req dto.TransitionIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid transition payload"))
		return
	}
	issue, err := h.service.Transition(c.Request.Context(), c.Param("id"), req.ExpectedVersion, models.IssueStatus(req.Status), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// Assign godoc
// @Summary Assign or unassign an issue
// @Description A null assignee_id removes the current assignee.
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param payload body dto.AssignIssueRequest true "Assignee"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/assign [post]
func (h *IssueHandler) Assign(c *gin.Context) {
	var req dto.AssignIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assign payload"))
		return
	}
	issue, err := h.service.Assign(c.Request.Context(), c.Param("id"), req.ExpectedVersion, req.AssigneeID, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// Delete godoc
// @Summary Soft delete an issue
// @Tags Issues
// @Produce json
// @Param id path string true "Issue ID"
// @Param expected_version query int true "Last seen version"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /issues/{id} [delete]
func (h *IssueHandler) Delete(c *gin.Context) {
	version, err := queryExpectedVersion(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.SoftDelete(c.Request.Context(), c.Param("id"), version, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Restore godoc
// @Summary Restore a soft-deleted issue
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param payload body dto.VersionedRequest true "Last seen version"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/restore [post]
func (h *IssueHandler) Restore(c *gin.Context) {
	var req dto.VersionedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid restore payload"))
		return
	}
	issue, err := h.service.Restore(c.Request.Context(), c.Param("id"), req.ExpectedVersion, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// AttachLabel godoc
// @Summary Attach a label to an issue
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param labelId path string true "Label ID"
// @Param payload body dto.VersionedRequest true "Last seen issue version"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/labels/{labelId} [post]
func (h *IssueHandler) AttachLabel(c *gin.Context) {
	var req dto.VersionedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid attach payload"))
		return
	}
	issue, err := h.service.AttachLabel(c.Request.Context(), c.Param("id"), req.ExpectedVersion, c.Param("labelId"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// DetachLabel godoc
// @Summary Detach a label from an issue
// @Tags Issues
// @Produce json
// @Param id path string true "Issue ID"
// @Param labelId path string true "Label ID"
// @Param expected_version query int true "Last seen issue version"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/labels/{labelId} [delete]
func (h *IssueHandler) DetachLabel(c *gin.Context) {
	version, err := queryExpectedVersion(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	issue, err := h.service.DetachLabel(c.Request.Context(), c.Param("id"), version, c.Param("labelId"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

func (h *IssueHandler) filterFromQuery(c *gin.Context) models.IssueFilter {
	filter := models.IssueFilter{
		ProjectID:      c.Query("project_id"),
		AssigneeID:     c.Query("assignee_id"),
		CreatorID:      c.Query("creator_id"),
		Search:         c.Query("search"),
		IncludeDeleted: queryBool(c, "include_deleted"),
	}
	filter.Page, filter.PageSize = queryPagination(c)
	for _, part := range splitList(c.Query("status")) {
		filter.Status = append(filter.Status, models.IssueStatus(part))
	}
	for _, part := range splitList(c.Query("priority")) {
		filter.Priority = append(filter.Priority, models.IssuePriority(part))
	}
	for _, part := range splitList(c.Query("type")) {
		filter.Type = append(filter.Type, models.IssueType(part))
	}
	return filter
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
