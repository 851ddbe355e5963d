package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/issue-tracker-api/internal/dto"
	"github.com/noah-isme/issue-tracker-api/internal/models"
	"github.com/noah-isme/issue-tracker-api/internal/service"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
	"github.com/noah-isme/issue-tracker-api/pkg/response"
)

// CommentHandler exposes comment endpoints nested under issues.
type CommentHandler struct {
	service *service.CommentService
}

// NewCommentHandler constructs a comment handler.
func NewCommentHandler(svc *service.CommentService) *CommentHandler {
	return &CommentHandler{service: svc}
}

// Create godoc
// @Summary Add a comment to an issue
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param payload body dto.CreateCommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /issues/{id}/comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid comment payload"))
		return
	}
	comment, err := h.service.Create(c.Request.Context(), c.Param("id"), req.Content, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, comment, nil)
}

// ListByIssue godoc
// @Summary List comments on an issue
// @Tags Comments
// @Produce json
// @Param id path string true "Issue ID"
// @Param author_id query string false "Author filter"
// @Param include_deleted query bool false "Include soft-deleted comments"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/comments [get]
func (h *CommentHandler) ListByIssue(c *gin.Context) {
	filter := models.CommentFilter{
		IssueID:        c.Param("id"),
		AuthorID:       c.Query("author_id"),
		IncludeDeleted: queryBool(c, "include_deleted"),
	}
	filter.Page, filter.PageSize = queryPagination(c)

	comments, pagination, err := h.service.ListByIssue(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comments, pagination)
}

// Get godoc
// @Summary Get a comment
// @Tags Comments
// @Produce json
// @Param id path string true "Comment ID"
// @Param include_deleted query bool false "Include soft-deleted comments"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /comments/{id} [get]
func (h *CommentHandler) Get(c *gin.Context) {
	comment, err := h.service.Get(c.Request.Context(), c.Param("id"), queryBool(c, "include_deleted"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comment, nil)
}

// Update godoc
// @Summary Edit a comment
// @Description Only the original author may edit a comment.
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Comment ID"
// @Param payload body dto.UpdateCommentRequest true "New content"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /comments/{id} [patch]
func (h *CommentHandler) Update(c *gin.Context) {
	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid comment payload"))
		return
	}
	comment, err := h.service.Update(c.Request.Context(), c.Param("id"), req.ExpectedVersion, req.Content, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comment, nil)
}

// Delete godoc
// @Summary Soft delete a comment
// @Tags Comments
// @Produce json
// @Param id path string true "Comment ID"
// @Param expected_version query int true "Last seen version"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /comments/{id} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
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
