package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/issue-tracker-api/internal/dto"
	"github.com/noah-isme/issue-tracker-api/internal/models"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
	"github.com/noah-isme/issue-tracker-api/pkg/response"
)

type timelineService interface {
	Page(ctx context.Context, issueID string, after *models.TimelineCursorKey, limit int) ([]models.TimelineEvent, *models.TimelineCursorKey, error)
	Count(ctx context.Context, issueID string) (int, error)
}

// TimelineHandler exposes the issue history endpoint.
type TimelineHandler struct {
	service timelineService
}

// NewTimelineHandler constructs a timeline handler.
func NewTimelineHandler(service timelineService) *TimelineHandler {
	return &TimelineHandler{service: service}
}

// List godoc
// @Summary Read an issue timeline
// @Description Returns events in (occurred_at, seq) order. Pass the
// @Description next cursor fields back as after_time and after_seq to
// @Description resume where the previous page stopped.
// @Tags Timeline
// @Produce json
// @Param id path string true "Issue ID"
// @Param limit query int false "Events per page"
// @Param after_time query string false "Cursor timestamp (RFC3339)"
// @Param after_seq query int false "Cursor sequence"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /issues/{id}/timeline [get]
func (h *TimelineHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	after, err := cursorFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	issueID := c.Param("id")
	events, next, err := h.service.Page(c.Request.Context(), issueID, after, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	total, err := h.service.Count(c.Request.Context(), issueID)
	if err != nil {
		response.Error(c, err)
		return
	}

	body := dto.TimelineResponse{Events: events, Total: total}
	if next != nil {
		body.Next = &dto.TimelineCursor{OccurredAt: next.OccurredAt, Seq: next.Seq}
	}
	response.JSON(c, http.StatusOK, body, nil)
}

func cursorFromQuery(c *gin.Context) (*models.TimelineCursorKey, error) {
	rawTime := c.Query("after_time")
	rawSeq := c.Query("after_seq")
	if rawTime == "" && rawSeq == "" {
		return nil, nil
	}
	if rawTime == "" || rawSeq == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "after_time and after_seq must be supplied together")
	}
	occurredAt, err := time.Parse(time.RFC3339Nano, rawTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "after_time must be an RFC3339 timestamp")
	}
	seq, err := strconv.ParseInt(rawSeq, 10, 64)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "after_seq must be an integer")
	}
	return &models.TimelineCursorKey{OccurredAt: occurredAt, Seq: seq}, nil
}
