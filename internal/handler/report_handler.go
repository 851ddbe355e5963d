package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/issue-tracker-api/internal/middleware"
	"github.com/noah-isme/issue-tracker-api/internal/models"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
	"github.com/noah-isme/issue-tracker-api/pkg/response"
)

type reportService interface {
	TopAssignees(ctx context.Context, scope models.ReportScope) ([]models.AssigneeLoad, bool, error)
	ResolutionLatency(ctx context.Context, scope models.ReportScope) (*models.LatencySummary, bool, error)
	Velocity(ctx context.Context, scope models.ReportScope) (*models.VelocityReport, bool, error)
	Statistics(ctx context.Context, scope models.ReportScope) (*models.StatusStatistics, bool, error)
	SystemMetrics() models.SystemMetrics
}

// ReportHandler exposes aggregated reporting endpoints.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// TopAssignees godoc
// @Summary Open issue counts per assignee
// @Tags Reports
// @Produce json
// @Param project_id query string false "Project scope"
// @Param limit query int false "Max assignees"
// @Success 200 {object} response.Envelope
// @Router /reports/top-assignees [get]
func (h *ReportHandler) TopAssignees(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report service not configured"))
		return
	}
	scope, err := scopeFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	load, cacheHit, err := h.service.TopAssignees(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, start, cacheHit, load)
}

// ResolutionLatency godoc
// @Summary Resolution latency distribution
// @Tags Reports
// @Produce json
// @Param project_id query string false "Project scope"
// @Param days query int false "Window in days"
// @Success 200 {object} response.Envelope
// @Router /reports/latency [get]
func (h *ReportHandler) ResolutionLatency(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report service not configured"))
		return
	}
	scope, err := scopeFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.ResolutionLatency(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, start, cacheHit, summary)
}

// Velocity godoc
// @Summary Issues opened and resolved per day
// @Tags Reports
// @Produce json
// @Param project_id query string false "Project scope"
// @Param days query int false "Window in days"
// @Success 200 {object} response.Envelope
// @Router /reports/velocity [get]
func (h *ReportHandler) Velocity(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report service not configured"))
		return
	}
	scope, err := scopeFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	velocity, cacheHit, err := h.service.Velocity(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, start, cacheHit, velocity)
}

// Statistics godoc
// @Summary Issue counts grouped by status, priority and type
// @Tags Reports
// @Produce json
// @Param project_id query string false "Project scope"
// @Success 200 {object} response.Envelope
// @Router /reports/statistics [get]
func (h *ReportHandler) Statistics(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report service not configured"))
		return
	}
	scope, err := scopeFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	stats, cacheHit, err := h.service.Statistics(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, start, cacheHit, stats)
}

// SystemMetrics godoc
// @Summary Aggregate instrumentation snapshot
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/system-metrics [get]
func (h *ReportHandler) SystemMetrics(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report service not configured"))
		return
	}
	response.JSON(c, http.StatusOK, h.service.SystemMetrics(), nil)
}

func scopeFromQuery(c *gin.Context) (models.ReportScope, error) {
	scope := models.ReportScope{ProjectID: c.Query("project_id")}
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			return scope, appErrors.Clone(appErrors.ErrValidation, "days must be a positive integer")
		}
		scope.Days = days
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return scope, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer")
		}
		scope.Limit = limit
	}
	return scope, nil
}

func respondReport(c *gin.Context, start time.Time, cacheHit bool, data interface{}) {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, data, nil, meta)
}
