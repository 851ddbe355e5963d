package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/issue-tracker-api/internal/models"
)

type reportServiceMock struct {
	assignees []models.AssigneeLoad
	latency   *models.LatencySummary
	velocity  *models.VelocityReport
	stats     *models.StatusStatistics
	system    models.SystemMetrics
	cacheHit  bool
	err       error

	lastScope models.ReportScope
}

func (m *reportServiceMock) TopAssignees(ctx context.Context, scope models.ReportScope) ([]models.AssigneeLoad, bool, error) {
	m.lastScope = scope
	return m.assignees, m.cacheHit, m.err
}

func (m *reportServiceMock) ResolutionLatency(ctx context.Context, scope models.ReportScope) (*models.LatencySummary, bool, error) {
	m.lastScope = scope
	return m.latency, m.cacheHit, m.err
}

func (m *reportServiceMock) Velocity(ctx context.Context, scope models.ReportScope) (*models.VelocityReport, bool, error) {
	m.lastScope = scope
	return m.velocity, m.cacheHit, m.err
}

func (m *reportServiceMock) Statistics(ctx context.Context, scope models.ReportScope) (*models.StatusStatistics, bool, error) {
	m.lastScope = scope
	return m.stats, m.cacheHit, m.err
}

func (m *reportServiceMock) SystemMetrics() models.SystemMetrics {
	return m.system
}

func TestReportHandlerTopAssignees(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{
		assignees: []models.AssigneeLoad{{UserID: "user-1", OpenCount: 4}},
		cacheHit:  true,
	}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/reports/top-assignees?project_id=project-1&limit=5", nil)
	handler.TopAssignees(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "project-1", mockSvc.lastScope.ProjectID)
	require.Equal(t, 5, mockSvc.lastScope.Limit)

	var envelope struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, true, envelope.Meta["cache_hit"])
	require.Contains(t, envelope.Meta, "processing_time_ms")
}

func TestReportHandlerLatencyScopeValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{})

	c, w := newGinContext(http.MethodGet, "/reports/latency?days=yesterday", nil)
	handler.ResolutionLatency(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerVelocity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{velocity: &models.VelocityReport{WindowDays: 14}}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/reports/velocity?days=14", nil)
	handler.Velocity(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 14, mockSvc.lastScope.Days)
}

func TestReportHandlerUnconfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(nil)

	c, w := newGinContext(http.MethodGet, "/reports/statistics", nil)
	handler.Statistics(c)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestReportHandlerSystemMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{system: models.SystemMetrics{RequestsTotal: 42}}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/reports/system-metrics", nil)
	handler.SystemMetrics(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.SystemMetrics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.EqualValues(t, 42, envelope.Data.RequestsTotal)
}
