package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
)

// reportCachePattern matches every cached report payload. Mutation paths
// invalidate it best-effort after each commit.
const reportCachePattern = "reports:*"

// ReportRepository describes the persistence layer required by ReportService.
type ReportRepository interface {
	TopAssignees(ctx context.Context, scope models.ReportScope) ([]models.AssigneeLoad, error)
	ResolutionLatency(ctx context.Context, scope models.ReportScope) (*models.LatencySummary, error)
	Velocity(ctx context.Context, scope models.ReportScope) (*models.VelocityReport, error)
	Statistics(ctx context.Context, scope models.ReportScope) (*models.StatusStatistics, error)
}

// ReportService provides read-optimised access to issue aggregations with
// cache integration.
type ReportService struct {
	repo    ReportRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewReportService constructs a report service.
func NewReportService(repo ReportRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ReportService {
	return &ReportService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// TopAssignees returns open-issue counts per assignee. The boolean indicates
// whether data originated from cache.
func (s *ReportService) TopAssignees(ctx context.Context, scope models.ReportScope) ([]models.AssigneeLoad, bool, error) {
	cacheKey := makeReportCacheKey("top_assignees", scope.ProjectID, strconv.Itoa(scope.Limit))
	var cached []models.AssigneeLoad
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get top assignees cache: %w", err)
		} else if hit {
			return cached, true, nil
		}
	}

	start := time.Now()
	loads, err := s.repo.TopAssignees(ctx, scope)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("report_top_assignees", time.Since(start))
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, loads, 0); err != nil && s.logger != nil {
			s.logger.Warn("cache top assignees", zap.Error(err))
		}
	}
	return loads, false, nil
}

// ResolutionLatency returns latency aggregates over the trailing window.
func (s *ReportService) ResolutionLatency(ctx context.Context, scope models.ReportScope) (*models.LatencySummary, bool, error) {
	cacheKey := makeReportCacheKey("resolution_latency", scope.ProjectID, strconv.Itoa(scope.Days))
	var cached models.LatencySummary
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get resolution latency cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	summary, err := s.repo.ResolutionLatency(ctx, scope)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("report_resolution_latency", time.Since(start))
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, 0); err != nil && s.logger != nil {
			s.logger.Warn("cache resolution latency", zap.Error(err))
		}
	}
	return summary, false, nil
}

// Velocity returns created versus resolved issue counts in the window.
func (s *ReportService) Velocity(ctx context.Context, scope models.ReportScope) (*models.VelocityReport, bool, error) {
	cacheKey := makeReportCacheKey("velocity", scope.ProjectID, strconv.Itoa(scope.Days))
	var cached models.VelocityReport
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get velocity cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	report, err := s.repo.Velocity(ctx, scope)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("report_velocity", time.Since(start))
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, 0); err != nil && s.logger != nil {
			s.logger.Warn("cache velocity", zap.Error(err))
		}
	}
	return report, false, nil
}

// Statistics returns live status buckets and the resolution rate.
func (s *ReportService) Statistics(ctx context.Context, scope models.ReportScope) (*models.StatusStatistics, bool, error) {
	cacheKey := makeReportCacheKey("statistics", scope.ProjectID)
	var cached models.StatusStatistics
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get statistics cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	stats, err := s.repo.Statistics(ctx, scope)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("report_statistics", time.Since(start))
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, stats, 0); err != nil && s.logger != nil {
			s.logger.Warn("cache statistics", zap.Error(err))
		}
	}
	return stats, false, nil
}

// SystemMetrics returns the instrumentation snapshot.
func (s *ReportService) SystemMetrics() models.SystemMetrics {
	if s.metrics == nil {
		return models.SystemMetrics{}
	}
	return s.metrics.Snapshot()
}

func makeReportCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("reports")
	for _, part := range parts {
		if part == "" || part == "0" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
