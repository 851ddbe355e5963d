package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/issue-tracker-api/internal/models"
)

// ReportRepository exposes read-optimised aggregation queries for reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository instantiates the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// TopAssignees returns the users carrying the most unresolved issues.
func (r *ReportRepository) TopAssignees(ctx context.Context, scope models.ReportScope) ([]models.AssigneeLoad, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT u.id AS user_id, u.full_name,
        COUNT(*) AS open_count
        FROM issues i
        JOIN users u ON u.id = i.assignee_id
        WHERE i.is_deleted = FALSE AND i.status IN ('open', 'in_progress')`)
	var args []interface{}
	if scope.ProjectID != "" {
		args = append(args, scope.ProjectID)
		builder.WriteString(fmt.Sprintf(" AND i.project_id = $%d", len(args)))
	}
	limit := scope.Limit
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	builder.WriteString(fmt.Sprintf(" GROUP BY u.id, u.full_name ORDER BY open_count DESC, u.full_name ASC LIMIT %d", limit))

	var loads []models.AssigneeLoad
	if err := r.db.SelectContext(ctx, &loads, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query top assignees: %w", err)
	}
	return loads, nil
}

// ResolutionLatency aggregates hours between creation and resolution over a
// trailing window.
func (r *ReportRepository) ResolutionLatency(ctx context.Context, scope models.ReportScope) (*models.LatencySummary, error) {
	days := scope.Days
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	var builder strings.Builder
	builder.WriteString(`SELECT COUNT(*) AS resolved_count,
        AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600) AS avg_hours,
        MIN(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600) AS min_hours,
        MAX(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600) AS max_hours,
        PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600) AS p50_hours,
        PERCENTILE_CONT(0.95) WITHIN GROUP (ORDER BY EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600) AS p95_hours
        FROM issues
        WHERE is_deleted = FALSE AND resolved_at IS NOT NULL AND resolved_at >= $1`)
	args := []interface{}{since}
	if scope.ProjectID != "" {
		args = append(args, scope.ProjectID)
		builder.WriteString(fmt.Sprintf(" AND project_id = $%d", len(args)))
	}

	var summary models.LatencySummary
	if err := r.db.GetContext(ctx, &summary, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query resolution latency: %w", err)
	}
	summary.WindowDays = days
	return &summary, nil
}

// Velocity counts issues created versus resolved over a trailing window.
func (r *ReportRepository) Velocity(ctx context.Context, scope models.ReportScope) (*models.VelocityReport, error) {
	days := scope.Days
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	var builder strings.Builder
	builder.WriteString(`SELECT
        SUM(CASE WHEN created_at >= $1 THEN 1 ELSE 0 END) AS created_count,
        SUM(CASE WHEN resolved_at IS NOT NULL AND resolved_at >= $1 THEN 1 ELSE 0 END) AS resolved_count
        FROM issues
        WHERE is_deleted = FALSE`)
	args := []interface{}{since}
	if scope.ProjectID != "" {
		args = append(args, scope.ProjectID)
		builder.WriteString(fmt.Sprintf(" AND project_id = $%d", len(args)))
	}

	var row struct {
		CreatedCount  *int `db:"created_count"`
		ResolvedCount *int `db:"resolved_count"`
	}
	if err := r.db.GetContext(ctx, &row, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query velocity: %w", err)
	}

	report := &models.VelocityReport{
		WindowDays:     days,
		WindowStartsAt: since,
	}
	if row.CreatedCount != nil {
		report.CreatedCount = *row.CreatedCount
	}
	if row.ResolvedCount != nil {
		report.ResolvedCount = *row.ResolvedCount
	}
	report.NetChange = report.CreatedCount - report.ResolvedCount
	report.CreatedPerDay = float64(report.CreatedCount) / float64(days)
	report.ResolvedPerDay = float64(report.ResolvedCount) / float64(days)
	return report, nil
}

// Statistics counts issues per status and derives the resolution rate.
func (r *ReportRepository) Statistics(ctx context.Context, scope models.ReportScope) (*models.StatusStatistics, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT COUNT(*) AS total,
        SUM(CASE WHEN status = 'open' THEN 1 ELSE 0 END) AS open_count,
        SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END) AS in_progress_count,
        SUM(CASE WHEN status = 'resolved' THEN 1 ELSE 0 END) AS resolved_count,
        SUM(CASE WHEN status = 'closed' THEN 1 ELSE 0 END) AS closed_count
        FROM issues
        WHERE is_deleted = FALSE`)
	var args []interface{}
	if scope.ProjectID != "" {
		args = append(args, scope.ProjectID)
		builder.WriteString(fmt.Sprintf(" AND project_id = $%d", len(args)))
	}

	var row struct {
		Total         int  `db:"total"`
		OpenCount     *int `db:"open_count"`
		InProgress    *int `db:"in_progress_count"`
		ResolvedCount *int `db:"resolved_count"`
		ClosedCount   *int `db:"closed_count"`
	}
	if err := r.db.GetContext(ctx, &row, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query statistics: %w", err)
	}

	stats := &models.StatusStatistics{Total: row.Total}
	if row.OpenCount != nil {
		stats.OpenCount = *row.OpenCount
	}
	if row.InProgress != nil {
		stats.InProgress = *row.InProgress
	}
	if row.ResolvedCount != nil {
		stats.ResolvedCount = *row.ResolvedCount
	}
	if row.ClosedCount != nil {
		stats.ClosedCount = *row.ClosedCount
	}
	if stats.Total > 0 {
		stats.ResolutionRate = float64(stats.ResolvedCount+stats.ClosedCount) / float64(stats.Total)
	}
	return stats, nil
}
