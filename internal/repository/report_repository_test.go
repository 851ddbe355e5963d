package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/issue-tracker-api/internal/models"
)

func newReportRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReportRepositoryTopAssignees(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	rows := sqlmock.NewRows([]string{"user_id", "full_name", "open_count"}).
		AddRow("user-1", "Dewi Lestari", 8).
		AddRow("user-2", "Budi Santoso", 5)
	mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON u.id = i.assignee_id")).
		WithArgs("project-1").
		WillReturnRows(rows)

	loads, err := repo.TopAssignees(context.Background(), models.ReportScope{ProjectID: "project-1", Limit: 5})
	require.NoError(t, err)
	require.Len(t, loads, 2)
	require.Equal(t, "user-1", loads[0].UserID)
	require.Equal(t, 8, loads[0].OpenCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryResolutionLatency(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	avg, min, max, p50, p95 := 20.5, 1.0, 72.0, 16.0, 60.0
	rows := sqlmock.NewRows([]string{"resolved_count", "avg_hours", "min_hours", "max_hours", "p50_hours", "p95_hours"}).
		AddRow(14, avg, min, max, p50, p95)
	mock.ExpectQuery(regexp.QuoteMeta("PERCENTILE_CONT(0.95) WITHIN GROUP")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	summary, err := repo.ResolutionLatency(context.Background(), models.ReportScope{Days: 30})
	require.NoError(t, err)
	require.Equal(t, 14, summary.ResolvedCount)
	require.Equal(t, 30, summary.WindowDays)
	require.NotNil(t, summary.P95Hours)
	require.InDelta(t, 60.0, *summary.P95Hours, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryResolutionLatencyEmptyWindow(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	rows := sqlmock.NewRows([]string{"resolved_count", "avg_hours", "min_hours", "max_hours", "p50_hours", "p95_hours"}).
		AddRow(0, nil, nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM issues")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	summary, err := repo.ResolutionLatency(context.Background(), models.ReportScope{})
	require.NoError(t, err)
	require.Zero(t, summary.ResolvedCount)
	require.Nil(t, summary.AvgHours)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryVelocity(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	rows := sqlmock.NewRows([]string{"created_count", "resolved_count"}).AddRow(30, 24)
	mock.ExpectQuery(regexp.QuoteMeta("SUM(CASE WHEN created_at >= $1 THEN 1 ELSE 0 END)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	report, err := repo.Velocity(context.Background(), models.ReportScope{Days: 30})
	require.NoError(t, err)
	require.Equal(t, 30, report.CreatedCount)
	require.Equal(t, 24, report.ResolvedCount)
	require.Equal(t, 6, report.NetChange)
	require.InDelta(t, 1.0, report.CreatedPerDay, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryStatistics(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	rows := sqlmock.NewRows([]string{"total", "open_count", "in_progress_count", "resolved_count", "closed_count"}).
		AddRow(10, 4, 2, 3, 1)
	mock.ExpectQuery(regexp.QuoteMeta("SUM(CASE WHEN status = 'open' THEN 1 ELSE 0 END)")).
		WillReturnRows(rows)

	stats, err := repo.Statistics(context.Background(), models.ReportScope{})
	require.NoError(t, err)
	require.Equal(t, 10, stats.Total)
	require.Equal(t, 4, stats.OpenCount)
	require.InDelta(t, 0.4, stats.ResolutionRate, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}
