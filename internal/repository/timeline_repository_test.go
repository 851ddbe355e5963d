package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/issue-tracker-api/internal/models"
)

func newTimelineRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimelineRepositoryAppendAssignsSeq(t *testing.T) {
	db, mock, cleanup := newTimelineRepoMock(t)
	defer cleanup()

	repo := NewTimelineRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO timeline_events")).
		WithArgs(sqlmock.AnyArg(), "issue-1", "status_changed", sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(7)))

	event := &models.TimelineEvent{
		IssueID: "issue-1",
		Type:    models.EventStatusChanged,
	}
	require.NoError(t, repo.Append(context.Background(), nil, event))
	require.Equal(t, int64(7), event.Seq)
	require.NotEmpty(t, event.ID)
	require.JSONEq(t, `{}`, string(event.Payload))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimelineRepositoryListPageFirstPage(t *testing.T) {
	db, mock, cleanup := newTimelineRepoMock(t)
	defer cleanup()

	repo := NewTimelineRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "issue_id", "seq", "event_type", "payload", "actor_id", "occurred_at"}).
		AddRow("evt-1", "issue-1", int64(1), "created", `{}`, nil, now).
		AddRow("evt-2", "issue-1", int64(2), "assigned", `{"assignee_id":"user-2"}`, "user-1", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, issue_id, seq, event_type, payload, actor_id, occurred_at FROM timeline_events WHERE issue_id = $1 ORDER BY occurred_at ASC, seq ASC LIMIT 100")).
		WithArgs("issue-1").
		WillReturnRows(rows)

	events, err := repo.ListPage(context.Background(), "issue-1", nil, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, int64(1), events[0].Seq)
	require.Equal(t, models.EventAssigned, events[1].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimelineRepositoryListPageResumesAfterCursor(t *testing.T) {
	db, mock, cleanup := newTimelineRepoMock(t)
	defer cleanup()

	repo := NewTimelineRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "issue_id", "seq", "event_type", "payload", "actor_id", "occurred_at"}).
		AddRow("evt-3", "issue-1", int64(3), "commented", `{}`, "user-1", now)
	mock.ExpectQuery(regexp.QuoteMeta("AND (occurred_at, seq) > ($2, $3) ORDER BY occurred_at ASC, seq ASC LIMIT 2")).
		WithArgs("issue-1", now, int64(2)).
		WillReturnRows(rows)

	events, err := repo.ListPage(context.Background(), "issue-1", &models.TimelineCursorKey{OccurredAt: now, Seq: 2}, 2)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, int64(3), events[0].Seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimelineRepositoryCountByIssue(t *testing.T) {
	db, mock, cleanup := newTimelineRepoMock(t)
	defer cleanup()

	repo := NewTimelineRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timeline_events WHERE issue_id = $1")).
		WithArgs("issue-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	total, err := repo.CountByIssue(context.Background(), "issue-1")
	require.NoError(t, err)
	require.Equal(t, 12, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
