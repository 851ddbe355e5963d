package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	"github.com/noah-isme/issue-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
)

type commentStoreStub struct {
	comments map[string]*models.Comment
	nextID   int
}

func newCommentStoreStub() *commentStoreStub {
	return &commentStoreStub{comments: map[string]*models.Comment{}}
}

func (s *commentStoreStub) seed(comment *models.Comment) {
	copied := *comment
	s.comments[comment.ID] = &copied
}

func (s *commentStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, comment *models.Comment) error {
	if comment.ID == "" {
		s.nextID++
		comment.ID = fmt.Sprintf("comment-%d", s.nextID)
	}
	if comment.Version == 0 {
		comment.Version = 1
	}
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	copied := *comment
	s.comments[comment.ID] = &copied
	return nil
}

func (s *commentStoreStub) GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok || (comment.IsDeleted && !includeDeleted) {
		return nil, sql.ErrNoRows
	}
	copied := *comment
	return &copied, nil
}

func (s *commentStoreStub) GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error) {
	comment, ok := s.comments[id]
	if !ok {
		return 0, false, sql.ErrNoRows
	}
	return comment.Version, comment.IsDeleted, nil
}

func (s *commentStoreStub) CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params repository.UpdateCommentParams) (*models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok || comment.Version != expectedVersion {
		return nil, sql.ErrNoRows
	}
	if params.Content != nil {
		comment.Content = *params.Content
	}
	if params.IsDeleted != nil {
		comment.IsDeleted = *params.IsDeleted
	}
	comment.UpdatedAt = time.Now().UTC()
	comment.Version++
	copied := *comment
	return &copied, nil
}

func (s *commentStoreStub) ListByIssue(ctx context.Context, filter models.CommentFilter) ([]models.Comment, int, error) {
	out := make([]models.Comment, 0, len(s.comments))
	for _, comment := range s.comments {
		if comment.IssueID != filter.IssueID {
			continue
		}
		if comment.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		out = append(out, *comment)
	}
	return out, len(out), nil
}

type commentServiceFixture struct {
	svc      *CommentService
	comments *commentStoreStub
	issues   *issueStoreStub
	timeline *timelineCollector
	mock     sqlmock.Sqlmock
}

func newCommentServiceFixture(t *testing.T) *commentServiceFixture {
	t.Helper()
	comments := newCommentStoreStub()
	issues := newIssueStoreStub()
	issues.seed(&models.Issue{
		Versioned: models.Versioned{ID: "issue-1", Version: 1},
		ProjectID: "project-1",
		Title:     "Broken login",
		Status:    models.IssueStatusOpen,
		Type:      models.IssueTypeBug,
		Priority:  models.IssuePriorityMedium,
	})
	timeline := &timelineCollector{}
	tx, mock := newTxProviderMock(t)
	svc := NewCommentService(comments, issues, timeline, tx, nil, zap.NewNop())
	return &commentServiceFixture{svc: svc, comments: comments, issues: issues, timeline: timeline, mock: mock}
}

func TestCommentServiceCreateRecordsEvent(t *testing.T) {
	f := newCommentServiceFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	author := "user-1"
	comment, err := f.svc.Create(context.Background(), "issue-1", "Cannot reproduce on staging.", &author)
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)
	assert.Equal(t, int64(1), comment.Version)

	require.Len(t, f.timeline.events, 1)
	event := f.timeline.events[0]
	assert.Equal(t, models.EventCommented, event.Type)
	require.NotNil(t, event.ActorID)
	assert.Equal(t, "user-1", *event.ActorID)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, comment.ID, payload["comment_id"])

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCommentServiceCreateValidatesContent(t *testing.T) {
	f := newCommentServiceFixture(t)

	_, err := f.svc.Create(context.Background(), "issue-1", "   ", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content is required")

	_, err = f.svc.Create(context.Background(), "issue-1", strings.Repeat("x", maxCommentLength+1), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 10000 characters")

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCommentServiceCreateUnknownIssue(t *testing.T) {
	f := newCommentServiceFixture(t)

	_, err := f.svc.Create(context.Background(), "issue-ghost", "hello", nil)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCommentServiceUpdateEnforcesAuthor(t *testing.T) {
	f := newCommentServiceFixture(t)
	author := "user-1"
	f.comments.seed(&models.Comment{
		Versioned: models.Versioned{ID: "comment-1", Version: 1},
		IssueID:   "issue-1",
		AuthorID:  &author,
		Content:   "original",
	})

	intruder := "user-2"
	_, err := f.svc.Update(context.Background(), "comment-1", 1, "hijacked", &intruder)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Contains(t, err.Error(), "only the author may edit")

	updated, err := f.svc.Update(context.Background(), "comment-1", 1, "clarified", &author)
	require.NoError(t, err)
	assert.Equal(t, "clarified", updated.Content)
	assert.Equal(t, int64(2), updated.Version)
}

func TestCommentServiceUpdateStaleVersionConflicts(t *testing.T) {
	f := newCommentServiceFixture(t)
	f.comments.seed(&models.Comment{
		Versioned: models.Versioned{ID: "comment-1", Version: 5},
		IssueID:   "issue-1",
		Content:   "original",
	})

	_, err := f.svc.Update(context.Background(), "comment-1", 2, "late edit", nil)
	require.Error(t, err)
	var conflict *appErrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(2), conflict.ExpectedVersion)
	assert.Equal(t, int64(5), conflict.ActualVersion)
}

func TestCommentServiceSoftDeleteHidesComment(t *testing.T) {
	f := newCommentServiceFixture(t)
	f.comments.seed(&models.Comment{
		Versioned: models.Versioned{ID: "comment-1", Version: 1},
		IssueID:   "issue-1",
		Content:   "noise",
	})

	require.NoError(t, f.svc.SoftDelete(context.Background(), "comment-1", 1))

	_, err := f.svc.Get(context.Background(), "comment-1", false)
	require.Error(t, err)

	comments, pagination, err := f.svc.ListByIssue(context.Background(), models.CommentFilter{IssueID: "issue-1"})
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.Equal(t, 0, pagination.TotalCount)
}
