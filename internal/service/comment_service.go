package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	"github.com/noah-isme/issue-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
)

type commentStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, comment *models.Comment) error
	GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Comment, error)
	GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error)
	CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params repository.UpdateCommentParams) (*models.Comment, error)
	ListByIssue(ctx context.Context, filter models.CommentFilter) ([]models.Comment, int, error)
}

type commentIssueReader interface {
	GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Issue, error)
}

const maxCommentLength = 10000

// CommentService handles issue discussion entries. Creation lands on the
// issue timeline in the same transaction as the comment row.
type CommentService struct {
	comments commentStore
	issues   commentIssueReader
	timeline timelineRecorder
	tx       txProvider
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewCommentService constructs the comment service.
func NewCommentService(comments commentStore, issues commentIssueReader, timeline timelineRecorder, tx txProvider, metrics *MetricsService, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{
		comments: comments,
		issues:   issues,
		timeline: timeline,
		tx:       tx,
		metrics:  metrics,
		logger:   logger,
	}
}

// Create adds a comment to an issue and records the commented event.
func (s *CommentService) Create(ctx context.Context, issueID, content string, authorID *string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "content is required")
	}
	if len(content) > maxCommentLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, "content exceeds 10000 characters")
	}
	if _, err := s.issues.GetByID(ctx, nil, issueID, false); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	comment := &models.Comment{
		IssueID:  issueID,
		AuthorID: authorID,
		Content:  content,
	}
	if err = s.comments.Create(ctx, tx, comment); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment")
		return nil, err
	}
	if err = s.recordCommented(ctx, tx, comment); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit comment")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordMutation("comment", "create", "applied")
	}
	return comment, nil
}

// Get returns a single comment.
func (s *CommentService) Get(ctx context.Context, id string, includeDeleted bool) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, nil, id, includeDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	return comment, nil
}

// ListByIssue returns an issue's comments oldest first.
func (s *CommentService) ListByIssue(ctx context.Context, filter models.CommentFilter) ([]models.Comment, *models.Pagination, error) {
	if _, err := s.issues.GetByID(ctx, nil, filter.IssueID, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}
	comments, total, err := s.comments.ListByIssue(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return comments, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Update rewrites the comment content behind the version predicate. Only the
// author may edit their comment.
func (s *CommentService) Update(ctx context.Context, id string, expectedVersion int64, content string, actorID *string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "content is required")
	}
	if len(content) > maxCommentLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, "content exceeds 10000 characters")
	}
	current, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if current.AuthorID != nil && actorID != nil && *current.AuthorID != *actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author may edit a comment")
	}

	updated, err := s.comments.CompareAndSwapUpdate(ctx, nil, id, expectedVersion, repository.UpdateCommentParams{Content: &content})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.resolveSwapMiss(ctx, id, expectedVersion)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update comment")
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("comment", "update", "applied")
	}
	return updated, nil
}

// SoftDelete marks the comment deleted behind the version predicate.
func (s *CommentService) SoftDelete(ctx context.Context, id string, expectedVersion int64) error {
	if _, err := s.Get(ctx, id, false); err != nil {
		return err
	}
	deleted := true
	if _, err := s.comments.CompareAndSwapUpdate(ctx, nil, id, expectedVersion, repository.UpdateCommentParams{IsDeleted: &deleted}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.resolveSwapMiss(ctx, id, expectedVersion)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete comment")
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("comment", "delete", "applied")
	}
	return nil
}

func (s *CommentService) recordCommented(ctx context.Context, exec sqlx.ExtContext, comment *models.Comment) error {
	raw, err := json.Marshal(map[string]interface{}{"comment_id": comment.ID})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode event payload")
	}
	event := &models.TimelineEvent{
		IssueID: comment.IssueID,
		Type:    models.EventCommented,
		Payload: types.JSONText(raw),
		ActorID: comment.AuthorID,
	}
	if err := s.timeline.Record(ctx, exec, event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record timeline event")
	}
	return nil
}

func (s *CommentService) resolveSwapMiss(ctx context.Context, id string, expected int64) error {
	actual, _, err := s.comments.GetVersion(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read stored version")
	}
	if s.metrics != nil {
		s.metrics.RecordVersionConflict("comment")
	}
	return &appErrors.ConflictError{EntityID: id, ExpectedVersion: expected, ActualVersion: actual}
}
