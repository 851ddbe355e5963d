package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
)

type timelineStore interface {
	Append(ctx context.Context, exec sqlx.ExtContext, event *models.TimelineEvent) error
	ListPage(ctx context.Context, issueID string, after *models.TimelineCursorKey, limit int) ([]models.TimelineEvent, error)
	CountByIssue(ctx context.Context, issueID string) (int, error)
}

type timelineIssueReader interface {
	GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Issue, error)
}

// TimelineService records issue history and plays it back as an ordered
// stream. Events are immutable once written.
type TimelineService struct {
	events   timelineStore
	issues   timelineIssueReader
	pageSize int
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewTimelineService wires the event log dependencies.
func NewTimelineService(events timelineStore, issues timelineIssueReader, pageSize int, metrics *MetricsService, logger *zap.Logger) *TimelineService {
	if pageSize <= 0 {
		pageSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimelineService{events: events, issues: issues, pageSize: pageSize, metrics: metrics, logger: logger}
}

// Record appends an event inside the caller's transaction. A rolled back
// transaction drops the event together with the mutation it described.
func (s *TimelineService) Record(ctx context.Context, exec sqlx.ExtContext, event *models.TimelineEvent) error {
	if event == nil {
		return appErrors.Clone(appErrors.ErrValidation, "event is required")
	}
	if event.IssueID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "event issue_id is required")
	}
	if event.Type == "" {
		return appErrors.Clone(appErrors.ErrValidation, "event type is required")
	}
	if err := s.events.Append(ctx, exec, event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append timeline event")
	}
	if s.metrics != nil {
		s.metrics.RecordTimelineEvent(string(event.Type))
	}
	return nil
}

// Reconstruct returns a restartable cursor over the issue's complete history
// in (occurred_at, seq) order. An issue without events yields an exhausted
// cursor, not an error; an unknown issue id is NotFound. Deleted issues keep
// their history readable.
func (s *TimelineService) Reconstruct(ctx context.Context, issueID string) (*TimelineCursor, error) {
	if _, err := s.issues.GetByID(ctx, nil, issueID, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}
	return &TimelineCursor{store: s.events, issueID: issueID, pageSize: s.pageSize}, nil
}

// Page returns one keyset page plus the cursor key to resume from, or nil
// when the history is exhausted.
func (s *TimelineService) Page(ctx context.Context, issueID string, after *models.TimelineCursorKey, limit int) ([]models.TimelineEvent, *models.TimelineCursorKey, error) {
	if _, err := s.issues.GetByID(ctx, nil, issueID, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}
	if limit <= 0 {
		limit = s.pageSize
	}
	events, err := s.events.ListPage(ctx, issueID, after, limit)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to page timeline")
	}
	var next *models.TimelineCursorKey
	if len(events) == limit {
		last := events[len(events)-1]
		next = &models.TimelineCursorKey{OccurredAt: last.OccurredAt, Seq: last.Seq}
	}
	return events, next, nil
}

// Count returns the total number of events recorded for an issue.
func (s *TimelineService) Count(ctx context.Context, issueID string) (int, error) {
	total, err := s.events.CountByIssue(ctx, issueID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count timeline events")
	}
	return total, nil
}

// TimelineCursor walks an issue's history lazily, fetching one keyset page
// at a time. Usage mirrors the redis scan iterator:
//
//	for cursor.Next(ctx) {
//	    event := cursor.Event()
//	    ...
//	}
//	if err := cursor.Err(); err != nil { ... }
type TimelineCursor struct {
	store    timelineStore
	issueID  string
	pageSize int

	buffer    []models.TimelineEvent
	pos       int
	last      *models.TimelineCursorKey
	exhausted bool
	err       error
	current   *models.TimelineEvent
}

// Next advances the cursor, fetching the next page when the buffer runs dry.
// It returns false once the history is exhausted or an error occurred.
func (c *TimelineCursor) Next(ctx context.Context) bool {
	if c == nil || c.err != nil {
		return false
	}
	if c.pos >= len(c.buffer) {
		if c.exhausted {
			return false
		}
		page, err := c.store.ListPage(ctx, c.issueID, c.last, c.pageSize)
		if err != nil {
			c.err = err
			return false
		}
		if len(page) == 0 {
			c.exhausted = true
			return false
		}
		if len(page) < c.pageSize {
			c.exhausted = true
		}
		last := page[len(page)-1]
		c.last = &models.TimelineCursorKey{OccurredAt: last.OccurredAt, Seq: last.Seq}
		c.buffer = page
		c.pos = 0
	}
	c.current = &c.buffer[c.pos]
	c.pos++
	return true
}

// Event returns the event the last Next call produced.
func (c *TimelineCursor) Event() *models.TimelineEvent {
	return c.current
}

// Err reports the error that stopped iteration, if any.
func (c *TimelineCursor) Err() error {
	return c.err
}

// Reset rewinds the cursor to the beginning of the history.
func (c *TimelineCursor) Reset() {
	c.buffer = nil
	c.pos = 0
	c.last = nil
	c.exhausted = false
	c.err = nil
	c.current = nil
}
