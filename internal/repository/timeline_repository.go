package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/issue-tracker-api/internal/models"
)

const timelineColumns = `id, issue_id, seq, event_type, payload, actor_id, occurred_at`

// TimelineRepository appends and pages the immutable issue event log.
// Rows are only ever inserted; seq comes from the store and breaks ties
// between events sharing a timestamp.
type TimelineRepository struct {
	db *sqlx.DB
}

// NewTimelineRepository constructs the repository.
func NewTimelineRepository(db *sqlx.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

func (r *TimelineRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Append inserts an event inside the caller's transaction. The assigned
// sequence number is written back onto the event.
func (r *TimelineRepository) Append(ctx context.Context, exec sqlx.ExtContext, event *models.TimelineEvent) error {
	if event == nil {
		return fmt.Errorf("timeline event is nil")
	}
	if event.IssueID == "" || event.Type == "" {
		return fmt.Errorf("issue_id and event_type are required")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if len(event.Payload) == 0 {
		event.Payload = types.JSONText(`{}`)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	const query = `
INSERT INTO timeline_events (id, issue_id, event_type, payload, actor_id, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING seq`
	if err := sqlx.GetContext(ctx, r.exec(exec), &event.Seq, query,
		event.ID, event.IssueID, event.Type, event.Payload, event.ActorID, event.OccurredAt); err != nil {
		return fmt.Errorf("append timeline event: %w", err)
	}
	return nil
}

// ListPage returns up to limit events for an issue ordered by
// (occurred_at, seq), resuming after the supplied cursor key.
func (r *TimelineRepository) ListPage(ctx context.Context, issueID string, after *models.TimelineCursorKey, limit int) ([]models.TimelineEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT %s FROM timeline_events WHERE issue_id = $1`, timelineColumns)
	args := []interface{}{issueID}
	if after != nil {
		args = append(args, after.OccurredAt, after.Seq)
		query += fmt.Sprintf(" AND (occurred_at, seq) > ($%d, $%d)", len(args)-1, len(args))
	}
	query += fmt.Sprintf(" ORDER BY occurred_at ASC, seq ASC LIMIT %d", limit)

	var events []models.TimelineEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list timeline events: %w", err)
	}
	return events, nil
}

// CountByIssue returns the number of recorded events for an issue.
func (r *TimelineRepository) CountByIssue(ctx context.Context, issueID string) (int, error) {
	const query = `SELECT COUNT(*) FROM timeline_events WHERE issue_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, issueID); err != nil {
		return 0, fmt.Errorf("count timeline events: %w", err)
	}
	return total, nil
}
