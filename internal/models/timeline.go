package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimelineEventType enumerates the recorded mutation kinds.
type TimelineEventType string

const (
	EventIssueCreated    TimelineEventType = "created"
	EventStatusChanged   TimelineEventType = "status_changed"
	EventPriorityChanged TimelineEventType = "priority_changed"
	EventAssigned        TimelineEventType = "assigned"
	EventUnassigned      TimelineEventType = "unassigned"
	EventCommented       TimelineEventType = "commented"
	EventLabelAdded      TimelineEventType = "label_added"
	EventLabelRemoved    TimelineEventType = "label_removed"
	EventAttachmentAdded TimelineEventType = "attachment_added"
	EventIssueDeleted    TimelineEventType = "deleted"
	EventIssueRestored   TimelineEventType = "restored"
)

// TimelineEvent is one append-only history row. Events are never updated or
// deleted; the per-issue total order is (occurred_at, seq).
type TimelineEvent struct {
	ID         string            `db:"id" json:"id"`
	IssueID    string            `db:"issue_id" json:"issue_id"`
	Seq        int64             `db:"seq" json:"seq"`
	Type       TimelineEventType `db:"event_type" json:"event_type"`
	Payload    types.JSONText    `db:"payload" json:"payload"`
	ActorID    *string           `db:"actor_id" json:"actor_id,omitempty"`
	OccurredAt time.Time         `db:"occurred_at" json:"occurred_at"`
}

// TimelineCursorKey marks a resume position inside an issue timeline.
type TimelineCursorKey struct {
	OccurredAt time.Time
	Seq        int64
}
