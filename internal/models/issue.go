package models

import "time"

// IssueStatus enumerates the workflow states of an issue.
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
	IssueStatusClosed     IssueStatus = "closed"
)

// IssueType categorises the kind of work an issue tracks.
type IssueType string

const (
	IssueTypeBug         IssueType = "bug"
	IssueTypeFeature     IssueType = "feature"
	IssueTypeImprovement IssueType = "improvement"
	IssueTypeTask        IssueType = "task"
	IssueTypeEpic        IssueType = "epic"
)

// IssuePriority orders issues by urgency.
type IssuePriority string

const (
	IssuePriorityLow      IssuePriority = "low"
	IssuePriorityMedium   IssuePriority = "medium"
	IssuePriorityHigh     IssuePriority = "high"
	IssuePriorityCritical IssuePriority = "critical"
)

// issueTransitions defines the allowed status graph. Resolved and closed
// issues may be reopened; everything else follows the forward chain.
var issueTransitions = map[IssueStatus][]IssueStatus{
	IssueStatusOpen:       {IssueStatusInProgress},
	IssueStatusInProgress: {IssueStatusResolved},
	IssueStatusResolved:   {IssueStatusClosed, IssueStatusOpen},
	IssueStatusClosed:     {IssueStatusOpen},
}

// CanTransitionTo reports whether the status graph allows moving to next.
func (s IssueStatus) CanTransitionTo(next IssueStatus) bool {
	for _, allowed := range issueTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether the value is a known status.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed:
		return true
	default:
		return false
	}
}

// Valid reports whether the value is a known type.
func (t IssueType) Valid() bool {
	switch t {
	case IssueTypeBug, IssueTypeFeature, IssueTypeImprovement, IssueTypeTask, IssueTypeEpic:
		return true
	default:
		return false
	}
}

// Valid reports whether the value is a known priority.
func (p IssuePriority) Valid() bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh, IssuePriorityCritical:
		return true
	default:
		return false
	}
}

// Issue is the central tracked entity.
type Issue struct {
	Versioned
	Title       string        `db:"title" json:"title"`
	Description string        `db:"description" json:"description"`
	Status      IssueStatus   `db:"status" json:"status"`
	Type        IssueType     `db:"type" json:"type"`
	Priority    IssuePriority `db:"priority" json:"priority"`
	ProjectID   string        `db:"project_id" json:"project_id"`
	CreatorID   *string       `db:"creator_id" json:"creator_id,omitempty"`
	AssigneeID  *string       `db:"assignee_id" json:"assignee_id,omitempty"`
	ResolvedAt  *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
	ClosedAt    *time.Time    `db:"closed_at" json:"closed_at,omitempty"`
}

// IssueCreate carries the fields required to create an issue.
type IssueCreate struct {
	Title       string
	Description string
	ProjectID   string
	Status      IssueStatus
	Type        IssueType
	Priority    IssuePriority
	CreatorID   *string
	AssigneeID  *string
}

// IssuePatch describes the optional field changes of a single mutation.
// Nil fields are untouched; ClearAssignee removes the current assignee.
type IssuePatch struct {
	Title         *string
	Description   *string
	Status        *IssueStatus
	Type          *IssueType
	Priority      *IssuePriority
	AssigneeID    *string
	ClearAssignee bool
}

// Empty reports whether the patch changes nothing.
func (p IssuePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Type == nil && p.Priority == nil && p.AssigneeID == nil && !p.ClearAssignee
}

// IssueFilter captures filtering criteria for listing issues.
type IssueFilter struct {
	ProjectID      string
	Status         []IssueStatus
	Priority       []IssuePriority
	Type           []IssueType
	AssigneeID     string
	CreatorID      string
	Search         string
	IncludeDeleted bool
	Page           int
	PageSize       int
}
