package dto

import "github.com/noah-isme/issue-tracker-api/internal/models"

// CreateIssueRequest is the payload for creating a single issue.
type CreateIssueRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ProjectID   string  `json:"project_id"`
	Status      string  `json:"status"`
	Type        string  `json:"type"`
	Priority    string  `json:"priority"`
	AssigneeID  *string `json:"assignee_id"`
}

// Model converts the request into the service input shape.
func (r CreateIssueRequest) Model(actorID *string) models.IssueCreate {
	return models.IssueCreate{
		Title:       r.Title,
		Description: r.Description,
		ProjectID:   r.ProjectID,
		Status:      models.IssueStatus(r.Status),
		Type:        models.IssueType(r.Type),
		Priority:    models.IssuePriority(r.Priority),
		CreatorID:   actorID,
		AssigneeID:  r.AssigneeID,
	}
}

// IssuePatchRequest carries the optional field changes of a versioned update.
// Absent fields stay untouched; clear_assignee removes the current assignee.
type IssuePatchRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Status        *string `json:"status"`
	Type          *string `json:"type"`
	Priority      *string `json:"priority"`
	AssigneeID    *string `json:"assignee_id"`
	ClearAssignee bool    `json:"clear_assignee"`
}

// Patch converts the request into the model patch.
func (r IssuePatchRequest) Patch() models.IssuePatch {
	patch := models.IssuePatch{
		Title:         r.Title,
		Description:   r.Description,
		AssigneeID:    r.AssigneeID,
		ClearAssignee: r.ClearAssignee,
	}
	if r.Status != nil {
		status := models.IssueStatus(*r.Status)
		patch.Status = &status
	}
	if r.Type != nil {
		kind := models.IssueType(*r.Type)
		patch.Type = &kind
	}
	if r.Priority != nil {
		priority := models.IssuePriority(*r.Priority)
		patch.Priority = &priority
	}
	return patch
}

// UpdateIssueRequest is the payload of PATCH /issues/:id. ExpectedVersion is
// the caller's last seen version; a mismatch yields 409.
type UpdateIssueRequest struct {
	ExpectedVersion int64 `json:"expected_version"`
	IssuePatchRequest
}

// TransitionIssueRequest moves an issue to a new workflow status.
type TransitionIssueRequest struct {
	ExpectedVersion int64  `json:"expected_version"`
	Status          string `json:"status"`
}

// AssignIssueRequest sets or clears the assignee. A null assignee_id
// unassigns the issue.
type AssignIssueRequest struct {
	ExpectedVersion int64   `json:"expected_version"`
	AssigneeID      *string `json:"assignee_id"`
}

// VersionedRequest carries only the optimistic-lock predicate, for mutations
// without a field payload (restore, label attach).
type VersionedRequest struct {
	ExpectedVersion int64 `json:"expected_version"`
}
