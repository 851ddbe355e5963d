package models

import "time"

// DefaultLabelColor is applied when a label is created without a color.
const DefaultLabelColor = "#007bff"

// Label tags issues. A nil ProjectID marks a global label usable everywhere.
type Label struct {
	Versioned
	Name        string  `db:"name" json:"name"`
	Color       string  `db:"color" json:"color"`
	Description string  `db:"description" json:"description"`
	ProjectID   *string `db:"project_id" json:"project_id,omitempty"`
}

// LabelPatch describes optional label field changes.
type LabelPatch struct {
	Name        *string
	Color       *string
	Description *string
}

// LabelFilter captures filtering criteria for listing labels.
type LabelFilter struct {
	ProjectID      string
	GlobalOnly     bool
	Search         string
	IncludeDeleted bool
	Page           int
	PageSize       int
}

// IssueLabel is the issue <-> label association row. The (issue_id, label_id)
// pair is unique; attaching an already attached label is a validation error.
type IssueLabel struct {
	ID        string    `db:"id" json:"id"`
	IssueID   string    `db:"issue_id" json:"issue_id"`
	LabelID   string    `db:"label_id" json:"label_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
