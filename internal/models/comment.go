package models

// Comment is a discussion entry attached to an issue.
type Comment struct {
	Versioned
	IssueID  string  `db:"issue_id" json:"issue_id"`
	AuthorID *string `db:"author_id" json:"author_id,omitempty"`
	Content  string  `db:"content" json:"content"`
}

// CommentFilter captures filtering criteria for listing comments.
type CommentFilter struct {
	IssueID        string
	AuthorID       string
	IncludeDeleted bool
	Page           int
	PageSize       int
}
