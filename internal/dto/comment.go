package dto

// CreateCommentRequest is the payload for commenting on an issue.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// UpdateCommentRequest rewrites a comment behind the version predicate.
type UpdateCommentRequest struct {
	ExpectedVersion int64  `json:"expected_version"`
	Content         string `json:"content"`
}
