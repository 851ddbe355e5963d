package models

// Attachment stores file metadata for an issue. The bytes themselves live
// behind the storage collaborator; rows here only reference them.
type Attachment struct {
	Versioned
	IssueID     string  `db:"issue_id" json:"issue_id"`
	UploaderID  *string `db:"uploader_id" json:"uploader_id,omitempty"`
	Filename    string  `db:"filename" json:"filename"`
	ContentType string  `db:"content_type" json:"content_type"`
	SizeBytes   int64   `db:"size_bytes" json:"size_bytes"`
	StoragePath string  `db:"storage_path" json:"storage_path"`
}

// AttachmentFilter captures filtering criteria for listing attachments.
type AttachmentFilter struct {
	IssueID        string
	IncludeDeleted bool
	Page           int
	PageSize       int
}
