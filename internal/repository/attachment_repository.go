package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/issue-tracker-api/internal/models"
)

const attachmentColumns = `id, version, is_deleted, created_at, updated_at, issue_id, uploader_id, filename, content_type, size_bytes, storage_path`

// AttachmentRepository persists attachment metadata. File bytes live in
// the storage backend, not here.
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository constructs the repository.
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts attachment metadata with generated defaults.
func (r *AttachmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, attachment *models.Attachment) error {
	if attachment == nil {
		return fmt.Errorf("attachment payload is nil")
	}
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	if attachment.Version == 0 {
		attachment.Version = 1
	}
	now := time.Now().UTC()
	if attachment.CreatedAt.IsZero() {
		attachment.CreatedAt = now
	}
	attachment.UpdatedAt = now

	const query = `
INSERT INTO attachments (id, version, is_deleted, created_at, updated_at, issue_id, uploader_id, filename, content_type, size_bytes, storage_path)
VALUES (:id, :version, :is_deleted, :created_at, :updated_at, :issue_id, :uploader_id, :filename, :content_type, :size_bytes, :storage_path)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, attachment); err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

// GetByID loads attachment metadata. Soft-deleted rows are hidden unless
// includeDeleted.
func (r *AttachmentRepository) GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Attachment, error) {
	query := fmt.Sprintf(`SELECT %s FROM attachments WHERE id = $1`, attachmentColumns)
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	var attachment models.Attachment
	if err := sqlx.GetContext(ctx, r.exec(exec), &attachment, query, id); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// GetVersion reads the stored version counter regardless of deletion state.
func (r *AttachmentRepository) GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error) {
	const query = `SELECT version, is_deleted FROM attachments WHERE id = $1`
	var row struct {
		Version   int64 `db:"version"`
		IsDeleted bool  `db:"is_deleted"`
	}
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, id); err != nil {
		return 0, false, err
	}
	return row.Version, row.IsDeleted, nil
}

// UpdateAttachmentParams groups the columns a guarded update may change.
type UpdateAttachmentParams struct {
	Filename  *string
	IsDeleted *bool
}

// CompareAndSwapUpdate applies changes behind the version predicate.
// sql.ErrNoRows signals a missed predicate.
func (r *AttachmentRepository) CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params UpdateAttachmentParams) (*models.Attachment, error) {
	set := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)
	assign := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Filename != nil {
		assign("filename", *params.Filename)
	}
	if params.IsDeleted != nil {
		assign("is_deleted", *params.IsDeleted)
	}

	assign("updated_at", time.Now().UTC())
	set = append(set, "version = version + 1")

	args = append(args, id)
	idPos := len(args)
	args = append(args, expectedVersion)
	versionPos := len(args)

	query := fmt.Sprintf(`UPDATE attachments SET %s WHERE id = $%d AND version = $%d RETURNING %s`,
		strings.Join(set, ", "), idPos, versionPos, attachmentColumns)

	var attachment models.Attachment
	if err := sqlx.GetContext(ctx, r.exec(exec), &attachment, query, args...); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// ListByIssue returns attachment metadata for an issue, newest first.
func (r *AttachmentRepository) ListByIssue(ctx context.Context, filter models.AttachmentFilter) ([]models.Attachment, int, error) {
	base := "FROM attachments"
	args := make([]interface{}, 0, 2)
	conditions := []string{"1=1"}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "is_deleted = FALSE")
	}
	if filter.IssueID != "" {
		args = append(args, filter.IssueID)
		conditions = append(conditions, fmt.Sprintf("issue_id = $%d", len(args)))
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`, attachmentColumns, base, size, offset)

	var attachments []models.Attachment
	if err := r.db.SelectContext(ctx, &attachments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attachments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attachments: %w", err)
	}
	return attachments, total, nil
}
