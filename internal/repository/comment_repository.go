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

const commentColumns = `id, version, is_deleted, created_at, updated_at, issue_id, author_id, content`

// CommentRepository persists issue comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository constructs the repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a comment with generated defaults.
func (r *CommentRepository) Create(ctx context.Context, exec sqlx.ExtContext, comment *models.Comment) error {
	if comment == nil {
		return fmt.Errorf("comment payload is nil")
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.Version == 0 {
		comment.Version = 1
	}
	now := time.Now().UTC()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	comment.UpdatedAt = now

	const query = `
INSERT INTO comments (id, version, is_deleted, created_at, updated_at, issue_id, author_id, content)
VALUES (:id, :version, :is_deleted, :created_at, :updated_at, :issue_id, :author_id, :content)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, comment); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// GetByID loads a comment. Soft-deleted rows are hidden unless includeDeleted.
func (r *CommentRepository) GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Comment, error) {
	query := fmt.Sprintf(`SELECT %s FROM comments WHERE id = $1`, commentColumns)
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	var comment models.Comment
	if err := sqlx.GetContext(ctx, r.exec(exec), &comment, query, id); err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetVersion reads the stored version counter regardless of deletion state.
func (r *CommentRepository) GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error) {
	const query = `SELECT version, is_deleted FROM comments WHERE id = $1`
	var row struct {
		Version   int64 `db:"version"`
		IsDeleted bool  `db:"is_deleted"`
	}
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, id); err != nil {
		return 0, false, err
	}
	return row.Version, row.IsDeleted, nil
}

// UpdateCommentParams groups the columns a guarded update may change.
type UpdateCommentParams struct {
	Content   *string
	IsDeleted *bool
}

// CompareAndSwapUpdate applies changes behind the version predicate.
// sql.ErrNoRows signals a missed predicate.
func (r *CommentRepository) CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params UpdateCommentParams) (*models.Comment, error) {
	set := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)
	assign := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Content != nil {
		assign("content", *params.Content)
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

	query := fmt.Sprintf(`UPDATE comments SET %s WHERE id = $%d AND version = $%d RETURNING %s`,
		strings.Join(set, ", "), idPos, versionPos, commentColumns)

	var comment models.Comment
	if err := sqlx.GetContext(ctx, r.exec(exec), &comment, query, args...); err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByIssue returns comments for an issue ordered oldest first.
func (r *CommentRepository) ListByIssue(ctx context.Context, filter models.CommentFilter) ([]models.Comment, int, error) {
	base := "FROM comments"
	args := make([]interface{}, 0, 2)
	conditions := []string{"1=1"}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "is_deleted = FALSE")
	}
	if filter.IssueID != "" {
		args = append(args, filter.IssueID)
		conditions = append(conditions, fmt.Sprintf("issue_id = $%d", len(args)))
	}
	if filter.AuthorID != "" {
		args = append(args, filter.AuthorID)
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)))
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY created_at ASC, id ASC LIMIT %d OFFSET %d`, commentColumns, base, size, offset)

	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}
	return comments, total, nil
}
