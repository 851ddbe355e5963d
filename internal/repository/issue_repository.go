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

const issueColumns = `id, version, is_deleted, created_at, updated_at, title, description, status, type, priority, project_id, creator_id, assignee_id, resolved_at, closed_at`

// IssueRepository persists issues and applies version-guarded updates.
type IssueRepository struct {
	db *sqlx.DB
}

// NewIssueRepository constructs the repository.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

func (r *IssueRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts an issue assigning identifier, version 1, and defaults.
func (r *IssueRepository) Create(ctx context.Context, exec sqlx.ExtContext, issue *models.Issue) error {
	if issue == nil {
		return fmt.Errorf("issue payload is nil")
	}
	if issue.Title == "" || issue.ProjectID == "" {
		return fmt.Errorf("title and project_id are required")
	}
	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	if issue.Version == 0 {
		issue.Version = 1
	}
	if issue.Status == "" {
		issue.Status = models.IssueStatusOpen
	}
	if issue.Type == "" {
		issue.Type = models.IssueTypeTask
	}
	if issue.Priority == "" {
		issue.Priority = models.IssuePriorityMedium
	}
	now := time.Now().UTC()
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = now
	}
	issue.UpdatedAt = now

	const query = `
INSERT INTO issues (id, version, is_deleted, created_at, updated_at, title, description, status, type, priority, project_id, creator_id, assignee_id, resolved_at, closed_at)
VALUES (:id, :version, :is_deleted, :created_at, :updated_at, :title, :description, :status, :type, :priority, :project_id, :creator_id, :assignee_id, :resolved_at, :closed_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, issue); err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

// GetByID loads an issue. Soft-deleted rows are hidden unless includeDeleted.
func (r *IssueRepository) GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id = $1`, issueColumns)
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	var issue models.Issue
	if err := sqlx.GetContext(ctx, r.exec(exec), &issue, query, id); err != nil {
		return nil, err
	}
	return &issue, nil
}

// GetVersion reads the stored version counter regardless of deletion state.
// Used to distinguish a stale predicate from a vanished row.
func (r *IssueRepository) GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error) {
	const query = `SELECT version, is_deleted FROM issues WHERE id = $1`
	var row struct {
		Version   int64 `db:"version"`
		IsDeleted bool  `db:"is_deleted"`
	}
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, id); err != nil {
		return 0, false, err
	}
	return row.Version, row.IsDeleted, nil
}

// UpdateIssueParams groups the columns a guarded update may change.
// Nil fields are untouched; Clear flags null the corresponding column.
type UpdateIssueParams struct {
	Title           *string
	Description     *string
	Status          *models.IssueStatus
	Type            *models.IssueType
	Priority        *models.IssuePriority
	AssigneeID      *string
	ClearAssignee   bool
	ResolvedAt      *time.Time
	ClearResolvedAt bool
	ClosedAt        *time.Time
	ClearClosedAt   bool
	IsDeleted       *bool
}

// CompareAndSwapUpdate applies the changes in a single version-predicated
// UPDATE, incrementing the counter. It returns sql.ErrNoRows when the
// predicate matched nothing, which callers translate into a not-found or a
// version conflict after re-reading the row.
func (r *IssueRepository) CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params UpdateIssueParams) (*models.Issue, error) {
	set := make([]string, 0, 12)
	args := make([]interface{}, 0, 14)
	assign := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Title != nil {
		assign("title", *params.Title)
	}
	if params.Description != nil {
		assign("description", *params.Description)
	}
	if params.Status != nil {
		assign("status", *params.Status)
	}
	if params.Type != nil {
		assign("type", *params.Type)
	}
	if params.Priority != nil {
		assign("priority", *params.Priority)
	}
	if params.ClearAssignee {
		set = append(set, "assignee_id = NULL")
	} else if params.AssigneeID != nil {
		assign("assignee_id", *params.AssigneeID)
	}
	if params.ClearResolvedAt {
		set = append(set, "resolved_at = NULL")
	} else if params.ResolvedAt != nil {
		assign("resolved_at", *params.ResolvedAt)
	}
	if params.ClearClosedAt {
		set = append(set, "closed_at = NULL")
	} else if params.ClosedAt != nil {
		assign("closed_at", *params.ClosedAt)
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

	query := fmt.Sprintf(`UPDATE issues SET %s WHERE id = $%d AND version = $%d RETURNING %s`,
		strings.Join(set, ", "), idPos, versionPos, issueColumns)

	var issue models.Issue
	if err := sqlx.GetContext(ctx, r.exec(exec), &issue, query, args...); err != nil {
		return nil, err
	}
	return &issue, nil
}

// List returns issues matching the filter plus a total count for pagination.
func (r *IssueRepository) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error) {
	base := "FROM issues"
	args := make([]interface{}, 0, 8)
	conditions := []string{"1=1"}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "is_deleted = FALSE")
	}
	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priority) > 0 {
		placeholders := make([]string, len(filter.Priority))
		for i, priority := range filter.Priority {
			args = append(args, priority)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Type) > 0 {
		placeholders := make([]string, len(filter.Type))
		for i, kind := range filter.Type {
			args = append(args, kind)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.AssigneeID != "" {
		args = append(args, filter.AssigneeID)
		conditions = append(conditions, fmt.Sprintf("assignee_id = $%d", len(args)))
	}
	if filter.CreatorID != "" {
		args = append(args, filter.CreatorID)
		conditions = append(conditions, fmt.Sprintf("creator_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", len(args), len(args)))
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`, issueColumns, base, size, offset)

	var issues []models.Issue
	if err := r.db.SelectContext(ctx, &issues, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list issues: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count issues: %w", err)
	}
	return issues, total, nil
}
