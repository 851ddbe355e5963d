package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/issue-tracker-api/internal/models"
)

const labelColumns = `id, version, is_deleted, created_at, updated_at, name, color, description, project_id`

// LabelRepository persists labels and the issue-label junction.
type LabelRepository struct {
	db *sqlx.DB
}

// NewLabelRepository constructs the repository.
func NewLabelRepository(db *sqlx.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

func (r *LabelRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a label with generated defaults.
func (r *LabelRepository) Create(ctx context.Context, exec sqlx.ExtContext, label *models.Label) error {
	if label == nil {
		return fmt.Errorf("label payload is nil")
	}
	if label.ID == "" {
		label.ID = uuid.NewString()
	}
	if label.Version == 0 {
		label.Version = 1
	}
	if label.Color == "" {
		label.Color = models.DefaultLabelColor
	}
	now := time.Now().UTC()
	if label.CreatedAt.IsZero() {
		label.CreatedAt = now
	}
	label.UpdatedAt = now

	const query = `
INSERT INTO labels (id, version, is_deleted, created_at, updated_at, name, color, description, project_id)
VALUES (:id, :version, :is_deleted, :created_at, :updated_at, :name, :color, :description, :project_id)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, label); err != nil {
		return fmt.Errorf("insert label: %w", err)
	}
	return nil
}

// GetByID loads a label. Soft-deleted rows are hidden unless includeDeleted.
func (r *LabelRepository) GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Label, error) {
	query := fmt.Sprintf(`SELECT %s FROM labels WHERE id = $1`, labelColumns)
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	var label models.Label
	if err := sqlx.GetContext(ctx, r.exec(exec), &label, query, id); err != nil {
		return nil, err
	}
	return &label, nil
}

// GetVersion reads the stored version counter regardless of deletion state.
func (r *LabelRepository) GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error) {
	const query = `SELECT version, is_deleted FROM labels WHERE id = $1`
	var row struct {
		Version   int64 `db:"version"`
		IsDeleted bool  `db:"is_deleted"`
	}
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, id); err != nil {
		return 0, false, err
	}
	return row.Version, row.IsDeleted, nil
}

// ExistsByName checks name uniqueness within a project scope (nil project = global).
func (r *LabelRepository) ExistsByName(ctx context.Context, name string, projectID *string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM labels WHERE LOWER(name) = LOWER($1) AND is_deleted = FALSE"
	args := []interface{}{name}
	if projectID != nil {
		args = append(args, *projectID)
		query += fmt.Sprintf(" AND project_id = $%d", len(args))
	} else {
		query += " AND project_id IS NULL"
	}
	if excludeID != "" {
		args = append(args, excludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check label name: %w", err)
	}
	return true, nil
}

// UpdateLabelParams groups the columns a guarded update may change.
type UpdateLabelParams struct {
	Name        *string
	Color       *string
	Description *string
	IsDeleted   *bool
}

// CompareAndSwapUpdate applies changes behind the version predicate.
// sql.ErrNoRows signals a missed predicate.
func (r *LabelRepository) CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params UpdateLabelParams) (*models.Label, error) {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 7)
	assign := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Name != nil {
		assign("name", *params.Name)
	}
	if params.Color != nil {
		assign("color", *params.Color)
	}
	if params.Description != nil {
		assign("description", *params.Description)
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

	query := fmt.Sprintf(`UPDATE labels SET %s WHERE id = $%d AND version = $%d RETURNING %s`,
		strings.Join(set, ", "), idPos, versionPos, labelColumns)

	var label models.Label
	if err := sqlx.GetContext(ctx, r.exec(exec), &label, query, args...); err != nil {
		return nil, err
	}
	return &label, nil
}

// List returns labels matching the filter plus a total count.
func (r *LabelRepository) List(ctx context.Context, filter models.LabelFilter) ([]models.Label, int, error) {
	base := "FROM labels"
	args := make([]interface{}, 0, 3)
	conditions := []string{"1=1"}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "is_deleted = FALSE")
	}
	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		conditions = append(conditions, fmt.Sprintf("(project_id = $%d OR project_id IS NULL)", len(args)))
	} else if filter.GlobalOnly {
		conditions = append(conditions, "project_id IS NULL")
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)))
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d`, labelColumns, base, size, offset)

	var labels []models.Label
	if err := r.db.SelectContext(ctx, &labels, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list labels: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count labels: %w", err)
	}
	return labels, total, nil
}

// AttachLabel links a label to an issue. sql.ErrNoRows signals the pair
// already exists.
func (r *LabelRepository) AttachLabel(ctx context.Context, exec sqlx.ExtContext, issueID, labelID string) error {
	const query = `
INSERT INTO issue_labels (id, issue_id, label_id, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (issue_id, label_id) DO NOTHING`
	res, err := r.exec(exec).ExecContext(ctx, query, uuid.NewString(), issueID, labelID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("attach label: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach label rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DetachLabel removes a link. sql.ErrNoRows signals the pair was absent.
func (r *LabelRepository) DetachLabel(ctx context.Context, exec sqlx.ExtContext, issueID, labelID string) error {
	const query = `DELETE FROM issue_labels WHERE issue_id = $1 AND label_id = $2`
	res, err := r.exec(exec).ExecContext(ctx, query, issueID, labelID)
	if err != nil {
		return fmt.Errorf("detach label: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("detach label rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByIssue returns the labels currently attached to an issue.
func (r *LabelRepository) ListByIssue(ctx context.Context, exec sqlx.ExtContext, issueID string) ([]models.Label, error) {
	const query = `
SELECT l.id, l.version, l.is_deleted, l.created_at, l.updated_at, l.name, l.color, l.description, l.project_id
FROM labels l
JOIN issue_labels il ON il.label_id = l.id
WHERE il.issue_id = $1 AND l.is_deleted = FALSE
ORDER BY l.name ASC`
	var labels []models.Label
	if err := sqlx.SelectContext(ctx, r.exec(exec), &labels, query, issueID); err != nil {
		return nil, fmt.Errorf("list issue labels: %w", err)
	}
	return labels, nil
}
