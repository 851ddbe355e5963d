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

const projectColumns = `id, version, is_deleted, created_at, updated_at, name, description, status, owner_id`

// ProjectRepository persists projects.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs the repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a project with generated defaults.
func (r *ProjectRepository) Create(ctx context.Context, exec sqlx.ExtContext, project *models.Project) error {
	if project == nil {
		return fmt.Errorf("project payload is nil")
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Version == 0 {
		project.Version = 1
	}
	if project.Status == "" {
		project.Status = models.ProjectStatusPlanning
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	const query = `
INSERT INTO projects (id, version, is_deleted, created_at, updated_at, name, description, status, owner_id)
VALUES (:id, :version, :is_deleted, :created_at, :updated_at, :name, :description, :status, :owner_id)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, project); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetByID loads a project. Soft-deleted rows are hidden unless includeDeleted.
func (r *ProjectRepository) GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE id = $1`, projectColumns)
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	var project models.Project
	if err := sqlx.GetContext(ctx, r.exec(exec), &project, query, id); err != nil {
		return nil, err
	}
	return &project, nil
}

// GetVersion reads the stored version counter regardless of deletion state.
func (r *ProjectRepository) GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error) {
	const query = `SELECT version, is_deleted FROM projects WHERE id = $1`
	var row struct {
		Version   int64 `db:"version"`
		IsDeleted bool  `db:"is_deleted"`
	}
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, id); err != nil {
		return 0, false, err
	}
	return row.Version, row.IsDeleted, nil
}

// ExistsByName checks name uniqueness optionally excluding an ID.
func (r *ProjectRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM projects WHERE LOWER(name) = LOWER($1) AND is_deleted = FALSE"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check project name: %w", err)
	}
	return true, nil
}

// UpdateProjectParams groups the columns a guarded update may change.
type UpdateProjectParams struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
	OwnerID     *string
	IsDeleted   *bool
}

// CompareAndSwapUpdate applies changes behind the version predicate.
// sql.ErrNoRows signals a missed predicate.
func (r *ProjectRepository) CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params UpdateProjectParams) (*models.Project, error) {
	set := make([]string, 0, 6)
	args := make([]interface{}, 0, 8)
	assign := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Name != nil {
		assign("name", *params.Name)
	}
	if params.Description != nil {
		assign("description", *params.Description)
	}
	if params.Status != nil {
		assign("status", *params.Status)
	}
	if params.OwnerID != nil {
		assign("owner_id", *params.OwnerID)
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

	query := fmt.Sprintf(`UPDATE projects SET %s WHERE id = $%d AND version = $%d RETURNING %s`,
		strings.Join(set, ", "), idPos, versionPos, projectColumns)

	var project models.Project
	if err := sqlx.GetContext(ctx, r.exec(exec), &project, query, args...); err != nil {
		return nil, err
	}
	return &project, nil
}

// List returns projects matching the filter plus a total count.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	base := "FROM projects"
	args := make([]interface{}, 0, 4)
	conditions := []string{"1=1"}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "is_deleted = FALSE")
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, projectColumns, base, size, offset)

	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	return projects, total, nil
}
