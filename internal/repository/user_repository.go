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

const userColumns = `id, version, is_deleted, created_at, updated_at, email, full_name, role, active`

// UserRepository persists collaborator profiles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a user with generated defaults.
func (r *UserRepository) Create(ctx context.Context, exec sqlx.ExtContext, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user payload is nil")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Version == 0 {
		user.Version = 1
	}
	if user.Role == "" {
		user.Role = models.RoleReporter
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `
INSERT INTO users (id, version, is_deleted, created_at, updated_at, email, full_name, role, active)
VALUES (:id, :version, :is_deleted, :created_at, :updated_at, :email, :full_name, :role, :active)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, user); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID loads a user. Soft-deleted rows are hidden unless includeDeleted.
func (r *UserRepository) GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	var user models.User
	if err := sqlx.GetContext(ctx, r.exec(exec), &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetVersion reads the stored version counter regardless of deletion state.
func (r *UserRepository) GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error) {
	const query = `SELECT version, is_deleted FROM users WHERE id = $1`
	var row struct {
		Version   int64 `db:"version"`
		IsDeleted bool  `db:"is_deleted"`
	}
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, id); err != nil {
		return 0, false, err
	}
	return row.Version, row.IsDeleted, nil
}

// ExistsByEmail checks email uniqueness optionally excluding an ID.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND is_deleted = FALSE"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check user email: %w", err)
	}
	return true, nil
}

// UpdateUserParams groups the columns a guarded update may change.
type UpdateUserParams struct {
	Email     *string
	FullName  *string
	Role      *models.UserRole
	Active    *bool
	IsDeleted *bool
}

// CompareAndSwapUpdate applies changes behind the version predicate.
// sql.ErrNoRows signals a missed predicate.
func (r *UserRepository) CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params UpdateUserParams) (*models.User, error) {
	set := make([]string, 0, 6)
	args := make([]interface{}, 0, 8)
	assign := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Email != nil {
		assign("email", *params.Email)
	}
	if params.FullName != nil {
		assign("full_name", *params.FullName)
	}
	if params.Role != nil {
		assign("role", *params.Role)
	}
	if params.Active != nil {
		assign("active", *params.Active)
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

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d AND version = $%d RETURNING %s`,
		strings.Join(set, ", "), idPos, versionPos, userColumns)

	var user models.User
	if err := sqlx.GetContext(ctx, r.exec(exec), &user, query, args...); err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users matching the filter plus a total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	base := "FROM users"
	args := make([]interface{}, 0, 4)
	conditions := []string{"1=1"}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "is_deleted = FALSE")
	}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args), len(args)))
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY full_name ASC LIMIT %d OFFSET %d`, userColumns, base, size, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}
