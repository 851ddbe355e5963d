package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	"github.com/noah-isme/issue-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
)

type userRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, user *models.User) error
	GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.User, error)
	GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params repository.UpdateUserParams) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

// CreateUserRequest represents the payload for creating users. Credentials
// live with the identity provider, so only profile data is accepted here.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	FullName string          `json:"full_name" validate:"required"`
	Role     models.UserRole `json:"role" validate:"omitempty,oneof=reporter developer manager admin"`
	Active   *bool           `json:"active"`
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validator: validate, metrics: metrics, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string, includeDeleted bool) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, nil, id, includeDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create adds a new user at version 1.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.repo.ExistsByEmail(ctx, email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email already used")
	}

	user := &models.User{
		Email:    email,
		FullName: req.FullName,
		Role:     req.Role,
		Active:   true,
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if err := s.repo.Create(ctx, nil, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("user", "create", "applied")
	}
	return user, nil
}

// Update applies a field patch behind the version predicate.
func (s *UserService) Update(ctx context.Context, id string, expectedVersion int64, patch models.UserPatch) (*models.User, error) {
	if patch.Email == nil && patch.FullName == nil && patch.Role == nil && patch.Active == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mutation contains no changes")
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role: %s", *patch.Role))
	}
	if _, err := s.Get(ctx, id, false); err != nil {
		return nil, err
	}
	params := repository.UpdateUserParams{
		FullName: patch.FullName,
		Role:     patch.Role,
		Active:   patch.Active,
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "email cannot be empty")
		}
		exists, err := s.repo.ExistsByEmail(ctx, email, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrValidation, "email already used")
		}
		params.Email = &email
	}

	updated, err := s.repo.CompareAndSwapUpdate(ctx, nil, id, expectedVersion, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.resolveSwapMiss(ctx, id, expectedVersion)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("user", "update", "applied")
	}
	return updated, nil
}

// SoftDelete marks the user deleted behind the version predicate. Existing
// issue references keep pointing at the row.
func (s *UserService) SoftDelete(ctx context.Context, id string, expectedVersion int64) error {
	if _, err := s.Get(ctx, id, false); err != nil {
		return err
	}
	deleted := true
	if _, err := s.repo.CompareAndSwapUpdate(ctx, nil, id, expectedVersion, repository.UpdateUserParams{IsDeleted: &deleted}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.resolveSwapMiss(ctx, id, expectedVersion)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("user", "delete", "applied")
	}
	return nil
}

func (s *UserService) resolveSwapMiss(ctx context.Context, id string, expected int64) error {
	actual, _, err := s.repo.GetVersion(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read stored version")
	}
	if s.metrics != nil {
		s.metrics.RecordVersionConflict("user")
	}
	return &appErrors.ConflictError{EntityID: id, ExpectedVersion: expected, ActualVersion: actual}
}
