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

type projectRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, project *models.Project) error
	GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Project, error)
	GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params repository.UpdateProjectParams) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
}

// CreateProjectRequest holds the payload for creating projects.
type CreateProjectRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	OwnerID     *string `json:"owner_id"`
}

// ProjectService handles project use-cases.
type ProjectService struct {
	repo      projectRepository
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewProjectService constructs the project service.
func NewProjectService(repo projectRepository, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *ProjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{repo: repo, validator: validate, metrics: metrics, logger: logger}
}

// Create registers a new project at version 1.
func (s *ProjectService) Create(ctx context.Context, req CreateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	status := models.ProjectStatus(req.Status)
	if req.Status == "" {
		status = models.ProjectStatusPlanning
	}
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status: %s", req.Status))
	}
	name := strings.TrimSpace(req.Name)
	exists, err := s.repo.ExistsByName(ctx, name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate project name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrValidation, "project name already used")
	}

	project := &models.Project{
		Name:        name,
		Description: req.Description,
		Status:      status,
		OwnerID:     req.OwnerID,
	}
	if err := s.repo.Create(ctx, nil, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("project", "create", "applied")
	}
	return project, nil
}

// Get returns a single project.
func (s *ProjectService) Get(ctx context.Context, id string, includeDeleted bool) (*models.Project, error) {
	project, err := s.repo.GetByID(ctx, nil, id, includeDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return project, nil
}

// List returns projects and pagination metadata.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error) {
	projects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	return projects, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Update applies a field patch behind the version predicate.
func (s *ProjectService) Update(ctx context.Context, id string, expectedVersion int64, patch models.ProjectPatch) (*models.Project, error) {
	if patch.Name == nil && patch.Description == nil && patch.Status == nil && patch.OwnerID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mutation contains no changes")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status: %s", *patch.Status))
	}
	if _, err := s.Get(ctx, id, false); err != nil {
		return nil, err
	}
	params := repository.UpdateProjectParams{
		Description: patch.Description,
		Status:      patch.Status,
		OwnerID:     patch.OwnerID,
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name cannot be empty")
		}
		exists, err := s.repo.ExistsByName(ctx, name, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate project name")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrValidation, "project name already used")
		}
		params.Name = &name
	}

	updated, err := s.repo.CompareAndSwapUpdate(ctx, nil, id, expectedVersion, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.resolveSwapMiss(ctx, id, expectedVersion)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("project", "update", "applied")
	}
	return updated, nil
}

// SoftDelete marks the project deleted. Its issues stay untouched.
func (s *ProjectService) SoftDelete(ctx context.Context, id string, expectedVersion int64) error {
	if _, err := s.Get(ctx, id, false); err != nil {
		return err
	}
	deleted := true
	if _, err := s.repo.CompareAndSwapUpdate(ctx, nil, id, expectedVersion, repository.UpdateProjectParams{IsDeleted: &deleted}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.resolveSwapMiss(ctx, id, expectedVersion)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete project")
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("project", "delete", "applied")
	}
	return nil
}

// Restore flips the deleted flag back off.
func (s *ProjectService) Restore(ctx context.Context, id string, expectedVersion int64) (*models.Project, error) {
	current, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if !current.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "project is not deleted")
	}
	restored := false
	updated, err := s.repo.CompareAndSwapUpdate(ctx, nil, id, expectedVersion, repository.UpdateProjectParams{IsDeleted: &restored})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.resolveSwapMiss(ctx, id, expectedVersion)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore project")
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("project", "restore", "applied")
	}
	return updated, nil
}

func (s *ProjectService) resolveSwapMiss(ctx context.Context, id string, expected int64) error {
	actual, _, err := s.repo.GetVersion(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read stored version")
	}
	if s.metrics != nil {
		s.metrics.RecordVersionConflict("project")
	}
	return &appErrors.ConflictError{EntityID: id, ExpectedVersion: expected, ActualVersion: actual}
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
