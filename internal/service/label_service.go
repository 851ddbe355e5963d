package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	"github.com/noah-isme/issue-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
)

type labelRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, label *models.Label) error
	GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Label, error)
	GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error)
	ExistsByName(ctx context.Context, name string, projectID *string, excludeID string) (bool, error)
	CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params repository.UpdateLabelParams) (*models.Label, error)
	List(ctx context.Context, filter models.LabelFilter) ([]models.Label, int, error)
	ListByIssue(ctx context.Context, exec sqlx.ExtContext, issueID string) ([]models.Label, error)
}

type labelIssueReader interface {
	GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Issue, error)
}

// CreateLabelRequest holds the payload for creating labels. A nil ProjectID
// creates a global label usable on any issue.
type CreateLabelRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Color       string  `json:"color" validate:"omitempty,hexcolor"`
	Description string  `json:"description"`
	ProjectID   *string `json:"project_id"`
}

// LabelService handles label definitions. Attaching and detaching labels is
// an issue mutation and lives with the issue service.
type LabelService struct {
	repo      labelRepository
	issues    labelIssueReader
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewLabelService constructs the label service.
func NewLabelService(repo labelRepository, issues labelIssueReader, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *LabelService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabelService{repo: repo, issues: issues, validator: validate, metrics: metrics, logger: logger}
}

// Create registers a new label at version 1.
func (s *LabelService) Create(ctx context.Context, req CreateLabelRequest) (*models.Label, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid label payload")
	}
	name := strings.TrimSpace(req.Name)
	exists, err := s.repo.ExistsByName(ctx, name, req.ProjectID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate label name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrValidation, "label name already used in this scope")
	}

	label := &models.Label{
		Name:        name,
		Color:       req.Color,
		Description: req.Description,
		ProjectID:   req.ProjectID,
	}
	if err := s.repo.Create(ctx, nil, label); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create label")
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("label", "create", "applied")
	}
	return label, nil
}

// Get returns a single label.
func (s *LabelService) Get(ctx context.Context, id string, includeDeleted bool) (*models.Label, error) {
	label, err := s.repo.GetByID(ctx, nil, id, includeDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "label not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load label")
	}
	return label, nil
}

// List returns labels and pagination metadata.
func (s *LabelService) List(ctx context.Context, filter models.LabelFilter) ([]models.Label, *models.Pagination, error) {
	labels, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list labels")
	}
	return labels, paginationFor(filter.Page, filter.PageSize, total), nil
}

// ListByIssue returns the labels currently attached to an issue.
func (s *LabelService) ListByIssue(ctx context.Context, issueID string) ([]models.Label, error) {
	if _, err := s.issues.GetByID(ctx, nil, issueID, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}
	labels, err := s.repo.ListByIssue(ctx, nil, issueID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list issue labels")
	}
	return labels, nil
}

// Update applies a field patch behind the version predicate.
func (s *LabelService) Update(ctx context.Context, id string, expectedVersion int64, patch models.LabelPatch) (*models.Label, error) {
	if patch.Name == nil && patch.Color == nil && patch.Description == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mutation contains no changes")
	}
	current, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	params := repository.UpdateLabelParams{
		Color:       patch.Color,
		Description: patch.Description,
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name cannot be empty")
		}
		exists, err := s.repo.ExistsByName(ctx, name, current.ProjectID, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate label name")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrValidation, "label name already used in this scope")
		}
		params.Name = &name
	}

	updated, err := s.repo.CompareAndSwapUpdate(ctx, nil, id, expectedVersion, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.resolveSwapMiss(ctx, id, expectedVersion)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update label")
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("label", "update", "applied")
	}
	return updated, nil
}

// SoftDelete marks the label deleted behind the version predicate. Existing
// associations keep their rows; listings exclude deleted labels.
func (s *LabelService) SoftDelete(ctx context.Context, id string, expectedVersion int64) error {
	if _, err := s.Get(ctx, id, false); err != nil {
		return err
	}
	deleted := true
	if _, err := s.repo.CompareAndSwapUpdate(ctx, nil, id, expectedVersion, repository.UpdateLabelParams{IsDeleted: &deleted}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.resolveSwapMiss(ctx, id, expectedVersion)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete label")
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("label", "delete", "applied")
	}
	return nil
}

func (s *LabelService) resolveSwapMiss(ctx context.Context, id string, expected int64) error {
	actual, _, err := s.repo.GetVersion(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "label not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read stored version")
	}
	if s.metrics != nil {
		s.metrics.RecordVersionConflict("label")
	}
	return &appErrors.ConflictError{EntityID: id, ExpectedVersion: expected, ActualVersion: actual}
}
