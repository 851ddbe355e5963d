package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	"github.com/noah-isme/issue-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
)

type issueStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, issue *models.Issue) error
	GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Issue, error)
	GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error)
	CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params repository.UpdateIssueParams) (*models.Issue, error)
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error)
}

type issueProjectReader interface {
	GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Project, error)
}

type issueUserReader interface {
	GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.User, error)
}

type issueLabelLinker interface {
	GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Label, error)
	AttachLabel(ctx context.Context, exec sqlx.ExtContext, issueID, labelID string) error
	DetachLabel(ctx context.Context, exec sqlx.ExtContext, issueID, labelID string) error
}

type timelineRecorder interface {
	Record(ctx context.Context, exec sqlx.ExtContext, event *models.TimelineEvent) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// IssueService owns every issue mutation. All writes run through the
// version-guarded update so concurrent editors resolve to exactly one
// winner; the losers get the stored version back in a conflict error.
// The tx-scoped apply methods let the bulk coordinator drive the same
// logic inside a single shared transaction.
type IssueService struct {
	issues   issueStore
	projects issueProjectReader
	users    issueUserReader
	labels   issueLabelLinker
	timeline timelineRecorder
	tx       txProvider
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewIssueService wires the mutation dependencies.
func NewIssueService(
	issues issueStore,
	projects issueProjectReader,
	users issueUserReader,
	labels issueLabelLinker,
	timeline timelineRecorder,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
) *IssueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		issues:   issues,
		projects: projects,
		users:    users,
		labels:   labels,
		timeline: timeline,
		tx:       tx,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
	}
}

const maxIssueTitleLength = 500

// Create validates the payload, inserts the issue at version 1, and records
// the created event in the same transaction.
func (s *IssueService) Create(ctx context.Context, input models.IssueCreate, actorID *string) (*models.Issue, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	issue, err := s.applyCreate(ctx, tx, input, actorID)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit issue creation")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordMutation("issue", "create", "applied")
	}
	s.invalidateReports(ctx)
	return issue, nil
}

// Get loads a single issue by id.
func (s *IssueService) Get(ctx context.Context, id string, includeDeleted bool) (*models.Issue, error) {
	issue, err := s.issues.GetByID(ctx, nil, id, includeDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}
	return issue, nil
}

// List returns issues matching the filter with a total count.
func (s *IssueService) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error) {
	issues, total, err := s.issues.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list issues")
	}
	return issues, total, nil
}

// Update applies a field patch as a single guarded mutation. Status changes
// are validated against the stored state before the swap is attempted.
func (s *IssueService) Update(ctx context.Context, id string, expectedVersion int64, patch models.IssuePatch, actorID *string) (*models.Issue, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	updated, err := s.applyUpdate(ctx, tx, id, expectedVersion, patch, actorID)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit issue update")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordMutation("issue", "update", "applied")
	}
	s.invalidateReports(ctx)
	return updated, nil
}

// Transition moves the issue to the target status through the guarded path.
func (s *IssueService) Transition(ctx context.Context, id string, expectedVersion int64, to models.IssueStatus, actorID *string) (*models.Issue, error) {
	return s.Update(ctx, id, expectedVersion, models.IssuePatch{Status: &to}, actorID)
}

// Assign sets or clears the assignee through the guarded path.
func (s *IssueService) Assign(ctx context.Context, id string, expectedVersion int64, assigneeID *string, actorID *string) (*models.Issue, error) {
	patch := models.IssuePatch{AssigneeID: assigneeID}
	if assigneeID == nil {
		patch.ClearAssignee = true
	}
	return s.Update(ctx, id, expectedVersion, patch, actorID)
}

// SoftDelete marks the issue deleted behind the version predicate.
func (s *IssueService) SoftDelete(ctx context.Context, id string, expectedVersion int64, actorID *string) error {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.applyDelete(ctx, tx, id, expectedVersion, actorID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit issue deletion")
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordMutation("issue", "delete", "applied")
	}
	s.invalidateReports(ctx)
	return nil
}

// Restore flips the deleted flag back off, still guarded by the version.
func (s *IssueService) Restore(ctx context.Context, id string, expectedVersion int64, actorID *string) (*models.Issue, error) {
	current, err := s.issues.GetByID(ctx, nil, id, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}
	if !current.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "issue is not deleted")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	restored := false
	updated, err := s.issues.CompareAndSwapUpdate(ctx, tx, id, expectedVersion, repository.UpdateIssueParams{IsDeleted: &restored})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = s.resolveSwapMiss(ctx, tx, id, expectedVersion)
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore issue")
		return nil, err
	}
	if err = s.appendEvent(ctx, tx, id, models.EventIssueRestored, map[string]interface{}{}, actorID); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit issue restore")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordMutation("issue", "restore", "applied")
	}
	s.invalidateReports(ctx)
	return updated, nil
}

// AttachLabel links a label and bumps the issue version so concurrent label
// edits conflict detectably.
func (s *IssueService) AttachLabel(ctx context.Context, issueID string, expectedVersion int64, labelID string, actorID *string) (*models.Issue, error) {
	if _, err := s.Get(ctx, issueID, false); err != nil {
		return nil, err
	}
	label, err := s.labels.GetByID(ctx, nil, labelID, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "label not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load label")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	updated, err := s.issues.CompareAndSwapUpdate(ctx, tx, issueID, expectedVersion, repository.UpdateIssueParams{})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = s.resolveSwapMiss(ctx, tx, issueID, expectedVersion)
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bump issue version")
		return nil, err
	}
	if err = s.labels.AttachLabel(ctx, tx, issueID, labelID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrValidation, "label already attached")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach label")
		return nil, err
	}
	if err = s.appendEvent(ctx, tx, issueID, models.EventLabelAdded, map[string]interface{}{
		"label_id": label.ID,
		"name":     label.Name,
	}, actorID); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit label attach")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordMutation("issue", "label_attach", "applied")
	}
	s.invalidateReports(ctx)
	return updated, nil
}

// DetachLabel removes the link under the same version guard.
func (s *IssueService) DetachLabel(ctx context.Context, issueID string, expectedVersion int64, labelID string, actorID *string) (*models.Issue, error) {
	if _, err := s.Get(ctx, issueID, false); err != nil {
		return nil, err
	}
	label, err := s.labels.GetByID(ctx, nil, labelID, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "label not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load label")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	updated, err := s.issues.CompareAndSwapUpdate(ctx, tx, issueID, expectedVersion, repository.UpdateIssueParams{})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = s.resolveSwapMiss(ctx, tx, issueID, expectedVersion)
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bump issue version")
		return nil, err
	}
	if err = s.labels.DetachLabel(ctx, tx, issueID, labelID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "label not attached")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to detach label")
		return nil, err
	}
	if err = s.appendEvent(ctx, tx, issueID, models.EventLabelRemoved, map[string]interface{}{
		"label_id": label.ID,
		"name":     label.Name,
	}, actorID); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit label detach")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordMutation("issue", "label_detach", "applied")
	}
	s.invalidateReports(ctx)
	return updated, nil
}

// applyCreate runs the creation inside the supplied executor. Validation
// reads go through the same executor so batched operations observe
// uncommitted state from earlier operations in the batch.
func (s *IssueService) applyCreate(ctx context.Context, exec sqlx.ExtContext, input models.IssueCreate, actorID *string) (*models.Issue, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	if len(input.Title) > maxIssueTitleLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title exceeds 500 characters")
	}
	if input.ProjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "project_id is required")
	}
	if input.Status != "" && !input.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status: %s", input.Status))
	}
	if input.Type != "" && !input.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown type: %s", input.Type))
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown priority: %s", input.Priority))
	}

	project, err := s.projects.GetByID(ctx, exec, input.ProjectID, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "project does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if !project.AcceptsIssues() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("project %s does not accept issues", project.Name))
	}
	if input.AssigneeID != nil {
		if err := s.ensureAssignable(ctx, exec, *input.AssigneeID); err != nil {
			return nil, err
		}
	}

	issue := &models.Issue{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      input.Status,
		Type:        input.Type,
		Priority:    input.Priority,
		ProjectID:   input.ProjectID,
		CreatorID:   input.CreatorID,
		AssigneeID:  input.AssigneeID,
	}
	now := time.Now().UTC()
	switch input.Status {
	case models.IssueStatusResolved:
		issue.ResolvedAt = &now
	case models.IssueStatusClosed:
		issue.ClosedAt = &now
	}

	if err := s.issues.Create(ctx, exec, issue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create issue")
	}
	if err := s.appendEvent(ctx, exec, issue.ID, models.EventIssueCreated, map[string]interface{}{
		"title":    issue.Title,
		"status":   issue.Status,
		"type":     issue.Type,
		"priority": issue.Priority,
	}, actorID); err != nil {
		return nil, err
	}
	return issue, nil
}

// applyUpdate runs the guarded patch inside the supplied executor.
func (s *IssueService) applyUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, patch models.IssuePatch, actorID *string) (*models.Issue, error) {
	if patch.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mutation contains no changes")
	}
	if err := validateIssuePatch(patch); err != nil {
		return nil, err
	}

	current, err := s.issues.GetByID(ctx, exec, id, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}

	params := repository.UpdateIssueParams{
		Title:       patch.Title,
		Description: patch.Description,
		Type:        patch.Type,
		Priority:    patch.Priority,
		AssigneeID:  patch.AssigneeID,
	}
	if patch.ClearAssignee {
		params.AssigneeID = nil
		params.ClearAssignee = true
	}
	if patch.Status != nil {
		if err := checkTransition(current, *patch.Status); err != nil {
			return nil, err
		}
		params.Status = patch.Status
		now := time.Now().UTC()
		switch *patch.Status {
		case models.IssueStatusResolved:
			params.ResolvedAt = &now
		case models.IssueStatusClosed:
			params.ClosedAt = &now
		case models.IssueStatusOpen:
			params.ClearResolvedAt = true
			params.ClearClosedAt = true
		}
	}
	if patch.AssigneeID != nil {
		if err := s.ensureAssignable(ctx, exec, *patch.AssigneeID); err != nil {
			return nil, err
		}
	}

	updated, err := s.issues.CompareAndSwapUpdate(ctx, exec, id, expectedVersion, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.resolveSwapMiss(ctx, exec, id, expectedVersion)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update issue")
	}

	if err := s.appendChangeEvents(ctx, exec, current, updated, actorID); err != nil {
		return nil, err
	}
	return updated, nil
}

// applyDelete runs the guarded soft delete inside the supplied executor.
func (s *IssueService) applyDelete(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, actorID *string) error {
	if _, err := s.issues.GetByID(ctx, exec, id, false); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}

	deleted := true
	if _, err := s.issues.CompareAndSwapUpdate(ctx, exec, id, expectedVersion, repository.UpdateIssueParams{IsDeleted: &deleted}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.resolveSwapMiss(ctx, exec, id, expectedVersion)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete issue")
	}
	return s.appendEvent(ctx, exec, id, models.EventIssueDeleted, map[string]interface{}{}, actorID)
}

// resolveSwapMiss distinguishes a stale version from a vanished row after the
// guarded update matched nothing.
func (s *IssueService) resolveSwapMiss(ctx context.Context, exec sqlx.ExtContext, id string, expected int64) error {
	actual, _, err := s.issues.GetVersion(ctx, exec, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read stored version")
	}
	if s.metrics != nil {
		s.metrics.RecordVersionConflict("issue")
	}
	return &appErrors.ConflictError{EntityID: id, ExpectedVersion: expected, ActualVersion: actual}
}

func (s *IssueService) ensureAssignable(ctx context.Context, exec sqlx.ExtContext, userID string) error {
	user, err := s.users.GetByID(ctx, exec, userID, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "assignee does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignee")
	}
	if !user.Active {
		return appErrors.Clone(appErrors.ErrValidation, "assignee is not active")
	}
	return nil
}

// appendChangeEvents records one event per observable field change.
func (s *IssueService) appendChangeEvents(ctx context.Context, exec sqlx.ExtContext, before, after *models.Issue, actorID *string) error {
	if before.Status != after.Status {
		if err := s.appendEvent(ctx, exec, after.ID, models.EventStatusChanged, map[string]interface{}{
			"from": before.Status,
			"to":   after.Status,
		}, actorID); err != nil {
			return err
		}
	}
	if before.Priority != after.Priority {
		if err := s.appendEvent(ctx, exec, after.ID, models.EventPriorityChanged, map[string]interface{}{
			"from": before.Priority,
			"to":   after.Priority,
		}, actorID); err != nil {
			return err
		}
	}
	oldAssignee := stringValue(before.AssigneeID)
	newAssignee := stringValue(after.AssigneeID)
	if oldAssignee != newAssignee {
		if newAssignee == "" {
			if err := s.appendEvent(ctx, exec, after.ID, models.EventUnassigned, map[string]interface{}{
				"from": oldAssignee,
			}, actorID); err != nil {
				return err
			}
		} else {
			payload := map[string]interface{}{"to": newAssignee}
			if oldAssignee != "" {
				payload["from"] = oldAssignee
			}
			if err := s.appendEvent(ctx, exec, after.ID, models.EventAssigned, payload, actorID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *IssueService) appendEvent(ctx context.Context, exec sqlx.ExtContext, issueID string, eventType models.TimelineEventType, payload map[string]interface{}, actorID *string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode event payload")
	}
	event := &models.TimelineEvent{
		IssueID: issueID,
		Type:    eventType,
		Payload: types.JSONText(raw),
		ActorID: actorID,
	}
	if err := s.timeline.Record(ctx, exec, event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record timeline event")
	}
	return nil
}

func (s *IssueService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, reportCachePattern); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}

func checkTransition(current *models.Issue, to models.IssueStatus) error {
	if !to.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status: %s", to))
	}
	if current.Status == to || !current.Status.CanTransitionTo(to) {
		return &appErrors.TransitionError{
			EntityID: current.ID,
			From:     string(current.Status),
			To:       string(to),
		}
	}
	return nil
}

func validateIssuePatch(patch models.IssuePatch) error {
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return appErrors.Clone(appErrors.ErrValidation, "title cannot be empty")
		}
		if len(*patch.Title) > maxIssueTitleLength {
			return appErrors.Clone(appErrors.ErrValidation, "title exceeds 500 characters")
		}
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown type: %s", *patch.Type))
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown priority: %s", *patch.Priority))
	}
	if patch.AssigneeID != nil && patch.ClearAssignee {
		return appErrors.Clone(appErrors.ErrValidation, "cannot set and clear assignee together")
	}
	return nil
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
