package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
)

// issueApplier is the tx-scoped slice of IssueService the coordinator drives.
type issueApplier interface {
	applyCreate(ctx context.Context, exec sqlx.ExtContext, input models.IssueCreate, actorID *string) (*models.Issue, error)
	applyUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, patch models.IssuePatch, actorID *string) (*models.Issue, error)
	applyDelete(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, actorID *string) error
}

const defaultMaxBulkOperations = 100

// BulkService executes batches of issue mutations under one of two
// policies. Atomic batches share a transaction and roll back entirely on
// the first failure; best-effort batches commit each operation on its own
// so independent failures do not poison the rest.
type BulkService struct {
	issues  issueApplier
	tx      txProvider
	cache   *CacheService
	metrics *MetricsService
	maxOps  int
	logger  *zap.Logger
}

// NewBulkService wires the coordinator. maxOps <= 0 falls back to the
// default batch cap.
func NewBulkService(
	issues issueApplier,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	maxOps int,
	logger *zap.Logger,
) *BulkService {
	if maxOps <= 0 {
		maxOps = defaultMaxBulkOperations
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkService{
		issues:  issues,
		tx:      tx,
		cache:   cache,
		metrics: metrics,
		maxOps:  maxOps,
		logger:  logger,
	}
}

// Execute runs the batch under the requested policy. Entity-level failures
// land in the result; a non-nil error only signals that the batch could not
// be driven at all (bad request shape or a failing transaction boundary).
func (s *BulkService) Execute(ctx context.Context, ops []models.BulkOperation, policy models.BulkPolicy) (*models.BulkResult, error) {
	if !policy.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown bulk policy: %s", policy))
	}
	if len(ops) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "bulk request contains no operations")
	}
	if len(ops) > s.maxOps {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("bulk request exceeds %d operations", s.maxOps))
	}
	for i := range ops {
		if err := validateBulkOperation(&ops[i]); err != nil {
			return nil, err
		}
	}

	var (
		result *models.BulkResult
		err    error
	)
	switch policy {
	case models.BulkPolicyAtomic:
		result, err = s.executeAtomic(ctx, ops)
	default:
		result, err = s.executeBestEffort(ctx, ops)
	}
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordBulkOutcome(string(policy), len(result.Succeeded), len(result.Failed))
	}
	if len(result.Succeeded) > 0 {
		s.invalidateReports(ctx)
	}
	s.logger.Info("bulk batch finished",
		zap.String("policy", string(policy)),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// executeAtomic applies every operation inside one transaction. The first
// failure aborts the batch: the transaction rolls back, nothing sticks, and
// the result reports only the operation that broke the batch.
func (s *BulkService) executeAtomic(ctx context.Context, ops []models.BulkOperation) (*models.BulkResult, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin bulk transaction")
	}

	result := &models.BulkResult{Policy: models.BulkPolicyAtomic}
	applied := make([]string, 0, len(ops))
	for i := range ops {
		op := &ops[i]
		id, opErr := s.applyOperation(ctx, tx, op)
		if opErr != nil {
			_ = tx.Rollback()
			result.Succeeded = nil
			result.Failed = []models.BulkFailure{{Ref: op.Key(), Reason: opErr.Error()}}
			return result, nil
		}
		applied = append(applied, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit bulk transaction")
	}
	result.Succeeded = applied
	return result, nil
}

// executeBestEffort gives each operation its own transaction so failures
// stay isolated. Results keep the submission order.
func (s *BulkService) executeBestEffort(ctx context.Context, ops []models.BulkOperation) (*models.BulkResult, error) {
	result := &models.BulkResult{Policy: models.BulkPolicyBestEffort}
	for i := range ops {
		op := &ops[i]
		id, opErr := s.applyOne(ctx, op)
		if opErr != nil {
			result.Failed = append(result.Failed, models.BulkFailure{Ref: op.Key(), Reason: opErr.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result, nil
}

// applyOne wraps a single operation in its own transaction.
func (s *BulkService) applyOne(ctx context.Context, op *models.BulkOperation) (string, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	id, err := s.applyOperation(ctx, tx, op)
	if err != nil {
		_ = tx.Rollback()
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit operation")
	}
	return id, nil
}

func (s *BulkService) applyOperation(ctx context.Context, exec sqlx.ExtContext, op *models.BulkOperation) (string, error) {
	switch op.Kind {
	case models.BulkOpCreate:
		issue, err := s.issues.applyCreate(ctx, exec, *op.Create, op.ActorID)
		if err != nil {
			return "", err
		}
		return issue.ID, nil
	case models.BulkOpUpdate:
		issue, err := s.issues.applyUpdate(ctx, exec, op.IssueID, op.ExpectedVersion, *op.Patch, op.ActorID)
		if err != nil {
			return "", err
		}
		return issue.ID, nil
	default:
		if err := s.issues.applyDelete(ctx, exec, op.IssueID, op.ExpectedVersion, op.ActorID); err != nil {
			return "", err
		}
		return op.IssueID, nil
	}
}

func (s *BulkService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, reportCachePattern); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}

// validateBulkOperation checks the request shape before any work starts.
func validateBulkOperation(op *models.BulkOperation) error {
	switch op.Kind {
	case models.BulkOpCreate:
		if op.Create == nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("operation %s: create payload is required", op.Key()))
		}
	case models.BulkOpUpdate:
		if op.IssueID == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("operation %s: issue_id is required", op.Key()))
		}
		if op.Patch == nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("operation %s: patch payload is required", op.Key()))
		}
	case models.BulkOpDelete:
		if op.IssueID == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("operation %s: issue_id is required", op.Key()))
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("operation %s: unknown kind %q", op.Key(), op.Kind))
	}
	return nil
}
