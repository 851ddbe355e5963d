package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	"github.com/noah-isme/issue-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
)

type attachmentStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, attachment *models.Attachment) error
	GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Attachment, error)
	GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error)
	CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params repository.UpdateAttachmentParams) (*models.Attachment, error)
	ListByIssue(ctx context.Context, filter models.AttachmentFilter) ([]models.Attachment, int, error)
}

type attachmentIssueReader interface {
	GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Issue, error)
}

const defaultMaxAttachmentBytes = 10 << 20

// AttachmentLimits bounds what Upload accepts. A zero MaxFileSizeBytes
// falls back to 10 MiB; an empty AllowedMIMEs list admits any content type.
type AttachmentLimits struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// AttachmentService stores uploaded files and tracks their metadata rows.
// The bytes live behind the storage collaborator; the row and the
// attachment_added event commit together.
type AttachmentService struct {
	attachments attachmentStore
	issues      attachmentIssueReader
	storage     fileStorage
	timeline    timelineRecorder
	tx          txProvider
	limits      AttachmentLimits
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewAttachmentService constructs the attachment service.
func NewAttachmentService(
	attachments attachmentStore,
	issues attachmentIssueReader,
	storage fileStorage,
	timeline timelineRecorder,
	tx txProvider,
	limits AttachmentLimits,
	metrics *MetricsService,
	logger *zap.Logger,
) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.MaxFileSizeBytes <= 0 {
		limits.MaxFileSizeBytes = defaultMaxAttachmentBytes
	}
	return &AttachmentService{
		attachments: attachments,
		issues:      issues,
		storage:     storage,
		timeline:    timeline,
		tx:          tx,
		limits:      limits,
		metrics:     metrics,
		logger:      logger,
	}
}

// Upload stores the file bytes and registers the metadata row.
func (s *AttachmentService) Upload(ctx context.Context, issueID, filename, contentType string, r io.Reader, uploaderID *string) (*models.Attachment, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "filename is required")
	}
	if !s.contentTypeAllowed(contentType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("content type %q is not allowed", contentType))
	}
	if _, err := s.issues.GetByID(ctx, nil, issueID, false); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}

	data, err := io.ReadAll(io.LimitReader(r, s.limits.MaxFileSizeBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload")
	}
	if int64(len(data)) > s.limits.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", s.limits.MaxFileSizeBytes))
	}
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}

	attachment := &models.Attachment{
		IssueID:     issueID,
		UploaderID:  uploaderID,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	}
	attachment.ID = uuid.NewString()

	storageName := fmt.Sprintf("%s_%s", attachment.ID, sanitizeFilename(filename))
	relPath, err := s.storage.Save(storageName, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}
	attachment.StoragePath = relPath

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		s.discardStored(relPath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			s.discardStored(relPath)
		}
	}()

	if err = s.attachments.Create(ctx, tx, attachment); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attachment")
		return nil, err
	}
	if err = s.recordAttachmentAdded(ctx, tx, attachment); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit attachment")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordMutation("attachment", "create", "applied")
	}
	return attachment, nil
}

// Get returns attachment metadata.
func (s *AttachmentService) Get(ctx context.Context, id string, includeDeleted bool) (*models.Attachment, error) {
	attachment, err := s.attachments.GetByID(ctx, nil, id, includeDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	return attachment, nil
}

// Download opens the stored bytes alongside the metadata row.
func (s *AttachmentService) Download(ctx context.Context, id string) (*models.Attachment, *os.File, error) {
	attachment, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, nil, err
	}
	file, err := s.storage.Open(attachment.StoragePath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open stored file")
	}
	return attachment, file, nil
}

// ListByIssue returns an issue's attachments newest first.
func (s *AttachmentService) ListByIssue(ctx context.Context, filter models.AttachmentFilter) ([]models.Attachment, *models.Pagination, error) {
	if _, err := s.issues.GetByID(ctx, nil, filter.IssueID, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}
	attachments, total, err := s.attachments.ListByIssue(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attachments")
	}
	return attachments, paginationFor(filter.Page, filter.PageSize, total), nil
}

// SoftDelete marks the metadata row deleted behind the version predicate.
// The stored bytes stay on disk so the row can still be audited.
func (s *AttachmentService) SoftDelete(ctx context.Context, id string, expectedVersion int64) error {
	if _, err := s.Get(ctx, id, false); err != nil {
		return err
	}
	deleted := true
	if _, err := s.attachments.CompareAndSwapUpdate(ctx, nil, id, expectedVersion, repository.UpdateAttachmentParams{IsDeleted: &deleted}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.resolveSwapMiss(ctx, id, expectedVersion)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attachment")
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("attachment", "delete", "applied")
	}
	return nil
}

func (s *AttachmentService) recordAttachmentAdded(ctx context.Context, exec sqlx.ExtContext, attachment *models.Attachment) error {
	raw, err := json.Marshal(map[string]interface{}{
		"attachment_id": attachment.ID,
		"filename":      attachment.Filename,
		"size_bytes":    attachment.SizeBytes,
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode event payload")
	}
	event := &models.TimelineEvent{
		IssueID: attachment.IssueID,
		Type:    models.EventAttachmentAdded,
		Payload: types.JSONText(raw),
		ActorID: attachment.UploaderID,
	}
	if err := s.timeline.Record(ctx, exec, event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record timeline event")
	}
	return nil
}

func (s *AttachmentService) discardStored(relPath string) {
	if err := s.storage.Delete(relPath); err != nil {
		s.logger.Warn("failed to remove orphaned upload", zap.String("path", relPath), zap.Error(err))
	}
}

func (s *AttachmentService) contentTypeAllowed(contentType string) bool {
	if len(s.limits.AllowedMIMEs) == 0 {
		return true
	}
	// Strip parameters such as "; charset=utf-8" before comparing.
	mime := strings.TrimSpace(contentType)
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	for _, allowed := range s.limits.AllowedMIMEs {
		if strings.EqualFold(mime, allowed) {
			return true
		}
	}
	return false
}

func (s *AttachmentService) resolveSwapMiss(ctx context.Context, id string, expected int64) error {
	actual, _, err := s.attachments.GetVersion(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read stored version")
	}
	if s.metrics != nil {
		s.metrics.RecordVersionConflict("attachment")
	}
	return &appErrors.ConflictError{EntityID: id, ExpectedVersion: expected, ActualVersion: actual}
}
