package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
)

type bulkExecutor interface {
	Execute(ctx context.Context, ops []models.BulkOperation, policy models.BulkPolicy) (*models.BulkResult, error)
}

const defaultMaxImportRows = 5000

var importRequiredColumns = []string{"title", "project_id"}

// ImportService turns CSV uploads into issue creations. Rows are parsed and
// staged first, then applied in one best-effort batch, so a broken row only
// costs itself. File-level problems (unreadable stream, missing header,
// oversized file) abort before anything is written.
type ImportService struct {
	bulk    bulkExecutor
	metrics *MetricsService
	maxRows int
	logger  *zap.Logger
}

// NewImportService wires the import pipeline. maxRows <= 0 falls back to the
// default file cap.
func NewImportService(bulk bulkExecutor, metrics *MetricsService, maxRows int, logger *zap.Logger) *ImportService {
	if maxRows <= 0 {
		maxRows = defaultMaxImportRows
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		bulk:    bulk,
		metrics: metrics,
		maxRows: maxRows,
		logger:  logger,
	}
}

type stagedImportRow struct {
	rowNumber int
	op        models.BulkOperation
}

// Import reads the CSV stream and creates one issue per valid data row.
// The report lists rejected rows in file order; it never drops valid rows
// because of invalid neighbours.
func (s *ImportService) Import(ctx context.Context, r io.Reader, actorID string) (*models.ImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "csv header row is required")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read csv header")
	}
	columns, err := mapImportColumns(header)
	if err != nil {
		return nil, err
	}

	report := &models.ImportReport{}
	staged := make([]stagedImportRow, 0, 64)
	rowNumber := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNumber++
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				report.Errors = append(report.Errors, models.ImportRowError{
					RowNumber: rowNumber,
					Reason:    "column count does not match header",
					RawData:   strings.Join(record, ","),
				})
				report.TotalRows++
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("failed to read csv row %d", rowNumber))
		}
		report.TotalRows++
		if report.TotalRows > s.maxRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d data rows", s.maxRows))
		}

		op, rowErr := s.parseRow(columns, record, rowNumber, actorID)
		if rowErr != nil {
			report.Errors = append(report.Errors, *rowErr)
			continue
		}
		staged = append(staged, stagedImportRow{rowNumber: rowNumber, op: op})
	}

	if len(staged) > 0 {
		ops := make([]models.BulkOperation, 0, len(staged))
		for _, row := range staged {
			ops = append(ops, row.op)
		}
		result, err := s.bulk.Execute(ctx, ops, models.BulkPolicyBestEffort)
		if err != nil {
			return nil, err
		}
		report.CreatedIDs = result.Succeeded
		failedRefs := result.FailedRefs()
		for _, row := range staged {
			reason, failed := failedRefs[row.op.Ref]
			if !failed {
				continue
			}
			rowErr := models.ImportRowError{RowNumber: row.rowNumber, Reason: reason}
			rowErr.Field, rowErr.Value = attributeFailure(reason, row.op.Create)
			report.Errors = append(report.Errors, rowErr)
		}
	}

	sort.SliceStable(report.Errors, func(i, j int) bool {
		return report.Errors[i].RowNumber < report.Errors[j].RowNumber
	})
	report.Created = len(report.CreatedIDs)
	report.Failed = len(report.Errors)
	report.Message = fmt.Sprintf("imported %d of %d rows", report.Created, report.TotalRows)

	if s.metrics != nil {
		s.metrics.RecordImportRows(report.Created, report.Failed)
	}
	s.logger.Info("csv import finished",
		zap.Int("total_rows", report.TotalRows),
		zap.Int("created", report.Created),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// parseRow validates one record against the header map and stages a creation.
func (s *ImportService) parseRow(columns map[string]int, record []string, rowNumber int, actorID string) (models.BulkOperation, *models.ImportRowError) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	title := field("title")
	if title == "" {
		return models.BulkOperation{}, &models.ImportRowError{
			RowNumber: rowNumber,
			Field:     "title",
			Reason:    "title is required",
		}
	}
	projectID := field("project_id")
	if projectID == "" {
		return models.BulkOperation{}, &models.ImportRowError{
			RowNumber: rowNumber,
			Field:     "project_id",
			Reason:    "project_id is required",
		}
	}

	create := &models.IssueCreate{
		Title:       title,
		Description: field("description"),
		ProjectID:   projectID,
	}
	if actorID != "" {
		creator := actorID
		create.CreatorID = &creator
	}
	if raw := field("priority"); raw != "" {
		priority := models.IssuePriority(raw)
		if !priority.Valid() {
			return models.BulkOperation{}, &models.ImportRowError{
				RowNumber: rowNumber,
				Field:     "priority",
				Value:     raw,
				Reason:    "unknown priority",
			}
		}
		create.Priority = priority
	}
	if raw := field("status"); raw != "" {
		status := models.IssueStatus(raw)
		if !status.Valid() {
			return models.BulkOperation{}, &models.ImportRowError{
				RowNumber: rowNumber,
				Field:     "status",
				Value:     raw,
				Reason:    "unknown status",
			}
		}
		create.Status = status
	}
	if raw := field("type"); raw != "" {
		issueType := models.IssueType(raw)
		if !issueType.Valid() {
			return models.BulkOperation{}, &models.ImportRowError{
				RowNumber: rowNumber,
				Field:     "type",
				Value:     raw,
				Reason:    "unknown type",
			}
		}
		create.Type = issueType
	}
	if raw := field("assignee_id"); raw != "" {
		assignee := raw
		create.AssigneeID = &assignee
	}

	op := models.BulkOperation{
		Ref:    fmt.Sprintf("row-%d", rowNumber),
		Kind:   models.BulkOpCreate,
		Create: create,
	}
	op.ActorID = create.CreatorID
	return op, nil
}

// mapImportColumns indexes recognised headers and enforces the required set.
func mapImportColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		columns[key] = i
	}
	for _, required := range importRequiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("csv header is missing required column %q", required))
		}
	}
	return columns, nil
}

// attributeFailure maps a coordinator failure back to the offending column.
func attributeFailure(reason string, create *models.IssueCreate) (field, value string) {
	if create == nil {
		return "", ""
	}
	switch {
	case strings.Contains(reason, "project"):
		return "project_id", create.ProjectID
	case strings.Contains(reason, "assignee"):
		if create.AssigneeID != nil {
			return "assignee_id", *create.AssigneeID
		}
		return "assignee_id", ""
	case strings.Contains(reason, "title"):
		return "title", create.Title
	default:
		return "", ""
	}
}
