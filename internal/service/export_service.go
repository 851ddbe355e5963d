package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	"github.com/noah-isme/issue-tracker-api/pkg/export"
	"github.com/noah-isme/issue-tracker-api/pkg/storage"
)

type reportSource interface {
	TopAssignees(ctx context.Context, scope models.ReportScope) ([]models.AssigneeLoad, error)
	ResolutionLatency(ctx context.Context, scope models.ReportScope) (*models.LatencySummary, error)
	Velocity(ctx context.Context, scope models.ReportScope) (*models.VelocityReport, error)
	Statistics(ctx context.Context, scope models.ReportScope) (*models.StatusStatistics, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	reports reportSource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(reports reportSource, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		reports: reports,
		storage: storage,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds the dataset for the job definition and stores the rendered
// export.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/exports/download/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scopePart := sanitizeFilename(deref(job.Params.ProjectID))
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), scopePart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	scope := models.ReportScope{
		ProjectID: deref(job.Params.ProjectID),
		Days:      job.Params.Days,
		Limit:     job.Params.Limit,
	}
	switch job.Type {
	case models.ExportTypeTopAssignees:
		return s.buildTopAssigneesDataset(ctx, scope)
	case models.ExportTypeLatency:
		return s.buildLatencyDataset(ctx, scope)
	case models.ExportTypeVelocity:
		return s.buildVelocityDataset(ctx, scope)
	case models.ExportTypeStatistics:
		return s.buildStatisticsDataset(ctx, scope)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export type %s", job.Type)
	}
}

func (s *ExportService) buildTopAssigneesDataset(ctx context.Context, scope models.ReportScope) (export.Dataset, string, error) {
	loads, err := s.reports.TopAssignees(ctx, scope)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(loads))
	for i, row := range loads {
		dataRows = append(dataRows, map[string]string{
			"Rank":        fmt.Sprintf("%d", i+1),
			"Assignee ID": row.UserID,
			"Full Name":   row.FullName,
			"Open Issues": fmt.Sprintf("%d", row.OpenCount),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Rank", "Assignee ID", "Full Name", "Open Issues"},
		Rows:    dataRows,
	}
	return dataset, scopedTitle("Top Assignees Report", scope), nil
}

func (s *ExportService) buildLatencyDataset(ctx context.Context, scope models.ReportScope) (export.Dataset, string, error) {
	summary, err := s.reports.ResolutionLatency(ctx, scope)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := []map[string]string{
		{"Metric": "Resolved Issues", "Value": fmt.Sprintf("%d", summary.ResolvedCount)},
		{"Metric": "Average Hours", "Value": formatHours(summary.AvgHours)},
		{"Metric": "Minimum Hours", "Value": formatHours(summary.MinHours)},
		{"Metric": "Maximum Hours", "Value": formatHours(summary.MaxHours)},
		{"Metric": "Median Hours", "Value": formatHours(summary.P50Hours)},
		{"Metric": "95th Percentile Hours", "Value": formatHours(summary.P95Hours)},
		{"Metric": "Window Days", "Value": fmt.Sprintf("%d", summary.WindowDays)},
	}
	dataset := export.Dataset{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}
	return dataset, scopedTitle("Resolution Latency Report", scope), nil
}

func (s *ExportService) buildVelocityDataset(ctx context.Context, scope models.ReportScope) (export.Dataset, string, error) {
	report, err := s.reports.Velocity(ctx, scope)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := []map[string]string{
		{"Metric": "Created Issues", "Value": fmt.Sprintf("%d", report.CreatedCount)},
		{"Metric": "Resolved Issues", "Value": fmt.Sprintf("%d", report.ResolvedCount)},
		{"Metric": "Net Change", "Value": fmt.Sprintf("%d", report.NetChange)},
		{"Metric": "Created Per Day", "Value": fmt.Sprintf("%.2f", report.CreatedPerDay)},
		{"Metric": "Resolved Per Day", "Value": fmt.Sprintf("%.2f", report.ResolvedPerDay)},
		{"Metric": "Window Days", "Value": fmt.Sprintf("%d", report.WindowDays)},
	}
	dataset := export.Dataset{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}
	return dataset, scopedTitle("Velocity Report", scope), nil
}

func (s *ExportService) buildStatisticsDataset(ctx context.Context, scope models.ReportScope) (export.Dataset, string, error) {
	stats, err := s.reports.Statistics(ctx, scope)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := []map[string]string{
		{"Metric": "Total Issues", "Value": fmt.Sprintf("%d", stats.Total)},
		{"Metric": "Open", "Value": fmt.Sprintf("%d", stats.OpenCount)},
		{"Metric": "In Progress", "Value": fmt.Sprintf("%d", stats.InProgress)},
		{"Metric": "Resolved", "Value": fmt.Sprintf("%d", stats.ResolvedCount)},
		{"Metric": "Closed", "Value": fmt.Sprintf("%d", stats.ClosedCount)},
		{"Metric": "Resolution Rate", "Value": fmt.Sprintf("%.2f", stats.ResolutionRate)},
	}
	dataset := export.Dataset{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}
	return dataset, scopedTitle("Issue Statistics Report", scope), nil
}

func scopedTitle(base string, scope models.ReportScope) string {
	if scope.ProjectID == "" {
		return base
	}
	return fmt.Sprintf("%s %s", base, scope.ProjectID)
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatHours(value *float64) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *value)
}
