package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	"github.com/noah-isme/issue-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
	"github.com/noah-isme/issue-tracker-api/pkg/jobs"
)

type exportJobRepoStub struct {
	jobs map[string]*models.ExportJob
}

func newExportJobRepoStub() *exportJobRepoStub {
	return &exportJobRepoStub{jobs: map[string]*models.ExportJob{}}
}

func (r *exportJobRepoStub) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now().UTC()
	r.jobs[job.ID] = job
	return nil
}

func (r *exportJobRepoStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (r *exportJobRepoStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *exportJobRepoStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var queued []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (r *exportJobRepoStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return nil, nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newExportJobServiceForTest(t *testing.T) (*ExportJobService, *exportJobRepoStub, *queueStub, *ExportService) {
	t.Helper()
	repo := newExportJobRepoStub()
	queue := &queueStub{}
	exporter, _ := newExportServiceForTest(t)
	svc := NewExportJobService(repo, queue, exporter, zap.NewNop(), ExportJobServiceConfig{
		ResultTTL:       time.Hour,
		CleanupInterval: time.Hour,
		MaxRetries:      3,
	})
	return svc, repo, queue, exporter
}

func TestExportJobServiceCreateJobQueues(t *testing.T) {
	svc, repo, queue, _ := newExportJobServiceForTest(t)
	actor := "user-1"

	job, err := svc.CreateJob(context.Background(), models.ExportTypeTopAssignees, models.ExportJobParams{
		Format: models.ExportFormatCSV,
		Limit:  10,
	}, &actor)
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	assert.Contains(t, repo.jobs, job.ID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, job.ID, queue.jobs[0].ID)
}

func TestExportJobServiceCreateJobValidatesRequest(t *testing.T) {
	svc, _, queue, _ := newExportJobServiceForTest(t)

	_, err := svc.CreateJob(context.Background(), models.ExportType("burndown"), models.ExportJobParams{Format: models.ExportFormatCSV}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export type")

	_, err = svc.CreateJob(context.Background(), models.ExportTypeVelocity, models.ExportJobParams{Format: models.ExportFormat("xlsx")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")

	_, err = svc.CreateJob(context.Background(), models.ExportTypeVelocity, models.ExportJobParams{Format: models.ExportFormatCSV, Days: 366}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 0 and 365")

	assert.Empty(t, queue.jobs)
}

func TestExportJobServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	svc, repo, queue, _ := newExportJobServiceForTest(t)
	queue.err = errors.New("queue full")

	_, err := svc.CreateJob(context.Background(), models.ExportTypeStatistics, models.ExportJobParams{Format: models.ExportFormatCSV}, nil)
	require.Error(t, err)

	require.Len(t, repo.jobs, 1)
	for _, job := range repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
		require.NotNil(t, job.ErrorMessage)
		assert.NotNil(t, job.FinishedAt)
	}
}

func TestExportJobServiceGetJobNotFound(t *testing.T) {
	svc, _, _, _ := newExportJobServiceForTest(t)

	_, err := svc.GetJob(context.Background(), "job-ghost")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestExportJobServiceResolveDownload(t *testing.T) {
	svc, repo, _, exporter := newExportJobServiceForTest(t)
	job := &models.ExportJob{
		ID:     "job-download",
		Type:   models.ExportTypeTopAssignees,
		Params: models.ExportJobParams{Format: models.ExportFormatCSV, Limit: 5},
		Status: models.ExportStatusFinished,
	}
	repo.jobs[job.ID] = job
	result, err := exporter.Generate(context.Background(), job)
	require.NoError(t, err)
	job.ResultURL = &result.URL
	now := time.Now()
	job.FinishedAt = &now

	download, err := svc.ResolveDownload(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(result.RelativePath), download.Filename)
	assert.Equal(t, models.ExportFormatCSV, download.Format)
	download.File.Close()
}

func TestExportJobServiceResolveDownloadGuards(t *testing.T) {
	svc, repo, _, exporter := newExportJobServiceForTest(t)
	job := &models.ExportJob{
		ID:     "job-pending",
		Type:   models.ExportTypeVelocity,
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
		Status: models.ExportStatusProcessing,
	}
	repo.jobs[job.ID] = job
	result, err := exporter.Generate(context.Background(), job)
	require.NoError(t, err)
	job.ResultURL = &result.URL

	_, err = svc.ResolveDownload(context.Background(), result.Token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")

	_, err = svc.ResolveDownload(context.Background(), "not-a-token")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestExportJobServiceRecoverPendingJobs(t *testing.T) {
	svc, repo, queue, _ := newExportJobServiceForTest(t)
	repo.jobs["job-1"] = &models.ExportJob{ID: "job-1", Type: models.ExportTypeVelocity, Status: models.ExportStatusQueued}
	repo.jobs["job-2"] = &models.ExportJob{ID: "job-2", Type: models.ExportTypeStatistics, Status: models.ExportStatusQueued}
	repo.jobs["job-3"] = &models.ExportJob{ID: "job-3", Type: models.ExportTypeVelocity, Status: models.ExportStatusFinished}

	svc.RecoverPendingJobs(context.Background())
	assert.Len(t, queue.jobs, 2)
}

type exportGeneratorStub struct {
	result *ExportResult
	err    error
}

func (e exportGeneratorStub) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func TestExportWorkerHandleSuccess(t *testing.T) {
	repo := newExportJobRepoStub()
	repo.jobs["job-1"] = &models.ExportJob{
		ID:     "job-1",
		Type:   models.ExportTypeTopAssignees,
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}
	exporter := exportGeneratorStub{result: &ExportResult{URL: "/api/v1/exports/download/token"}}
	worker := NewExportWorker(repo, exporter, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, repo.jobs["job-1"].Status)
	assert.Equal(t, 100, repo.jobs["job-1"].Progress)
	require.NotNil(t, repo.jobs["job-1"].ResultURL)
	assert.Equal(t, "/api/v1/exports/download/token", *repo.jobs["job-1"].ResultURL)
	assert.NotNil(t, repo.jobs["job-1"].FinishedAt)
}

func TestExportWorkerHandleFailureRequeues(t *testing.T) {
	repo := newExportJobRepoStub()
	repo.jobs["job-1"] = &models.ExportJob{
		ID:     "job-1",
		Type:   models.ExportTypeVelocity,
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}
	exporter := exportGeneratorStub{err: errors.New("render failed")}
	worker := NewExportWorker(repo, exporter, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusQueued, repo.jobs["job-1"].Status)
	assert.Equal(t, 0, repo.jobs["job-1"].Progress)
	require.NotNil(t, repo.jobs["job-1"].ErrorMessage)
}

func TestExportWorkerHandleFailureExhaustsRetries(t *testing.T) {
	repo := newExportJobRepoStub()
	repo.jobs["job-1"] = &models.ExportJob{
		ID:     "job-1",
		Type:   models.ExportTypeVelocity,
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}
	exporter := exportGeneratorStub{err: errors.New("render failed")}
	worker := NewExportWorker(repo, exporter, 2, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusFailed, repo.jobs["job-1"].Status)
	assert.Equal(t, 100, repo.jobs["job-1"].Progress)
	assert.NotNil(t, repo.jobs["job-1"].FinishedAt)
}
