package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	"github.com/noah-isme/issue-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

// issueStoreStub mirrors the repository's swap semantics in memory: the
// version predicate decides, and a miss surfaces as sql.ErrNoRows.
type issueStoreStub struct {
	issues map[string]*models.Issue
	nextID int
}

func newIssueStoreStub() *issueStoreStub {
	return &issueStoreStub{issues: make(map[string]*models.Issue)}
}

func (s *issueStoreStub) seed(issue *models.Issue) {
	copied := *issue
	s.issues[issue.ID] = &copied
}

func (s *issueStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, issue *models.Issue) error {
	if issue.ID == "" {
		s.nextID++
		issue.ID = fmt.Sprintf("issue-%d", s.nextID)
	}
	if issue.Version == 0 {
		issue.Version = 1
	}
	if issue.Status == "" {
		issue.Status = models.IssueStatusOpen
	}
	if issue.Type == "" {
		issue.Type = models.IssueTypeTask
	}
	if issue.Priority == "" {
		issue.Priority = models.IssuePriorityMedium
	}
	now := time.Now().UTC()
	issue.CreatedAt = now
	issue.UpdatedAt = now
	copied := *issue
	s.issues[issue.ID] = &copied
	return nil
}

func (s *issueStoreStub) GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Issue, error) {
	issue, ok := s.issues[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if issue.IsDeleted && !includeDeleted {
		return nil, sql.ErrNoRows
	}
	copied := *issue
	return &copied, nil
}

func (s *issueStoreStub) GetVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, bool, error) {
	issue, ok := s.issues[id]
	if !ok {
		return 0, false, sql.ErrNoRows
	}
	return issue.Version, issue.IsDeleted, nil
}

func (s *issueStoreStub) CompareAndSwapUpdate(ctx context.Context, exec sqlx.ExtContext, id string, expectedVersion int64, params repository.UpdateIssueParams) (*models.Issue, error) {
	issue, ok := s.issues[id]
	if !ok || issue.Version != expectedVersion {
		return nil, sql.ErrNoRows
	}
	if params.Title != nil {
		issue.Title = *params.Title
	}
	if params.Description != nil {
		issue.Description = *params.Description
	}
	if params.Status != nil {
		issue.Status = *params.Status
	}
	if params.Type != nil {
		issue.Type = *params.Type
	}
	if params.Priority != nil {
		issue.Priority = *params.Priority
	}
	if params.ClearAssignee {
		issue.AssigneeID = nil
	} else if params.AssigneeID != nil {
		assignee := *params.AssigneeID
		issue.AssigneeID = &assignee
	}
	if params.ClearResolvedAt {
		issue.ResolvedAt = nil
	} else if params.ResolvedAt != nil {
		resolved := *params.ResolvedAt
		issue.ResolvedAt = &resolved
	}
	if params.ClearClosedAt {
		issue.ClosedAt = nil
	} else if params.ClosedAt != nil {
		closed := *params.ClosedAt
		issue.ClosedAt = &closed
	}
	if params.IsDeleted != nil {
		issue.IsDeleted = *params.IsDeleted
	}
	issue.UpdatedAt = time.Now().UTC()
	issue.Version++
	copied := *issue
	return &copied, nil
}

func (s *issueStoreStub) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error) {
	result := make([]models.Issue, 0, len(s.issues))
	for _, issue := range s.issues {
		if issue.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		result = append(result, *issue)
	}
	return result, len(result), nil
}

type projectReaderStub struct {
	projects map[string]*models.Project
}

func (s *projectReaderStub) GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Project, error) {
	project, ok := s.projects[id]
	if !ok || (project.IsDeleted && !includeDeleted) {
		return nil, sql.ErrNoRows
	}
	copied := *project
	return &copied, nil
}

type userReaderStub struct {
	users map[string]*models.User
}

func (s *userReaderStub) GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.User, error) {
	user, ok := s.users[id]
	if !ok || (user.IsDeleted && !includeDeleted) {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

type labelLinkerStub struct {
	labels   map[string]*models.Label
	attached map[string]map[string]bool
}

func newLabelLinkerStub(labels ...*models.Label) *labelLinkerStub {
	stub := &labelLinkerStub{
		labels:   make(map[string]*models.Label),
		attached: make(map[string]map[string]bool),
	}
	for _, label := range labels {
		stub.labels[label.ID] = label
	}
	return stub
}

func (s *labelLinkerStub) GetByID(ctx context.Context, exec sqlx.ExtContext, id string, includeDeleted bool) (*models.Label, error) {
	label, ok := s.labels[id]
	if !ok || (label.IsDeleted && !includeDeleted) {
		return nil, sql.ErrNoRows
	}
	copied := *label
	return &copied, nil
}

func (s *labelLinkerStub) AttachLabel(ctx context.Context, exec sqlx.ExtContext, issueID, labelID string) error {
	if s.attached[issueID] == nil {
		s.attached[issueID] = make(map[string]bool)
	}
	if s.attached[issueID][labelID] {
		return sql.ErrNoRows
	}
	s.attached[issueID][labelID] = true
	return nil
}

func (s *labelLinkerStub) DetachLabel(ctx context.Context, exec sqlx.ExtContext, issueID, labelID string) error {
	if !s.attached[issueID][labelID] {
		return sql.ErrNoRows
	}
	delete(s.attached[issueID], labelID)
	return nil
}

// timelineCollector records appended events in order.
type timelineCollector struct {
	events []*models.TimelineEvent
}

func (c *timelineCollector) Record(ctx context.Context, exec sqlx.ExtContext, event *models.TimelineEvent) error {
	copied := *event
	copied.Seq = int64(len(c.events) + 1)
	copied.OccurredAt = time.Now().UTC()
	c.events = append(c.events, &copied)
	return nil
}

func (c *timelineCollector) eventTypes() []models.TimelineEventType {
	kinds := make([]models.TimelineEventType, 0, len(c.events))
	for _, event := range c.events {
		kinds = append(kinds, event.Type)
	}
	return kinds
}

type issueServiceFixture struct {
	svc      *IssueService
	issues   *issueStoreStub
	projects *projectReaderStub
	users    *userReaderStub
	labels   *labelLinkerStub
	timeline *timelineCollector
	tx       *txProviderMock
	mock     sqlmock.Sqlmock
}

func newIssueServiceFixture(t *testing.T) *issueServiceFixture {
	tx, mock := newTxProviderMock(t)
	issues := newIssueStoreStub()
	projects := &projectReaderStub{projects: map[string]*models.Project{
		"project-1": {
			Versioned: models.Versioned{ID: "project-1", Version: 1},
			Name:      "Apollo",
			Status:    models.ProjectStatusActive,
		},
		"project-archived": {
			Versioned: models.Versioned{ID: "project-archived", Version: 1},
			Name:      "Mothballed",
			Status:    models.ProjectStatusArchived,
		},
	}}
	users := &userReaderStub{users: map[string]*models.User{
		"user-1": {
			Versioned: models.Versioned{ID: "user-1", Version: 1},
			Email:     "dev@example.com",
			FullName:  "Dev One",
			Role:      models.RoleDeveloper,
			Active:    true,
		},
		"user-inactive": {
			Versioned: models.Versioned{ID: "user-inactive", Version: 1},
			Email:     "gone@example.com",
			FullName:  "Gone",
			Role:      models.RoleDeveloper,
			Active:    false,
		},
	}}
	labels := newLabelLinkerStub(&models.Label{
		Versioned: models.Versioned{ID: "label-1", Version: 1},
		Name:      "backend",
		Color:     models.DefaultLabelColor,
	})
	timeline := &timelineCollector{}
	svc := NewIssueService(issues, projects, users, labels, timeline, tx, nil, nil, zap.NewNop())
	return &issueServiceFixture{
		svc:      svc,
		issues:   issues,
		projects: projects,
		users:    users,
		labels:   labels,
		timeline: timeline,
		tx:       tx,
		mock:     mock,
	}
}

func TestIssueServiceCreateAppliesDefaultsAndRecordsEvent(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	issue, err := f.svc.Create(context.Background(), models.IssueCreate{
		Title:     "Crash on save",
		ProjectID: "project-1",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), issue.Version)
	assert.Equal(t, models.IssueStatusOpen, issue.Status)
	assert.Equal(t, models.IssueTypeTask, issue.Type)
	assert.Equal(t, models.IssuePriorityMedium, issue.Priority)

	require.Len(t, f.timeline.events, 1)
	assert.Equal(t, models.EventIssueCreated, f.timeline.events[0].Type)
	assert.Equal(t, issue.ID, f.timeline.events[0].IssueID)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(f.timeline.events[0].Payload, &payload))
	assert.Equal(t, "Crash on save", payload["title"])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIssueServiceCreateRejectsArchivedProject(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Create(context.Background(), models.IssueCreate{
		Title:     "Orphan",
		ProjectID: "project-archived",
	}, nil)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, f.timeline.events)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIssueServiceSequentialMutationsBumpVersionPerCommit(t *testing.T) {
	f := newIssueServiceFixture(t)
	for i := 0; i < 4; i++ {
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
	}

	issue, err := f.svc.Create(context.Background(), models.IssueCreate{
		Title:     "Latency regression",
		ProjectID: "project-1",
	}, nil)
	require.NoError(t, err)

	high := models.IssuePriorityHigh
	issue, err = f.svc.Update(context.Background(), issue.ID, 1, models.IssuePatch{Priority: &high}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), issue.Version)

	issue, err = f.svc.Transition(context.Background(), issue.ID, 2, models.IssueStatusInProgress, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), issue.Version)

	assignee := "user-1"
	issue, err = f.svc.Assign(context.Background(), issue.ID, 3, &assignee, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), issue.Version)

	assert.Equal(t, []models.TimelineEventType{
		models.EventIssueCreated,
		models.EventPriorityChanged,
		models.EventStatusChanged,
		models.EventAssigned,
	}, f.timeline.eventTypes())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIssueServiceUpdateStaleVersionReturnsConflict(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.issues.seed(&models.Issue{
		Versioned: models.Versioned{ID: "issue-7", Version: 3},
		Title:     "Flaky test",
		Status:    models.IssueStatusOpen,
		Type:      models.IssueTypeBug,
		Priority:  models.IssuePriorityMedium,
		ProjectID: "project-1",
	})
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	title := "Flaky integration test"
	_, err := f.svc.Update(context.Background(), "issue-7", 1, models.IssuePatch{Title: &title}, nil)
	require.Error(t, err)
	var conflict *appErrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "issue-7", conflict.EntityID)
	assert.Equal(t, int64(1), conflict.ExpectedVersion)
	assert.Equal(t, int64(3), conflict.ActualVersion)
	assert.Empty(t, f.timeline.events)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIssueServiceUpdateUnknownIssueNotFound(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	title := "Ghost"
	_, err := f.svc.Update(context.Background(), "issue-ghost", 1, models.IssuePatch{Title: &title}, nil)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIssueServiceTransitionMatrix(t *testing.T) {
	statuses := []models.IssueStatus{
		models.IssueStatusOpen,
		models.IssueStatusInProgress,
		models.IssueStatusResolved,
		models.IssueStatusClosed,
	}
	allowed := map[models.IssueStatus][]models.IssueStatus{
		models.IssueStatusOpen:       {models.IssueStatusInProgress},
		models.IssueStatusInProgress: {models.IssueStatusResolved},
		models.IssueStatusResolved:   {models.IssueStatusClosed, models.IssueStatusOpen},
		models.IssueStatusClosed:     {models.IssueStatusOpen},
	}
	for _, from := range statuses {
		for _, to := range statuses {
			from, to := from, to
			t.Run(fmt.Sprintf("%s_to_%s", from, to), func(t *testing.T) {
				f := newIssueServiceFixture(t)
				f.issues.seed(&models.Issue{
					Versioned: models.Versioned{ID: "issue-1", Version: 1},
					Title:     "Workflow",
					Status:    from,
					Type:      models.IssueTypeBug,
					Priority:  models.IssuePriorityMedium,
					ProjectID: "project-1",
				})
				legal := false
				for _, next := range allowed[from] {
					if next == to {
						legal = true
					}
				}
				f.mock.ExpectBegin()
				if legal {
					f.mock.ExpectCommit()
				} else {
					f.mock.ExpectRollback()
				}

				updated, err := f.svc.Transition(context.Background(), "issue-1", 1, to, nil)
				if legal {
					require.NoError(t, err)
					assert.Equal(t, to, updated.Status)
					assert.Equal(t, int64(2), updated.Version)
				} else {
					require.Error(t, err)
					var transition *appErrors.TransitionError
					require.ErrorAs(t, err, &transition)
					assert.Equal(t, string(from), transition.From)
					assert.Equal(t, string(to), transition.To)
				}
				assert.NoError(t, f.mock.ExpectationsWereMet())
			})
		}
	}
}

func TestIssueServiceResolveAndReopenManageTimestamps(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.issues.seed(&models.Issue{
		Versioned: models.Versioned{ID: "issue-1", Version: 1},
		Title:     "Timestamps",
		Status:    models.IssueStatusInProgress,
		Type:      models.IssueTypeBug,
		Priority:  models.IssuePriorityMedium,
		ProjectID: "project-1",
	})
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resolved, err := f.svc.Transition(context.Background(), "issue-1", 1, models.IssueStatusResolved, nil)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)

	reopened, err := f.svc.Transition(context.Background(), "issue-1", 2, models.IssueStatusOpen, nil)
	require.NoError(t, err)
	assert.Nil(t, reopened.ResolvedAt)
	assert.Nil(t, reopened.ClosedAt)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIssueServiceAssignValidatesUser(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.issues.seed(&models.Issue{
		Versioned: models.Versioned{ID: "issue-1", Version: 1},
		Title:     "Assignment",
		Status:    models.IssueStatusOpen,
		Type:      models.IssueTypeTask,
		Priority:  models.IssuePriorityMedium,
		ProjectID: "project-1",
	})

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	inactive := "user-inactive"
	_, err := f.svc.Assign(context.Background(), "issue-1", 1, &inactive, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not active")

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	ghost := "user-ghost"
	_, err = f.svc.Assign(context.Background(), "issue-1", 1, &ghost, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIssueServiceUnassignRecordsEvent(t *testing.T) {
	f := newIssueServiceFixture(t)
	assignee := "user-1"
	f.issues.seed(&models.Issue{
		Versioned:  models.Versioned{ID: "issue-1", Version: 1},
		Title:      "Handover",
		Status:     models.IssueStatusOpen,
		Type:       models.IssueTypeTask,
		Priority:   models.IssuePriorityMedium,
		ProjectID:  "project-1",
		AssigneeID: &assignee,
	})
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	updated, err := f.svc.Assign(context.Background(), "issue-1", 1, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.AssigneeID)
	require.Len(t, f.timeline.events, 1)
	assert.Equal(t, models.EventUnassigned, f.timeline.events[0].Type)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(f.timeline.events[0].Payload, &payload))
	assert.Equal(t, "user-1", payload["from"])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIssueServiceSoftDeleteHidesIssueFromMutations(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.issues.seed(&models.Issue{
		Versioned: models.Versioned{ID: "issue-1", Version: 1},
		Title:     "Retired",
		Status:    models.IssueStatusOpen,
		Type:      models.IssueTypeTask,
		Priority:  models.IssuePriorityMedium,
		ProjectID: "project-1",
	})
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	require.NoError(t, f.svc.SoftDelete(context.Background(), "issue-1", 1, nil))
	version, deleted, err := f.issues.GetVersion(context.Background(), nil, "issue-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, int64(2), version)
	require.Len(t, f.timeline.events, 1)
	assert.Equal(t, models.EventIssueDeleted, f.timeline.events[0].Type)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	title := "Back from the dead"
	_, err = f.svc.Update(context.Background(), "issue-1", 2, models.IssuePatch{Title: &title}, nil)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIssueServiceRestoreRequiresDeletedIssue(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.issues.seed(&models.Issue{
		Versioned: models.Versioned{ID: "issue-1", Version: 2, IsDeleted: true},
		Title:     "Archived",
		Status:    models.IssueStatusOpen,
		Type:      models.IssueTypeTask,
		Priority:  models.IssuePriorityMedium,
		ProjectID: "project-1",
	})
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	restored, err := f.svc.Restore(context.Background(), "issue-1", 2, nil)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Equal(t, int64(3), restored.Version)
	require.Len(t, f.timeline.events, 1)
	assert.Equal(t, models.EventIssueRestored, f.timeline.events[0].Type)

	_, err = f.svc.Restore(context.Background(), "issue-1", 3, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not deleted")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIssueServiceAttachLabelBumpsVersion(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.issues.seed(&models.Issue{
		Versioned: models.Versioned{ID: "issue-1", Version: 1},
		Title:     "Tagged",
		Status:    models.IssueStatusOpen,
		Type:      models.IssueTypeTask,
		Priority:  models.IssuePriorityMedium,
		ProjectID: "project-1",
	})
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	updated, err := f.svc.AttachLabel(context.Background(), "issue-1", 1, "label-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.True(t, f.labels.attached["issue-1"]["label-1"])
	require.Len(t, f.timeline.events, 1)
	assert.Equal(t, models.EventLabelAdded, f.timeline.events[0].Type)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err = f.svc.AttachLabel(context.Background(), "issue-1", 2, "label-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already attached")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIssueServiceDetachLabelRequiresAttachment(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.issues.seed(&models.Issue{
		Versioned: models.Versioned{ID: "issue-1", Version: 1},
		Title:     "Untagged",
		Status:    models.IssueStatusOpen,
		Type:      models.IssueTypeTask,
		Priority:  models.IssuePriorityMedium,
		ProjectID: "project-1",
	})
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.DetachLabel(context.Background(), "issue-1", 1, "label-1", nil)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIssueServiceEmptyPatchRejected(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.issues.seed(&models.Issue{
		Versioned: models.Versioned{ID: "issue-1", Version: 1},
		Title:     "Noop",
		Status:    models.IssueStatusOpen,
		Type:      models.IssueTypeTask,
		Priority:  models.IssuePriorityMedium,
		ProjectID: "project-1",
	})
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Update(context.Background(), "issue-1", 1, models.IssuePatch{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no changes")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
