package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/issue-tracker-api/internal/models"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
)

func newBulkServiceFixture(t *testing.T, maxOps int) (*BulkService, *issueServiceFixture) {
	f := newIssueServiceFixture(t)
	bulk := NewBulkService(f.svc, f.tx, nil, nil, maxOps, zap.NewNop())
	return bulk, f
}

func seedWorkflowIssue(f *issueServiceFixture, id string, version int64) {
	f.issues.seed(&models.Issue{
		Versioned: models.Versioned{ID: id, Version: version},
		Title:     "Seeded " + id,
		Status:    models.IssueStatusOpen,
		Type:      models.IssueTypeTask,
		Priority:  models.IssuePriorityMedium,
		ProjectID: "project-1",
	})
}

func TestBulkServiceAtomicReportsOnlyFirstFailure(t *testing.T) {
	bulk, f := newBulkServiceFixture(t, 0)
	seedWorkflowIssue(f, "issue-a", 1)
	seedWorkflowIssue(f, "issue-b", 5)
	seedWorkflowIssue(f, "issue-c", 5)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	high := models.IssuePriorityHigh
	low := models.IssuePriorityLow
	ops := []models.BulkOperation{
		{Kind: models.BulkOpUpdate, IssueID: "issue-a", ExpectedVersion: 1, Patch: &models.IssuePatch{Priority: &high}},
		{Kind: models.BulkOpUpdate, IssueID: "issue-b", ExpectedVersion: 1, Patch: &models.IssuePatch{Priority: &low}},
		{Kind: models.BulkOpUpdate, IssueID: "issue-c", ExpectedVersion: 1, Patch: &models.IssuePatch{Priority: &low}},
	}
	result, err := bulk.Execute(context.Background(), ops, models.BulkPolicyAtomic)
	require.NoError(t, err)
	assert.Equal(t, models.BulkPolicyAtomic, result.Policy)
	assert.Empty(t, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "issue-b", result.Failed[0].Ref)
	assert.Contains(t, result.Failed[0].Reason, "expected 1, got 5")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBulkServiceAtomicCommitsWholeBatch(t *testing.T) {
	bulk, f := newBulkServiceFixture(t, 0)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	ops := []models.BulkOperation{
		{Ref: "op-1", Kind: models.BulkOpCreate, Create: &models.IssueCreate{Title: "First", ProjectID: "project-1"}},
		{Ref: "op-2", Kind: models.BulkOpCreate, Create: &models.IssueCreate{Title: "Second", ProjectID: "project-1"}},
	}
	result, err := bulk.Execute(context.Background(), ops, models.BulkPolicyAtomic)
	require.NoError(t, err)
	assert.Len(t, result.Succeeded, 2)
	assert.Empty(t, result.Failed)
	assert.Equal(t, []models.TimelineEventType{
		models.EventIssueCreated,
		models.EventIssueCreated,
	}, f.timeline.eventTypes())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBulkServiceBestEffortIsolatesFailures(t *testing.T) {
	bulk, f := newBulkServiceFixture(t, 0)
	seedWorkflowIssue(f, "issue-a", 1)
	seedWorkflowIssue(f, "issue-b", 5)
	seedWorkflowIssue(f, "issue-c", 1)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	high := models.IssuePriorityHigh
	ops := []models.BulkOperation{
		{Kind: models.BulkOpUpdate, IssueID: "issue-a", ExpectedVersion: 1, Patch: &models.IssuePatch{Priority: &high}},
		{Kind: models.BulkOpUpdate, IssueID: "issue-b", ExpectedVersion: 1, Patch: &models.IssuePatch{Priority: &high}},
		{Kind: models.BulkOpUpdate, IssueID: "issue-c", ExpectedVersion: 1, Patch: &models.IssuePatch{Priority: &high}},
	}
	result, err := bulk.Execute(context.Background(), ops, models.BulkPolicyBestEffort)
	require.NoError(t, err)
	assert.Equal(t, []string{"issue-a", "issue-c"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "issue-b", result.Failed[0].Ref)

	version, _, err := f.issues.GetVersion(context.Background(), nil, "issue-a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBulkServiceReplayConflictsEveryOperation(t *testing.T) {
	bulk, f := newBulkServiceFixture(t, 0)
	seedWorkflowIssue(f, "issue-a", 1)
	seedWorkflowIssue(f, "issue-b", 1)
	for i := 0; i < 2; i++ {
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
	}
	for i := 0; i < 2; i++ {
		f.mock.ExpectBegin()
		f.mock.ExpectRollback()
	}

	high := models.IssuePriorityHigh
	low := models.IssuePriorityLow
	ops := []models.BulkOperation{
		{Kind: models.BulkOpUpdate, IssueID: "issue-a", ExpectedVersion: 1, Patch: &models.IssuePatch{Priority: &high}},
		{Kind: models.BulkOpUpdate, IssueID: "issue-b", ExpectedVersion: 1, Patch: &models.IssuePatch{Priority: &low}},
	}
	first, err := bulk.Execute(context.Background(), ops, models.BulkPolicyBestEffort)
	require.NoError(t, err)
	assert.Len(t, first.Succeeded, 2)

	replay, err := bulk.Execute(context.Background(), ops, models.BulkPolicyBestEffort)
	require.NoError(t, err)
	assert.Empty(t, replay.Succeeded)
	require.Len(t, replay.Failed, 2)
	for _, failure := range replay.Failed {
		assert.Contains(t, failure.Reason, "expected 1, got 2")
	}

	version, _, err := f.issues.GetVersion(context.Background(), nil, "issue-a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBulkServiceRejectsMalformedBatches(t *testing.T) {
	bulk, _ := newBulkServiceFixture(t, 2)

	cases := []struct {
		name    string
		ops     []models.BulkOperation
		policy  models.BulkPolicy
		message string
	}{
		{
			name:    "unknown policy",
			ops:     []models.BulkOperation{{Kind: models.BulkOpDelete, IssueID: "issue-a", ExpectedVersion: 1}},
			policy:  models.BulkPolicy("eventually"),
			message: "unknown bulk policy",
		},
		{
			name:    "empty batch",
			ops:     nil,
			policy:  models.BulkPolicyAtomic,
			message: "no operations",
		},
		{
			name: "oversized batch",
			ops: []models.BulkOperation{
				{Kind: models.BulkOpDelete, IssueID: "a", ExpectedVersion: 1},
				{Kind: models.BulkOpDelete, IssueID: "b", ExpectedVersion: 1},
				{Kind: models.BulkOpDelete, IssueID: "c", ExpectedVersion: 1},
			},
			policy:  models.BulkPolicyAtomic,
			message: "exceeds 2 operations",
		},
		{
			name:    "update without patch",
			ops:     []models.BulkOperation{{Kind: models.BulkOpUpdate, IssueID: "issue-a", ExpectedVersion: 1}},
			policy:  models.BulkPolicyBestEffort,
			message: "patch payload is required",
		},
		{
			name:    "create without payload",
			ops:     []models.BulkOperation{{Ref: "op-1", Kind: models.BulkOpCreate}},
			policy:  models.BulkPolicyBestEffort,
			message: "create payload is required",
		},
		{
			name:    "unknown kind",
			ops:     []models.BulkOperation{{Ref: "op-1", Kind: models.BulkOperationKind("merge")}},
			policy:  models.BulkPolicyBestEffort,
			message: "unknown kind",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			result, err := bulk.Execute(context.Background(), tc.ops, tc.policy)
			require.Error(t, err)
			assert.Nil(t, result)
			var appErr *appErrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestBulkServiceBestEffortMixedKinds(t *testing.T) {
	bulk, f := newBulkServiceFixture(t, 0)
	seedWorkflowIssue(f, "issue-a", 1)
	seedWorkflowIssue(f, "issue-b", 1)
	for i := 0; i < 3; i++ {
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
	}

	title := "Renamed"
	ops := []models.BulkOperation{
		{Ref: "op-1", Kind: models.BulkOpCreate, Create: &models.IssueCreate{Title: "Fresh", ProjectID: "project-1"}},
		{Kind: models.BulkOpUpdate, IssueID: "issue-a", ExpectedVersion: 1, Patch: &models.IssuePatch{Title: &title}},
		{Kind: models.BulkOpDelete, IssueID: "issue-b", ExpectedVersion: 1},
	}
	result, err := bulk.Execute(context.Background(), ops, models.BulkPolicyBestEffort)
	require.NoError(t, err)
	require.Len(t, result.Succeeded, 3)
	assert.Empty(t, result.Failed)
	assert.Equal(t, "issue-a", result.Succeeded[1])
	assert.Equal(t, "issue-b", result.Succeeded[2])

	_, deleted, err := f.issues.GetVersion(context.Background(), nil, "issue-b")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
