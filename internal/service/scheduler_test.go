package service

import (
	"context"
	"testing"
	"time"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSchedulerNextBatchSeverityOrder(t *testing.T) {
	source := new(MockPendingIssueSource)
	scheduler := NewPriorityScheduler(source)

	now := time.Now()
	source.On("ListVerifiedUnassigned", mock.Anything, 10).Return([]*domain.IssueReport{
		{ID: "severe", Severity: 9.2, Status: domain.IssueStatusVerified, CreatedAt: now},
		{ID: "older-mid", Severity: 5.0, Status: domain.IssueStatusVerified, CreatedAt: now.Add(-time.Hour)},
		{ID: "newer-mid", Severity: 5.0, Status: domain.IssueStatusVerified, CreatedAt: now},
	}, nil)

	ids, err := scheduler.NextBatch(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"severe", "older-mid", "newer-mid"}, ids)
}

func TestSchedulerNextBatchZeroLimit(t *testing.T) {
	source := new(MockPendingIssueSource)
	scheduler := NewPriorityScheduler(source)

	ids, err := scheduler.NextBatch(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
	source.AssertNotCalled(t, "ListVerifiedUnassigned", mock.Anything, mock.Anything)
}

func TestSchedulerNextIssuesPassesLimitThrough(t *testing.T) {
	source := new(MockPendingIssueSource)
	scheduler := NewPriorityScheduler(source)

	source.On("ListVerifiedUnassigned", mock.Anything, 3).Return([]*domain.IssueReport{
		{ID: "a", Severity: 7, Status: domain.IssueStatusVerified},
	}, nil)

	issues, err := scheduler.NextIssues(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "a", issues[0].ID)
	source.AssertExpectations(t)
}
