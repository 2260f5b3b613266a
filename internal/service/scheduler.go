package service

import (
	"context"

	"github.com/civic-pulse/pulsecore/internal/domain"
)

// PendingIssueSource lists verified-but-unassigned reports already ordered by
// (severity descending, creation time ascending).
type PendingIssueSource interface {
	ListVerifiedUnassigned(ctx context.Context, limit int) ([]*domain.IssueReport, error)
}

// PriorityScheduler orders pending verified reports by severity so the match
// worker handles the most urgent ones first. It is a read-only view over
// externally-owned data: no state, safe to call repeatedly.
type PriorityScheduler struct {
	issues PendingIssueSource
}

func NewPriorityScheduler(issues PendingIssueSource) *PriorityScheduler {
	return &PriorityScheduler{issues: issues}
}

// NextBatch returns up to maxN issue ids, highest severity first; equal
// severities come back oldest first so old reports are not starved.
func (s *PriorityScheduler) NextBatch(ctx context.Context, maxN int) ([]string, error) {
	issues, err := s.NextIssues(ctx, maxN)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(issues))
	for _, issue := range issues {
		ids = append(ids, issue.ID)
	}
	return ids, nil
}

// NextIssues is NextBatch with full reports, saving the worker a re-fetch.
func (s *PriorityScheduler) NextIssues(ctx context.Context, maxN int) ([]*domain.IssueReport, error) {
	if maxN <= 0 {
		return nil, nil
	}
	return s.issues.ListVerifiedUnassigned(ctx, maxN)
}
