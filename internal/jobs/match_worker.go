package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/civic-pulse/pulsecore/internal/domain"
)

const defaultBatchSize = 10

// IssueScheduler yields the next batch of verified, unassigned reports in
// severity order.
type IssueScheduler interface {
	NextIssues(ctx context.Context, maxN int) ([]*domain.IssueReport, error)
}

// IssueMatcher ranks organizations for a report. A nil result means no
// organization reached the acceptance threshold.
type IssueMatcher interface {
	Match(ctx context.Context, issue *domain.IssueReport) (*domain.MatchResult, error)
}

// AssignmentStore records the assignment decision.
type AssignmentStore interface {
	Assign(ctx context.Context, issueID, orgID string) error
}

// MatchWorker drains the priority scheduler each poll tick: match the most
// urgent verified reports and record the assignment. Reports with no match
// above the threshold stay queued and are retried on later ticks, so they pick
// up newly registered organizations.
type MatchWorker struct {
	scheduler IssueScheduler
	matcher   IssueMatcher
	store     AssignmentStore
	batchSize int
}

// NewMatchWorker creates a new MatchWorker instance
func NewMatchWorker(scheduler IssueScheduler, matcher IssueMatcher, store AssignmentStore, batchSize int) *MatchWorker {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &MatchWorker{
		scheduler: scheduler,
		matcher:   matcher,
		store:     store,
		batchSize: batchSize,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *MatchWorker) ProcessJobs(ctx context.Context) error {
	issues, err := w.scheduler.NextIssues(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch pending issues: %w", err)
	}

	if len(issues) == 0 {
		return nil
	}

	log.Printf("Matching %d pending issue reports", len(issues))

	for _, issue := range issues {
		if err := w.processIssue(ctx, issue); err != nil {
			if errors.Is(err, domain.ErrModelUnavailable) {
				// The whole batch would hit the same outage; the reports stay
				// queued for the next tick.
				return err
			}
			log.Printf("Error matching issue %s: %v", issue.ID, err)
		}
	}

	return nil
}

func (w *MatchWorker) processIssue(ctx context.Context, issue *domain.IssueReport) error {
	result, err := w.matcher.Match(ctx, issue)
	if err != nil {
		return err
	}
	if result == nil {
		log.Printf("Issue %s: no organization above threshold, staying queued", issue.ID)
		return nil
	}

	if err := w.store.Assign(ctx, result.IssueID, result.OrganizationID); err != nil {
		if errors.Is(err, domain.ErrIssueAlreadyAssigned) {
			log.Printf("Issue %s already assigned, skipping", issue.ID)
			return nil
		}
		return fmt.Errorf("failed to record assignment: %w", err)
	}

	log.Printf("Issue %s assigned to organization %s (score %.3f)",
		result.IssueID, result.OrganizationID, result.Score)
	return nil
}
