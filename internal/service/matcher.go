package service

import (
	"context"
	"fmt"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/civic-pulse/pulsecore/internal/repository"
	"github.com/civic-pulse/pulsecore/internal/telemetry"
)

// MatchPolicy names how severity gates the acceptance threshold. Severity
// never alters the similarity ranking itself.
type MatchPolicy string

const (
	// MatchPolicyFixed applies the configured threshold to every issue.
	MatchPolicyFixed MatchPolicy = "fixed"
	// MatchPolicyStrictOnSevere raises the threshold for severe issues so
	// auto-assignment requires higher confidence.
	MatchPolicyStrictOnSevere MatchPolicy = "strict-on-severe"
	// MatchPolicyLenientOnSevere lowers the threshold for severe issues so
	// urgent reports are more likely to get some assignment.
	MatchPolicyLenientOnSevere MatchPolicy = "lenient-on-severe"
)

const (
	defaultMatchThreshold   = 0.30
	defaultSevereSeverity   = 7.0
	defaultSevereAdjustment = 0.10
	defaultMatchCandidates  = 5
)

// MatchConfig holds the matcher's tunables.
type MatchConfig struct {
	Policy           MatchPolicy
	Threshold        float64
	SevereSeverity   float64 // severity at or above which the policy adjustment applies
	SevereAdjustment float64 // threshold delta applied by the severity-aware policies
	Candidates       int     // k used by Match
}

// DefaultMatchConfig returns the documented defaults: fixed policy, 0.30
// acceptance threshold.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Policy:           MatchPolicyFixed,
		Threshold:        defaultMatchThreshold,
		SevereSeverity:   defaultSevereSeverity,
		SevereAdjustment: defaultSevereAdjustment,
		Candidates:       defaultMatchCandidates,
	}
}

// CandidateSearcher is the slice of the index the matcher needs.
type CandidateSearcher interface {
	Search(ctx context.Context, embedding []float32, k int, filter map[string]any) ([]*repository.SearchRow, error)
}

// MatcherService ranks responding organizations for a verified issue report.
type MatcherService struct {
	embedder EmbeddingClient
	index    CandidateSearcher
	cfg      MatchConfig
}

func NewMatcherService(embedder EmbeddingClient, index CandidateSearcher, cfg MatchConfig) *MatcherService {
	if cfg.Candidates <= 0 {
		cfg.Candidates = defaultMatchCandidates
	}
	if cfg.Policy == "" {
		cfg.Policy = MatchPolicyFixed
	}
	return &MatcherService{embedder: embedder, index: index, cfg: cfg}
}

// Candidate is one ranked organization for an issue.
type Candidate struct {
	OrganizationID string
	Score          float64
}

// SearchCandidates builds the issue query text, embeds it, and searches the
// index restricted to organization entries. Results come back ordered by
// descending score with deterministic ties, so repeated calls over an
// unchanged index return identical rankings.
func (s *MatcherService) SearchCandidates(ctx context.Context, issue *domain.IssueReport, k int) ([]Candidate, error) {
	ctx, span := telemetry.StartSpan(ctx, "MatcherService.SearchCandidates", telemetry.SpanAttributes{
		IssueID:   issue.ID,
		Operation: "candidates",
	})
	defer span.End()

	query := issueText(issue.Description, issue.Categories, issue.Address, issue.Severity)

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}

	rows, err := s.index.Search(ctx, embedding, k, map[string]any{
		domain.MetaKeyType: string(domain.EntryTypeOrganization),
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, Candidate{
			OrganizationID: row.SourceID,
			Score:          row.Score,
		})
	}
	return candidates, nil
}

// Match returns the best organization for the issue, or nil when no candidate
// reaches the acceptance threshold. Verified-but-unassigned is a valid
// terminal state, not a failure.
func (s *MatcherService) Match(ctx context.Context, issue *domain.IssueReport) (*domain.MatchResult, error) {
	if issue.Description == "" && len(issue.Categories) == 0 {
		return nil, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "MatcherService.Match", telemetry.SpanAttributes{
		IssueID:   issue.ID,
		Operation: "match",
	})
	defer span.End()

	candidates, err := s.SearchCandidates(ctx, issue, s.cfg.Candidates)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	top := candidates[0]
	if top.Score < s.AcceptanceThreshold(issue.Severity) {
		return nil, nil
	}

	return &domain.MatchResult{
		IssueID:        issue.ID,
		OrganizationID: top.OrganizationID,
		Score:          top.Score,
		Rank:           1,
	}, nil
}

// AcceptanceThreshold applies the configured severity policy to the base
// threshold.
func (s *MatcherService) AcceptanceThreshold(severity float64) float64 {
	threshold := s.cfg.Threshold
	if severity < s.cfg.SevereSeverity {
		return threshold
	}
	switch s.cfg.Policy {
	case MatchPolicyStrictOnSevere:
		threshold += s.cfg.SevereAdjustment
	case MatchPolicyLenientOnSevere:
		threshold -= s.cfg.SevereAdjustment
	}
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	return threshold
}
