package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/civic-pulse/pulsecore/internal/api"
	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/civic-pulse/pulsecore/internal/service"
	"github.com/go-chi/chi/v5"
)

const defaultCandidateCount = 5

type MatcherService interface {
	SearchCandidates(ctx context.Context, issue *domain.IssueReport, k int) ([]service.Candidate, error)
	Match(ctx context.Context, issue *domain.IssueReport) (*domain.MatchResult, error)
}

type MatchIssueSource interface {
	GetByID(ctx context.Context, id string) (*domain.IssueReport, error)
	Assign(ctx context.Context, issueID, orgID string) error
}

type MatchHandler struct {
	matcher MatcherService
	issues  MatchIssueSource
}

func NewMatchHandler(matcher MatcherService, issues MatchIssueSource) *MatchHandler {
	return &MatchHandler{matcher: matcher, issues: issues}
}

type CandidateResponse struct {
	OrganizationID string  `json:"organization_id"`
	Score          float64 `json:"score"`
	Rank           int     `json:"rank"`
}

type MatchResponse struct {
	IssueID        string  `json:"issue_id"`
	OrganizationID string  `json:"organization_id"`
	Score          float64 `json:"score"`
	Rank           int     `json:"rank"`
}

type AssignResponse struct {
	IssueID  string         `json:"issue_id"`
	Assigned bool           `json:"assigned"`
	Match    *MatchResponse `json:"match,omitempty"`
}

// Candidates returns the ranked organizations for a verified report without
// recording anything.
func (h *MatchHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	k := defaultCandidateCount
	if kStr := r.URL.Query().Get("k"); kStr != "" {
		if parsed, err := strconv.Atoi(kStr); err == nil && parsed > 0 {
			k = parsed
		}
	}

	issue, err := h.issues.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	candidates, err := h.matcher.SearchCandidates(r.Context(), issue, k)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*CandidateResponse, len(candidates))
	for i, c := range candidates {
		responses[i] = &CandidateResponse{
			OrganizationID: c.OrganizationID,
			Score:          c.Score,
			Rank:           i + 1,
		}
	}
	api.Success(w, http.StatusOK, responses)
}

// Assign matches a verified report and records the assignment. A report with
// no organization above the threshold comes back assigned=false; it stays
// queued for the background worker to retry.
func (h *MatchHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	issue, err := h.issues.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if issue.Status != domain.IssueStatusVerified {
		api.HandleError(w, domain.ErrIssueNotVerified)
		return
	}
	if issue.AssignedOrgID != "" {
		api.HandleError(w, domain.ErrIssueAlreadyAssigned)
		return
	}

	result, err := h.matcher.Match(r.Context(), issue)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if result == nil {
		api.Success(w, http.StatusOK, AssignResponse{IssueID: id, Assigned: false})
		return
	}

	if err := h.issues.Assign(r.Context(), result.IssueID, result.OrganizationID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, AssignResponse{
		IssueID:  id,
		Assigned: true,
		Match: &MatchResponse{
			IssueID:        result.IssueID,
			OrganizationID: result.OrganizationID,
			Score:          result.Score,
			Rank:           result.Rank,
		},
	})
}
