package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/civic-pulse/pulsecore/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMatcherService struct {
	mock.Mock
}

func (m *MockMatcherService) SearchCandidates(ctx context.Context, issue *domain.IssueReport, k int) ([]service.Candidate, error) {
	args := m.Called(ctx, issue, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.Candidate), args.Error(1)
}

func (m *MockMatcherService) Match(ctx context.Context, issue *domain.IssueReport) (*domain.MatchResult, error) {
	args := m.Called(ctx, issue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchResult), args.Error(1)
}

type MockMatchIssueSource struct {
	mock.Mock
}

func (m *MockMatchIssueSource) GetByID(ctx context.Context, id string) (*domain.IssueReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IssueReport), args.Error(1)
}

func (m *MockMatchIssueSource) Assign(ctx context.Context, issueID, orgID string) error {
	args := m.Called(ctx, issueID, orgID)
	return args.Error(0)
}

func verifiedIssue() *domain.IssueReport {
	return &domain.IssueReport{
		ID:          "issue-1",
		Description: "Overflowing drain",
		Categories:  []string{"sanitation"},
		Severity:    6,
		Status:      domain.IssueStatusVerified,
	}
}

func TestMatchHandler_Candidates_Success(t *testing.T) {
	matcher := new(MockMatcherService)
	issues := new(MockMatchIssueSource)
	handler := NewMatchHandler(matcher, issues)

	issue := verifiedIssue()
	issues.On("GetByID", mock.Anything, "issue-1").Return(issue, nil)
	matcher.On("SearchCandidates", mock.Anything, issue, 3).Return([]service.Candidate{
		{OrganizationID: "org-a", Score: 0.9},
		{OrganizationID: "org-b", Score: 0.6},
	}, nil)

	req := requestWithID(http.MethodGet, "/issues/issue-1/candidates?k=3", "issue-1", nil)
	w := httptest.NewRecorder()

	handler.Candidates(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].([]interface{})
	require.Len(t, data, 2)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "org-a", first["organization_id"])
	assert.Equal(t, float64(1), first["rank"])
	matcher.AssertExpectations(t)
}

func TestMatchHandler_Candidates_IssueNotFound(t *testing.T) {
	matcher := new(MockMatcherService)
	issues := new(MockMatchIssueSource)
	handler := NewMatchHandler(matcher, issues)

	issues.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrIssueNotFound)

	req := requestWithID(http.MethodGet, "/issues/missing/candidates", "missing", nil)
	w := httptest.NewRecorder()

	handler.Candidates(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMatchHandler_Assign_Success(t *testing.T) {
	matcher := new(MockMatcherService)
	issues := new(MockMatchIssueSource)
	handler := NewMatchHandler(matcher, issues)

	issue := verifiedIssue()
	issues.On("GetByID", mock.Anything, "issue-1").Return(issue, nil)
	matcher.On("Match", mock.Anything, issue).Return(&domain.MatchResult{
		IssueID:        "issue-1",
		OrganizationID: "org-a",
		Score:          0.82,
		Rank:           1,
	}, nil)
	issues.On("Assign", mock.Anything, "issue-1", "org-a").Return(nil)

	req := requestWithID(http.MethodPost, "/issues/issue-1/assign", "issue-1", nil)
	w := httptest.NewRecorder()

	handler.Assign(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["assigned"])
	match := data["match"].(map[string]interface{})
	assert.Equal(t, "org-a", match["organization_id"])
	issues.AssertExpectations(t)
}

func TestMatchHandler_Assign_NoMatchAboveThreshold(t *testing.T) {
	matcher := new(MockMatcherService)
	issues := new(MockMatchIssueSource)
	handler := NewMatchHandler(matcher, issues)

	issue := verifiedIssue()
	issues.On("GetByID", mock.Anything, "issue-1").Return(issue, nil)
	matcher.On("Match", mock.Anything, issue).Return(nil, nil)

	req := requestWithID(http.MethodPost, "/issues/issue-1/assign", "issue-1", nil)
	w := httptest.NewRecorder()

	handler.Assign(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, false, data["assigned"])
	issues.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything, mock.Anything)
}

func TestMatchHandler_Assign_NotVerified(t *testing.T) {
	matcher := new(MockMatcherService)
	issues := new(MockMatchIssueSource)
	handler := NewMatchHandler(matcher, issues)

	issue := verifiedIssue()
	issue.Status = domain.IssueStatusNotVerified
	issues.On("GetByID", mock.Anything, "issue-1").Return(issue, nil)

	req := requestWithID(http.MethodPost, "/issues/issue-1/assign", "issue-1", nil)
	w := httptest.NewRecorder()

	handler.Assign(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	matcher.AssertNotCalled(t, "Match", mock.Anything, mock.Anything)
}

func TestMatchHandler_Assign_AlreadyAssigned(t *testing.T) {
	matcher := new(MockMatcherService)
	issues := new(MockMatchIssueSource)
	handler := NewMatchHandler(matcher, issues)

	issue := verifiedIssue()
	issue.AssignedOrgID = "org-z"
	issues.On("GetByID", mock.Anything, "issue-1").Return(issue, nil)

	req := requestWithID(http.MethodPost, "/issues/issue-1/assign", "issue-1", nil)
	w := httptest.NewRecorder()

	handler.Assign(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMatchHandler_Assign_ModelUnavailable(t *testing.T) {
	matcher := new(MockMatcherService)
	issues := new(MockMatchIssueSource)
	handler := NewMatchHandler(matcher, issues)

	issue := verifiedIssue()
	issues.On("GetByID", mock.Anything, "issue-1").Return(issue, nil)
	matcher.On("Match", mock.Anything, issue).Return(nil, domain.ErrModelUnavailable)

	req := requestWithID(http.MethodPost, "/issues/issue-1/assign", "issue-1", nil)
	w := httptest.NewRecorder()

	handler.Assign(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
