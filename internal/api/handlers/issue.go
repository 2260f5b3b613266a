package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/civic-pulse/pulsecore/internal/api"
	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type IssueStore interface {
	Create(ctx context.Context, issue *domain.IssueReport) error
	GetByID(ctx context.Context, id string) (*domain.IssueReport, error)
	MarkVerified(ctx context.Context, id string, severity float64) error
	UpdateStatus(ctx context.Context, id string, status domain.IssueStatus) error
}

// IssueLifecycle receives the index-facing side effects of report transitions.
type IssueLifecycle interface {
	IssueVerified(ctx context.Context, issue *domain.IssueReport) error
	IssueResolved(ctx context.Context, issueID string) error
}

type IssueHandler struct {
	store     IssueStore
	lifecycle IssueLifecycle
}

func NewIssueHandler(store IssueStore, lifecycle IssueLifecycle) *IssueHandler {
	return &IssueHandler{store: store, lifecycle: lifecycle}
}

type CreateIssueRequest struct {
	Description string           `json:"description"`
	Categories  []string         `json:"categories"`
	Address     AddressPayload   `json:"address"`
	Location    *GeoPointPayload `json:"location,omitempty"`
}

type VerifyIssueRequest struct {
	Severity float64 `json:"severity"`
}

type IssueResponse struct {
	ID            string           `json:"id"`
	Description   string           `json:"description"`
	Categories    []string         `json:"categories"`
	Address       AddressPayload   `json:"address"`
	Location      *GeoPointPayload `json:"location,omitempty"`
	Severity      float64          `json:"severity"`
	Status        string           `json:"status"`
	AssignedOrgID string           `json:"assigned_org_id,omitempty"`
	CreatedAt     string           `json:"created_at"`
	UpdatedAt     string           `json:"updated_at"`
}

func issueToResponse(issue *domain.IssueReport) *IssueResponse {
	resp := &IssueResponse{
		ID:          issue.ID,
		Description: issue.Description,
		Categories:  issue.Categories,
		Address: AddressPayload{
			Area:     issue.Address.Area,
			City:     issue.Address.City,
			District: issue.Address.District,
			State:    issue.Address.State,
			Pincode:  issue.Address.Pincode,
		},
		Severity:      issue.Severity,
		Status:        string(issue.Status),
		AssignedOrgID: issue.AssignedOrgID,
		CreatedAt:     issue.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:     issue.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if issue.Location != nil {
		resp.Location = &GeoPointPayload{
			Latitude:  issue.Location.Latitude,
			Longitude: issue.Location.Longitude,
		}
	}
	return resp
}

// Create records a citizen report. New reports start not-verified and stay out
// of the index until the external verifier accepts them.
func (h *IssueHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	issue := &domain.IssueReport{
		ID:          uuid.NewString(),
		Description: req.Description,
		Categories:  req.Categories,
		Address:     addressFromPayload(req.Address),
		Location:    geoPointFromPayload(req.Location),
		Status:      domain.IssueStatusNotVerified,
	}

	if err := domain.ValidateIssueReport(issue); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.store.Create(r.Context(), issue); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, issueToResponse(issue))
}

func (h *IssueHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	issue, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, issueToResponse(issue))
}

// Verify records the verifier's decision and severity, then indexes the
// report so matching and retrieval can see it.
func (h *IssueHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req VerifyIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := domain.ValidateSeverity(req.Severity); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.store.MarkVerified(r.Context(), id, req.Severity); err != nil {
		api.HandleError(w, err)
		return
	}

	issue, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.lifecycle.IssueVerified(r.Context(), issue); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, issueToResponse(issue))
}

// Resolve closes a report and removes it from the index.
func (h *IssueHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.store.UpdateStatus(r.Context(), id, domain.IssueStatusResolved); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.lifecycle.IssueResolved(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "status": string(domain.IssueStatusResolved)})
}
