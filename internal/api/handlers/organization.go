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

type OrganizationStore interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	Update(ctx context.Context, org *domain.Organization) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context) ([]*domain.Organization, error)
}

// OrganizationLifecycle receives the index-facing side effects of org changes.
type OrganizationLifecycle interface {
	OrganizationCreated(ctx context.Context, org *domain.Organization) error
	OrganizationUpdated(ctx context.Context, org *domain.Organization) error
	OrganizationDeactivated(ctx context.Context, orgID string) error
}

type OrganizationHandler struct {
	store     OrganizationStore
	lifecycle OrganizationLifecycle
}

func NewOrganizationHandler(store OrganizationStore, lifecycle OrganizationLifecycle) *OrganizationHandler {
	return &OrganizationHandler{store: store, lifecycle: lifecycle}
}

type AddressPayload struct {
	Area     string `json:"area,omitempty"`
	City     string `json:"city,omitempty"`
	District string `json:"district,omitempty"`
	State    string `json:"state,omitempty"`
	Pincode  string `json:"pincode,omitempty"`
}

type GeoPointPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type CreateOrganizationRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Categories  []string         `json:"categories"`
	Address     AddressPayload   `json:"address"`
	Location    *GeoPointPayload `json:"location,omitempty"`
}

type UpdateOrganizationRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Categories  []string         `json:"categories"`
	Address     AddressPayload   `json:"address"`
	Location    *GeoPointPayload `json:"location,omitempty"`
	Active      bool             `json:"active"`
}

type OrganizationResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Categories  []string         `json:"categories"`
	Address     AddressPayload   `json:"address"`
	Location    *GeoPointPayload `json:"location,omitempty"`
	Active      bool             `json:"active"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

func addressFromPayload(p AddressPayload) domain.Address {
	return domain.Address{
		Area:     p.Area,
		City:     p.City,
		District: p.District,
		State:    p.State,
		Pincode:  p.Pincode,
	}
}

func geoPointFromPayload(p *GeoPointPayload) *domain.GeoPoint {
	if p == nil {
		return nil
	}
	return &domain.GeoPoint{Latitude: p.Latitude, Longitude: p.Longitude}
}

func orgToResponse(org *domain.Organization) *OrganizationResponse {
	resp := &OrganizationResponse{
		ID:          org.ID,
		Name:        org.Name,
		Description: org.Description,
		Categories:  org.Categories,
		Address: AddressPayload{
			Area:     org.Address.Area,
			City:     org.Address.City,
			District: org.Address.District,
			State:    org.Address.State,
			Pincode:  org.Address.Pincode,
		},
		Active:    org.Active,
		CreatedAt: org.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: org.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if org.Location != nil {
		resp.Location = &GeoPointPayload{
			Latitude:  org.Location.Latitude,
			Longitude: org.Location.Longitude,
		}
	}
	return resp
}

func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	org := &domain.Organization{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Categories:  req.Categories,
		Address:     addressFromPayload(req.Address),
		Location:    geoPointFromPayload(req.Location),
		Active:      true,
	}

	if err := domain.ValidateOrganization(org); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.store.Create(r.Context(), org); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.lifecycle.OrganizationCreated(r.Context(), org); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, orgToResponse(org))
}

func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	org, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, orgToResponse(org))
}

func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.store.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*OrganizationResponse, len(orgs))
	for i, org := range orgs {
		responses[i] = orgToResponse(org)
	}
	api.Success(w, http.StatusOK, responses)
}

func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req UpdateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	org := &domain.Organization{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Categories:  req.Categories,
		Address:     addressFromPayload(req.Address),
		Location:    geoPointFromPayload(req.Location),
		Active:      req.Active,
	}

	if err := domain.ValidateOrganization(org); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.store.Update(r.Context(), org); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.lifecycle.OrganizationUpdated(r.Context(), org); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, orgToResponse(org))
}

// Deactivate retires an organization. The record stays in the store; only the
// index entry is removed.
func (h *OrganizationHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.store.SetActive(r.Context(), id, false); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.lifecycle.OrganizationDeactivated(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "status": "inactive"})
}
