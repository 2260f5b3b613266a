package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/civic-pulse/pulsecore/internal/api"
	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ReferenceStore interface {
	Upsert(ctx context.Context, doc *domain.ReferenceDoc) error
	GetByID(ctx context.Context, id string) (*domain.ReferenceDoc, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.ReferenceDoc, error)
}

// ReferenceLifecycle receives the index-facing side effects of doc changes.
type ReferenceLifecycle interface {
	ReferenceUpserted(ctx context.Context, doc *domain.ReferenceDoc) error
	ReferenceDeleted(ctx context.Context, docID string) error
}

type ReferenceHandler struct {
	store     ReferenceStore
	lifecycle ReferenceLifecycle
}

func NewReferenceHandler(store ReferenceStore, lifecycle ReferenceLifecycle) *ReferenceHandler {
	return &ReferenceHandler{store: store, lifecycle: lifecycle}
}

type UpsertReferenceRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type ReferenceResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func referenceToResponse(doc *domain.ReferenceDoc) *ReferenceResponse {
	return &ReferenceResponse{
		ID:        doc.ID,
		Title:     doc.Title,
		Body:      doc.Body,
		CreatedAt: doc.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: doc.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Upsert creates or replaces a reference document and re-indexes it.
func (h *ReferenceHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req UpsertReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc := &domain.ReferenceDoc{ID: id, Title: req.Title, Body: req.Body}
	if err := domain.ValidateReferenceDoc(doc); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.store.Upsert(r.Context(), doc); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.lifecycle.ReferenceUpserted(r.Context(), doc); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, referenceToResponse(doc))
}

func (h *ReferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	doc, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, referenceToResponse(doc))
}

func (h *ReferenceHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ReferenceResponse, len(docs))
	for i, doc := range docs {
		responses[i] = referenceToResponse(doc)
	}
	api.Success(w, http.StatusOK, responses)
}

func (h *ReferenceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.lifecycle.ReferenceDeleted(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
