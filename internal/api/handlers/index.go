package handlers

import (
	"context"
	"net/http"

	"github.com/civic-pulse/pulsecore/internal/api"
)

type IndexService interface {
	Count(ctx context.Context, filter map[string]any) (int64, error)
	StaleCount(ctx context.Context) (int64, error)
	Rebuild(ctx context.Context) (int, error)
}

type IndexHandler struct {
	svc IndexService
}

func NewIndexHandler(svc IndexService) *IndexHandler {
	return &IndexHandler{svc: svc}
}

type IndexStatsResponse struct {
	Entries      int64 `json:"entries"`
	StaleEntries int64 `json:"stale_entries"`
}

type RebuildResponse struct {
	Entries int `json:"entries"`
}

// Stats reports the index size and how many entries still carry an older
// embedding model.
func (h *IndexHandler) Stats(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.Count(r.Context(), nil)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	stale, err := h.svc.StaleCount(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, IndexStatsResponse{Entries: total, StaleEntries: stale})
}

// Rebuild re-embeds every source record and swaps the index contents. Slow;
// searches keep serving the old set until the swap commits.
func (h *IndexHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Rebuild(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, RebuildResponse{Entries: n})
}
