package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/civic-pulse/pulsecore/internal/api"
	"github.com/civic-pulse/pulsecore/internal/service"
)

type AnswerService interface {
	Answer(ctx context.Context, question string, topK int, filter map[string]any) (*service.AnswerResult, error)
}

type AnswerHandler struct {
	svc AnswerService
}

func NewAnswerHandler(svc AnswerService) *AnswerHandler {
	return &AnswerHandler{svc: svc}
}

type AnswerRequest struct {
	Question string         `json:"question"`
	TopK     int            `json:"top_k,omitempty"`
	Filter   map[string]any `json:"filter,omitempty"`
}

type SupportingHitResponse struct {
	EntryID string  `json:"entry_id"`
	Type    string  `json:"type"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

type AnswerResponse struct {
	Answer         string                   `json:"answer"`
	SupportingHits []*SupportingHitResponse `json:"supporting_hits"`
}

// Answer runs one chat turn against the index.
func (h *AnswerHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := h.svc.Answer(r.Context(), req.Question, req.TopK, req.Filter)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	hits := make([]*SupportingHitResponse, len(result.SupportingHits))
	for i, hit := range result.SupportingHits {
		hits[i] = &SupportingHitResponse{
			EntryID: hit.EntryID,
			Type:    string(hit.Type),
			Score:   hit.Score,
			Snippet: hit.Snippet,
		}
	}

	api.Success(w, http.StatusOK, AnswerResponse{
		Answer:         result.Text,
		SupportingHits: hits,
	})
}
