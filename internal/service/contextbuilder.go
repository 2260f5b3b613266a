package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/civic-pulse/pulsecore/internal/telemetry"
)

const (
	defaultSnippetMaxChars = 220
	contextSeparator       = "\n\n---\n\n"
)

// ContextService turns a free-text question into ranked retrieval hits and a
// bounded context block for the answer orchestrator.
type ContextService struct {
	embedder EmbeddingClient
	index    CandidateSearcher
}

func NewContextService(embedder EmbeddingClient, index CandidateSearcher) *ContextService {
	return &ContextService{embedder: embedder, index: index}
}

// Retrieve embeds the question and searches the index, optionally filtered by
// a caller-supplied metadata predicate. Hits come back ordered by descending
// score. An empty index means an empty slice, never an error.
func (s *ContextService) Retrieve(ctx context.Context, question string, k int, filter map[string]any) ([]*domain.RetrievalHit, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return []*domain.RetrievalHit{}, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "ContextService.Retrieve", telemetry.SpanAttributes{
		Operation: "retrieve",
	})
	defer span.End()

	embedding, err := s.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}

	rows, err := s.index.Search(ctx, embedding, k, filter)
	if err != nil {
		return nil, err
	}

	hits := make([]*domain.RetrievalHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, &domain.RetrievalHit{
			EntryID:  row.ID,
			Type:     row.Type,
			Score:    row.Score,
			Snippet:  makeSnippet(row.Content),
			Metadata: row.Metadata,
		})
	}
	return hits, nil
}

// typePriority orders snippet groups in the assembled context: static
// reference material first, then issue reports, then organization profiles.
func typePriority(t domain.EntryType) int {
	switch t {
	case domain.EntryTypeReference:
		return 0
	case domain.EntryTypeIssue:
		return 1
	case domain.EntryTypeOrganization:
		return 2
	}
	return 3
}

// BuildContext concatenates hit snippets in priority order, bounded by
// maxChars. Snippets that do not fit are dropped whole, lowest priority and
// lowest score first; the result never exceeds maxChars and a snippet is
// never cut mid-way.
func BuildContext(hits []*domain.RetrievalHit, maxChars int) string {
	if len(hits) == 0 || maxChars <= 0 {
		return ""
	}

	ordered := make([]*domain.RetrievalHit, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		if h == nil || h.Snippet == "" || seen[h.EntryID] {
			continue
		}
		seen[h.EntryID] = true
		ordered = append(ordered, h)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := typePriority(ordered[i].Type), typePriority(ordered[j].Type)
		if pi != pj {
			return pi < pj
		}
		return ordered[i].Score > ordered[j].Score
	})

	var b strings.Builder
	for _, h := range ordered {
		block := fmt.Sprintf("Source: %s\n%s", h.EntryID, h.Snippet)
		needed := len(block)
		if b.Len() > 0 {
			needed += len(contextSeparator)
		}
		if b.Len()+needed > maxChars {
			// Keep a prefix of the priority ordering: everything after the
			// first snippet that does not fit is dropped.
			break
		}
		if b.Len() > 0 {
			b.WriteString(contextSeparator)
		}
		b.WriteString(block)
	}
	return b.String()
}

func makeSnippet(content string) string {
	if content == "" {
		return ""
	}
	clean := strings.Join(strings.Fields(content), " ")
	if len(clean) <= defaultSnippetMaxChars {
		return clean
	}
	return clean[:defaultSnippetMaxChars-3] + "..."
}
