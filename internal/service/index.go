package service

import (
	"context"
	"fmt"
	"log"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/civic-pulse/pulsecore/internal/repository"
	"github.com/civic-pulse/pulsecore/internal/telemetry"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	ModelID() string
}

// EntryStore defines the persistence interface for indexed entries
type EntryStore interface {
	Upsert(ctx context.Context, e *domain.IndexedEntry) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, embedding []float32, k int, filter map[string]any) ([]*repository.SearchRow, error)
	Count(ctx context.Context, filter map[string]any) (int64, error)
	CountStale(ctx context.Context, currentModelID string) (int64, error)
}

// EntrySwapper atomically replaces the full index contents (rebuild).
type EntrySwapper interface {
	ReplaceAllEntries(ctx context.Context, entries []*domain.IndexedEntry) error
}

// RebuildSources lists the collaborator records a full rebuild re-indexes.
type RebuildSources interface {
	ListActiveOrganizations(ctx context.Context) ([]*domain.Organization, error)
	ListVerifiedIssues(ctx context.Context) ([]*domain.IssueReport, error)
	ListReferenceDocs(ctx context.Context) ([]*domain.ReferenceDoc, error)
}

// IndexService is the single owner of the shared vector index. Matching and
// chat logic never touch entry storage directly.
type IndexService struct {
	store    EntryStore
	swapper  EntrySwapper
	embedder EmbeddingClient
	sources  RebuildSources
}

func NewIndexService(store EntryStore, swapper EntrySwapper, embedder EmbeddingClient, sources RebuildSources) *IndexService {
	return &IndexService{
		store:    store,
		swapper:  swapper,
		embedder: embedder,
		sources:  sources,
	}
}

// Upsert validates and writes an entry. Metadata violations are rejected
// before any mutation reaches the store.
func (s *IndexService) Upsert(ctx context.Context, e *domain.IndexedEntry) error {
	if err := domain.ValidateEntry(e); err != nil {
		return err
	}
	return s.store.Upsert(ctx, e)
}

// Delete removes the entry with the given id; absent ids are a no-op.
func (s *IndexService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Search embeds nothing itself; it ranks by cosine similarity over the stored
// vectors. Hits embedded with an older model are flagged for rebuild but still
// served: a degraded match beats none.
func (s *IndexService) Search(ctx context.Context, embedding []float32, k int, filter map[string]any) ([]*repository.SearchRow, error) {
	rows, err := s.store.Search(ctx, embedding, k, filter)
	if err != nil {
		return nil, err
	}

	currentModel := s.embedder.ModelID()
	for _, row := range rows {
		if row.ModelID != currentModel {
			log.Printf("index: stale entry %s (model %s, current %s); schedule a rebuild",
				row.ID, row.ModelID, currentModel)
		}
	}
	return rows, nil
}

func (s *IndexService) Count(ctx context.Context, filter map[string]any) (int64, error) {
	return s.store.Count(ctx, filter)
}

// StaleCount reports how many entries were embedded with a model other than
// the current one.
func (s *IndexService) StaleCount(ctx context.Context) (int64, error) {
	return s.store.CountStale(ctx, s.embedder.ModelID())
}

// IndexDocument embeds a normalized document and upserts the resulting entry.
// Embedding failure leaves the index unchanged.
func (s *IndexService) IndexDocument(ctx context.Context, doc *Document) error {
	embedding, err := s.embedder.GenerateEmbedding(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	return s.Upsert(ctx, doc.Entry(embedding, s.embedder.ModelID()))
}

// Rebuild re-normalizes and re-embeds every active organization, verified
// issue, and reference document, then swaps the fresh set in atomically.
// Serving continues against the old set until the swap commits.
func (s *IndexService) Rebuild(ctx context.Context) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexService.Rebuild", telemetry.SpanAttributes{
		Operation: "rebuild",
	})
	defer span.End()

	docs, err := s.collectRebuildDocuments(ctx)
	if err != nil {
		return 0, err
	}

	entries := make([]*domain.IndexedEntry, 0, len(docs))
	modelID := s.embedder.ModelID()
	for _, doc := range docs {
		embedding, err := s.embedder.GenerateEmbedding(ctx, doc.Text)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
		}
		entry := doc.Entry(embedding, modelID)
		if err := domain.ValidateEntry(entry); err != nil {
			return 0, err
		}
		entries = append(entries, entry)
	}

	if err := s.swapper.ReplaceAllEntries(ctx, entries); err != nil {
		return 0, fmt.Errorf("failed to swap index contents: %w", err)
	}

	log.Printf("index: rebuild complete, %d entries (model %s)", len(entries), modelID)
	return len(entries), nil
}

func (s *IndexService) collectRebuildDocuments(ctx context.Context) ([]*Document, error) {
	var docs []*Document

	orgs, err := s.sources.ListActiveOrganizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	for _, org := range orgs {
		doc, err := NormalizeOrganization(org)
		if err != nil {
			return nil, fmt.Errorf("organization %s: %w", org.ID, err)
		}
		docs = append(docs, doc)
	}

	issues, err := s.sources.ListVerifiedIssues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	for _, issue := range issues {
		doc, err := NormalizeIssue(issue)
		if err != nil {
			return nil, fmt.Errorf("issue %s: %w", issue.ID, err)
		}
		docs = append(docs, doc)
	}

	refs, err := s.sources.ListReferenceDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reference docs: %w", err)
	}
	for _, ref := range refs {
		doc, err := NormalizeReference(ref)
		if err != nil {
			return nil, fmt.Errorf("reference %s: %w", ref.ID, err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}
