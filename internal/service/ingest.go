package service

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/civic-pulse/pulsecore/internal/domain"
)

// ObjectStore is the slice of the bucket client the ingest service needs.
type ObjectStore interface {
	ListDocuments(ctx context.Context, prefix string) ([]string, error)
	FetchDocument(ctx context.Context, key string) ([]byte, error)
}

// ReferenceWriter persists ingested reference documents.
type ReferenceWriter interface {
	Upsert(ctx context.Context, doc *domain.ReferenceDoc) error
}

// ReferenceEvents is the lifecycle side of ingestion.
type ReferenceEvents interface {
	ReferenceUpserted(ctx context.Context, doc *domain.ReferenceDoc) error
}

// IngestService pulls reference documents out of the bucket and into the
// reference store and index. Files are plain text: the first line is the
// title, the rest the body. The object key (minus extension) is the doc id,
// so re-running ingestion over the same bucket is idempotent.
type IngestService struct {
	objects   ObjectStore
	store     ReferenceWriter
	lifecycle ReferenceEvents
}

func NewIngestService(objects ObjectStore, store ReferenceWriter, lifecycle ReferenceEvents) *IngestService {
	return &IngestService{objects: objects, store: store, lifecycle: lifecycle}
}

// IngestAll fetches every document under prefix and upserts it. Returns the
// number ingested; a malformed file is logged and skipped, not fatal.
func (s *IngestService) IngestAll(ctx context.Context, prefix string) (int, error) {
	keys, err := s.objects.ListDocuments(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list reference documents: %w", err)
	}

	ingested := 0
	for _, key := range keys {
		if err := s.ingestOne(ctx, key); err != nil {
			log.Printf("ingest: skipping %s: %v", key, err)
			continue
		}
		ingested++
	}
	return ingested, nil
}

func (s *IngestService) ingestOne(ctx context.Context, key string) error {
	body, err := s.objects.FetchDocument(ctx, key)
	if err != nil {
		return err
	}

	doc := parseReferenceFile(key, string(body))
	if err := domain.ValidateReferenceDoc(doc); err != nil {
		return err
	}

	if err := s.store.Upsert(ctx, doc); err != nil {
		return err
	}
	return s.lifecycle.ReferenceUpserted(ctx, doc)
}

func parseReferenceFile(key, content string) *domain.ReferenceDoc {
	id := strings.TrimSuffix(path.Base(key), path.Ext(key))

	content = strings.TrimSpace(content)
	title := content
	body := ""
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		title = strings.TrimSpace(content[:idx])
		body = strings.TrimSpace(content[idx+1:])
	}

	return &domain.ReferenceDoc{ID: id, Title: title, Body: body}
}
