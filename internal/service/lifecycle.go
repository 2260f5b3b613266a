package service

import (
	"context"

	"github.com/civic-pulse/pulsecore/internal/domain"
)

// DocumentIndexer is the slice of the index service the lifecycle needs.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id string) error
}

// LifecycleService translates collaborator lifecycle events into index
// writes. Handlers are idempotent, so at-least-once event delivery is safe:
// a duplicate create lands on the same entry id, a duplicate delete is a
// no-op.
type LifecycleService struct {
	index DocumentIndexer
}

func NewLifecycleService(index DocumentIndexer) *LifecycleService {
	return &LifecycleService{index: index}
}

// OrganizationCreated indexes a newly created organization. Inactive
// organizations are never indexed.
func (s *LifecycleService) OrganizationCreated(ctx context.Context, org *domain.Organization) error {
	if !org.Active {
		return nil
	}
	doc, err := NormalizeOrganization(org)
	if err != nil {
		return err
	}
	return s.index.IndexDocument(ctx, doc)
}

// OrganizationUpdated re-indexes the organization; a flip to inactive removes
// the entry even though the source record persists.
func (s *LifecycleService) OrganizationUpdated(ctx context.Context, org *domain.Organization) error {
	if !org.Active {
		return s.index.Delete(ctx, domain.EntryID(domain.EntryTypeOrganization, org.ID))
	}
	doc, err := NormalizeOrganization(org)
	if err != nil {
		return err
	}
	return s.index.IndexDocument(ctx, doc)
}

// OrganizationDeactivated removes the organization from the index.
func (s *LifecycleService) OrganizationDeactivated(ctx context.Context, orgID string) error {
	return s.index.Delete(ctx, domain.EntryID(domain.EntryTypeOrganization, orgID))
}

// IssueVerified indexes a report once the external verifier accepts it, so
// the assistant can retrieve it alongside organizations and references.
func (s *LifecycleService) IssueVerified(ctx context.Context, issue *domain.IssueReport) error {
	doc, err := NormalizeIssue(issue)
	if err != nil {
		return err
	}
	return s.index.IndexDocument(ctx, doc)
}

// IssueResolved removes a resolved report from the index.
func (s *LifecycleService) IssueResolved(ctx context.Context, issueID string) error {
	return s.index.Delete(ctx, domain.EntryID(domain.EntryTypeIssue, issueID))
}

// ReferenceUpserted indexes a static reference document.
func (s *LifecycleService) ReferenceUpserted(ctx context.Context, doc *domain.ReferenceDoc) error {
	normalized, err := NormalizeReference(doc)
	if err != nil {
		return err
	}
	return s.index.IndexDocument(ctx, normalized)
}

// ReferenceDeleted removes a reference document from the index.
func (s *LifecycleService) ReferenceDeleted(ctx context.Context, docID string) error {
	return s.index.Delete(ctx, domain.EntryID(domain.EntryTypeReference, docID))
}
