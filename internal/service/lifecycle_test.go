package service

import (
	"context"
	"testing"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLifecycleOrganizationCreatedIndexesActive(t *testing.T) {
	index := new(MockDocumentIndexer)
	svc := NewLifecycleService(index)

	index.On("IndexDocument", mock.Anything, mock.MatchedBy(func(doc *Document) bool {
		return doc.ID == "organization:org-1"
	})).Return(nil)

	err := svc.OrganizationCreated(context.Background(), &domain.Organization{
		ID: "org-1", Name: "Waterworks", Active: true,
	})
	require.NoError(t, err)
	index.AssertExpectations(t)
}

func TestLifecycleOrganizationCreatedSkipsInactive(t *testing.T) {
	index := new(MockDocumentIndexer)
	svc := NewLifecycleService(index)

	err := svc.OrganizationCreated(context.Background(), &domain.Organization{
		ID: "org-1", Name: "Waterworks", Active: false,
	})
	require.NoError(t, err)
	index.AssertNotCalled(t, "IndexDocument", mock.Anything, mock.Anything)
}

func TestLifecycleOrganizationUpdatedInactiveRemovesEntry(t *testing.T) {
	index := new(MockDocumentIndexer)
	svc := NewLifecycleService(index)

	index.On("Delete", mock.Anything, "organization:org-1").Return(nil)

	err := svc.OrganizationUpdated(context.Background(), &domain.Organization{
		ID: "org-1", Name: "Waterworks", Active: false,
	})
	require.NoError(t, err)
	index.AssertExpectations(t)
	index.AssertNotCalled(t, "IndexDocument", mock.Anything, mock.Anything)
}

func TestLifecycleOrganizationDeactivated(t *testing.T) {
	index := new(MockDocumentIndexer)
	svc := NewLifecycleService(index)

	index.On("Delete", mock.Anything, "organization:org-9").Return(nil)
	require.NoError(t, svc.OrganizationDeactivated(context.Background(), "org-9"))
	index.AssertExpectations(t)
}

func TestLifecycleIssueVerifiedIndexesReport(t *testing.T) {
	index := new(MockDocumentIndexer)
	svc := NewLifecycleService(index)

	index.On("IndexDocument", mock.Anything, mock.MatchedBy(func(doc *Document) bool {
		return doc.ID == "issue:issue-1" && doc.Type == domain.EntryTypeIssue
	})).Return(nil)

	err := svc.IssueVerified(context.Background(), &domain.IssueReport{
		ID: "issue-1", Description: "Pothole", Severity: 4, Status: domain.IssueStatusVerified,
	})
	require.NoError(t, err)
	index.AssertExpectations(t)
}

func TestLifecycleIssueVerifiedRejectsInvalidReport(t *testing.T) {
	index := new(MockDocumentIndexer)
	svc := NewLifecycleService(index)

	err := svc.IssueVerified(context.Background(), &domain.IssueReport{
		ID: "issue-2", Status: domain.IssueStatusVerified,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)
	index.AssertNotCalled(t, "IndexDocument", mock.Anything, mock.Anything)
}

func TestLifecycleIssueResolvedRemovesEntry(t *testing.T) {
	index := new(MockDocumentIndexer)
	svc := NewLifecycleService(index)

	index.On("Delete", mock.Anything, "issue:issue-1").Return(nil)
	require.NoError(t, svc.IssueResolved(context.Background(), "issue-1"))
	index.AssertExpectations(t)
}

func TestLifecycleReferenceUpsertedAndDeleted(t *testing.T) {
	index := new(MockDocumentIndexer)
	svc := NewLifecycleService(index)

	index.On("IndexDocument", mock.Anything, mock.MatchedBy(func(doc *Document) bool {
		return doc.ID == "reference:faq-1"
	})).Return(nil)
	index.On("Delete", mock.Anything, "reference:faq-1").Return(nil)

	require.NoError(t, svc.ReferenceUpserted(context.Background(), &domain.ReferenceDoc{
		ID: "faq-1", Title: "FAQ",
	}))
	require.NoError(t, svc.ReferenceDeleted(context.Background(), "faq-1"))
	index.AssertExpectations(t)
}
