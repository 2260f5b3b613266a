package service

import (
	"testing"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOrganization(t *testing.T) {
	org := &domain.Organization{
		ID:          "org-1",
		Name:        "City Waterworks",
		Description: "Maintains municipal water supply lines",
		Categories:  []string{"water", "infrastructure"},
		Address: domain.Address{
			Area:    "Sector 12",
			City:    "Pune",
			State:   "Maharashtra",
			Pincode: "411001",
		},
		Active: true,
	}

	doc, err := NormalizeOrganization(org)
	require.NoError(t, err)

	assert.Equal(t, "organization:org-1", doc.ID)
	assert.Equal(t, domain.EntryTypeOrganization, doc.Type)
	assert.Equal(t, "org-1", doc.SourceID)
	assert.Equal(t,
		"Organization: City Waterworks | Description: Maintains municipal water supply lines | "+
			"Categories: water, infrastructure | Location: Sector 12, Pune, Maharashtra, 411001",
		doc.Text)
	assert.Equal(t, "Pune", doc.Metadata["city"])
	assert.Equal(t, "411001", doc.Metadata["pincode"])
}

func TestNormalizeOrganizationDeterministic(t *testing.T) {
	org := &domain.Organization{
		ID:         "org-2",
		Name:       "Road Crew",
		Categories: []string{"roads"},
		Active:     true,
	}

	first, err := NormalizeOrganization(org)
	require.NoError(t, err)
	second, err := NormalizeOrganization(org)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.ID, second.ID)
}

func TestNormalizeOrganizationSkipsEmptyFields(t *testing.T) {
	org := &domain.Organization{ID: "org-3", Name: "Helpers", Active: true}

	doc, err := NormalizeOrganization(org)
	require.NoError(t, err)

	assert.Equal(t, "Organization: Helpers", doc.Text)
	assert.NotContains(t, doc.Text, "Description:")
	assert.NotContains(t, doc.Text, "Location:")
}

func TestNormalizeOrganizationRejectsEmptyRecord(t *testing.T) {
	_, err := NormalizeOrganization(&domain.Organization{ID: "org-4", Active: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)
}

func TestNormalizeIssue(t *testing.T) {
	issue := &domain.IssueReport{
		ID:          "issue-1",
		Description: "Burst water pipe flooding the street",
		Categories:  []string{"water"},
		Address:     domain.Address{City: "Pune", State: "Maharashtra"},
		Severity:    8.5,
		Status:      domain.IssueStatusVerified,
	}

	doc, err := NormalizeIssue(issue)
	require.NoError(t, err)

	assert.Equal(t, "issue:issue-1", doc.ID)
	assert.Equal(t,
		"Issue: Burst water pipe flooding the street | Categories: water | "+
			"Location: Pune, Maharashtra | Severity: 8.5/10",
		doc.Text)
	assert.Equal(t, 8.5, doc.Metadata["severity"])
	assert.Equal(t, "verified", doc.Metadata["status"])
}

func TestNormalizeIssueOmitsZeroSeverity(t *testing.T) {
	issue := &domain.IssueReport{
		ID:          "issue-2",
		Description: "Streetlight out",
		Status:      domain.IssueStatusVerified,
	}

	doc, err := NormalizeIssue(issue)
	require.NoError(t, err)

	assert.NotContains(t, doc.Text, "Severity:")
}

func TestNormalizeIssueRejectsInvalidSeverity(t *testing.T) {
	issue := &domain.IssueReport{
		ID:          "issue-3",
		Description: "Pothole",
		Severity:    11,
		Status:      domain.IssueStatusVerified,
	}

	_, err := NormalizeIssue(issue)
	assert.ErrorIs(t, err, domain.ErrInvalidSeverity)
}

func TestNormalizeReference(t *testing.T) {
	doc, err := NormalizeReference(&domain.ReferenceDoc{
		ID:    "faq-1",
		Title: "How verification works",
		Body:  "Reports are reviewed before matching.",
	})
	require.NoError(t, err)

	assert.Equal(t, "reference:faq-1", doc.ID)
	assert.Equal(t, "How verification works | Reports are reviewed before matching.", doc.Text)
	assert.Equal(t, "How verification works", doc.Metadata["title"])
}

func TestDocumentEntryStampsRequiredMetadata(t *testing.T) {
	doc := &Document{
		ID:       "reference:faq-2",
		Type:     domain.EntryTypeReference,
		SourceID: "faq-2",
		Text:     "Office hours",
		Metadata: map[string]any{"title": "Office hours"},
	}

	entry := doc.Entry([]float32{0.1, 0.2}, "text-embedding-3-small")

	assert.Equal(t, "reference", entry.Metadata[domain.MetaKeyType])
	assert.Equal(t, "faq-2", entry.Metadata[domain.MetaKeySourceID])
	assert.Equal(t, "text-embedding-3-small", entry.Metadata[domain.MetaKeyEmbeddingModel])
	assert.Equal(t, "text-embedding-3-small", entry.ModelID)
	assert.NoError(t, domain.ValidateEntry(entry))
}
