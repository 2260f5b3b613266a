package service

import (
	"fmt"
	"strings"

	"github.com/civic-pulse/pulsecore/internal/domain"
)

// Document is a source record normalized into the canonical (id, text,
// metadata) triple, ready for embedding. Metadata carries only primitive
// values; the embedding model id is stamped in by Entry.
type Document struct {
	ID       string // "<type>:<source_id>"
	Type     domain.EntryType
	SourceID string
	Text     string
	Metadata map[string]any
}

// Entry turns a normalized document plus its embedding into an IndexedEntry.
func (d *Document) Entry(embedding []float32, modelID string) *domain.IndexedEntry {
	meta := make(map[string]any, len(d.Metadata)+3)
	for k, v := range d.Metadata {
		meta[k] = v
	}
	meta[domain.MetaKeyType] = string(d.Type)
	meta[domain.MetaKeySourceID] = d.SourceID
	meta[domain.MetaKeyEmbeddingModel] = modelID

	return &domain.IndexedEntry{
		ID:        d.ID,
		Type:      d.Type,
		SourceID:  d.SourceID,
		Content:   d.Text,
		Embedding: embedding,
		Metadata:  meta,
		ModelID:   modelID,
	}
}

// NormalizeOrganization builds the canonical text for an organization profile.
// Field order is fixed (name, description, categories, location) so the same
// record always normalizes to the same text.
func NormalizeOrganization(org *domain.Organization) (*Document, error) {
	if err := domain.ValidateOrganization(org); err != nil {
		return nil, err
	}

	var parts []string
	if org.Name != "" {
		parts = append(parts, fmt.Sprintf("Organization: %s", org.Name))
	}
	if org.Description != "" {
		parts = append(parts, fmt.Sprintf("Description: %s", org.Description))
	}
	if len(org.Categories) > 0 {
		parts = append(parts, fmt.Sprintf("Categories: %s", strings.Join(org.Categories, ", ")))
	}
	if loc := addressText(org.Address); loc != "" {
		parts = append(parts, fmt.Sprintf("Location: %s", loc))
	}

	meta := map[string]any{
		"city":  org.Address.City,
		"state": org.Address.State,
	}
	if org.Address.Pincode != "" {
		meta["pincode"] = org.Address.Pincode
	}

	return &Document{
		ID:       domain.EntryID(domain.EntryTypeOrganization, org.ID),
		Type:     domain.EntryTypeOrganization,
		SourceID: org.ID,
		Text:     strings.Join(parts, " | "),
		Metadata: meta,
	}, nil
}

// NormalizeIssue builds the canonical text for an issue report. Severity is
// included in the text when present so it informs similarity, mirroring how
// queries are built for matching.
func NormalizeIssue(issue *domain.IssueReport) (*Document, error) {
	if err := domain.ValidateIssueReport(issue); err != nil {
		return nil, err
	}

	return &Document{
		ID:       domain.EntryID(domain.EntryTypeIssue, issue.ID),
		Type:     domain.EntryTypeIssue,
		SourceID: issue.ID,
		Text:     issueText(issue.Description, issue.Categories, issue.Address, issue.Severity),
		Metadata: map[string]any{
			"severity": issue.Severity,
			"status":   string(issue.Status),
			"city":     issue.Address.City,
		},
	}, nil
}

// NormalizeReference builds the canonical text for a static reference document.
func NormalizeReference(doc *domain.ReferenceDoc) (*Document, error) {
	if err := domain.ValidateReferenceDoc(doc); err != nil {
		return nil, err
	}

	var parts []string
	if doc.Title != "" {
		parts = append(parts, doc.Title)
	}
	if doc.Body != "" {
		parts = append(parts, doc.Body)
	}

	return &Document{
		ID:       domain.EntryID(domain.EntryTypeReference, doc.ID),
		Type:     domain.EntryTypeReference,
		SourceID: doc.ID,
		Text:     strings.Join(parts, " | "),
		Metadata: map[string]any{
			"title": doc.Title,
		},
	}, nil
}

// issueText is shared between issue normalization and match query building so
// the write path and the query path describe issues identically.
func issueText(description string, categories []string, addr domain.Address, severity float64) string {
	parts := []string{fmt.Sprintf("Issue: %s", description)}
	if len(categories) > 0 {
		parts = append(parts, fmt.Sprintf("Categories: %s", strings.Join(categories, ", ")))
	}
	if loc := addressText(addr); loc != "" {
		parts = append(parts, fmt.Sprintf("Location: %s", loc))
	}
	if severity > 0 {
		parts = append(parts, fmt.Sprintf("Severity: %.1f/10", severity))
	}
	return strings.Join(parts, " | ")
}

func addressText(addr domain.Address) string {
	fields := []string{addr.Area, addr.City, addr.District, addr.State, addr.Pincode}
	var present []string
	for _, f := range fields {
		if f != "" {
			present = append(present, f)
		}
	}
	return strings.Join(present, ", ")
}
