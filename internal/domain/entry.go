package domain

import (
	"fmt"
	"strings"
	"time"
)

// EntryType discriminates the heterogeneous records stored in the shared index.
type EntryType string

const (
	EntryTypeOrganization EntryType = "organization"
	EntryTypeIssue        EntryType = "issue"
	EntryTypeReference    EntryType = "reference"
)

// Required metadata keys for every indexed entry.
const (
	MetaKeyType           = "type"
	MetaKeySourceID       = "source_id"
	MetaKeyEmbeddingModel = "embedding_model_id"
)

// IndexedEntry is the unit stored in the vector index. For a given ID at most
// one live entry exists; replace is an atomic upsert, never an append.
type IndexedEntry struct {
	ID        string // "<type>:<source_id>"
	Type      EntryType
	SourceID  string
	Content   string // normalized text, source of snippets
	Embedding []float32
	Metadata  map[string]any // primitive values only
	ModelID   string         // embedding model that produced Embedding
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntryID builds the canonical "<type>:<source_id>" identifier.
func EntryID(t EntryType, sourceID string) string {
	return string(t) + ":" + sourceID
}

// SplitEntryID splits a canonical entry id into its type and source id.
func SplitEntryID(id string) (EntryType, string, error) {
	prefix, sourceID, ok := strings.Cut(id, ":")
	if !ok || prefix == "" || sourceID == "" {
		return "", "", NewDomainError(ErrCodeValidation, fmt.Sprintf("malformed entry id %q", id))
	}
	t := EntryType(prefix)
	if !isValidEntryType(t) {
		return "", "", NewDomainError(ErrCodeValidation, fmt.Sprintf("unknown entry type %q", prefix))
	}
	return t, sourceID, nil
}

func isValidEntryType(t EntryType) bool {
	switch t {
	case EntryTypeOrganization, EntryTypeIssue, EntryTypeReference:
		return true
	}
	return false
}

// ValidateEntry validates an IndexedEntry before it reaches the store.
// Metadata violations are rejected here so a bad entry never partially writes.
func ValidateEntry(e *IndexedEntry) error {
	if e == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	if e.ID == "" {
		return NewDomainError(ErrCodeValidation, "entry ID is required")
	}
	if !isValidEntryType(e.Type) {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("entry type is invalid: %s", e.Type))
	}
	if e.ID != EntryID(e.Type, e.SourceID) {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("entry ID %q does not match type and source id", e.ID))
	}
	if len(e.Embedding) == 0 {
		return NewDomainError(ErrCodeValidation, "entry embedding is required")
	}
	if e.ModelID == "" {
		return NewDomainError(ErrCodeValidation, "entry embedding model id is required")
	}
	return ValidateMetadata(e.Metadata)
}

// ValidateMetadata enforces the flat-primitive metadata contract: string,
// numeric, and boolean values only, plus the required identification keys.
func ValidateMetadata(meta map[string]any) error {
	if meta == nil {
		return ErrInvalidMetadata
	}
	for _, key := range []string{MetaKeyType, MetaKeySourceID, MetaKeyEmbeddingModel} {
		v, ok := meta[key]
		if !ok {
			return NewDomainErrorWithCause(ErrCodeValidation,
				fmt.Sprintf("metadata key %q is required", key), ErrInvalidMetadata)
		}
		if s, ok := v.(string); !ok || s == "" {
			return NewDomainErrorWithCause(ErrCodeValidation,
				fmt.Sprintf("metadata key %q must be a non-empty string", key), ErrInvalidMetadata)
		}
	}
	for key, v := range meta {
		if !isPrimitiveMetaValue(v) {
			return NewDomainErrorWithCause(ErrCodeValidation,
				fmt.Sprintf("metadata key %q has a non-primitive value", key), ErrInvalidMetadata)
		}
	}
	return nil
}

func isPrimitiveMetaValue(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int32, int64,
		float32, float64:
		return true
	}
	return false
}
