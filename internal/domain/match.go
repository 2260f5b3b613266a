package domain

// MatchResult is the outcome of one matching invocation. It is ephemeral:
// persistence is the assignment write against the issue report, not this value.
type MatchResult struct {
	IssueID        string
	OrganizationID string
	Score          float64
	Rank           int
}

// RetrievalHit is a single search result surfaced to callers, carrying enough
// provenance (id, type, score, snippet, metadata) that no caller has to
// re-derive where an answer came from.
type RetrievalHit struct {
	EntryID  string
	Type     EntryType
	Score    float64
	Snippet  string
	Metadata map[string]any
}
