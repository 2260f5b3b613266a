package domain

import (
	"fmt"
	"time"
)

// ReferenceDoc is a static reference document (FAQ, site information, policy
// text) indexed alongside organizations and issues for the assistant.
type ReferenceDoc struct {
	ID        string
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateReferenceDoc validates a ReferenceDoc instance
func ValidateReferenceDoc(d *ReferenceDoc) error {
	if d == nil {
		return fmt.Errorf("reference doc cannot be nil")
	}
	if d.ID == "" {
		return NewDomainError(ErrCodeValidation, "reference doc ID is required")
	}
	if d.Title == "" && d.Body == "" {
		return NewDomainErrorWithCause(ErrCodeValidation,
			"reference doc needs a title or body", ErrInvalidRecord)
	}
	return nil
}
