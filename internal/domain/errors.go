package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnavailable      = "UNAVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	// ErrInvalidRecord is returned by the normalizer when a source record is
	// missing its id or every descriptive field.
	ErrInvalidRecord = NewDomainError(ErrCodeValidation, "record is missing required fields")
	// ErrInvalidMetadata is returned by the index when entry metadata contains
	// a non-primitive value or lacks a required key. Rejected before any write.
	ErrInvalidMetadata   = NewDomainError(ErrCodeValidation, "entry metadata must be flat primitive values")
	ErrInvalidSeverity   = NewDomainError(ErrCodeValidation, "severity must be in [0.0, 10.0]")
	ErrInvalidIssueState = NewDomainError(ErrCodeValidation, "invalid issue report status")
)

// Not found errors
var (
	ErrOrganizationNotFound = NewDomainError(ErrCodeNotFound, "organization not found")
	ErrIssueNotFound        = NewDomainError(ErrCodeNotFound, "issue report not found")
	ErrReferenceNotFound    = NewDomainError(ErrCodeNotFound, "reference document not found")
)

// Unavailable errors. Both are retryable: the triggering operation fails
// without mutating the index, and a later attempt may succeed.
var (
	ErrModelUnavailable      = NewDomainError(ErrCodeUnavailable, "embedding model unavailable")
	ErrGenerationUnavailable = NewDomainError(ErrCodeUnavailable, "text generation unavailable")
)

// Operation errors
var (
	ErrIssueNotVerified     = NewDomainError(ErrCodeInvalidOperation, "issue report is not verified")
	ErrIssueAlreadyAssigned = NewDomainError(ErrCodeInvalidOperation, "issue report is already assigned")
	ErrOrganizationInactive = NewDomainError(ErrCodeInvalidOperation, "organization is not active")
)
