package domain

import (
	"fmt"
	"time"
)

// IssueStatus represents the lifecycle state of an issue report.
type IssueStatus string

const (
	IssueStatusNotVerified IssueStatus = "not-verified"
	IssueStatusVerified    IssueStatus = "verified"
	IssueStatusAssigned    IssueStatus = "assigned"
	IssueStatusInProgress  IssueStatus = "in-progress"
	IssueStatusResolved    IssueStatus = "resolved"
)

// IssueReport is a citizen-reported civic issue. The core reads these fields
// and writes back the assignment decision; severity and the remaining status
// transitions belong to the surrounding platform.
type IssueReport struct {
	ID            string
	Description   string
	Categories    []string
	Address       Address
	Location      *GeoPoint
	Severity      float64 // [0.0, 10.0], set by the external verifier
	Status        IssueStatus
	AssignedOrgID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ValidateIssueReport validates an IssueReport instance
func ValidateIssueReport(i *IssueReport) error {
	if i == nil {
		return fmt.Errorf("issue report cannot be nil")
	}
	if i.ID == "" {
		return NewDomainError(ErrCodeValidation, "issue report ID is required")
	}
	if i.Description == "" && len(i.Categories) == 0 {
		return NewDomainErrorWithCause(ErrCodeValidation,
			"issue report needs a description or categories", ErrInvalidRecord)
	}
	if err := ValidateSeverity(i.Severity); err != nil {
		return err
	}
	if !isValidIssueStatus(i.Status) {
		return ErrInvalidIssueState
	}
	return nil
}

// ValidateSeverity checks the verifier-assigned severity range.
func ValidateSeverity(severity float64) error {
	if severity < 0.0 || severity > 10.0 {
		return ErrInvalidSeverity
	}
	return nil
}

func isValidIssueStatus(s IssueStatus) bool {
	switch s {
	case IssueStatusNotVerified, IssueStatusVerified, IssueStatusAssigned,
		IssueStatusInProgress, IssueStatusResolved:
		return true
	}
	return false
}
