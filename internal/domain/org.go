package domain

import (
	"fmt"
	"time"
)

// Organization is a responding organization profile. The record itself is
// owned by the surrounding platform; the index must reflect exactly the set
// of organizations with Active = true.
type Organization struct {
	ID          string
	Name        string
	Description string
	Categories  []string
	Address     Address
	Location    *GeoPoint
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Address is the hierarchical human-readable location shared by organizations
// and issue reports.
type Address struct {
	Area     string
	City     string
	District string
	State    string
	Pincode  string
}

// GeoPoint is a lat/long coordinate pair.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// ValidateOrganization validates an Organization instance
func ValidateOrganization(o *Organization) error {
	if o == nil {
		return fmt.Errorf("organization cannot be nil")
	}
	if o.ID == "" {
		return NewDomainError(ErrCodeValidation, "organization ID is required")
	}
	if o.Name == "" && o.Description == "" && len(o.Categories) == 0 {
		return NewDomainErrorWithCause(ErrCodeValidation,
			"organization needs at least one descriptive field", ErrInvalidRecord)
	}
	return nil
}
