package entity

import "time"

// Tenant is the registration profile of one business on the platform.
// NTN, business name, province and address go verbatim into the seller
// section of every invoice submitted to the FBR.
type Tenant struct {
	ID           string
	BusinessName string
	NTN          string // National Tax Number (or CNIC for sole proprietors)
	Province     string
	Address      string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
