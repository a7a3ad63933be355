package entity

import "time"

// TenantFBRConfig holds one tenant's FBR credentials and environment choice.
// At most one active config exists per tenant. BearerToken is stored
// encrypted (secretbox, base64); only the Authority client ever sees the
// plaintext.
type TenantFBRConfig struct {
	ID          string
	TenantID    string
	BearerToken string // encrypted at rest
	SandboxMode bool
	IsActive    bool
	LastSyncAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
