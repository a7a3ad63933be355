package dto

import "time"

// UpsertFBRConfigRequest body for PUT /api/fbr/config. The bearer token is
// write-only: it is encrypted before storage and never echoed back.
type UpsertFBRConfigRequest struct {
	BearerToken string `json:"bearer_token" validate:"required,min=16"`
	SandboxMode bool   `json:"sandbox_mode"`
}

// FBRConfigResponse config state without the credential material.
type FBRConfigResponse struct {
	TenantID    string     `json:"tenant_id"`
	SandboxMode bool       `json:"sandbox_mode"`
	IsActive    bool       `json:"is_active"`
	LastSyncAt  *time.Time `json:"last_sync_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
