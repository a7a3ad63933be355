package repository

import (
	"context"
	"time"

	"github.com/retailgrid/fbr-sync/internal/domain/entity"
)

// FBRConfigRepository persists per-tenant FBR credentials and environment.
type FBRConfigRepository interface {
	// GetActiveByTenant returns the tenant's single active config,
	// or (nil, nil) when the tenant has none.
	GetActiveByTenant(ctx context.Context, tenantID string) (*entity.TenantFBRConfig, error)

	// Upsert stores cfg as the tenant's active config, deactivating any
	// previous one in the same statement so the one-active invariant holds.
	Upsert(ctx context.Context, cfg *entity.TenantFBRConfig) error

	// TouchLastSync records the moment of the latest accepted submission.
	// Idempotent overwrite; called only on success.
	TouchLastSync(ctx context.Context, tenantID string, at time.Time) error
}
