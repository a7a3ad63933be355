package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/retailgrid/fbr-sync/internal/domain/entity"
	"github.com/retailgrid/fbr-sync/internal/domain/repository"
)

var _ repository.FBRConfigRepository = (*FBRConfigRepo)(nil)

// FBRConfigRepo persists per-tenant FBR credentials. One row per tenant
// (tenant_id unique), so "at most one active config" holds by construction.
type FBRConfigRepo struct {
	q Querier
}

// NewFBRConfigRepository builds the adapter.
func NewFBRConfigRepository(q Querier) *FBRConfigRepo {
	return &FBRConfigRepo{q: q}
}

// GetActiveByTenant returns the tenant's active config, or (nil, nil).
func (r *FBRConfigRepo) GetActiveByTenant(ctx context.Context, tenantID string) (*entity.TenantFBRConfig, error) {
	query := `
		SELECT id, tenant_id, bearer_token, sandbox_mode, is_active, last_sync_at, created_at, updated_at
		FROM tenant_fbr_configs
		WHERE tenant_id = $1 AND is_active = TRUE`
	var cfg entity.TenantFBRConfig
	err := r.q.QueryRow(ctx, query, tenantID).Scan(
		&cfg.ID, &cfg.TenantID, &cfg.BearerToken, &cfg.SandboxMode,
		&cfg.IsActive, &cfg.LastSyncAt, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fbr config: %w", err)
	}
	return &cfg, nil
}

// Upsert stores cfg as the tenant's config. The ON CONFLICT path replaces the
// previous credentials in one atomic statement, preserving last_sync_at.
func (r *FBRConfigRepo) Upsert(ctx context.Context, cfg *entity.TenantFBRConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	now := time.Now()
	query := `
		INSERT INTO tenant_fbr_configs (id, tenant_id, bearer_token, sandbox_mode, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (tenant_id) DO UPDATE
		SET bearer_token = EXCLUDED.bearer_token,
		    sandbox_mode = EXCLUDED.sandbox_mode,
		    is_active    = EXCLUDED.is_active,
		    updated_at   = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		cfg.ID, cfg.TenantID, cfg.BearerToken, cfg.SandboxMode, cfg.IsActive, now,
	)
	if err != nil {
		return fmt.Errorf("upsert fbr config: %w", err)
	}
	return nil
}

// TouchLastSync records the latest accepted submission. Idempotent overwrite.
func (r *FBRConfigRepo) TouchLastSync(ctx context.Context, tenantID string, at time.Time) error {
	query := `
		UPDATE tenant_fbr_configs
		SET last_sync_at = $2, updated_at = $2
		WHERE tenant_id = $1 AND is_active = TRUE`
	if _, err := r.q.Exec(ctx, query, tenantID, at); err != nil {
		return fmt.Errorf("touch last sync: %w", err)
	}
	return nil
}
