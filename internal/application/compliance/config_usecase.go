package compliance

import (
	"context"
	"fmt"

	"github.com/retailgrid/fbr-sync/internal/application/dto"
	"github.com/retailgrid/fbr-sync/internal/domain"
	"github.com/retailgrid/fbr-sync/internal/domain/entity"
	"github.com/retailgrid/fbr-sync/internal/domain/repository"
	infrafbr "github.com/retailgrid/fbr-sync/internal/infrastructure/fbr"
	"github.com/retailgrid/fbr-sync/pkg/logger"
)

// ConfigUseCase manages per-tenant FBR credentials. It owns the encryption
// boundary: tokens are encrypted on the way into storage and decrypted only
// when handed to the Authority client.
type ConfigUseCase struct {
	configRepo repository.FBRConfigRepository
	cipher     TokenCipher
	log        *logger.Logger
}

var _ CredentialSource = (*ConfigUseCase)(nil)

// NewConfigUseCase wires the config use case.
func NewConfigUseCase(configRepo repository.FBRConfigRepository, cipher TokenCipher, log *logger.Logger) *ConfigUseCase {
	return &ConfigUseCase{
		configRepo: configRepo,
		cipher:     cipher,
		log:        log,
	}
}

// Upsert stores the tenant's bearer token (encrypted) and environment choice
// as its single active config.
func (uc *ConfigUseCase) Upsert(ctx context.Context, tenantID string, req *dto.UpsertFBRConfigRequest) (*dto.FBRConfigResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	encrypted, err := uc.cipher.Encrypt(req.BearerToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt bearer token: %w", err)
	}

	cfg := &entity.TenantFBRConfig{
		TenantID:    tenantID,
		BearerToken: encrypted,
		SandboxMode: req.SandboxMode,
		IsActive:    true,
	}
	if err := uc.configRepo.Upsert(ctx, cfg); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("tenant_id", tenantID).
		Bool("sandbox_mode", cfg.SandboxMode).
		Msg("FBR config updated")
	return toConfigResponse(cfg), nil
}

// Get returns the tenant's active config without the credential material, or
// domain.ErrNotFound when none exists.
func (uc *ConfigUseCase) Get(ctx context.Context, tenantID string) (*dto.FBRConfigResponse, error) {
	cfg, err := uc.configRepo.GetActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrNotFound
	}
	return toConfigResponse(cfg), nil
}

// CredentialsForTenant decrypts the tenant's stored token for use against the
// Authority. Returns domain.ErrNotConfigured when the tenant has no active
// config; a token that fails to decrypt is treated the same way, since the
// stored credential is unusable until the operator replaces it.
func (uc *ConfigUseCase) CredentialsForTenant(ctx context.Context, tenantID string) (infrafbr.Credentials, error) {
	cfg, err := uc.configRepo.GetActiveByTenant(ctx, tenantID)
	if err != nil {
		return infrafbr.Credentials{}, err
	}
	if cfg == nil {
		return infrafbr.Credentials{}, domain.ErrNotConfigured
	}

	token, err := uc.cipher.Decrypt(cfg.BearerToken)
	if err != nil {
		uc.log.Error().Str("tenant_id", tenantID).Err(err).Msg("stored FBR token failed to decrypt")
		return infrafbr.Credentials{}, fmt.Errorf("%w: stored token is unreadable", domain.ErrNotConfigured)
	}
	return infrafbr.Credentials{Token: token, Sandbox: cfg.SandboxMode}, nil
}

func toConfigResponse(cfg *entity.TenantFBRConfig) *dto.FBRConfigResponse {
	return &dto.FBRConfigResponse{
		TenantID:    cfg.TenantID,
		SandboxMode: cfg.SandboxMode,
		IsActive:    cfg.IsActive,
		LastSyncAt:  cfg.LastSyncAt,
		UpdatedAt:   cfg.UpdatedAt,
	}
}
