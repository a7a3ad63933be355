package repository

import (
	"context"

	"github.com/retailgrid/fbr-sync/internal/domain/entity"
)

// TenantRepository reads tenant registration profiles.
type TenantRepository interface {
	// GetByID returns the tenant profile, or (nil, nil) when absent.
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
}
