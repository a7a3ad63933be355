package repository

import (
	"context"

	"github.com/retailgrid/fbr-sync/internal/domain/entity"
)

// SaleRepository is the compliance core's view of the sales subsystem's data.
// Reads return the full sale with its items; writes are restricted to the
// fbr_* columns.
type SaleRepository interface {
	// GetByID returns the sale with its line items, or (nil, nil) when absent.
	GetByID(ctx context.Context, tenantID, saleID string) (*entity.Sale, error)

	// UpdateFBRStatus writes only the FBR synchronization fields of the sale.
	// Status must be one of entity.FBRStatus*.
	UpdateFBRStatus(ctx context.Context, sale *entity.Sale) error
}
