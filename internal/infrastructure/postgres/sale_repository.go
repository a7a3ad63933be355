package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/retailgrid/fbr-sync/internal/domain/entity"
	"github.com/retailgrid/fbr-sync/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo is the compliance core's adapter over the sales tables. Reads
// return the full sale; writes touch only the fbr_* columns the core owns.
// Usable with pool or tx (Querier).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository builds the adapter. Pass a pool or a tx.
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// GetByID loads a sale with its line items, scoped to the tenant.
func (r *SaleRepo) GetByID(ctx context.Context, tenantID, saleID string) (*entity.Sale, error) {
	query := `
		SELECT id, tenant_id, invoice_number, sale_date,
		       gross_amount, tax_amount, discount_amount, grand_total,
		       COALESCE(customer_name, ''), COALESCE(customer_ntn, ''),
		       COALESCE(customer_province, ''), COALESCE(customer_address, ''),
		       customer_is_registered,
		       fbr_status, COALESCE(fbr_invoice_number, ''), COALESCE(fbr_dated, ''), COALESCE(fbr_error, ''),
		       created_at, updated_at
		FROM sales WHERE id = $1 AND tenant_id = $2`
	var s entity.Sale
	err := r.q.QueryRow(ctx, query, saleID, tenantID).Scan(
		&s.ID, &s.TenantID, &s.InvoiceNumber, &s.SaleDate,
		&s.GrossAmount, &s.TaxAmount, &s.DiscountAmount, &s.GrandTotal,
		&s.CustomerName, &s.CustomerNTN,
		&s.CustomerProvince, &s.CustomerAddress,
		&s.CustomerIsRegistered,
		&s.FBRStatus, &s.FBRInvoiceNumber, &s.FBRDated, &s.FBRError,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	items, err := r.getItems(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Items = items
	return &s, nil
}

func (r *SaleRepo) getItems(ctx context.Context, saleID string) ([]entity.SaleItem, error) {
	query := `
		SELECT id, sale_id, description, COALESCE(hs_code, ''), COALESCE(unit_of_measure, ''),
		       tax_category, quantity, unit_price, retail_price, discount
		FROM sale_items WHERE sale_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}
	defer rows.Close()

	var items []entity.SaleItem
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(
			&it.ID, &it.SaleID, &it.Description, &it.HSCode, &it.UnitOfMeasure,
			&it.TaxCategory, &it.Quantity, &it.UnitPrice, &it.RetailPrice, &it.Discount,
		); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale items: %w", err)
	}
	return items, nil
}

// UpdateFBRStatus writes the FBR synchronization fields and nothing else.
// The sales subsystem owns every other column.
func (r *SaleRepo) UpdateFBRStatus(ctx context.Context, sale *entity.Sale) error {
	query := `
		UPDATE sales
		SET fbr_status         = $3,
		    fbr_invoice_number = COALESCE($4, fbr_invoice_number),
		    fbr_dated          = COALESCE($5, fbr_dated),
		    fbr_error          = $6,
		    updated_at         = $7
		WHERE id = $1 AND tenant_id = $2`
	cmd, err := r.q.Exec(ctx, query,
		sale.ID, sale.TenantID, sale.FBRStatus,
		nullIfEmpty(sale.FBRInvoiceNumber), nullIfEmpty(sale.FBRDated),
		nullIfEmpty(sale.FBRError), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update sale fbr status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update sale fbr status: sale %s not found", sale.ID)
	}
	return nil
}
