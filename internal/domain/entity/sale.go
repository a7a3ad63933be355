package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// FBR synchronization states of a sale. Transitions only move forward:
// pending -> synced, or pending -> failed. A synced sale never reverts.
const (
	FBRStatusPending = "pending"
	FBRStatusSynced  = "synced"
	FBRStatusFailed  = "failed"
)

// Sale is a finalized point-of-sale transaction. The sales subsystem owns the
// row; the compliance core only writes the FBR* fields.
type Sale struct {
	ID             string
	TenantID       string
	InvoiceNumber  string // unique per tenant and period
	SaleDate       time.Time
	GrossAmount    decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	GrandTotal     decimal.Decimal

	// Optional buyer. Empty means a walk-in cash sale; the invoice builder
	// substitutes the Authority's unregistered-buyer placeholder.
	CustomerName         string
	CustomerNTN          string
	CustomerProvince     string
	CustomerAddress      string
	CustomerIsRegistered bool

	FBRStatus        string
	FBRInvoiceNumber string // Authority-issued; stored verbatim
	FBRDated         string // Authority-issued timestamp string; stored verbatim
	FBRError         string

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []SaleItem
}

// SaleItem is one line of a sale, carrying everything the invoice builder
// needs: tax classification, HS code and unit of measure.
type SaleItem struct {
	ID            string
	SaleID        string
	Description   string
	HSCode        string
	UnitOfMeasure string
	TaxCategory   string // key into the tax category table
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	RetailPrice   decimal.Decimal // notified retail price; only meaningful for 3rd-schedule goods
	Discount      decimal.Decimal
}
