package fbr

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/retailgrid/fbr-sync/internal/domain"
	"github.com/retailgrid/fbr-sync/internal/domain/entity"
)

// Placeholder buyer for cash sales with no attached customer. A deliberate
// business rule of the protocol, not missing data.
const (
	walkInBuyerName = "Walk-in Customer"
	walkInBuyerNTN  = "0000000000000"

	registrationTypeRegistered   = "Registered"
	registrationTypeUnregistered = "Unregistered"

	invoiceTypeSale = "Sale Invoice"
)

// reconciliationTolerance allows for per-line rounding drift between the
// built document and the totals the POS recorded on the sale.
var reconciliationTolerance = decimal.NewFromFloat(0.01)

// Builder turns a sale plus its tenant's registration profile into an
// Authority-compliant invoice document. Pure: no I/O, deterministic, so
// building the same sale twice yields identical documents.
type Builder struct{}

// NewBuilder constructs the invoice builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build produces the invoice document or a non-retryable error when the
// tenant profile or a line item is incomplete. Callers must fix the data;
// resubmitting unchanged input cannot succeed.
func (b *Builder) Build(tenant *entity.Tenant, sale *entity.Sale) (*InvoiceDocument, error) {
	if tenant == nil || sale == nil {
		return nil, fmt.Errorf("builder: nil tenant or sale: %w", domain.ErrInvalidInput)
	}
	if tenant.NTN == "" {
		return nil, fmt.Errorf("builder: tenant %s has no NTN: %w", tenant.ID, domain.ErrInvalidInput)
	}
	if tenant.BusinessName == "" || tenant.Province == "" {
		return nil, fmt.Errorf("builder: tenant %s registration profile incomplete: %w", tenant.ID, domain.ErrInvalidInput)
	}
	if len(sale.Items) == 0 {
		return nil, fmt.Errorf("builder: sale %s has no items: %w", sale.ID, domain.ErrInvalidInput)
	}

	doc := &InvoiceDocument{
		InvoiceType:        invoiceTypeSale,
		InvoiceDate:        sale.SaleDate.Format("2006-01-02"),
		SellerNTNCNIC:      tenant.NTN,
		SellerBusinessName: tenant.BusinessName,
		SellerProvince:     tenant.Province,
		SellerAddress:      tenant.Address,
		InvoiceRefNo:       invoiceRef(sale),
		Items:              make([]InvoiceItem, 0, len(sale.Items)),
	}
	b.fillBuyer(doc, sale)

	var docTotal decimal.Decimal
	for i := range sale.Items {
		line, lineTotal, err := b.buildItem(sale, &sale.Items[i])
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, line)
		docTotal = docTotal.Add(lineTotal)
	}

	// The document must reconcile with what the POS charged the customer.
	if sale.GrandTotal.IsPositive() {
		if docTotal.Sub(sale.GrandTotal).Abs().GreaterThan(reconciliationTolerance) {
			return nil, fmt.Errorf("builder: sale %s totals do not reconcile (document %s vs sale %s): %w",
				sale.ID, docTotal.StringFixed(2), sale.GrandTotal.StringFixed(2), domain.ErrInvalidInput)
		}
	}

	return doc, nil
}

func (b *Builder) fillBuyer(doc *InvoiceDocument, sale *entity.Sale) {
	if sale.CustomerName == "" {
		doc.BuyerBusinessName = walkInBuyerName
		doc.BuyerNTNCNIC = walkInBuyerNTN
		doc.BuyerRegistrationType = registrationTypeUnregistered
		doc.BuyerProvince = doc.SellerProvince
		return
	}
	doc.BuyerBusinessName = sale.CustomerName
	doc.BuyerNTNCNIC = sale.CustomerNTN
	doc.BuyerProvince = sale.CustomerProvince
	doc.BuyerAddress = sale.CustomerAddress
	if sale.CustomerIsRegistered {
		doc.BuyerRegistrationType = registrationTypeRegistered
	} else {
		doc.BuyerRegistrationType = registrationTypeUnregistered
		if doc.BuyerNTNCNIC == "" {
			doc.BuyerNTNCNIC = walkInBuyerNTN
		}
	}
}

// buildItem applies the calculation rule for the item's tax category and
// returns the wire line plus its exact decimal total for reconciliation.
func (b *Builder) buildItem(sale *entity.Sale, item *entity.SaleItem) (InvoiceItem, decimal.Decimal, error) {
	if item.HSCode == "" {
		return InvoiceItem{}, decimal.Zero, fmt.Errorf("builder: sale %s item %q has no HS code: %w",
			sale.ID, item.Description, domain.ErrInvalidInput)
	}
	rule, ok := LookupTaxRule(item.TaxCategory)
	if !ok {
		return InvoiceItem{}, decimal.Zero, fmt.Errorf("builder: sale %s item %q has unknown tax category %q: %w",
			sale.ID, item.Description, item.TaxCategory, domain.ErrInvalidInput)
	}

	hundred := decimal.NewFromInt(100)
	var valueExcl, notified, tax, total decimal.Decimal

	switch rule.Mode {
	case CalcRetailPrice:
		// 3rd-schedule goods: tax is levied on the notified retail price,
		// not the transaction value. valueSalesExcludingST stays zero.
		if !item.RetailPrice.IsPositive() {
			return InvoiceItem{}, decimal.Zero, fmt.Errorf("builder: sale %s item %q is 3rd-schedule but has no retail price: %w",
				sale.ID, item.Description, domain.ErrInvalidInput)
		}
		notified = item.RetailPrice.Mul(item.Quantity)
		tax = notified.Mul(rule.Rate).Div(hundred)
		total = notified.Add(tax)
	default:
		// Discount reduces the tax base, keeping the item invariant
		// totalValues == valueSalesExcludingST + salesTaxApplicable intact.
		valueExcl = item.UnitPrice.Mul(item.Quantity).Sub(item.Discount)
		if valueExcl.IsNegative() {
			return InvoiceItem{}, decimal.Zero, fmt.Errorf("builder: sale %s item %q discount exceeds line value: %w",
				sale.ID, item.Description, domain.ErrInvalidInput)
		}
		tax = valueExcl.Mul(rule.Rate).Div(hundred)
		total = valueExcl.Add(tax)
	}

	line := InvoiceItem{
		HSCode:                item.HSCode,
		ProductDescription:    item.Description,
		Rate:                  rule.RateLabel(),
		UoM:                   uomOrDefault(item.UnitOfMeasure),
		Quantity:              item.Quantity.InexactFloat64(),
		TotalValues:           round2(total),
		ValueSalesExcludingST: round2(valueExcl),
		FixedNotifiedValue:    round2(notified),
		SalesTaxApplicable:    round2(tax),
		Discount:              round2(item.Discount),
		SaleType:              rule.SaleType,
	}
	return line, total, nil
}

// invoiceRef derives a stable, sale-scoped reference so the Authority can
// deduplicate if an ambiguous timeout makes us submit the same sale twice.
func invoiceRef(sale *entity.Sale) string {
	if sale.InvoiceNumber != "" {
		return sale.InvoiceNumber
	}
	return sale.ID
}

func uomOrDefault(uom string) string {
	if uom == "" {
		return "Numbers, pieces, units"
	}
	return uom
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
