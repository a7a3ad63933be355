package fbr

import "github.com/shopspring/decimal"

// Tax category keys carried on sale items. They select the rate, the sale-type
// label the Authority expects, and which of the two calculation paths applies.
const (
	CategoryStandard      = "standard"
	CategoryReduced       = "reduced"
	CategorySteel         = "steel"
	CategoryThirdSchedule = "third_schedule"
	CategoryExempt        = "exempt"
	CategoryZeroRated     = "zero_rated"
)

// CalcMode selects the per-item calculation path. Mixing the paths up for the
// wrong category is a compliance defect, not just a bug: the Authority derives
// the tax base differently for 3rd-schedule (retail-price-notified) goods.
type CalcMode int

const (
	// CalcNormal taxes the transaction value: excl = price*qty, tax = excl*rate.
	CalcNormal CalcMode = iota
	// CalcRetailPrice taxes the notified retail price: excl = 0,
	// tax = retail*rate, total = retail + tax.
	CalcRetailPrice
)

// TaxRule is one row of the tax category table.
type TaxRule struct {
	Rate     decimal.Decimal // percentage, e.g. 18
	SaleType string          // label the Authority's schema expects verbatim
	Mode     CalcMode
}

// RateLabel renders the rate the way the item schema wants it ("18%").
func (r TaxRule) RateLabel() string {
	return r.Rate.String() + "%"
}

var taxTable = map[string]TaxRule{
	CategoryStandard:      {Rate: decimal.NewFromInt(18), SaleType: "Goods at standard rate (default)", Mode: CalcNormal},
	CategoryReduced:       {Rate: decimal.NewFromInt(1), SaleType: "Goods at Reduced Rate", Mode: CalcNormal},
	CategorySteel:         {Rate: decimal.NewFromInt(18), SaleType: "Steel melting and re-rolling", Mode: CalcNormal},
	CategoryThirdSchedule: {Rate: decimal.NewFromInt(18), SaleType: "3rd Schedule Goods", Mode: CalcRetailPrice},
	CategoryExempt:        {Rate: decimal.Zero, SaleType: "Exempt goods", Mode: CalcNormal},
	CategoryZeroRated:     {Rate: decimal.Zero, SaleType: "Goods at zero-rate", Mode: CalcNormal},
}

// LookupTaxRule returns the rule for a category key. The second return is
// false for unknown categories; callers must treat that as a data error.
func LookupTaxRule(category string) (TaxRule, bool) {
	rule, ok := taxTable[category]
	return rule, ok
}

// TaxCategories lists the known category keys (for validation and UI pickers).
func TaxCategories() []string {
	return []string{
		CategoryStandard, CategoryReduced, CategorySteel,
		CategoryThirdSchedule, CategoryExempt, CategoryZeroRated,
	}
}
