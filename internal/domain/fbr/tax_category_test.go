package fbr_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailgrid/fbr-sync/internal/domain/fbr"
)

func TestLookupTaxRule_KnownCategories(t *testing.T) {
	cases := []struct {
		category string
		rate     int64
		mode     fbr.CalcMode
		saleType string
	}{
		{fbr.CategoryStandard, 18, fbr.CalcNormal, "Goods at standard rate (default)"},
		{fbr.CategoryReduced, 1, fbr.CalcNormal, "Goods at Reduced Rate"},
		{fbr.CategorySteel, 18, fbr.CalcNormal, "Steel melting and re-rolling"},
		{fbr.CategoryThirdSchedule, 18, fbr.CalcRetailPrice, "3rd Schedule Goods"},
		{fbr.CategoryExempt, 0, fbr.CalcNormal, "Exempt goods"},
		{fbr.CategoryZeroRated, 0, fbr.CalcNormal, "Goods at zero-rate"},
	}
	for _, tc := range cases {
		t.Run(tc.category, func(t *testing.T) {
			rule, ok := fbr.LookupTaxRule(tc.category)
			require.True(t, ok)
			assert.True(t, rule.Rate.Equal(decimal.NewFromInt(tc.rate)), "rate mismatch: %s", rule.Rate)
			assert.Equal(t, tc.mode, rule.Mode)
			assert.Equal(t, tc.saleType, rule.SaleType)
		})
	}
}

func TestLookupTaxRule_UnknownCategory(t *testing.T) {
	_, ok := fbr.LookupTaxRule("luxury")
	assert.False(t, ok)

	_, ok = fbr.LookupTaxRule("")
	assert.False(t, ok)
}

func TestTaxRule_RateLabel(t *testing.T) {
	rule, ok := fbr.LookupTaxRule(fbr.CategoryStandard)
	require.True(t, ok)
	assert.Equal(t, "18%", rule.RateLabel())

	rule, ok = fbr.LookupTaxRule(fbr.CategoryExempt)
	require.True(t, ok)
	assert.Equal(t, "0%", rule.RateLabel())
}

func TestTaxCategories_CoversTable(t *testing.T) {
	for _, cat := range fbr.TaxCategories() {
		_, ok := fbr.LookupTaxRule(cat)
		assert.True(t, ok, "category %q listed but not in table", cat)
	}
}
