package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(t *testing.T, qty, unitCost string, waste bool) *entity.ConsumptionLine {
	t.Helper()
	l, err := entity.NewConsumptionLine(entity.Ref(entity.KindAccessory, 1), d(qty), waste)
	require.NoError(t, err)
	l.UnitCost = d(unitCost)
	return l
}

func TestRawTotal_SkipsWaste(t *testing.T) {
	raw := inventory.RawTotal([]*entity.ConsumptionLine{
		line(t, "2", "50", false),
		line(t, "5", "50", true),
		line(t, "1.5", "2", false),
	})
	assert.True(t, raw.Equal(d("103")), raw.String())
}

func TestRawTotal_RoundsToCents(t *testing.T) {
	// 0.333 × 1.5 = 0.4995 y 0.125 × 0.1 = 0.0125; suma 0.512
	raw := inventory.RawTotal([]*entity.ConsumptionLine{
		line(t, "0.333", "1.5", false),
		line(t, "0.125", "0.1", false),
	})
	assert.Equal(t, "0.51", raw.StringFixed(2))
	assert.True(t, raw.Equal(d("0.51")), raw.String())

	single := inventory.RawTotal([]*entity.ConsumptionLine{line(t, "0.333", "1.5", false)})
	assert.True(t, single.Equal(d("0.5")), single.String())
}

func TestApplyCostRules_TenPercent(t *testing.T) {
	raw := inventory.RawTotal([]*entity.ConsumptionLine{line(t, "2", "50.00", false)})

	c := inventory.ApplyCostRules(raw, []*entity.CostRule{
		{Name: "Mano de obra", Kind: entity.CostRulePercentage, Value: d("10"), Active: true},
	})

	assert.Equal(t, "100", c.RawTotal.String())
	assert.True(t, c.Added.Equal(d("10")))
	assert.Equal(t, "110.00", c.Total.StringFixed(2))
	require.Len(t, c.Contributions, 1)
	assert.Equal(t, "Mano de obra", c.Contributions[0].RuleName)
}

func TestApplyCostRules_OrderAndRounding(t *testing.T) {
	c := inventory.ApplyCostRules(d("10.05"), []*entity.CostRule{
		{Name: "Overhead", Kind: entity.CostRulePercentage, Value: d("5"), Active: true},
		nil,
		{Name: "Empaque", Kind: entity.CostRuleFixed, Value: d("1.005"), Active: true},
		{Name: "Bordado", Kind: entity.CostRuleFixed, Value: d("99"), Active: false},
	})

	require.Len(t, c.Contributions, 2)
	assert.Equal(t, "Empaque", c.Contributions[0].RuleName)
	assert.Equal(t, "Overhead", c.Contributions[1].RuleName)
	// 10.05 × 5% = 0.5025 -> 0.50; 1.005 -> 1.01
	assert.True(t, c.Contributions[0].Amount.Equal(d("1.01")))
	assert.True(t, c.Contributions[1].Amount.Equal(d("0.5")))
	assert.True(t, c.Total.Equal(d("11.56")), c.Total.String())
}

func TestApplyCostRules_NoRules(t *testing.T) {
	c := inventory.ApplyCostRules(d("42.123"), nil)
	assert.Empty(t, c.Contributions)
	assert.True(t, c.Added.IsZero())
	assert.True(t, c.Total.Equal(d("42.12")))
}
