package pdf

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/garment-ledger/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":        "0,00",
		"25000":    "25.000,00",
		"1234.5":   "1.234,50",
		"1000000":  "1.000.000,00",
		"-1500.25": "-1.500,25",
		"999.999":  "1.000,00",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestRenderIssueSlip(t *testing.T) {
	applied := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	txn := &entity.ConsumptionTransaction{
		ID:        "3f1c2a4e-0000-4000-8000-000000000001",
		Kind:      entity.TransactionIssue,
		Label:     "Muestras temporada",
		OrderNo:   "OP-17",
		CreatedAt: applied.Add(-time.Hour),
		AppliedAt: &applied,
		Lines: []*entity.ConsumptionLine{
			{
				Ref:           entity.Ref(entity.KindFabric, 1),
				ItemName:      "Lino",
				Quantity:      decimal.NewFromInt(3),
				StockSnapshot: decimal.NewNullDecimal(decimal.NewFromInt(10)),
				LineCost:      decimal.NewFromInt(30),
			},
			{
				Ref:       entity.Ref(entity.KindAccessory, 2),
				Quantity:  decimal.Zero,
				FromWaste: true,
			},
		},
	}

	out, err := NewSlipGenerator("Taller").RenderIssueSlip(txn)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
	assert.Equal(t, applied, slipDate(txn))
}
