// Package pdf genera el comprobante de salida de material (issue slip).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Comprobante + etiqueta │ N° orden + Fecha          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DATOS: estado / creado por / notas                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Tipo | Ítem | Cant. | Stock previo | Costo          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL: costo de materiales                                 │
//	│  FOOTER: QR con el ID de la transacción                     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/garment-ledger/internal/application/issue"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
)

var _ issue.SlipRenderer = (*SlipGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// SlipGenerator implementa issue.SlipRenderer usando Maroto v2.
type SlipGenerator struct {
	company string
}

// NewSlipGenerator construye el generador; company aparece como autor del documento.
func NewSlipGenerator(company string) *SlipGenerator { return &SlipGenerator{company: company} }

// RenderIssueSlip genera el PDF de una salida y devuelve sus bytes.
func (g *SlipGenerator) RenderIssueSlip(txn *entity.ConsumptionTransaction) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de salida de material", true).
		WithAuthor(g.company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(txn))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(detailsRow(txn))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableLineRows(txn.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(txn.Lines))

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(txn))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(txn *entity.ConsumptionTransaction) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("SALIDA DE MATERIAL", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(txn.Label, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("ORDEN", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(txn.OrderNo, "-"), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+slipDate(txn).Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func detailsRow(txn *entity.ConsumptionTransaction) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Estado: %s   |   Creado por: %s",
				strings.ToUpper(string(txn.Status())),
				nonEmpty(txn.CreatedBy, "-"),
			), props.Text{Size: 8, Top: 1, Color: colorGray}),
			text.New("Notas: "+nonEmpty(txn.Notes, "-"), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Tipo", 2, align.Left),
		h("Ítem", 4, align.Left),
		h("Cant.", 2, align.Right),
		h("Stock previo", 2, align.Right),
		h("Costo", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func tableLineRows(lines []*entity.ConsumptionLine) []core.Row {
	rows := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		name := nonEmpty(l.ItemName, l.Ref.String())
		if l.FromWaste {
			name += " (desperdicio)"
		}
		snapshot := "-"
		if l.StockSnapshot.Valid {
			snapshot = l.StockSnapshot.Decimal.StringFixed(2)
		}
		rows = append(rows, row.New(7).Add(
			col.New(2).Add(text.New(string(l.Ref.Kind), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(l.Quantity.StringFixed(2), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(snapshot, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New("$"+formatMoney(l.LineCost), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

func totalRow(lines []*entity.ConsumptionLine) core.Row {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineCost)
	}
	return row.New(10).Add(
		col.New(6),
		col.New(3).Add(text.New("COSTO MATERIALES:", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 2,
		})),
		col.New(3).Add(text.New("$"+formatMoney(total), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 2,
		})),
	)
}

func footerRow(txn *entity.ConsumptionTransaction) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(txn.ID, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Transacción "+txn.ID, props.Text{Size: 8, Top: 4, Left: 3, Color: colorGray}),
			text.New("Firma de quien recibe: ______________________", props.Text{
				Size: 9, Top: 24, Left: 3,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// slipDate fecha de aplicación si existe, si no la de creación.
func slipDate(txn *entity.ConsumptionTransaction) time.Time {
	if txn.AppliedAt != nil {
		return *txn.AppliedAt
	}
	return txn.CreatedAt
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney redondea a 2 decimales e inserta puntos de miles en la parte entera.
// Ej: 25000 → "25.000,00", 1234.5 → "1.234,50"
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "," + frac
}
