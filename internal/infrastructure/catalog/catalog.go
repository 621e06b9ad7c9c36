// Package catalog importa el catálogo inicial (telas, accesorios y reglas de costo) desde un libro
// XLSX y lo convierte en un script SQL idempotente.
//
// Hojas esperadas (la primera fila es encabezado):
//
//	Fabrics:     item_name | quality | base_color | type | width | use_in | stock_in_mtrs | cost_per_unit
//	Accessories: item_name | quality | quality_text | base_color | item_type | use_in | stock | cost_per_unit
//	CostRules:   name | kind (percentage|fixed) | value | active (si/no)
package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/garment-ledger/internal/domain/entity"
)

// Nombres de hoja.
const (
	SheetFabrics     = "Fabrics"
	SheetAccessories = "Accessories"
	SheetCostRules   = "CostRules"
)

// colores y usos se normalizan en mayúscula inicial ("azul marino" -> "Azul Marino").
var titleCase = cases.Title(language.Spanish)

// Catalog filas validadas del libro.
type Catalog struct {
	Fabrics     []FabricRow
	Accessories []AccessoryRow
	CostRules   []entity.CostRule
}

// FabricRow tela con su stock inicial en metros.
type FabricRow struct {
	Fabric entity.Fabric
	Stock  decimal.Decimal
}

// AccessoryRow accesorio con su stock inicial en unidades.
type AccessoryRow struct {
	Accessory entity.Accessory
	Stock     decimal.Decimal
}

// Read valida las hojas presentes. Una hoja ausente se omite; una fila inválida aborta con su número.
func Read(f *excelize.File) (*Catalog, error) {
	c := &Catalog{}
	sheets := map[string]bool{}
	for _, s := range f.GetSheetList() {
		sheets[s] = true
	}

	if sheets[SheetFabrics] {
		rows, err := f.GetRows(SheetFabrics)
		if err != nil {
			return nil, fmt.Errorf("leer hoja %s: %w", SheetFabrics, err)
		}
		for i, row := range dataRows(rows) {
			r := cells(row, 8)
			fr := FabricRow{Fabric: entity.Fabric{
				ItemName:  r[0],
				Quality:   r[1],
				BaseColor: title(r[2]),
				Type:      r[3],
				UseIn:     title(r[5]),
			}}
			if fr.Fabric.ItemName == "" {
				return nil, rowErr(SheetFabrics, i, "item_name vacío")
			}
			var err error
			if fr.Fabric.Width, err = parseDecimal(r[4]); err != nil {
				return nil, rowErr(SheetFabrics, i, "width: "+err.Error())
			}
			if fr.Stock, err = parseQuantity(r[6]); err != nil {
				return nil, rowErr(SheetFabrics, i, "stock_in_mtrs: "+err.Error())
			}
			if fr.Fabric.CostPerUnit, err = parseQuantity(r[7]); err != nil {
				return nil, rowErr(SheetFabrics, i, "cost_per_unit: "+err.Error())
			}
			c.Fabrics = append(c.Fabrics, fr)
		}
	}

	if sheets[SheetAccessories] {
		rows, err := f.GetRows(SheetAccessories)
		if err != nil {
			return nil, fmt.Errorf("leer hoja %s: %w", SheetAccessories, err)
		}
		for i, row := range dataRows(rows) {
			r := cells(row, 8)
			ar := AccessoryRow{Accessory: entity.Accessory{
				ItemName:    r[0],
				Quality:     r[1],
				QualityText: r[2],
				BaseColor:   title(r[3]),
				ItemType:    r[4],
				UseIn:       title(r[5]),
			}}
			if ar.Accessory.ItemName == "" {
				return nil, rowErr(SheetAccessories, i, "item_name vacío")
			}
			var err error
			if ar.Stock, err = parseQuantity(r[6]); err != nil {
				return nil, rowErr(SheetAccessories, i, "stock: "+err.Error())
			}
			if ar.Accessory.CostPerUnit, err = parseQuantity(r[7]); err != nil {
				return nil, rowErr(SheetAccessories, i, "cost_per_unit: "+err.Error())
			}
			c.Accessories = append(c.Accessories, ar)
		}
	}

	if sheets[SheetCostRules] {
		rows, err := f.GetRows(SheetCostRules)
		if err != nil {
			return nil, fmt.Errorf("leer hoja %s: %w", SheetCostRules, err)
		}
		for i, row := range dataRows(rows) {
			r := cells(row, 4)
			rule := entity.CostRule{
				Name:   r[0],
				Kind:   entity.CostRuleKind(strings.ToLower(r[1])),
				Active: parseBool(r[3]),
			}
			if rule.Name == "" {
				return nil, rowErr(SheetCostRules, i, "name vacío")
			}
			if rule.Kind != entity.CostRulePercentage && rule.Kind != entity.CostRuleFixed {
				return nil, rowErr(SheetCostRules, i, fmt.Sprintf("kind %q (percentage|fixed)", r[1]))
			}
			var err error
			if rule.Value, err = parseQuantity(r[2]); err != nil {
				return nil, rowErr(SheetCostRules, i, "value: "+err.Error())
			}
			c.CostRules = append(c.CostRules, rule)
		}
	}
	return c, nil
}

// WriteSQL escribe el script de carga. Las reglas de costo se actualizan por nombre (ON CONFLICT).
func WriteSQL(w io.Writer, c *Catalog) error {
	var b strings.Builder
	b.WriteString("-- Catálogo inicial del libro de consumo\n")
	b.WriteString("-- Generado desde XLSX (ledgerctl seed-catalog)\n\n")

	if len(c.Fabrics) > 0 {
		b.WriteString("-- 1. Telas\n")
		b.WriteString("INSERT INTO fabrics (item_name, quality, base_color, type, width, use_in, stock_in_mtrs, cost_per_unit) VALUES\n")
		for i, r := range c.Fabrics {
			f := r.Fabric
			fmt.Fprintf(&b, "  (%s, %s, %s, %s, %s, %s, %s, %s)%s\n",
				quote(f.ItemName), nullable(f.Quality), nullable(f.BaseColor), nullable(f.Type),
				f.Width.String(), nullable(f.UseIn), r.Stock.String(), f.CostPerUnit.String(),
				sep(i, len(c.Fabrics)))
		}
		b.WriteString("\n")
	}

	if len(c.Accessories) > 0 {
		b.WriteString("-- 2. Accesorios\n")
		b.WriteString("INSERT INTO accessories (item_name, quality, quality_text, base_color, item_type, use_in, stock, cost_per_unit) VALUES\n")
		for i, r := range c.Accessories {
			a := r.Accessory
			fmt.Fprintf(&b, "  (%s, %s, %s, %s, %s, %s, %s, %s)%s\n",
				quote(a.ItemName), nullable(a.Quality), nullable(a.QualityText), nullable(a.BaseColor),
				nullable(a.ItemType), nullable(a.UseIn), r.Stock.String(), a.CostPerUnit.String(),
				sep(i, len(c.Accessories)))
		}
		b.WriteString("\n")
	}

	if len(c.CostRules) > 0 {
		b.WriteString("-- 3. Reglas de costo\n")
		for _, r := range c.CostRules {
			fmt.Fprintf(&b, "INSERT INTO cost_components (name, kind, value, active) VALUES (%s, %s, %s, %t)\n",
				quote(r.Name), quote(string(r.Kind)), r.Value.String(), r.Active)
			b.WriteString("ON CONFLICT (name) DO UPDATE SET kind = EXCLUDED.kind, value = EXCLUDED.value, active = EXCLUDED.active;\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// ── helpers ───────────────────────────────────────────────────────────────────

// dataRows descarta el encabezado y las filas totalmente vacías.
func dataRows(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	out := make([][]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		if strings.TrimSpace(strings.Join(r, "")) != "" {
			out = append(out, r)
		}
	}
	return out
}

// cells normaliza la fila a n columnas (GetRows omite las celdas vacías al final).
func cells(row []string, n int) []string {
	out := make([]string, n)
	for i := 0; i < n && i < len(row); i++ {
		out[i] = strings.TrimSpace(row[i])
	}
	return out
}

func title(s string) string {
	if s == "" {
		return s
	}
	return titleCase.String(s)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}

func parseQuantity(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negativo: %s", s)
	}
	return d, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "", "si", "sí", "yes", "true", "1", "x":
		return true
	}
	return false
}

func rowErr(sheet string, idx int, msg string) error {
	// +2: encabezado y base 1
	return fmt.Errorf("%s fila %d: %s", sheet, idx+2, msg)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func nullable(s string) string {
	if s == "" {
		return "NULL"
	}
	return quote(s)
}

func sep(i, n int) string {
	if i < n-1 {
		return ","
	}
	return ";"
}
