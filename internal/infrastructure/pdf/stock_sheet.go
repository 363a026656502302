// Package pdf genera la hoja de conteo físico de una bodega.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Bodega + ID            │  QR (ID bodega) + Fecha     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Sistema | Conteo | Diferencia       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL unidades en sistema                                    │
//	│  FIRMAS: Contó / Verificó                                     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
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

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ inventory.StockSheetGenerator = (*StockSheetGenerator)(nil)

// StockSheetGenerator implementa inventory.StockSheetGenerator con Maroto v2.
type StockSheetGenerator struct {
	now func() time.Time
}

// NewStockSheetGenerator construye el generador.
func NewStockSheetGenerator() *StockSheetGenerator {
	return &StockSheetGenerator{now: time.Now}
}

// GenerateStockSheet genera el PDF y devuelve sus bytes.
func (g *StockSheetGenerator) GenerateStockSheet(
	ctx context.Context,
	warehouse *entity.Warehouse,
	lines []inventory.StockSheetLine,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Hoja de conteo - "+warehouse.Name, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(warehouse, g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())

	total := decimal.Zero
	for _, l := range lines {
		m.AddRows(detailRow(l))
		total = total.Add(l.Level.Quantity)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(len(lines), total))
	m.AddRows(row.New(15))
	m.AddRows(signatureRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar hoja de conteo: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(w *entity.Warehouse, at time.Time) core.Row {
	return row.New(28).Add(
		col.New(8).Add(
			text.New("HOJA DE CONTEO FÍSICO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(w.Name, props.Text{Style: fontstyle.Bold, Size: 13, Top: 6}),
			text.New("ID: "+w.ID, props.Text{Size: 7, Top: 14, Color: colorGray}),
			text.New("Generada: "+at.Format("02/01/2006 15:04"), props.Text{Size: 8, Top: 20, Color: colorGray}),
		),
		col.New(4).Add(code.NewQr(w.ID, props.Rect{Percent: 90, Center: true})),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("SKU", 2, align.Left),
		h("Producto", 4, align.Left),
		h("Sistema", 2, align.Right),
		h("Conteo", 2, align.Center),
		h("Diferencia", 2, align.Center),
	)
}

func detailRow(l inventory.StockSheetLine) core.Row {
	name := l.Product.Name
	if name == "" {
		name = l.Level.ProductID
	}
	return row.New(7).Add(
		col.New(2).Add(text.New(nonEmpty(l.Product.SKU, "-"), props.Text{Size: 8, Top: 1, Left: 1})),
		col.New(4).Add(text.New(name, props.Text{Size: 8, Top: 1, Left: 1})),
		col.New(2).Add(text.New(FormatQuantity(l.Level.Quantity), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		col.New(2).Add(text.New("________", props.Text{Size: 8, Align: align.Center, Top: 1, Color: colorGray})),
		col.New(2).Add(text.New("________", props.Text{Size: 8, Align: align.Center, Top: 1, Color: colorGray})),
	)
}

func totalRow(items int, total decimal.Decimal) core.Row {
	return row.New(10).Add(
		col.New(6).Add(text.New(fmt.Sprintf("Productos: %d", items), props.Text{Size: 9, Top: 2})),
		col.New(4).Add(text.New("Total en sistema: "+FormatQuantity(total), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2, Color: colorPrimary,
		})),
		col.New(2),
	)
}

func signatureRow() core.Row {
	sign := func(label string) core.Col {
		return col.New(6).Add(
			text.New("______________________________", props.Text{Size: 9, Align: align.Center}),
			text.New(label, props.Text{Size: 8, Align: align.Center, Top: 5, Color: colorGray}),
		)
	}
	return row.New(12).Add(sign("Contó"), sign("Verificó"))
}

// FormatQuantity separa miles con punto y decimales con coma, sin ceros sobrantes.
// Ej: 1234.5 → "1.234,5", 25000 → "25.000".
func FormatQuantity(q decimal.Decimal) string {
	s := q.Truncate(entity.QuantityScale).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := string(buf)
	if frac != "" {
		out += "," + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
