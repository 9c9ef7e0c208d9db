package reports

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/florezcook/orders-backend/pkg/db/models"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
)

// ContentTypeXLSX is the media type of the exported workbooks.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	orderSheet        = "Reporte de Pedidos"
	consolidatedSheet = "Consolidado de Productos"

	unregisteredCustomer = "Cliente no registrado"
	noComments           = "Sin comentarios"
	noAddress            = "Sin dirección especificada"
	noHours              = "Sin horario especificado"
)

var (
	orderHeaders        = []string{"Código Producto", "Referencia", "Cantidad", "Comentarios", "Dirección", "Horarios"}
	orderWidths         = []float64{18, 35, 15, 30, 40, 25}
	consolidatedHeaders = []string{"Formulación", "Referencia de Producto", "Comentarios", "# Pedido", "Cantidad", "Peso Total (g)"}
	consolidatedWidths  = []float64{25, 30, 25, 12, 12, 15}
)

// ExportOrders writes the filtered orders as a workbook grouped by customer,
// with each order's lines consolidated per product.
func (s *service) ExportOrders(ctx context.Context, filter OrderFilter, w io.Writer) error {
	if err := filter.validate(); err != nil {
		return err
	}
	rows, err := s.repo.ExportOrders(ctx, filter)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders for export")
	}

	book := excelize.NewFile()
	defer book.Close()
	sheet, err := newSheetWriter(book, orderSheet)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "prepare workbook")
	}
	writeOrders(sheet, rows)
	if err := sheet.finish(orderWidths); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build orders workbook")
	}
	if err := book.Write(w); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write orders workbook")
	}
	s.logg.Info(s.logg.WithField(ctx, "orders", len(rows)), "reports.orders_exported")
	return nil
}

// ExportConsolidated writes the consolidated products report as a workbook.
func (s *service) ExportConsolidated(ctx context.Context, filter ConsolidatedFilter, w io.Writer) error {
	if err := filter.DateRange.validate(); err != nil {
		return err
	}
	rows, err := s.repo.ConsolidatedLines(ctx, filter)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order lines for export")
	}

	book := excelize.NewFile()
	defer book.Close()
	sheet, err := newSheetWriter(book, consolidatedSheet)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "prepare workbook")
	}
	writeConsolidated(sheet, Consolidate(rows))
	if err := sheet.finish(consolidatedWidths); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build consolidated workbook")
	}
	if err := book.Write(w); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write consolidated workbook")
	}
	s.logg.Info(s.logg.WithField(ctx, "lines", len(rows)), "reports.consolidated_exported")
	return nil
}

type productKey struct {
	code      string
	reference string
}

type productSummary struct {
	productKey
	quantity int
	comments []string
}

func writeOrders(sheet *sheetWriter, rows []models.Order) {
	sheet.row(sheet.styles.header, toAny(orderHeaders)...)
	if len(rows) == 0 {
		sheet.banner(sheet.styles.center, 6, "No se encontraron pedidos con los filtros seleccionados")
		return
	}

	var customers []string
	byCustomer := map[string][]*models.Order{}
	for i := range rows {
		label := customerLabel(&rows[i])
		if _, ok := byCustomer[label]; !ok {
			customers = append(customers, label)
		}
		byCustomer[label] = append(byCustomer[label], &rows[i])
	}

	for _, customer := range customers {
		sheet.banner(sheet.styles.customer, 6, customer)
		for _, order := range byCustomer[customer] {
			sheet.banner(sheet.styles.order, 6, fmt.Sprintf("Pedido #%d - %s - Estado: %s",
				order.ID, order.CreatedAt.Format("02/01/2006"), order.Status))

			address := joinNonBlank(", ", order.DeliveryAddress, order.DeliveryCity, order.DeliveryDepartment)
			if address == "" {
				address = noAddress
			}
			hours := strings.TrimSpace(order.DispatchHours)
			if hours == "" {
				hours = noHours
			}
			for _, product := range summarizeLines(order.Lines) {
				comments := noComments
				if len(product.comments) > 0 {
					comments = strings.Join(product.comments, "; ")
				}
				sheet.row(0,
					product.code,
					product.reference,
					fmt.Sprintf("%d unidades", product.quantity),
					comments,
					address,
					hours,
				)
			}
			sheet.skip()
		}
		sheet.skip()
	}
}

// summarizeLines merges lines of the same product, summing quantities and
// keeping each distinct comment once.
func summarizeLines(lines []models.OrderLine) []productSummary {
	var out []productSummary
	index := map[productKey]int{}
	for _, line := range lines {
		if line.Product == nil {
			continue
		}
		key := productKey{code: line.Product.Code, reference: line.Product.Reference}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, productSummary{productKey: key})
		}
		out[i].quantity += line.Quantity
		comment := strings.TrimSpace(line.Comments)
		if comment != "" && !slices.Contains(out[i].comments, line.Comments) {
			out[i].comments = append(out[i].comments, line.Comments)
		}
	}
	return out
}

func writeConsolidated(sheet *sheetWriter, report *Consolidated) {
	sheet.row(sheet.styles.header, toAny(consolidatedHeaders)...)
	if len(report.Categories) == 0 {
		sheet.banner(sheet.styles.center, 6, "No se encontraron resultados con los filtros seleccionados")
	}

	for _, category := range report.Categories {
		sheet.banner(sheet.styles.category, 6, category.Name)
		for _, formulation := range category.Formulations {
			sheet.banner(sheet.styles.formulation, 6, "    "+formulation.Name)
			for _, reference := range formulation.References {
				sheet.banner(sheet.styles.reference, 6, "      "+reference.Name)
				for _, item := range reference.Items {
					sheet.row(0,
						dashIfBlank(item.Formulation),
						dashIfBlank(item.Reference),
						dashIfBlank(item.Comments),
						item.OrderID,
						item.Quantity,
						round(item.WeightGrams),
					)
				}
				sheet.subtotal(sheet.styles.referenceTotal, "Subtotal "+reference.Name+":", reference.Totals)
			}
			sheet.subtotal(sheet.styles.formulationTotal, "Subtotal "+formulation.Name+":", formulation.Totals)
		}
		sheet.subtotal(sheet.styles.categoryTotal, "Total "+category.Name+":", category.Totals)
		sheet.skip()
	}
	sheet.subtotal(sheet.styles.grandTotal, "TOTALES GENERALES:", report.Totals)
}

type sheetStyles struct {
	header           int
	center           int
	customer         int
	order            int
	category         int
	formulation      int
	reference        int
	referenceTotal   int
	formulationTotal int
	categoryTotal    int
	grandTotal       int
}

// sheetWriter appends rows to one worksheet. The first failure is kept and
// every later call becomes a no-op.
type sheetWriter struct {
	book   *excelize.File
	name   string
	next   int
	styles sheetStyles
	err    error
}

func newSheetWriter(book *excelize.File, name string) (*sheetWriter, error) {
	if err := book.SetSheetName(book.GetSheetName(0), name); err != nil {
		return nil, err
	}
	w := &sheetWriter{book: book, name: name, next: 1}
	w.styles = sheetStyles{
		header:           w.style(fill("366092", "FFFFFF", 0), "center"),
		center:           w.style(nil, "center"),
		customer:         w.style(fill("0066CC", "FFFFFF", 14), "left"),
		order:            w.style(fill("B3D9FF", "000000", 0), "left"),
		category:         w.style(fill("0066CC", "000000", 14), "left"),
		formulation:      w.style(fill("D1ECF1", "000000", 0), "left"),
		reference:        w.style(fill("E8F5E8", "000000", 0), "left"),
		referenceTotal:   w.style(fill("D4F1D4", "000000", 0), "right"),
		formulationTotal: w.style(fill("FFF3CD", "000000", 0), "right"),
		categoryTotal:    w.style(fill("E9ECEF", "000000", 0), "right"),
		grandTotal:       w.style(fill("343A40", "FFFFFF", 0), "right"),
	}
	return w, w.err
}

type cellLook struct {
	font *excelize.Font
	fill excelize.Fill
}

func fill(color, fontColor string, size float64) *cellLook {
	return &cellLook{
		font: &excelize.Font{Bold: true, Color: fontColor, Size: size},
		fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
	}
}

func (w *sheetWriter) style(look *cellLook, horizontal string) int {
	if w.err != nil {
		return 0
	}
	st := &excelize.Style{Alignment: &excelize.Alignment{Horizontal: horizontal}}
	if look != nil {
		st.Font = look.font
		st.Fill = look.fill
	}
	id, err := w.book.NewStyle(st)
	if err != nil {
		w.err = err
	}
	return id
}

func (w *sheetWriter) cell(col int) string {
	name, err := excelize.CoordinatesToCellName(col, w.next)
	if err != nil && w.err == nil {
		w.err = err
	}
	return name
}

// row writes values from column A and styles them when style is non-zero.
func (w *sheetWriter) row(style int, values ...any) {
	if w.err != nil {
		return
	}
	for i, v := range values {
		if err := w.book.SetCellValue(w.name, w.cell(i+1), v); err != nil {
			w.err = err
			return
		}
	}
	if style != 0 && len(values) > 0 {
		w.setStyle(w.cell(1), w.cell(len(values)), style)
	}
	w.next++
}

// banner writes text merged across the first span columns.
func (w *sheetWriter) banner(style, span int, text string) {
	if w.err != nil {
		return
	}
	first, last := w.cell(1), w.cell(span)
	if err := w.book.SetCellValue(w.name, first, text); err != nil {
		w.err = err
		return
	}
	if err := w.book.MergeCell(w.name, first, last); err != nil {
		w.err = err
		return
	}
	w.setStyle(first, last, style)
	w.next++
}

// subtotal writes a label merged over columns A to D with quantity and weight
// in E and F.
func (w *sheetWriter) subtotal(style int, label string, totals Totals) {
	if w.err != nil {
		return
	}
	first, labelEnd := w.cell(1), w.cell(4)
	values := map[string]any{
		first:     label,
		w.cell(5): totals.Quantity,
		w.cell(6): round(totals.WeightGrams),
	}
	for cell, v := range values {
		if err := w.book.SetCellValue(w.name, cell, v); err != nil {
			w.err = err
			return
		}
	}
	if err := w.book.MergeCell(w.name, first, labelEnd); err != nil {
		w.err = err
		return
	}
	w.setStyle(first, w.cell(6), style)
	w.next++
}

func (w *sheetWriter) skip() { w.next++ }

func (w *sheetWriter) setStyle(from, to string, style int) {
	if w.err != nil || style == 0 {
		return
	}
	if err := w.book.SetCellStyle(w.name, from, to, style); err != nil {
		w.err = err
	}
}

func (w *sheetWriter) finish(widths []float64) error {
	for i, width := range widths {
		if w.err != nil {
			break
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		w.err = w.book.SetColWidth(w.name, col, col, width)
	}
	return w.err
}

func round(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func joinNonBlank(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}

func dashIfBlank(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
