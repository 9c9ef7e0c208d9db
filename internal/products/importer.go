package products

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/florezcook/orders-backend/pkg/db/models"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
)

// Spreadsheet headers expected on the first row of an import file. Matching
// is exact after trimming surrounding spaces.
const (
	HeaderCode        = "Codigo"
	HeaderReference   = "Referencia de Producto"
	HeaderUnitWeight  = "Gramaje (g)"
	HeaderFormulation = "Formulacion/Grupo"
	HeaderCategory    = "Categoria/Linea"
)

var importHeaders = []string{HeaderCode, HeaderReference, HeaderUnitWeight, HeaderFormulation, HeaderCategory}

type importSheet struct {
	columns map[string]int
	rows    [][]string
}

// importRow is a data row that passed field validation. Number is the
// 1-based spreadsheet row.
type importRow struct {
	Number           int
	Code             string
	Reference        string
	UnitWeightGrams  decimal.Decimal
	FormulationGroup string
	CategoryLine     string
}

func readImportSheet(r io.Reader) (*importSheet, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file is not a valid xlsx workbook")
	}
	defer book.Close()

	name := book.GetSheetName(book.GetActiveSheetIndex())
	rows, err := book.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read worksheet")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "spreadsheet is empty")
	}

	columns := map[string]int{}
	for idx, header := range rows[0] {
		header = strings.TrimSpace(header)
		if _, seen := columns[header]; !seen {
			columns[header] = idx
		}
	}
	var missing []string
	for _, header := range importHeaders {
		if _, ok := columns[header]; !ok {
			missing = append(missing, fmt.Sprintf("expected header not found: '%s'", header))
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "spreadsheet headers are invalid").
			WithDetails(map[string]any{"errors": missing})
	}

	return &importSheet{columns: columns, rows: rows[1:]}, nil
}

func (sh *importSheet) cell(row []string, header string) string {
	idx := sh.columns[header]
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parse splits the data rows into valid rows and per-row errors. Fully
// blank rows are skipped.
func (sh *importSheet) parse() ([]importRow, error) {
	var valid []importRow
	var errs error
	for i, row := range sh.rows {
		number := i + 2
		if blankRow(row) {
			continue
		}
		code := sh.cell(row, HeaderCode)
		if code == "" {
			errs = multierr.Append(errs, fmt.Errorf("row %d: '%s' is required", number, HeaderCode))
			continue
		}
		reference := sh.cell(row, HeaderReference)
		if reference == "" {
			errs = multierr.Append(errs, fmt.Errorf("row %d, code '%s': '%s' is required", number, code, HeaderReference))
			continue
		}
		rawWeight := sh.cell(row, HeaderUnitWeight)
		if rawWeight == "" {
			errs = multierr.Append(errs, fmt.Errorf("row %d, code '%s': '%s' is required", number, code, HeaderUnitWeight))
			continue
		}
		weight, err := decimal.NewFromString(rawWeight)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("row %d, code '%s': invalid value for '%s', must be a number", number, code, HeaderUnitWeight))
			continue
		}
		if !weight.IsPositive() {
			errs = multierr.Append(errs, fmt.Errorf("row %d, code '%s': unit weight must be a positive number", number, code))
			continue
		}
		valid = append(valid, importRow{
			Number:           number,
			Code:             code,
			Reference:        reference,
			UnitWeightGrams:  weight,
			FormulationGroup: sh.cell(row, HeaderFormulation),
			CategoryLine:     sh.cell(row, HeaderCategory),
		})
	}
	return valid, errs
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// applyImport upserts every valid row by code. Row validation errors are
// reported in the result; a database error aborts the whole import.
func (s *service) applyImport(ctx context.Context, repo Repository, sheet *importSheet, result *ImportResult) error {
	rows, rowErrs := sheet.parse()
	result.Errors = []string{}
	for _, err := range multierr.Errors(rowErrs) {
		result.Errors = append(result.Errors, err.Error())
	}

	for _, row := range rows {
		existing, err := repo.FindByCode(ctx, row.Code)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			product := &models.Product{
				Code:             row.Code,
				Reference:        row.Reference,
				UnitWeightGrams:  row.UnitWeightGrams,
				FormulationGroup: row.FormulationGroup,
				CategoryLine:     row.CategoryLine,
			}
			if err := repo.Create(ctx, product); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("insert product from row %d", row.Number))
			}
			result.Imported++
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("load product from row %d", row.Number))
		default:
			existing.Reference = row.Reference
			existing.UnitWeightGrams = row.UnitWeightGrams
			existing.FormulationGroup = row.FormulationGroup
			existing.CategoryLine = row.CategoryLine
			if err := repo.Save(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("update product from row %d", row.Number))
			}
			result.Updated++
		}
	}
	return nil
}
