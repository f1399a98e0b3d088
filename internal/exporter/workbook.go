package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"salesreport/internal/config"
	"salesreport/internal/errors"
	"salesreport/pkg/contracts/domain"
)

// numFmtThousands is the built-in "#,##0.00" number format
const numFmtThousands = 4

// WorkbookExporter writes the detailed sales and the three grouped views into
// one .xlsx file.
type WorkbookExporter struct {
	logger  *slog.Logger
	sheets  config.SheetsConfig
	columns config.ColumnsConfig
}

// NewWorkbookExporter creates a workbook exporter
func NewWorkbookExporter(logger *slog.Logger, sheets config.SheetsConfig, columns config.ColumnsConfig) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{logger: logger, sheets: sheets, columns: columns}
}

// workbookStyles holds the style IDs registered on one file
type workbookStyles struct {
	header int
	money  int
}

// Export writes the workbook to path, replacing any existing file
func (e *WorkbookExporter) Export(ctx context.Context, dataset *domain.SalesDataset, summary *domain.SalesSummary, path string) error {
	if summary == nil {
		return errors.NewAppValidationError("no aggregate to export")
	}
	if err := e.checkSheetNames(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	styles, err := registerStyles(f)
	if err != nil {
		return errors.NewStorageError("failed to create workbook styles", err)
	}

	if err := f.SetSheetName(f.GetSheetName(0), e.sheets.Detailed); err != nil {
		return errors.NewStorageError("failed to name detailed sheet", err)
	}
	if err := e.writeDetailed(f, styles, sourceColumns(dataset, e.columns), summary.Sales); err != nil {
		return err
	}

	views := []struct {
		sheet string
		key   string
		view  domain.GroupView
	}{
		{e.sheets.BySalesperson, e.columns.Salesperson, summary.BySalesperson},
		{e.sheets.ByProduct, e.columns.Product, summary.ByProduct},
		{e.sheets.ByPayment, e.columns.PaymentMethod, summary.ByPaymentMethod},
	}
	for _, v := range views {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := f.NewSheet(v.sheet); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to create sheet %q", v.sheet), err)
		}
		if err := e.writeView(f, styles, v.sheet, v.key, v.view); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to save workbook %s", path), err).WithContext("path", path)
	}

	e.logger.InfoContext(ctx, "Workbook written",
		slog.String("file", path),
		slog.Int("detailed_rows", len(summary.Sales)))
	return nil
}

func registerStyles(f *excelize.File) (workbookStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return workbookStyles{}, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: numFmtThousands})
	if err != nil {
		return workbookStyles{}, err
	}
	return workbookStyles{header: header, money: money}, nil
}

// writeDetailed writes one row per sale: every source column in order, then
// the Total column unless the source already has one.
func (e *WorkbookExporter) writeDetailed(f *excelize.File, styles workbookStyles, columns []string, sales []domain.Sale) error {
	sheet := e.sheets.Detailed

	totalCol := -1
	for i, name := range columns {
		if strings.EqualFold(name, e.columns.Total) {
			totalCol = i
		}
	}
	header := append([]string(nil), columns...)
	if totalCol < 0 {
		header = append(header, e.columns.Total)
		totalCol = len(header) - 1
	}

	if err := writeHeader(f, sheet, header, styles.header); err != nil {
		return err
	}

	for r, sale := range sales {
		row := make([]interface{}, len(header))
		for c, name := range header {
			switch {
			case c == totalCol:
				row[c] = sale.Total
			case strings.EqualFold(name, e.columns.Quantity):
				row[c] = sale.Quantity
			case strings.EqualFold(name, e.columns.UnitPrice):
				row[c] = sale.UnitPrice
			case strings.EqualFold(name, e.columns.Product):
				row[c] = sale.Product
			case strings.EqualFold(name, e.columns.Salesperson):
				row[c] = sale.Salesperson
			case strings.EqualFold(name, e.columns.PaymentMethod):
				row[c] = sale.PaymentMethod
			default:
				row[c] = cellValue(sale.Fields[name])
			}
		}

		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to write row %d of %q", r+2, sheet), err)
		}
	}

	if len(sales) > 0 {
		col, _ := excelize.ColumnNumberToName(totalCol + 1)
		if err := f.SetCellStyle(sheet, col+"2", fmt.Sprintf("%s%d", col, len(sales)+1), styles.money); err != nil {
			return errors.NewStorageError("failed to style totals", err)
		}
	}

	last, _ := excelize.ColumnNumberToName(len(header))
	_ = f.SetColWidth(sheet, "A", last, 18)
	return nil
}

// writeView writes a two-column key/total sheet in view order
func (e *WorkbookExporter) writeView(f *excelize.File, styles workbookStyles, sheet, keyHeader string, view domain.GroupView) error {
	if err := writeHeader(f, sheet, []string{keyHeader, e.columns.Total}, styles.header); err != nil {
		return err
	}

	for i, entry := range view {
		row := i + 2
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), entry.Key); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to write %q", sheet), err)
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", row), entry.Total); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to write %q", sheet), err)
		}
	}

	if len(view) > 0 {
		if err := f.SetCellStyle(sheet, "B2", fmt.Sprintf("B%d", len(view)+1), styles.money); err != nil {
			return errors.NewStorageError("failed to style totals", err)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "B", 16)
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to write header of %q", sheet), err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to style header of %q", sheet), err)
	}
	return nil
}

// checkSheetNames rejects duplicate sheet names, which excelize would merge
func (e *WorkbookExporter) checkSheetNames() error {
	seen := make(map[string]bool, 4)
	for _, name := range []string{e.sheets.Detailed, e.sheets.BySalesperson, e.sheets.ByProduct, e.sheets.ByPayment} {
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			return errors.NewAppValidationError(fmt.Sprintf("sheet names must be unique and non-empty, got %q", name))
		}
		seen[key] = true
	}
	return nil
}

// sourceColumns returns the dataset header, or the five configured columns
// when the dataset carries none.
func sourceColumns(dataset *domain.SalesDataset, columns config.ColumnsConfig) []string {
	if dataset != nil && len(dataset.Columns) > 0 {
		return dataset.Columns
	}
	return []string{columns.Product, columns.Quantity, columns.UnitPrice, columns.Salesperson, columns.PaymentMethod}
}

// cellValue keeps numeric source values numeric in the sheet
func cellValue(raw string) interface{} {
	if raw == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	return raw
}
