package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"salesreport/internal/config"
	"salesreport/internal/errors"
	"salesreport/pkg/contracts/domain"
)

const utf8BOM = "\ufeff"

// missingMarkers are the cell values treated as absent, in addition to blanks
var missingMarkers = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {},
	"n/a": {}, "nan": {}, "null": {},
}

// LoaderConfig holds the header names and format options used to read a table
type LoaderConfig struct {
	Columns   config.ColumnsConfig
	Delimiter rune
	// Sheet selects the worksheet of an .xlsx input; empty means the first one
	Sheet string
}

// LoaderConfigFrom builds a LoaderConfig from the application config
func LoaderConfigFrom(cfg *config.Config) LoaderConfig {
	delimiter := ','
	if r, _ := utf8.DecodeRuneInString(cfg.Input.Delimiter); r != utf8.RuneError {
		delimiter = r
	}
	return LoaderConfig{
		Columns:   cfg.Columns,
		Delimiter: delimiter,
		Sheet:     cfg.Input.Sheet,
	}
}

// Loader reads a sales table and keeps the rows that have a product, a
// quantity and a unit price.
type Loader struct {
	logger *slog.Logger
	cfg    LoaderConfig
}

// NewLoader creates a loader
func NewLoader(logger *slog.Logger, cfg LoaderConfig) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ','
	}
	return &Loader{logger: logger, cfg: cfg}
}

// columnIndex locates the five required fields in the header
type columnIndex struct {
	product, quantity, unitPrice, salesperson, payment int
}

// Load reads path (.xlsx through excelize, anything else as delimited text)
// into a dataset.
func (l *Loader) Load(ctx context.Context, path string) (*domain.SalesDataset, error) {
	var (
		rows [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = l.readWorkbook(path)
	default:
		rows, err = l.readDelimited(path)
	}
	if err != nil {
		return nil, err
	}

	dataset, err := l.parseTable(ctx, rows)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			appErr.WithContext("path", path)
		}
		return nil, err
	}
	dataset.Source = path

	l.logger.InfoContext(ctx, "Sales table loaded",
		slog.String("file", path),
		slog.Int("rows", dataset.Len()),
		slog.Int("dropped", dataset.Dropped))

	return dataset, nil
}

// readDelimited reads a CSV file. Input that is not valid UTF-8 is decoded as
// Windows-1252, the usual encoding of spreadsheet exports.
func (l *Loader) readDelimited(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("file %s", path))
		}
		return nil, errors.NewParsingError(fmt.Sprintf("failed to read %s", path), err)
	}

	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, errors.NewParsingError("input is neither UTF-8 nor Windows-1252", err)
		}
		l.logger.Warn("Input is not UTF-8, decoded as Windows-1252", slog.String("file", path))
		data = decoded
	}
	data = bytes.TrimPrefix(data, []byte(utf8BOM))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = l.cfg.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("malformed CSV in %s", path), err)
	}
	return rows, nil
}

// readWorkbook reads the configured (or first) sheet with raw cell values
func (l *Loader) readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	sheet := l.cfg.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.NewParsingError(fmt.Sprintf("workbook %s has no sheets", path), nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}

	l.logger.Debug("Workbook sheet read", slog.String("sheet", sheet), slog.Int("rows", len(rows)))
	return rows, nil
}

// parseTable maps the header, drops incomplete rows and converts the rest
func (l *Loader) parseTable(ctx context.Context, rows [][]string) (*domain.SalesDataset, error) {
	if len(rows) == 0 {
		return nil, errors.NewParsingError("input has no header row", nil)
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = normalize(strings.TrimPrefix(name, utf8BOM))
		if header[i] == "" {
			header[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}
	header = dedupeHeader(header)

	idx, err := l.mapColumns(header)
	if err != nil {
		return nil, err
	}

	dataset := &domain.SalesDataset{
		Columns: header,
		Sales:   make([]domain.Sale, 0, len(rows)-1),
	}

	for i, row := range rows[1:] {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if isBlankRow(row) {
			continue
		}

		cell := func(col int) string {
			if col < len(row) {
				return normalize(row[col])
			}
			return ""
		}

		product, qtyRaw, priceRaw := cell(idx.product), cell(idx.quantity), cell(idx.unitPrice)
		if isMissing(product) || isMissing(qtyRaw) || isMissing(priceRaw) {
			dataset.Dropped++
			continue
		}

		quantity, ok, err := parseNumber(qtyRaw)
		if err != nil {
			return nil, numberError(i+1, l.cfg.Columns.Quantity, qtyRaw, err)
		}
		unitPrice, ok2, err := parseNumber(priceRaw)
		if err != nil {
			return nil, numberError(i+1, l.cfg.Columns.UnitPrice, priceRaw, err)
		}
		if !ok || !ok2 {
			dataset.Dropped++
			continue
		}

		fields := make(map[string]string, len(header))
		for col, name := range header {
			fields[name] = cell(col)
		}

		dataset.Sales = append(dataset.Sales, domain.Sale{
			Row:           i + 1,
			Product:       product,
			Salesperson:   presentOrEmpty(cell(idx.salesperson)),
			PaymentMethod: presentOrEmpty(cell(idx.payment)),
			Quantity:      quantity,
			UnitPrice:     unitPrice,
			Fields:        fields,
		})
	}

	if dataset.Dropped > 0 {
		l.logger.Warn("Dropped rows missing product, quantity or unit price",
			slog.Int("dropped", dataset.Dropped))
	}

	return dataset, nil
}

// mapColumns finds each configured column by case-insensitive, NFC-normalized name
func (l *Loader) mapColumns(header []string) (columnIndex, error) {
	find := func(name string) int {
		want := normalize(name)
		for i, h := range header {
			if strings.EqualFold(h, want) {
				return i
			}
		}
		return -1
	}

	cols := l.cfg.Columns
	idx := columnIndex{
		product:     find(cols.Product),
		quantity:    find(cols.Quantity),
		unitPrice:   find(cols.UnitPrice),
		salesperson: find(cols.Salesperson),
		payment:     find(cols.PaymentMethod),
	}

	var missing []string
	for name, pos := range map[string]int{
		cols.Product:       idx.product,
		cols.Quantity:      idx.quantity,
		cols.UnitPrice:     idx.unitPrice,
		cols.Salesperson:   idx.salesperson,
		cols.PaymentMethod: idx.payment,
	} {
		if pos < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return idx, errors.NewParsingError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil,
		).WithContext("header", header)
	}

	l.logger.Debug("Column mapping", slog.Any("index", map[string]int{
		"product": idx.product, "quantity": idx.quantity, "unit_price": idx.unitPrice,
		"salesperson": idx.salesperson, "payment_method": idx.payment,
	}))
	return idx, nil
}

var errInfinite = fmt.Errorf("value is not finite")

// parseNumber parses a decimal with '.' as separator. ok is false for NaN;
// infinite values and overflows are errors.
func parseNumber(s string) (value float64, ok bool, err error) {
	value, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(value) {
		return 0, false, nil
	}
	if math.IsInf(value, 0) {
		return 0, false, errInfinite
	}
	return value, true, nil
}

// dedupeHeader suffixes repeated names with .1, .2, ... so every column keeps
// its own field
func dedupeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	counts := make(map[string]int, len(header))
	for i, name := range header {
		candidate := name
		for {
			if _, taken := seen[candidate]; !taken {
				break
			}
			counts[name]++
			candidate = fmt.Sprintf("%s.%d", name, counts[name])
		}
		seen[candidate] = struct{}{}
		out[i] = candidate
	}
	return out
}

func numberError(row int, column, value string, cause error) error {
	return errors.NewParsingError(
		fmt.Sprintf("row %d: invalid number %q in column %s", row, value, column), cause,
	).WithContext("row", row).WithContext("column", column)
}

// normalize trims and NFC-normalizes a cell so composed and decomposed
// spellings of the same category compare equal.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func isMissing(s string) bool {
	if s == "" {
		return true
	}
	_, ok := missingMarkers[s]
	return ok
}

func presentOrEmpty(s string) string {
	if isMissing(s) {
		return ""
	}
	return s
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
