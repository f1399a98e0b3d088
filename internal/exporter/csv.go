package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"salesreport/internal/config"
	"salesreport/internal/errors"
	"salesreport/pkg/contracts/domain"
)

// utf8BOM lets spreadsheet applications detect UTF-8 encoding
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// View CSV file names, written inside the configured CSV directory
const (
	SalespersonCSV = "por_vendedor.csv"
	ProductCSV     = "por_produto.csv"
	PaymentCSV     = "por_pagamento.csv"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Delimiter rune
	BOMPrefix bool
}

// WriteCSV writes data to filePath, replacing any existing file
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Debug("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return errors.NewStorageError("failed to create directory", err).WithContext("path", filePath)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return errors.NewStorageError("failed to create file", err).WithContext("path", filePath)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			return errors.NewStorageError("failed to write BOM", err).WithContext("path", filePath)
		}
	}

	writer := csv.NewWriter(file)
	if options.Delimiter != 0 {
		writer.Comma = options.Delimiter
	}

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return errors.NewStorageError("failed to write headers", err).WithContext("path", filePath)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err).WithContext("path", filePath)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.NewStorageError("failed to flush CSV", err).WithContext("path", filePath)
	}
	return file.Close()
}

// WriteSimpleCSV writes headers and records with a BOM prefix
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// ViewExporter writes each grouped view as its own CSV file
type ViewExporter struct {
	writer  *CSVWriter
	columns config.ColumnsConfig
}

// NewViewExporter creates a view exporter
func NewViewExporter(writer *CSVWriter, columns config.ColumnsConfig) *ViewExporter {
	return &ViewExporter{writer: writer, columns: columns}
}

// Export writes the three view files into dir and returns their paths
func (e *ViewExporter) Export(ctx context.Context, summary *domain.SalesSummary, dir string) ([]string, error) {
	if summary == nil {
		return nil, errors.NewAppValidationError("no aggregate to export")
	}

	files := []struct {
		name string
		key  string
		view domain.GroupView
	}{
		{SalespersonCSV, e.columns.Salesperson, summary.BySalesperson},
		{ProductCSV, e.columns.Product, summary.ByProduct},
		{PaymentCSV, e.columns.PaymentMethod, summary.ByPaymentMethod},
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path := filepath.Join(dir, f.name)
		if err := e.writer.WriteSimpleCSV(path, []string{f.key, e.columns.Total}, viewRecords(f.view)); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	e.writer.logger.InfoContext(ctx, "View CSV files written",
		slog.String("dir", dir),
		slog.Int("files", len(written)))
	return written, nil
}

func viewRecords(view domain.GroupView) [][]string {
	records := make([][]string, 0, len(view))
	for _, entry := range view {
		records = append(records, []string{entry.Key, formatFloat(entry.Total)})
	}
	return records
}
