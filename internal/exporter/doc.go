// Package exporter writes the sales aggregate to spreadsheet files.
//
// WorkbookExporter produces one .xlsx file with the detailed sales and the
// three grouped views on separate sheets. ViewExporter optionally writes the
// same views as UTF-8 CSV files with a BOM so spreadsheet applications pick
// up the encoding.
//
// Example usage:
//
//	wb := exporter.NewWorkbookExporter(logger, cfg.Sheets, cfg.Columns)
//	err := wb.Export(ctx, dataset, summary, paths.WorkbookFile)
//
//	views := exporter.NewViewExporter(exporter.NewCSVWriter(logger), cfg.Columns)
//	files, err := views.Export(ctx, summary, paths.CSVDir)
package exporter
