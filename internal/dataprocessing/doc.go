// Package dataprocessing turns a sales table into the aggregate every report
// output is built from.
//
// # Components
//
//  1. Loader: reads CSV or XLSX, maps the header, drops incomplete rows
//  2. Aggregator: line totals, grand total, grouped views
//  3. Analytics: average sale, shares, multiples, highlights
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger, dataprocessing.LoaderConfigFrom(cfg))
//	dataset, err := loader.Load(ctx, "vendas_loja.csv")
//	if err != nil {
//	    return err
//	}
//
//	summary, err := dataprocessing.NewAggregator(logger, cfg.Report.MissingKeyLabel).
//	    Aggregate(ctx, dataset.Sales)
//	highlights := dataprocessing.BuildHighlights(summary)
//
// # Error Handling
//
// Input problems are returned as *errors.AppError: NOT_FOUND for a missing
// file, PARSING for a missing header column or a malformed number. Rows that
// merely lack a product, quantity or unit price are dropped and counted.
package dataprocessing
