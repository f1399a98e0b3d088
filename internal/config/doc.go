// Package config loads and validates the settings of a report run.
//
// # Configuration Sources
//
// Sources are applied in this order, each one overriding the previous:
//
//	1. Default() values
//	2. A YAML file (-config flag, salesreport.yaml or configs/salesreport.yaml)
//	3. A .env file in the working directory
//	4. SALES_* environment variables
//
// Command-line flags are applied on top by cmd/salesreport.
//
// # Environment Variables
//
// Variables follow the struct layout, joined with underscores:
//
//	SALES_INPUT_PATH=data/vendas_loja.csv
//	SALES_OUTPUT_DIR=out
//	SALES_OUTPUT_CSV_DIR=csv
//	SALES_REPORT_TOP_N=10
//	SALES_CURRENCY_SYMBOL=R$
//	SALES_LOGGING_LEVEL=debug
//	SALES_TELEMETRY_METRICS_FILE=out/salesreport.prom
//
// # Paths
//
// Config.Paths resolves every output name against output.dir:
//
//	paths := cfg.Paths()
//	if err := paths.EnsureDirectories(); err != nil {
//	    return err
//	}
package config
