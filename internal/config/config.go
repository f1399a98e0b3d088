package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "SALES"

// Config represents the complete application configuration
type Config struct {
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Columns   ColumnsConfig   `yaml:"columns" envconfig:"COLUMNS"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Currency  CurrencyConfig  `yaml:"currency" envconfig:"CURRENCY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// InputConfig describes the sales table to read
type InputConfig struct {
	Path      string `yaml:"path" split_words:"true" validate:"required"`
	Delimiter string `yaml:"delimiter" split_words:"true" validate:"required,len=1"`
	// Sheet selects the worksheet of an .xlsx input; empty means the first one
	Sheet string `yaml:"sheet" split_words:"true"`
}

// OutputConfig names the generated files. Relative names resolve against Dir.
type OutputConfig struct {
	Dir      string `yaml:"dir" split_words:"true" validate:"required"`
	Workbook string `yaml:"workbook" split_words:"true" validate:"required"`
	Chart    string `yaml:"chart" split_words:"true" validate:"required"`
	Report   string `yaml:"report" split_words:"true" validate:"required"`
	// CSVDir enables CSV copies of the grouped views when set
	CSVDir string `yaml:"csv_dir" split_words:"true"`
}

// ColumnsConfig maps logical fields to source header names
type ColumnsConfig struct {
	Product       string `yaml:"product" split_words:"true" validate:"required"`
	Quantity      string `yaml:"quantity" split_words:"true" validate:"required"`
	UnitPrice     string `yaml:"unit_price" split_words:"true" validate:"required"`
	Salesperson   string `yaml:"salesperson" split_words:"true" validate:"required"`
	PaymentMethod string `yaml:"payment_method" split_words:"true" validate:"required"`
	Total         string `yaml:"total" split_words:"true" validate:"required"`
}

// SheetsConfig names the four workbook sheets
type SheetsConfig struct {
	Detailed      string `yaml:"detailed" split_words:"true" validate:"required,max=31"`
	BySalesperson string `yaml:"by_salesperson" split_words:"true" validate:"required,max=31"`
	ByProduct     string `yaml:"by_product" split_words:"true" validate:"required,max=31"`
	ByPayment     string `yaml:"by_payment" split_words:"true" validate:"required,max=31"`
}

// ReportConfig contains the PDF report settings
type ReportConfig struct {
	Title string `yaml:"title" split_words:"true" validate:"required"`
	TopN  int    `yaml:"top_n" split_words:"true" validate:"min=1,max=50"`
	// MissingKeyLabel groups sales whose salesperson or payment method is blank
	MissingKeyLabel string `yaml:"missing_key_label" split_words:"true" validate:"required"`
}

// CurrencyConfig controls how monetary amounts are displayed
type CurrencyConfig struct {
	Symbol       string `yaml:"symbol" split_words:"true"`
	ThousandsSep string `yaml:"thousands_sep" split_words:"true"`
	DecimalSep   string `yaml:"decimal_sep" split_words:"true" validate:"required,nefield=ThousandsSep"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" split_words:"true" validate:"oneof=json text"`
	Output   string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" split_words:"true" validate:"required_unless=Output console"`
}

// TelemetryConfig contains tracing and metrics settings
type TelemetryConfig struct {
	Environment   string `yaml:"environment" split_words:"true"`
	TraceExporter string `yaml:"trace_exporter" split_words:"true" validate:"oneof=none stdout"`
	// MetricsFile receives the Prometheus text exposition at the end of a run
	MetricsFile string `yaml:"metrics_file" split_words:"true"`
}

// Load builds the configuration. Later sources win: defaults, the YAML file
// (configFile, or the first well-known location that exists), a .env file in
// the working directory, then SALES_* environment variables.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
	}

	if FileExists(".env") {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep
// their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return nil
}

// getConfigFilePath returns the first config file found, or ""
func getConfigFilePath() string {
	locations := []string{
		"salesreport.yaml",
		"configs/salesreport.yaml",
	}

	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Path:      "vendas_loja.csv",
			Delimiter: ",",
		},
		Output: OutputConfig{
			Dir:      ".",
			Workbook: "analise_vendas.xlsx",
			Chart:    "grafico_vendas_produto.png",
			Report:   "relatorio_vendas.pdf",
		},
		Columns: ColumnsConfig{
			Product:       "Produto",
			Quantity:      "Quantidade",
			UnitPrice:     "Valor Unitário",
			Salesperson:   "Vendedor",
			PaymentMethod: "Forma de Pagamento",
			Total:         "Total",
		},
		Sheets: SheetsConfig{
			Detailed:      "Vendas Detalhadas",
			BySalesperson: "Por vendedor",
			ByProduct:     "Por produto",
			ByPayment:     "Por pagamento",
		},
		Report: ReportConfig{
			Title:           "Relatório de Vendas",
			TopN:            5,
			MissingKeyLabel: "Não informado",
		},
		Currency: CurrencyConfig{
			Symbol:       "R$",
			ThousandsSep: ".",
			DecimalSep:   ",",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/salesreport.log",
		},
		Telemetry: TelemetryConfig{
			Environment:   "development",
			TraceExporter: "none",
		},
	}
}
