package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesreport/internal/config"
	apperrors "salesreport/internal/errors"
	"salesreport/internal/infrastructure"
	"salesreport/internal/operations"
	"salesreport/internal/validation"
	"salesreport/pkg/contracts"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// cliFlags holds the command line overrides; empty means "not given"
type cliFlags struct {
	configFile  string
	input       string
	outDir      string
	logLevel    string
	metricsFile string
	version     bool
}

func parseFlags(args []string) (*cliFlags, error) {
	fs := flag.NewFlagSet("salesreport", flag.ContinueOnError)
	f := &cliFlags{}
	fs.StringVar(&f.configFile, "config", "", "YAML config file (defaults to salesreport.yaml or configs/salesreport.yaml when present)")
	fs.StringVar(&f.input, "input", "", "sales table to read (.csv, .txt or .xlsx)")
	fs.StringVar(&f.outDir, "out-dir", "", "directory for the generated files")
	fs.StringVar(&f.logLevel, "log-level", "", "debug | info | warn | error")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus text metrics to this file after the run")
	fs.BoolVar(&f.version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return f, nil
}

// loadConfig loads the configuration and applies the flag overrides
func loadConfig(f *cliFlags) (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load configuration", err)
	}

	if f.input != "" {
		cfg.Input.Path = f.input
	}
	if f.outDir != "" {
		cfg.Output.Dir = f.outDir
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.metricsFile != "" {
		cfg.Telemetry.MetricsFile = f.metricsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid configuration", err)
	}
	return cfg, nil
}

// run executes one report run and returns the process exit code
func run(args []string, stdout io.Writer) int {
	flags, err := parseFlags(args)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		slog.Error("Invalid arguments", slog.String("error", err.Error()))
		return 1
	}
	if flags.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = infrastructure.EnsureTraceID(ctx)
	runID := infrastructure.GetTraceID(ctx)

	paths := cfg.Paths()
	paths.LogPathResolution(logger)
	if err := paths.EnsureDirectories(); err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Failed to create output directories")
		return 1
	}
	if err := validation.NewFileValidator(logger).ValidateOutputDirectory(paths.OutputDir); err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Output directory is not usable",
			slog.String("error_type", string(apperrors.TypeOf(err))))
		return 1
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	tracer, err := operations.NewOperationTracer(providers)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create tracer", slog.String("error", err.Error()))
		return 1
	}

	logger.InfoContext(ctx, "Starting sales report",
		slog.String("input", paths.InputFile),
		slog.String("output_dir", paths.OutputDir))

	manager := operations.NewSalesPipeline(operations.Options{
		Config: cfg,
		Paths:  paths,
		Logger: logger,
		Tracer: tracer,
		Stdout: stdout,
	})
	state, runErr := manager.Execute(ctx, runID)

	if runErr == nil {
		providers.MarkSuccess()
	}
	if cfg.Telemetry.MetricsFile != "" {
		if err := providers.WriteMetrics(cfg.Telemetry.MetricsFile); err != nil {
			logger.WarnContext(ctx, "Failed to write metrics file",
				slog.String("file", cfg.Telemetry.MetricsFile),
				slog.String("error", err.Error()))
		}
	}

	if runErr != nil {
		infrastructure.WithError(logger, runErr).ErrorContext(ctx, "Sales report failed",
			slog.String("error_type", string(apperrors.TypeOf(runErr))))
		return 1
	}

	attrs := []any{
		slog.String("workbook", paths.WorkbookFile),
		slog.String("report", paths.ReportFile),
		slog.Duration("duration", state.Duration()),
	}
	if chart := state.ChartPath(); chart != "" {
		attrs = append(attrs, slog.String("chart", chart))
	}
	if files := state.CSVFiles(); len(files) > 0 {
		attrs = append(attrs, slog.Any("csv_files", files))
	}
	logger.InfoContext(ctx, "Sales report finished", attrs...)
	return 0
}
