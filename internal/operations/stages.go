package operations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"salesreport/internal/chart"
	"salesreport/internal/config"
	"salesreport/internal/dataprocessing"
	apperrors "salesreport/internal/errors"
	"salesreport/internal/exporter"
	"salesreport/internal/infrastructure"
	"salesreport/internal/money"
	"salesreport/internal/report"
	"salesreport/internal/validation"
)

// Step identifiers
const (
	StageIDLoad      = "load"
	StageIDAggregate = "aggregate"
	StageIDExport    = "export"
	StageIDWorkbook  = "workbook"
	StageIDCSV       = "csv"
	StageIDChart     = "chart"
	StageIDSummary   = "summary"
	StageIDReport    = "report"
)

// Step display names
const (
	StageNameLoad      = "Load sales"
	StageNameAggregate = "Aggregate"
	StageNameExport    = "Export"
	StageNameWorkbook  = "Workbook"
	StageNameCSV       = "View CSV files"
	StageNameChart     = "Bar chart"
	StageNameSummary   = "Console summary"
	StageNameReport    = "PDF report"
)

// errNoSummary is returned by steps that run before aggregation
var errNoSummary = apperrors.NewAppValidationError("aggregate not available")

// LoadStage validates the input file and reads it into the run state
type LoadStage struct {
	BaseStage
	path      string
	validator *validation.FileValidator
	loader    *dataprocessing.Loader
	tracer    *OperationTracer
	logger    *slog.Logger
}

// NewLoadStage creates the load step
func NewLoadStage(path string, loader *dataprocessing.Loader, validator *validation.FileValidator, tracer *OperationTracer, logger *slog.Logger) *LoadStage {
	return &LoadStage{
		BaseStage: NewBaseStage(StageIDLoad, StageNameLoad),
		path:      path,
		validator: validator,
		loader:    loader,
		tracer:    tracer,
		logger:    infrastructure.WithComponent(logger, StageIDLoad),
	}
}

// Execute loads the dataset
func (s *LoadStage) Execute(ctx context.Context, state *OperationState) error {
	if err := s.validator.ValidateInputFile(s.path); err != nil {
		return err
	}

	dataset, err := s.loader.Load(ctx, s.path)
	if err != nil {
		return err
	}

	if s.tracer != nil {
		s.tracer.RecordRows(ctx, dataset.Len(), dataset.Dropped)
	}
	if dataset.Dropped > 0 {
		s.logger.WarnContext(ctx, "Incomplete rows dropped",
			slog.Int("dropped", dataset.Dropped))
	}

	state.SetDataset(dataset)
	if st := state.GetStage(s.ID()); st != nil {
		st.SetMetadata("rows", dataset.Len())
		st.SetMetadata("dropped", dataset.Dropped)
	}
	return nil
}

// AggregateStage computes line totals, the grand total and the three views
type AggregateStage struct {
	BaseStage
	missingKeyLabel string
	logger          *slog.Logger
}

// NewAggregateStage creates the aggregate step
func NewAggregateStage(missingKeyLabel string, logger *slog.Logger) *AggregateStage {
	return &AggregateStage{
		BaseStage:       NewBaseStage(StageIDAggregate, StageNameAggregate),
		missingKeyLabel: missingKeyLabel,
		logger:          infrastructure.WithComponent(logger, StageIDAggregate),
	}
}

// Execute aggregates the loaded dataset
func (s *AggregateStage) Execute(ctx context.Context, state *OperationState) error {
	dataset := state.Dataset()
	if dataset == nil {
		return apperrors.NewAppValidationError("dataset not loaded")
	}

	s.logger.InfoContext(ctx, "Calculating line totals", slog.Int("rows", dataset.Len()))
	progress := NewProgressTracker(ctx, s.logger, s.ID(), dataset.Len())
	aggregator := dataprocessing.NewAggregator(s.logger, s.missingKeyLabel).WithProgress(progress)

	summary, err := aggregator.Aggregate(ctx, dataset.Sales)
	if err != nil {
		return err
	}
	state.SetSummary(summary)

	current, total, percent := progress.GetProgress()
	if st := state.GetStage(s.ID()); st != nil {
		st.SetMetadata("processed", current)
		st.SetMetadata("total", total)
		st.SetMetadata("percent", percent)
		st.SetMetadata("complete", progress.IsComplete())
		st.SetMetadata("elapsed", progress.GetElapsedTime().String())
	}
	return nil
}

// WorkbookStage writes the four-sheet workbook
type WorkbookStage struct {
	BaseStage
	path     string
	exporter *exporter.WorkbookExporter
}

// NewWorkbookStage creates the workbook step
func NewWorkbookStage(path string, exp *exporter.WorkbookExporter) *WorkbookStage {
	return &WorkbookStage{
		BaseStage: NewBaseStage(StageIDWorkbook, StageNameWorkbook),
		path:      path,
		exporter:  exp,
	}
}

// Execute writes the workbook
func (s *WorkbookStage) Execute(ctx context.Context, state *OperationState) error {
	summary := state.Summary()
	if summary == nil {
		return errNoSummary
	}
	return s.exporter.Export(ctx, state.Dataset(), summary, s.path)
}

// CSVStage writes the grouped views as CSV files when a directory is set
type CSVStage struct {
	BaseStage
	dir      string
	exporter *exporter.ViewExporter
}

// NewCSVStage creates the view CSV step. An empty dir skips the step.
func NewCSVStage(dir string, exp *exporter.ViewExporter) *CSVStage {
	return &CSVStage{
		BaseStage: NewBaseStage(StageIDCSV, StageNameCSV),
		dir:       dir,
		exporter:  exp,
	}
}

// Execute writes the view files
func (s *CSVStage) Execute(ctx context.Context, state *OperationState) error {
	if s.dir == "" {
		return fmt.Errorf("%w: no CSV directory configured", ErrSkipped)
	}
	summary := state.Summary()
	if summary == nil {
		return errNoSummary
	}
	files, err := s.exporter.Export(ctx, summary, s.dir)
	if err != nil {
		return err
	}
	state.SetCSVFiles(files)
	return nil
}

// ChartStage renders the per-product bar chart
type ChartStage struct {
	BaseStage
	path     string
	renderer *chart.BarChart
}

// NewChartStage creates the chart step
func NewChartStage(path string, renderer *chart.BarChart) *ChartStage {
	return &ChartStage{
		BaseStage: NewBaseStage(StageIDChart, StageNameChart),
		path:      path,
		renderer:  renderer,
	}
}

// Execute renders the chart. With no products the step is skipped and the
// report goes without its chart page.
func (s *ChartStage) Execute(ctx context.Context, state *OperationState) error {
	summary := state.Summary()
	if summary == nil {
		return errNoSummary
	}
	err := s.renderer.Render(ctx, summary.ByProduct, s.path)
	if errors.Is(err, chart.ErrNoData) {
		return fmt.Errorf("%w: %v", ErrSkipped, err)
	}
	if err != nil {
		return err
	}
	state.SetChartPath(s.path)
	return nil
}

// SummaryStage prints the console summary
type SummaryStage struct {
	BaseStage
	out      io.Writer
	currency money.Formatter
}

// NewSummaryStage creates the console summary step
func NewSummaryStage(out io.Writer, currency money.Formatter) *SummaryStage {
	return &SummaryStage{
		BaseStage: NewBaseStage(StageIDSummary, StageNameSummary),
		out:       out,
		currency:  currency,
	}
}

// Execute writes the summary
func (s *SummaryStage) Execute(ctx context.Context, state *OperationState) error {
	summary := state.Summary()
	if summary == nil {
		return errNoSummary
	}
	return WriteSummary(s.out, summary, s.currency)
}

// ReportStage builds the PDF report
type ReportStage struct {
	BaseStage
	chartPath string
	path      string
	builder   *report.Builder
}

// NewReportStage creates the report step
func NewReportStage(chartPath, path string, builder *report.Builder) *ReportStage {
	return &ReportStage{
		BaseStage: NewBaseStage(StageIDReport, StageNameReport),
		chartPath: chartPath,
		path:      path,
		builder:   builder,
	}
}

// Execute builds the report, embedding the chart when one exists on disk
func (s *ReportStage) Execute(ctx context.Context, state *OperationState) error {
	summary := state.Summary()
	if summary == nil {
		return errNoSummary
	}
	result, err := s.builder.Build(ctx, summary, s.chartPath, s.path)
	if err != nil {
		return err
	}
	state.SetReport(result)
	if st := state.GetStage(s.ID()); st != nil {
		st.SetMetadata("pages", result.Pages)
		st.SetMetadata("chart_embedded", result.ChartEmbedded)
	}
	return nil
}

// Options wires the sales pipeline
type Options struct {
	Config *config.Config
	Paths  *config.Paths
	Logger *slog.Logger
	Tracer *OperationTracer
	// Stdout receives the console summary; defaults to os.Stdout
	Stdout io.Writer
	// Now overrides the report timestamp
	Now func() time.Time
}

// NewSalesPipeline builds the manager for a full run: load, aggregate, the
// concurrent export group, the console summary and the report
func NewSalesPipeline(opts Options) *Manager {
	cfg := opts.Config
	paths := opts.Paths
	if paths == nil {
		paths = cfg.Paths()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	currency := money.NewFormatter(cfg.Currency)
	builder := report.NewBuilder(logger, cfg.Report, currency)
	if opts.Now != nil {
		builder.Now = opts.Now
	}

	steps := []Step{
		NewLoadStage(paths.InputFile,
			dataprocessing.NewLoader(logger, dataprocessing.LoaderConfigFrom(cfg)),
			validation.NewFileValidator(logger),
			opts.Tracer, logger),
		NewAggregateStage(cfg.Report.MissingKeyLabel, logger),
		NewGroup(StageIDExport, StageNameExport,
			NewWorkbookStage(paths.WorkbookFile, exporter.NewWorkbookExporter(logger, cfg.Sheets, cfg.Columns)),
			NewCSVStage(paths.CSVDir, exporter.NewViewExporter(exporter.NewCSVWriter(logger), cfg.Columns)),
			NewChartStage(paths.ChartFile, chart.NewBarChart(logger)),
		),
		NewSummaryStage(stdout, currency),
		NewReportStage(paths.ChartFile, paths.ReportFile, builder),
	}

	return NewManager(logger, opts.Tracer, steps...)
}
