package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"salesreport/internal/config"
	"salesreport/pkg/contracts"
)

const (
	ServiceName    = "salesreport"
	ServiceVersion = contracts.Version
	MeterName      = "salesreport"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout" or "none"
	// TraceWriter receives stdout spans; defaults to os.Stderr
	TraceWriter io.Writer
	SampleRatio float64
}

// OTelProviders holds the OpenTelemetry providers and the Prometheus registry
// their metrics are exported into.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	LastSuccess    prometheus.Gauge
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a configuration with tracing disabled
func DefaultOTelConfig() *OTelConfig {
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    "development",
		TraceExporter:  "none",
		SampleRatio:    1.0,
	}
}

// OTelConfigFrom maps the telemetry section of the application config
func OTelConfigFrom(cfg config.TelemetryConfig) *OTelConfig {
	otelCfg := DefaultOTelConfig()
	if cfg.Environment != "" {
		otelCfg.Environment = cfg.Environment
	}
	if cfg.TraceExporter != "" {
		otelCfg.TraceExporter = cfg.TraceExporter
	}
	return otelCfg
}

// InitializeOTel sets up tracing and metrics for one run
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if logger == nil {
		logger = GetLogger()
	}

	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{Logger: logger}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.DebugContext(ctx, "OpenTelemetry initialization complete",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.String("trace_exporter", cfg.TraceExporter))

	return providers, nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.TraceExporter {
	case "stdout":
	case "none", "":
		providers.Tracer = tracenoop.NewTracerProvider().Tracer(MeterName)
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	writer := cfg.TraceWriter
	if writer == nil {
		writer = os.Stderr
	}
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(writer),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics exports OpenTelemetry metrics into a private Prometheus
// registry, alongside a native gauge for the last successful run.
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "salesreport_last_success_timestamp_seconds",
		Help: "Unix time of the last run that produced every output.",
	})
	if err := registry.Register(lastSuccess); err != nil {
		return fmt.Errorf("failed to register gauge: %w", err)
	}

	providers.Registry = registry
	providers.LastSuccess = lastSuccess
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

	providers.Logger.DebugContext(ctx, "Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// RunMetrics holds the instruments recorded by the pipeline
type RunMetrics struct {
	StageDuration metric.Float64Histogram
	StageErrors   metric.Int64Counter
	Records       metric.Int64Counter
}

// CreateRunMetrics creates the pipeline instruments on meter
func CreateRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	stageDuration, err := meter.Float64Histogram(
		"salesreport_stage_duration",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stageErrors, err := meter.Int64Counter(
		"salesreport_stage_errors",
		metric.WithDescription("Pipeline stages that returned an error"),
	)
	if err != nil {
		return nil, err
	}

	records, err := meter.Int64Counter(
		"salesreport_records",
		metric.WithDescription("Input rows by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		StageDuration: stageDuration,
		StageErrors:   stageErrors,
		Records:       records,
	}, nil
}

// RecordStage records one stage execution
func (m *RunMetrics) RecordStage(ctx context.Context, stageID string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
		m.StageErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("stage.id", stageID)))
	}
	m.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage.id", stageID),
		attribute.String("status", status),
	))
}

// RecordRows counts kept and dropped input rows
func (m *RunMetrics) RecordRows(ctx context.Context, kept, dropped int) {
	if m == nil {
		return
	}
	m.Records.Add(ctx, int64(kept), metric.WithAttributes(attribute.String("status", "kept")))
	m.Records.Add(ctx, int64(dropped), metric.WithAttributes(attribute.String("status", "dropped")))
}

// MarkSuccess stamps the last-success gauge with the current time
func (p *OTelProviders) MarkSuccess() {
	if p != nil && p.LastSuccess != nil {
		p.LastSuccess.SetToCurrentTime()
	}
}

// WriteMetrics writes the registry in Prometheus text format, atomically
// replacing path.
func (p *OTelProviders) WriteMetrics(path string) error {
	if p == nil || p.Registry == nil {
		return fmt.Errorf("metrics registry not initialized")
	}
	return prometheus.WriteToTextfile(path, p.Registry)
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.DebugContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}
