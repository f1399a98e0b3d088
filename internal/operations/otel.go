package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"salesreport/internal/infrastructure"
)

const (
	TracerName = "salesreport.operation"
)

// OperationTracer provides OpenTelemetry instrumentation for a run
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.RunMetrics
}

// NewOperationTracer creates a tracer bound to providers. Nil providers give
// a tracer that uses the global provider and records no metrics.
func NewOperationTracer(providers *infrastructure.OTelProviders) (*OperationTracer, error) {
	if providers == nil {
		return &OperationTracer{tracer: otel.Tracer(TracerName)}, nil
	}

	tracer := providers.Tracer
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}

	pt := &OperationTracer{tracer: tracer}
	if providers.Meter != nil {
		metrics, err := infrastructure.CreateRunMetrics(providers.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create run metrics: %w", err)
		}
		pt.metrics = metrics
	}
	return pt, nil
}

// TraceOperationExecution creates a span for the whole run
func (pt *OperationTracer) TraceOperationExecution(ctx context.Context, operationID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "operation.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
		),
	)
}

// TraceStageExecution creates a span for one step
func (pt *OperationTracer) TraceStageExecution(ctx context.Context, operationID, stepID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "operation.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stepID),
		),
	)
}

// RecordStageCompletion closes out a step span and records its metrics.
// Skipped steps count as successful.
func (pt *OperationTracer) RecordStageCompletion(ctx context.Context, span trace.Span, stepID string, duration time.Duration, status StepStatus, err error) {
	span.SetAttributes(
		attribute.String("step.status", string(status)),
		attribute.Float64("step.duration_seconds", duration.Seconds()),
	)
	pt.metrics.RecordStage(ctx, stepID, duration, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// RecordOperationCompletion closes out the run span
func (pt *OperationTracer) RecordOperationCompletion(span trace.Span, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("operation.duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "operation completed successfully")
}

// RecordRows counts kept and dropped input rows
func (pt *OperationTracer) RecordRows(ctx context.Context, kept, dropped int) {
	pt.metrics.RecordRows(ctx, kept, dropped)
}
