package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Manager runs the steps of one sales report run in order
type Manager struct {
	logger *slog.Logger
	tracer *OperationTracer
	steps  []Step
}

// NewManager creates a manager for steps. A nil tracer disables tracing.
func NewManager(logger *slog.Logger, tracer *OperationTracer, steps ...Step) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer, _ = NewOperationTracer(nil)
	}
	return &Manager{logger: logger, tracer: tracer, steps: steps}
}

// Steps returns the top-level steps
func (m *Manager) Steps() []Step {
	return m.steps
}

// Execute runs every step. The first failure stops the run; later steps are
// marked skipped and the failure is returned along with the state.
func (m *Manager) Execute(ctx context.Context, operationID string) (*OperationState, error) {
	state := NewOperationState(operationID)
	for _, step := range m.steps {
		m.register(state, step)
	}

	ctx, span := m.tracer.TraceOperationExecution(ctx, operationID)
	defer span.End()

	state.Start()
	m.logger.InfoContext(ctx, "Operation started",
		slog.String("operation_id", operationID),
		slog.Int("step_count", len(m.steps)))

	err := m.executeSequential(ctx, state)
	m.tracer.RecordOperationCompletion(span, state.Duration(), err)

	if err != nil {
		state.Fail(err)
		m.logger.ErrorContext(ctx, "Operation failed",
			slog.String("operation_id", operationID),
			slog.Duration("duration", state.Duration()),
			slog.String("error", err.Error()))
		return state, err
	}

	state.Complete()
	m.logger.InfoContext(ctx, "Operation completed",
		slog.String("operation_id", operationID),
		slog.Duration("duration", state.Duration()))
	return state, nil
}

func (m *Manager) register(state *OperationState, step Step) {
	state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	if group, ok := step.(*Group); ok {
		for _, child := range group.Steps {
			m.register(state, child)
		}
	}
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState) error {
	for i, step := range m.steps {
		if err := ctx.Err(); err != nil {
			m.skipRemaining(state, i, "operation cancelled")
			return NewCancellationError(step.ID(), err)
		}

		m.logger.DebugContext(ctx, "Executing step",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(m.steps)))

		if err := m.executeStage(ctx, state, step); err != nil {
			m.skipRemaining(state, i+1, fmt.Sprintf("previous step %s failed", step.ID()))
			return err
		}
	}
	return nil
}

// executeStage executes a single step, or a group's children concurrently
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError(fmt.Sprintf("state for step %s not found", step.ID()), nil)
	}

	stepCtx, span := m.tracer.TraceStageExecution(ctx, state.ID, step.ID())
	defer span.End()

	stepState.Start()
	start := time.Now()

	var err error
	if group, ok := step.(*Group); ok {
		err = m.executeGroup(stepCtx, state, group)
	} else {
		err = step.Execute(stepCtx, state)
	}
	duration := time.Since(start)

	switch {
	case err == nil:
		stepState.Complete()
		m.tracer.RecordStageCompletion(stepCtx, span, step.ID(), duration, StepStatusCompleted, nil)
		m.logger.InfoContext(ctx, "Step completed",
			slog.String("step", step.ID()),
			slog.Duration("duration", duration))
		return nil

	case errors.Is(err, ErrSkipped):
		stepState.Skip(err.Error())
		m.tracer.RecordStageCompletion(stepCtx, span, step.ID(), duration, StepStatusSkipped, nil)
		m.logger.InfoContext(ctx, "Step skipped",
			slog.String("step", step.ID()),
			slog.String("reason", err.Error()))
		return nil

	default:
		wrapped := WrapError(err, step.ID())
		stepState.Fail(wrapped)
		m.tracer.RecordStageCompletion(stepCtx, span, step.ID(), duration, StepStatusFailed, err)
		m.logger.ErrorContext(ctx, "Step failed",
			slog.String("step", step.ID()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return wrapped
	}
}

// executeGroup runs the group's children concurrently; the first failure
// cancels the others
func (m *Manager) executeGroup(ctx context.Context, state *OperationState, group *Group) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, child := range group.Steps {
		g.Go(func() error {
			return m.executeStage(gctx, state, child)
		})
	}
	return g.Wait()
}

// skipRemaining marks every step from index on that has not run as skipped
func (m *Manager) skipRemaining(state *OperationState, from int, reason string) {
	for _, step := range m.steps[from:] {
		m.skipPending(state, step, reason)
	}
}

func (m *Manager) skipPending(state *OperationState, step Step, reason string) {
	if s := state.GetStage(step.ID()); s != nil && s.GetStatus() == StepStatusPending {
		s.Skip(reason)
	}
	if group, ok := step.(*Group); ok {
		for _, child := range group.Steps {
			m.skipPending(state, child, reason)
		}
	}
}
