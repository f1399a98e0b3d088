package operations_test

import (
	"context"

	"salesreport/internal/operations"
)

// funcStep is a Step backed by a function
type funcStep struct {
	operations.BaseStage
	fn func(ctx context.Context, state *operations.OperationState) error
}

func newFuncStep(id string, fn func(ctx context.Context, state *operations.OperationState) error) *funcStep {
	return &funcStep{BaseStage: operations.NewBaseStage(id, id), fn: fn}
}

func (s *funcStep) Execute(ctx context.Context, state *operations.OperationState) error {
	return s.fn(ctx, state)
}

func succeed(context.Context, *operations.OperationState) error { return nil }
