// Package operations runs one sales report end to end.
//
// A Manager executes Steps in order against a shared OperationState. Each
// step gets its own span and duration metric. A Group runs its children
// concurrently with errgroup; the first failure cancels the rest. A step
// returning ErrSkipped is marked skipped and the run continues, any other
// error stops the run and leaves the remaining steps skipped.
//
// NewSalesPipeline wires the standard run:
//
//	load -> aggregate -> [workbook | csv | chart] -> summary -> report
//
// Example usage:
//
//	manager := operations.NewSalesPipeline(operations.Options{
//		Config: cfg,
//		Logger: logger,
//		Tracer: tracer,
//	})
//	state, err := manager.Execute(ctx, runID)
package operations
