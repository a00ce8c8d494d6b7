package action

import "context"

// Type is the contract every action type implements.
// Execute must return a non-nil result unless it returns an error; expected outcomes
// (denial, nothing to do) are statuses, errors are reserved for faults that abort the run.
type Type interface {
	Execute(ctx context.Context, ec *ExecutionContext) (*Result, error)
}

// Func adapts a function to the Type interface.
type Func func(ctx context.Context, ec *ExecutionContext) (*Result, error)

// Execute calls f(ctx, ec).
func (f Func) Execute(ctx context.Context, ec *ExecutionContext) (*Result, error) {
	return f(ctx, ec)
}
