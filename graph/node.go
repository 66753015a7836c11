package graph

import "context"

// Canonical step identities. Both routing policies decide over this
// vocabulary; the executor's node table is keyed by these names.
const (
	StepResearch  = "research"
	StepSummarize = "summarize"
	StepDraft     = "draft"
	StepVerify    = "verify"
)

// Node is a single unit of work in the graph. Execute consumes the
// current state and returns its replacement; it must not retain or
// mutate the input.
type Node interface {
	Execute(ctx context.Context, state State) (State, error)
}

// NodeFunc adapts a plain function to the Node interface.
type NodeFunc func(ctx context.Context, state State) (State, error)

func (f NodeFunc) Execute(ctx context.Context, state State) (State, error) {
	return f(ctx, state)
}
