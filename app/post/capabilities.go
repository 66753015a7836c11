// Package post implements the paper-to-post generation domain: the
// external capabilities the workflow consumes, the quality reporting
// over finished runs, and the service that drives a traversal per
// request.
package post

import (
	"context"
	"errors"

	"github.com/postgenhq/postgen/graph"
	"github.com/postgenhq/postgen/types"
)

// ErrRetrieval reports a failed paper-content retrieval.
var ErrRetrieval = errors.New("post: content retrieval failed")

// ErrAgentInvocation reports a failed generative or checker call.
var ErrAgentInvocation = errors.New("post: agent invocation failed")

// ContentRetriever resolves a paper title to abstract text.
type ContentRetriever interface {
	Retrieve(ctx context.Context, title string) (string, error)
}

// Summarizer produces a short summary from the conversation history.
type Summarizer interface {
	Summarize(ctx context.Context, history []types.Message) (string, error)
}

// PostDrafter writes (or rewrites) the social post from the history and
// summary.
type PostDrafter interface {
	Draft(ctx context.Context, history []types.Message, summary string) (string, error)
}

// TechnicalChecker judges a summary's technical accuracy.
type TechnicalChecker interface {
	CheckTechnical(ctx context.Context, summary string) (graph.CheckResult, error)
}

// StyleChecker judges a post against the platform style contract.
type StyleChecker interface {
	CheckStyle(ctx context.Context, post string) (graph.CheckResult, error)
}
