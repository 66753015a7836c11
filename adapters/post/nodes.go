// Package post provides the graph nodes of the paper-to-post workflow.
// Each node clones the incoming state, sets only the fields it owns,
// and returns the replacement.
package post

import (
	"context"
	"fmt"

	apppost "github.com/postgenhq/postgen/app/post"
	"github.com/postgenhq/postgen/graph"
	"github.com/postgenhq/postgen/types"
)

// ResearchStep retrieves paper content and records it in the history.
// On the first execution it also seeds the user request message.
type ResearchStep struct {
	Retriever apppost.ContentRetriever
}

func (s ResearchStep) Execute(ctx context.Context, state graph.State) (graph.State, error) {
	if s.Retriever == nil {
		return graph.State{}, fmt.Errorf("research step: retriever is required")
	}

	next := state.Clone()
	if len(next.History) == 0 {
		next.History = append(next.History, types.Message{
			Role:    types.RoleUser,
			Content: fmt.Sprintf("Please write a LinkedIn post about the paper %q", next.Title),
		})
	}

	abstract, err := s.Retriever.Retrieve(ctx, next.Title)
	if err != nil {
		return graph.State{}, fmt.Errorf("%w: %v", apppost.ErrRetrieval, err)
	}
	next.History = append(next.History, types.Message{
		Role:    types.RoleTool,
		Name:    "paper_lookup",
		Content: abstract,
	})
	return next, nil
}

// SummarizeStep produces the summary from the history. Summary stays
// empty until this step succeeds, which keeps Post empty too.
type SummarizeStep struct {
	Summarizer apppost.Summarizer
}

func (s SummarizeStep) Execute(ctx context.Context, state graph.State) (graph.State, error) {
	if s.Summarizer == nil {
		return graph.State{}, fmt.Errorf("summarize step: summarizer is required")
	}

	summary, err := s.Summarizer.Summarize(ctx, state.History)
	if err != nil {
		return graph.State{}, fmt.Errorf("%w: summarize: %v", apppost.ErrAgentInvocation, err)
	}
	next := state.Clone()
	next.Summary = summary
	next.History = append(next.History, types.Message{
		Role:    types.RoleAssistant,
		Content: summary,
	})
	return next, nil
}

// DraftStep writes or rewrites the post from the history and summary.
type DraftStep struct {
	Drafter apppost.PostDrafter
}

func (s DraftStep) Execute(ctx context.Context, state graph.State) (graph.State, error) {
	if s.Drafter == nil {
		return graph.State{}, fmt.Errorf("draft step: drafter is required")
	}
	if state.Summary == "" {
		return graph.State{}, fmt.Errorf("draft step: summary is not set")
	}

	draft, err := s.Drafter.Draft(ctx, state.History, state.Summary)
	if err != nil {
		return graph.State{}, fmt.Errorf("%w: draft: %v", apppost.ErrAgentInvocation, err)
	}
	next := state.Clone()
	next.Post = draft
	next.History = append(next.History, types.Message{
		Role:    types.RoleAssistant,
		Content: draft,
	})
	return next, nil
}

// VerifyStep runs both checkers and decides pass, revise, or forced
// acceptance. RevisionCount goes up by exactly one on every execution,
// and the forced-acceptance rule fires exactly when the incremented
// count reaches the revision ceiling.
type VerifyStep struct {
	Technical apppost.TechnicalChecker
	Style     apppost.StyleChecker
	// Supervised attaches the workflow status snapshot used by the
	// supervised pattern's insight reporting.
	Supervised bool
}

func (s VerifyStep) Execute(ctx context.Context, state graph.State) (graph.State, error) {
	if s.Technical == nil || s.Style == nil {
		return graph.State{}, fmt.Errorf("verify step: both checkers are required")
	}
	if state.Post == "" {
		return graph.State{}, fmt.Errorf("verify step: post is not set")
	}

	techResult, err := s.Technical.CheckTechnical(ctx, state.Summary)
	if err != nil {
		return graph.State{}, fmt.Errorf("%w: technical check: %v", apppost.ErrAgentInvocation, err)
	}
	styleResult, err := s.Style.CheckStyle(ctx, state.Post)
	if err != nil {
		return graph.State{}, fmt.Errorf("%w: style check: %v", apppost.ErrAgentInvocation, err)
	}

	next := state.Clone()
	next.TechCheck = techResult
	next.StyleCheck = styleResult
	next.RevisionCount = state.RevisionCount + 1

	switch {
	case techResult == graph.CheckPass && styleResult == graph.CheckPass:
		next.VerifyResult = graph.VerifyPass
	case next.RevisionCount >= graph.MaxRevisions:
		// Forced acceptance: the only way out of the revision loop
		// without a genuine pass.
		next.VerifyResult = graph.VerifyPass
	default:
		next.VerifyResult = graph.VerifyRevise
	}

	if s.Supervised {
		next.Supervisor = apppost.WorkflowStatus(next)
	}
	return next, nil
}
