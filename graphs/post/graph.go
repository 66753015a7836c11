// Package post assembles the paper-to-post executors for both workflow
// patterns over the same node table; the patterns differ only in the
// routing policy (and in whether the verify node attaches supervisor
// status).
package post

import (
	"fmt"

	postadapters "github.com/postgenhq/postgen/adapters/post"
	apppost "github.com/postgenhq/postgen/app/post"
	"github.com/postgenhq/postgen/graph"
	"github.com/postgenhq/postgen/workflow"
)

const (
	LinearName     = "linear"
	SupervisedName = "supervised"
)

// NewExecutor builds a fresh executor for one request. Supervised runs
// get the adaptive policy and supervisor status reporting; linear runs
// get the fixed edge table.
func NewExecutor(pattern string, cfg workflow.Config) (*graph.Executor, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}

	var policy graph.Policy
	supervised := false
	switch pattern {
	case LinearName:
		policy = graph.LinearPolicy{}
	case SupervisedName:
		policy = graph.SupervisorPolicy{Advisor: cfg.Advisor}
		supervised = true
	default:
		return nil, fmt.Errorf("unknown workflow pattern %q", pattern)
	}

	opts := []graph.Option{}
	if cfg.Observer != nil {
		opts = append(opts, graph.WithObserver(cfg.Observer))
	}
	if cfg.MaxIterations > 0 {
		opts = append(opts, graph.WithMaxIterations(cfg.MaxIterations))
	}
	if cfg.SessionID != "" {
		opts = append(opts, graph.WithSessionID(cfg.SessionID))
	}

	e := graph.New("post-"+pattern, policy, opts...)
	e.AddNode(graph.StepResearch, postadapters.ResearchStep{
		Retriever: apppost.SimulatedRetriever{},
	})
	e.AddNode(graph.StepSummarize, postadapters.SummarizeStep{
		Summarizer: &apppost.LLMSummarizer{Provider: cfg.Provider, Model: cfg.Model},
	})
	e.AddNode(graph.StepDraft, postadapters.DraftStep{
		Drafter: &apppost.LLMDrafter{Provider: cfg.Provider, Model: cfg.Model},
	})
	e.AddNode(graph.StepVerify, postadapters.VerifyStep{
		Technical:  apppost.SimulatedTechnicalChecker{},
		Style:      apppost.SimulatedStyleChecker{},
		Supervised: supervised,
	})
	e.SetEntry(graph.StepResearch)

	if err := e.Compile(); err != nil {
		return nil, err
	}
	return e, nil
}
