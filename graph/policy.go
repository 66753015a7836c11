package graph

import (
	"context"
	"fmt"
	"strings"
)

// End is the terminal marker a Policy returns when the traversal is done.
const End = ""

// Policy decides which node runs after the one that just finished.
// Returning End stops the traversal. A Policy may record bookkeeping in
// the state (the supervised policy logs its decisions there) but must
// not alter step-owned fields.
type Policy interface {
	// Name tags run records with the workflow pattern ("linear" or
	// "supervised").
	Name() string
	Next(ctx context.Context, from string, state *State) (string, error)
}

// LinearPolicy walks the fixed edge table
// research -> summarize -> draft -> verify, then loops verify back to
// draft until the verification step reports pass.
type LinearPolicy struct{}

func (LinearPolicy) Name() string { return "linear" }

func (LinearPolicy) Next(_ context.Context, from string, state *State) (string, error) {
	switch from {
	case StepResearch:
		return StepSummarize, nil
	case StepSummarize:
		return StepDraft, nil
	case StepDraft:
		return StepVerify, nil
	case StepVerify:
		if state.VerifyResult == VerifyPass {
			return End, nil
		}
		return StepDraft, nil
	default:
		return End, fmt.Errorf("linear policy has no successor for node %q", from)
	}
}

// Advisor is an optional free-text routing hint for the supervised
// policy. The returned text is untrusted: it is classified against a
// closed vocabulary and ignored entirely when it matches nothing.
type Advisor interface {
	Advise(ctx context.Context, status string) (string, error)
}

// AdvisorFunc adapts a function to the Advisor interface.
type AdvisorFunc func(ctx context.Context, status string) (string, error)

func (f AdvisorFunc) Advise(ctx context.Context, status string) (string, error) {
	return f(ctx, status)
}

// SupervisorPolicy routes adaptively from the shape of the state. When
// an Advisor is configured it is consulted first; if the advisor is
// unreachable, errors, or answers outside the vocabulary, the policy
// falls back to the deterministic rule. Next never fails because of the
// advisor.
type SupervisorPolicy struct {
	Advisor Advisor
}

func (SupervisorPolicy) Name() string { return "supervised" }

func (p SupervisorPolicy) Next(ctx context.Context, from string, state *State) (string, error) {
	choice := deterministicNext(from, state)
	source := "fallback"

	if p.Advisor != nil {
		if text, err := p.Advisor.Advise(ctx, StatusSummary(state)); err == nil {
			if advised, ok := classifyAdvice(text); ok {
				choice = advised
				source = "advisor"
			}
		}
	}

	recordDecision(state, choice, source)
	return choice, nil
}

// deterministicNext is the total fallback routing rule. It decides from
// state shape alone, in fixed precedence order, and always terminates:
// every choice either advances a missing field or ends the run.
func deterministicNext(from string, state *State) string {
	switch {
	case state.Summary == "":
		if from == StepResearch {
			return StepSummarize
		}
		return StepResearch
	case state.Post == "":
		return StepDraft
	case state.VerifyResult == VerifyUnset:
		return StepVerify
	case state.VerifyResult == VerifyPass:
		return End
	case state.RevisionCount < MaxRevisions:
		return StepDraft
	default:
		return End
	}
}

// adviceVocabulary is the closed routing vocabulary, in precedence
// order. The first word found in the advisor's output wins.
var adviceVocabulary = []struct {
	word string
	step string
}{
	{"research", StepResearch},
	{"summarize", StepSummarize},
	{"draft", StepDraft},
	{"verify", StepVerify},
	{"complete", End},
}

func classifyAdvice(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, entry := range adviceVocabulary {
		if strings.Contains(lowered, entry.word) {
			return entry.step, true
		}
	}
	return End, false
}

// StatusSummary renders the state for the advisor. It carries enough
// for a routing decision and nothing else.
func StatusSummary(state *State) string {
	var b strings.Builder
	b.WriteString("Current workflow status:\n")
	if state.Summary != "" {
		b.WriteString("- research and summary: done\n")
	} else {
		b.WriteString("- research and summary: missing\n")
	}
	if state.Post != "" {
		fmt.Fprintf(&b, "- post: drafted (%d chars)\n", len(state.Post))
	} else {
		b.WriteString("- post: missing\n")
	}
	if state.VerifyResult != VerifyUnset {
		fmt.Fprintf(&b, "- verification: tech=%s, style=%s, revisions=%d\n",
			state.TechCheck, state.StyleCheck, state.RevisionCount)
	} else {
		b.WriteString("- verification: pending\n")
	}
	return b.String()
}

func recordDecision(state *State, choice, source string) {
	if state.Supervisor == nil {
		state.Supervisor = &SupervisorStatus{}
	}
	target := choice
	if target == End {
		target = "complete"
	}
	state.Supervisor.Decisions = append(state.Supervisor.Decisions,
		fmt.Sprintf("%s (%s)", target, source))
}
