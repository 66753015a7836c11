package post

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/postgenhq/postgen/graph"
	"github.com/postgenhq/postgen/llm"
	"github.com/postgenhq/postgen/tools"
	"github.com/postgenhq/postgen/types"
)

const summarizerPrompt = "You are a scientific summarizer. Generate a short, accurate summary."

const drafterPrompt = "You are a social media strategist. Write a LinkedIn post using the summary. " +
	"The post MUST mention " + tools.RequiredMention + " and MUST be under 300 characters. " +
	"If you are revising, make sure to fix any issues with these requirements."

const advisorPrompt = `You are a supervisor managing a team of agents that turn academic papers into social media posts.

Your team: a RESEARCH agent that retrieves paper content, a SUMMARIZE agent
that writes concise summaries, a DRAFT agent that writes the post, and a
VERIFY agent that checks technical accuracy and style.

You will be given the current workflow status. Decide which agent should act
next, considering what is already done, what is missing, whether quality
checks passed, and whether the retry limit was reached.

Answer with exactly one word: research, summarize, draft, verify, or complete.`

// LLMSummarizer implements Summarizer on top of an llm.Provider.
type LLMSummarizer struct {
	Provider llm.Provider
	Model    string
}

func (s *LLMSummarizer) Summarize(ctx context.Context, history []types.Message) (string, error) {
	if s == nil || s.Provider == nil {
		return "", fmt.Errorf("summarizer provider is required")
	}
	resp, err := s.Provider.Generate(ctx, types.Request{
		Model:        s.Model,
		SystemPrompt: summarizerPrompt,
		Messages:     history,
	})
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// LLMDrafter implements PostDrafter on top of an llm.Provider.
type LLMDrafter struct {
	Provider llm.Provider
	Model    string
}

func (d *LLMDrafter) Draft(ctx context.Context, history []types.Message, summary string) (string, error) {
	if d == nil || d.Provider == nil {
		return "", fmt.Errorf("drafter provider is required")
	}
	messages := append([]types.Message(nil), history...)
	messages = append(messages, types.Message{
		Role:    types.RoleUser,
		Content: "Summary of the paper:\n" + summary,
	})
	resp, err := d.Provider.Generate(ctx, types.Request{
		Model:        d.Model,
		SystemPrompt: drafterPrompt,
		Messages:     messages,
	})
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// LLMAdvisor implements graph.Advisor on top of an llm.Provider. Its
// output is a free-text hint; the supervised policy classifies it and
// ignores anything it cannot place.
type LLMAdvisor struct {
	Provider llm.Provider
	Model    string
}

func (a *LLMAdvisor) Advise(ctx context.Context, status string) (string, error) {
	if a == nil || a.Provider == nil {
		return "", fmt.Errorf("advisor provider is required")
	}
	zero := 0.0
	resp, err := a.Provider.Generate(ctx, types.Request{
		Model:        a.Model,
		SystemPrompt: advisorPrompt,
		Messages:     []types.Message{{Role: types.RoleUser, Content: status}},
		Temperature:  &zero,
	})
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// invokeTool resolves a registered tool and executes it with
// JSON-encoded arguments.
func invokeTool(ctx context.Context, name string, args any) (map[string]any, error) {
	tool, ok := tools.New(name)
	if !ok {
		return nil, fmt.Errorf("tool %q is not registered", name)
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s args: %w", name, err)
	}
	out, err := tool.Execute(ctx, payload)
	if err != nil {
		return nil, err
	}
	fields, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("tool %q returned %T, want an object", name, out)
	}
	return fields, nil
}

// SimulatedRetriever implements ContentRetriever with the registered
// paper_lookup tool.
type SimulatedRetriever struct{}

func (SimulatedRetriever) Retrieve(ctx context.Context, title string) (string, error) {
	fields, err := invokeTool(ctx, "paper_lookup", map[string]string{"title": title})
	if err != nil {
		return "", err
	}
	abstract, _ := fields["abstract"].(string)
	if abstract == "" {
		return "", fmt.Errorf("paper_lookup returned no abstract")
	}
	return abstract, nil
}

// SimulatedTechnicalChecker implements TechnicalChecker with the
// registered technical_check tool.
type SimulatedTechnicalChecker struct{}

func (SimulatedTechnicalChecker) CheckTechnical(ctx context.Context, summary string) (graph.CheckResult, error) {
	fields, err := invokeTool(ctx, "technical_check", map[string]string{"summary": summary})
	if err != nil {
		return "", err
	}
	result, _ := fields["result"].(string)
	if result == "" {
		return "", fmt.Errorf("technical_check returned no result")
	}
	return graph.CheckResult(result), nil
}

// SimulatedStyleChecker implements StyleChecker with the registered
// style_check tool.
type SimulatedStyleChecker struct{}

func (SimulatedStyleChecker) CheckStyle(ctx context.Context, postText string) (graph.CheckResult, error) {
	fields, err := invokeTool(ctx, "style_check", map[string]string{"post": postText})
	if err != nil {
		return "", err
	}
	result, _ := fields["result"].(string)
	if result == "" {
		return "", fmt.Errorf("style_check returned no result")
	}
	return graph.CheckResult(result), nil
}
