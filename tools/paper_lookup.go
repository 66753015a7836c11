package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// loraAbstract is the canned retrieval result. The research phase is
// simulated: every title resolves to the same short abstract.
const loraAbstract = "LoRA is a low-rank adaptation technique for fine-tuning large language models. " +
	"It enables efficient training by injecting low-rank matrices into transformer weights."

type paperLookupArgs struct {
	Title string `json:"title"`
}

// LookupAbstract simulates paper retrieval and returns a short abstract.
func LookupAbstract(title string) (string, error) {
	if title == "" {
		return "", fmt.Errorf("paper title is required")
	}
	return loraAbstract, nil
}

func NewPaperLookup() Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Title of the academic paper to retrieve.",
			},
		},
		"required": []string{"title"},
	}

	return NewFuncTool(
		"paper_lookup",
		"Retrieve a short abstract for an academic paper by title (simulated).",
		schema,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			_ = ctx
			var in paperLookupArgs
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("invalid paper_lookup args: %w", err)
			}
			abstract, err := LookupAbstract(in.Title)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"abstract": abstract,
			}, nil
		},
	)
}
