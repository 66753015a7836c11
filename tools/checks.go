package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Style contract for generated posts.
const (
	// MaxPostLength is the character ceiling a post must stay under.
	MaxPostLength = 300
	// MinPostLength is the floor below which a post counts against the
	// overall quality score.
	MinPostLength = 50
	// RequiredMention must appear verbatim in every post.
	RequiredMention = "@AIMakerspace"
	// TechnicalKeyword is the term the simulated technical checker
	// expects to see in a summary.
	TechnicalKeyword = "LoRA"
)

const (
	ResultPass   = "pass"
	ResultRevise = "revise"
)

// CheckTechnical returns "pass" or "revise" for technical accuracy
// (simulated: the summary must mention the technical keyword).
func CheckTechnical(summary string) string {
	if strings.Contains(summary, TechnicalKeyword) {
		return ResultPass
	}
	return ResultRevise
}

// CheckStyle checks a post against the platform style contract. A post
// over MaxPostLength or missing RequiredMention must revise; the length
// rule dominates.
func CheckStyle(post string) string {
	if len(post) > MaxPostLength || !strings.Contains(post, RequiredMention) {
		return ResultRevise
	}
	return ResultPass
}

type technicalCheckArgs struct {
	Summary string `json:"summary"`
}

func NewTechnicalCheck() Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "Summary text to verify for technical accuracy.",
			},
		},
		"required": []string{"summary"},
	}

	return NewFuncTool(
		"technical_check",
		"Check a paper summary for technical accuracy; returns pass or revise (simulated).",
		schema,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			_ = ctx
			var in technicalCheckArgs
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("invalid technical_check args: %w", err)
			}
			return map[string]any{
				"result": CheckTechnical(in.Summary),
			}, nil
		},
	)
}

type styleCheckArgs struct {
	Post string `json:"post"`
}

func NewStyleCheck() Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"post": map[string]any{
				"type":        "string",
				"description": "Social post text to check against the style contract.",
			},
		},
		"required": []string{"post"},
	}

	return NewFuncTool(
		"style_check",
		"Check a social post for platform-appropriate style; returns pass or revise (simulated).",
		schema,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			_ = ctx
			var in styleCheckArgs
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("invalid style_check args: %w", err)
			}
			return map[string]any{
				"result": CheckStyle(in.Post),
			}, nil
		},
	)
}
