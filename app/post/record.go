package post

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/postgenhq/postgen/graph"
)

// RunRecord is the immutable artifact returned to the caller: the final
// state of a traversal plus derived analytics. It is created once, when
// the run finishes, and never modified afterward.
type RunRecord struct {
	RunID           string             `json:"run_id"`
	Title           string             `json:"title"`
	Summary         string             `json:"summary"`
	Post            string             `json:"post"`
	VerifyResult    string             `json:"verify_result"`
	RevisionCount   int                `json:"revision_count"`
	TechCheck       string             `json:"tech_check"`
	StyleCheck      string             `json:"style_check"`
	Insights        SupervisorInsights `json:"supervisor_insights"`
	WorkflowPattern string             `json:"workflow_pattern"`
	Quality         QualityMetrics     `json:"quality_metrics"`
	Diagnostics     *Diagnostics       `json:"diagnostics,omitempty"`
	StartedAt       time.Time          `json:"started_at"`
	CompletedAt     time.Time          `json:"completed_at"`
}

// Diagnostics describe a failed run.
type Diagnostics struct {
	ErrorKind           string   `json:"error_kind"`
	ErrorMessage        string   `json:"error_message"`
	RecoverySuggestions []string `json:"recovery_suggestions"`
}

// Failed reports whether the run produced an error record.
func (r RunRecord) Failed() bool {
	return r.VerifyResult == string(graph.VerifyError)
}

func newRunRecord(result graph.Result, pattern string) RunRecord {
	state := result.Final
	return RunRecord{
		RunID:           state.RunID,
		Title:           state.Title,
		Summary:         state.Summary,
		Post:            state.Post,
		VerifyResult:    string(state.VerifyResult),
		RevisionCount:   state.RevisionCount,
		TechCheck:       string(state.TechCheck),
		StyleCheck:      string(state.StyleCheck),
		Insights:        Insights(state),
		WorkflowPattern: pattern,
		Quality:         Metrics(state),
		StartedAt:       result.StartedAt,
		CompletedAt:     result.CompletedAt,
	}
}

// newFailureRecord shapes an unrecovered error into a single
// well-formed record instead of a partial, successful-looking one.
func newFailureRecord(title, pattern string, startedAt time.Time, err error) RunRecord {
	return RunRecord{
		RunID:           uuid.NewString(),
		Title:           title,
		Summary:         "",
		Post:            "Error occurred during generation",
		VerifyResult:    string(graph.VerifyError),
		TechCheck:       "error",
		StyleCheck:      "error",
		WorkflowPattern: pattern,
		Insights: SupervisorInsights{
			CompletedSteps:   []string{},
			CompletionReason: ReasonUnknown,
		},
		Diagnostics: &Diagnostics{
			ErrorKind:           errorKind(err),
			ErrorMessage:        err.Error(),
			RecoverySuggestions: RecoverySuggestions(err),
		},
		StartedAt:   startedAt,
		CompletedAt: time.Now().UTC(),
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrRetrieval):
		return "retrieval_error"
	case errors.Is(err, ErrAgentInvocation):
		return "agent_invocation_error"
	case errors.Is(err, graph.ErrWorkflowStalled):
		return "workflow_stalled"
	default:
		return "internal_error"
	}
}

// RecoverySuggestions infers remediation hints from the error text.
func RecoverySuggestions(err error) []string {
	text := strings.ToLower(err.Error())
	suggestions := []string{}

	if strings.Contains(text, "api") || strings.Contains(text, "key") ||
		strings.Contains(text, "credential") || strings.Contains(text, "unauthorized") {
		suggestions = append(suggestions,
			"Check API key validity",
			"Verify API quota and billing",
		)
	}
	if strings.Contains(text, "timeout") || strings.Contains(text, "deadline") {
		suggestions = append(suggestions,
			"Retry with a longer timeout",
			"Check network connectivity",
		)
	}
	if strings.Contains(text, "model") {
		suggestions = append(suggestions,
			"Try a different model version",
			"Check model availability",
		)
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions,
			"Try again with different input",
			"Check system logs for details",
		)
	}
	return suggestions
}
