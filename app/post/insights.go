package post

import (
	"strings"

	"github.com/postgenhq/postgen/graph"
	"github.com/postgenhq/postgen/tools"
)

const totalSteps = 4

// Completion reasons reported in SupervisorInsights.
const (
	ReasonPerfectFirstAttempt = "perfect_first_attempt"
	ReasonQualityAchieved     = "quality_achieved"
	ReasonMaxRetriesReached   = "max_retries_reached"
	ReasonInProgress          = "in_progress"
	ReasonUnknown             = "unknown"
)

// QualityMetrics are derived measurements over a finished run.
type QualityMetrics struct {
	PostLength          int     `json:"post_length"`
	SummaryLength       int     `json:"summary_length"`
	CharacterEfficiency float64 `json:"character_efficiency"`
	MentionCompliance   bool    `json:"mention_compliance"`
	TechnicalAccuracy   bool    `json:"technical_accuracy"`
	StyleCompliance     bool    `json:"style_compliance"`
	OverallQuality      float64 `json:"overall_quality"`
}

// SupervisorInsights summarize how the workflow ran.
type SupervisorInsights struct {
	CompletedSteps     []string `json:"completed_steps"`
	WorkflowEfficiency float64  `json:"workflow_efficiency"`
	RevisionEfficiency float64  `json:"revision_efficiency"`
	CompletionReason   string   `json:"completion_reason"`
	Decisions          []string `json:"supervisor_decisions,omitempty"`
}

// CompletedSteps derives the finished-step list from state shape, in
// fixed order: the research/summarize phase counts once Summary is set,
// draft once Post is set, verify once an outcome exists.
func CompletedSteps(state graph.State) []string {
	steps := []string{}
	if state.Summary != "" {
		steps = append(steps, graph.StepResearch, graph.StepSummarize)
	}
	if state.Post != "" {
		steps = append(steps, graph.StepDraft)
	}
	if state.VerifyResult != graph.VerifyUnset {
		steps = append(steps, graph.StepVerify)
	}
	return steps
}

// WorkflowStatus computes the monitoring snapshot the verification step
// attaches under the supervised pattern. It is pure: decisions already
// recorded in the state are carried over, nothing is mutated.
func WorkflowStatus(state graph.State) *graph.SupervisorStatus {
	status := &graph.SupervisorStatus{
		CompletedSteps: CompletedSteps(state),
		Ready:          !shouldContinue(state),
	}
	if state.Supervisor != nil {
		status.Decisions = append([]string(nil), state.Supervisor.Decisions...)
	}
	return status
}

func shouldContinue(state graph.State) bool {
	if state.VerifyResult == graph.VerifyPass {
		return false
	}
	if state.RevisionCount >= graph.MaxRevisions {
		return false
	}
	return true
}

// Metrics computes quality measurements from the final state.
func Metrics(state graph.State) QualityMetrics {
	postText := state.Post
	m := QualityMetrics{
		PostLength:        len(postText),
		SummaryLength:     len(state.Summary),
		TechnicalAccuracy: state.TechCheck == graph.CheckPass,
		StyleCompliance:   state.StyleCheck == graph.CheckPass,
	}
	if postText != "" {
		m.CharacterEfficiency = float64(len(postText)) / float64(tools.MaxPostLength)
		m.MentionCompliance = strings.Contains(postText, tools.RequiredMention)
	}
	m.OverallQuality = overallQuality(state)
	return m
}

// overallQuality is the fraction of five quality factors that hold; the
// result is always a multiple of 0.2 in [0, 1].
func overallQuality(state graph.State) float64 {
	factors := []bool{
		state.TechCheck == graph.CheckPass,
		state.StyleCheck == graph.CheckPass,
		state.RevisionCount <= 2,
		strings.Contains(state.Post, tools.RequiredMention),
		len(state.Post) >= tools.MinPostLength && len(state.Post) <= tools.MaxPostLength,
	}
	met := 0
	for _, ok := range factors {
		if ok {
			met++
		}
	}
	return float64(met) / float64(len(factors))
}

// CompletionReason explains why the workflow stopped.
func CompletionReason(state graph.State) string {
	switch {
	case state.VerifyResult == graph.VerifyPass && state.RevisionCount == 1:
		return ReasonPerfectFirstAttempt
	case state.VerifyResult == graph.VerifyPass &&
		state.TechCheck == graph.CheckPass && state.StyleCheck == graph.CheckPass:
		return ReasonQualityAchieved
	case state.RevisionCount >= graph.MaxRevisions:
		return ReasonMaxRetriesReached
	case state.VerifyResult == graph.VerifyUnset:
		return ReasonInProgress
	default:
		return ReasonUnknown
	}
}

// Insights builds the workflow analytics block of a run record.
func Insights(state graph.State) SupervisorInsights {
	completed := CompletedSteps(state)
	revisions := state.RevisionCount
	if revisions < 1 {
		revisions = 1
	}
	insights := SupervisorInsights{
		CompletedSteps:     completed,
		WorkflowEfficiency: float64(len(completed)) / float64(totalSteps),
		RevisionEfficiency: 1.0 / float64(revisions),
		CompletionReason:   CompletionReason(state),
	}
	if state.Supervisor != nil {
		insights.Decisions = append([]string(nil), state.Supervisor.Decisions...)
	}
	return insights
}
