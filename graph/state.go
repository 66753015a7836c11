package graph

import (
	"time"

	"github.com/postgenhq/postgen/types"
)

// VerifyResult is the outcome of the verification step.
type VerifyResult string

const (
	VerifyUnset  VerifyResult = ""
	VerifyPass   VerifyResult = "pass"
	VerifyRevise VerifyResult = "revise"
	VerifyError  VerifyResult = "error"
)

// CheckResult is the outcome of a single checker (technical or style).
type CheckResult string

const (
	CheckUnset  CheckResult = ""
	CheckPass   CheckResult = "pass"
	CheckRevise CheckResult = "revise"
)

// MaxRevisions is the revision ceiling: once RevisionCount reaches this
// value the verification step force-accepts and the supervisor policy
// stops routing back to draft.
const MaxRevisions = 3

// SupervisorStatus is populated only under the supervised pattern.
type SupervisorStatus struct {
	CompletedSteps []string `json:"completedSteps"`
	Decisions      []string `json:"decisions"`
	Ready          bool     `json:"ready"`
}

// State is the record threaded through every step of a run. Steps never
// mutate a State in place: each step clones the incoming value, sets the
// fields it owns, and returns the replacement. A later state never loses
// a field an earlier state had set.
//
// Post must stay empty until Summary is set, and VerifyResult is only
// meaningful once Post is set.
type State struct {
	RunID         string             `json:"runId"`
	SessionID     string             `json:"sessionId"`
	Title         string             `json:"title"`
	History       []types.Message    `json:"history,omitempty"`
	Summary       string             `json:"summary,omitempty"`
	Post          string             `json:"post,omitempty"`
	VerifyResult  VerifyResult       `json:"verifyResult,omitempty"`
	RevisionCount int                `json:"revisionCount"`
	TechCheck     CheckResult        `json:"techCheck,omitempty"`
	StyleCheck    CheckResult        `json:"styleCheck,omitempty"`
	Supervisor    *SupervisorStatus  `json:"supervisor,omitempty"`
	StartedAt     time.Time          `json:"startedAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

func NewState(runID, sessionID, title string, now time.Time) State {
	return State{
		RunID:     runID,
		SessionID: sessionID,
		Title:     title,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy that shares nothing mutable with the receiver.
// Steps call this before setting their own fields.
func (s State) Clone() State {
	out := s
	if s.History != nil {
		out.History = append([]types.Message(nil), s.History...)
	}
	if s.Supervisor != nil {
		status := SupervisorStatus{
			CompletedSteps: append([]string(nil), s.Supervisor.CompletedSteps...),
			Decisions:      append([]string(nil), s.Supervisor.Decisions...),
			Ready:          s.Supervisor.Ready,
		}
		out.Supervisor = &status
	}
	return out
}

// AppendMessage returns a clone with msg added to the conversation history.
func (s State) AppendMessage(msg types.Message) State {
	out := s.Clone()
	out.History = append(out.History, msg)
	return out
}
