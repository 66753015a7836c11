package state

import (
	"encoding/json"
	"time"
)

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is the audit row for one finished traversal. Payload holds the
// full serialized run record; the flat columns exist for querying.
type Run struct {
	RunID       string          `json:"runId"`
	SessionID   string          `json:"sessionId"`
	Pattern     string          `json:"pattern"`
	Status      string          `json:"status"`
	Title       string          `json:"title"`
	Post        string          `json:"post,omitempty"`
	Error       string          `json:"error,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}
