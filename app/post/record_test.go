package post

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/postgenhq/postgen/graph"
)

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("wrapped: %w", ErrRetrieval), "retrieval_error"},
		{fmt.Errorf("wrapped: %w", ErrAgentInvocation), "agent_invocation_error"},
		{fmt.Errorf("wrapped: %w", graph.ErrWorkflowStalled), "workflow_stalled"},
		{errors.New("something else"), "internal_error"},
	}
	for _, tc := range cases {
		if got := errorKind(tc.err); got != tc.want {
			t.Fatalf("errorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestRecoverySuggestions(t *testing.T) {
	got := RecoverySuggestions(errors.New("openai API error (401): invalid key"))
	if len(got) == 0 || got[0] != "Check API key validity" {
		t.Fatalf("unexpected suggestions for auth error: %v", got)
	}

	got = RecoverySuggestions(errors.New("context deadline exceeded"))
	if len(got) == 0 || got[0] != "Retry with a longer timeout" {
		t.Fatalf("unexpected suggestions for timeout: %v", got)
	}

	got = RecoverySuggestions(errors.New("total mystery"))
	if len(got) == 0 || got[0] != "Try again with different input" {
		t.Fatalf("unexpected default suggestions: %v", got)
	}
}

func TestNewFailureRecord(t *testing.T) {
	startedAt := time.Now().UTC().Add(-time.Second)
	err := fmt.Errorf("draft: %w", ErrAgentInvocation)
	record := newFailureRecord("Some Paper", "supervised", startedAt, err)

	if !record.Failed() {
		t.Fatal("failure record must report Failed")
	}
	if record.RunID == "" {
		t.Fatal("failure record needs a run id for auditing")
	}
	if record.Post != "Error occurred during generation" {
		t.Fatalf("post placeholder = %q", record.Post)
	}
	if record.Diagnostics == nil {
		t.Fatal("failure record is missing diagnostics")
	}
	if record.Diagnostics.ErrorKind != "agent_invocation_error" {
		t.Fatalf("error kind = %q", record.Diagnostics.ErrorKind)
	}
	if len(record.Diagnostics.RecoverySuggestions) == 0 {
		t.Fatal("failure record is missing recovery suggestions")
	}
	if !record.StartedAt.Equal(startedAt) {
		t.Fatalf("started at = %v", record.StartedAt)
	}
	if record.CompletedAt.Before(record.StartedAt) {
		t.Fatal("completion precedes start")
	}
}
