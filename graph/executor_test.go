package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/postgenhq/postgen/observe"
	"github.com/postgenhq/postgen/types"
)

// countdownPolicy walks a fixed list of node ids, then terminates.
type countdownPolicy struct {
	sequence []string
	pos      int
}

func (p *countdownPolicy) Name() string { return "countdown" }

func (p *countdownPolicy) Next(_ context.Context, _ string, _ *State) (string, error) {
	if p.pos >= len(p.sequence) {
		return End, nil
	}
	next := p.sequence[p.pos]
	p.pos++
	return next, nil
}

type loopForeverPolicy struct{}

func (loopForeverPolicy) Name() string { return "loop" }

func (loopForeverPolicy) Next(_ context.Context, from string, _ *State) (string, error) {
	return from, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []observe.Event
}

func (s *recordingSink) Emit(_ context.Context, event observe.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func markerNode(id string) Node {
	return NodeFunc(func(_ context.Context, state State) (State, error) {
		return state.AppendMessage(types.Message{Role: types.RoleAssistant, Content: id}), nil
	})
}

func TestExecutor_CompileValidation(t *testing.T) {
	if err := New("", LinearPolicy{}).Compile(); err == nil {
		t.Fatal("expected error for missing name")
	}
	if err := New("g", nil).AddNode("a", markerNode("a")).SetEntry("a").Compile(); err == nil {
		t.Fatal("expected error for missing policy")
	}
	if err := New("g", LinearPolicy{}).Compile(); err == nil {
		t.Fatal("expected error for empty node table")
	}
	if err := New("g", LinearPolicy{}).AddNode("a", markerNode("a")).Compile(); err == nil {
		t.Fatal("expected error for unset entry")
	}
	if err := New("g", LinearPolicy{}).AddNode("a", markerNode("a")).SetEntry("missing").Compile(); err == nil {
		t.Fatal("expected error for unknown entry node")
	}

	dup := New("g", LinearPolicy{}).
		AddNode("a", markerNode("a")).
		AddNode("a", markerNode("a")).
		SetEntry("a")
	if err := dup.Compile(); err == nil {
		t.Fatal("expected error for duplicate node id")
	}
}

func TestExecutor_RunWalksPolicySequence(t *testing.T) {
	policy := &countdownPolicy{sequence: []string{"b", "c"}}
	exec := New("walk", policy).
		AddNode("a", markerNode("a")).
		AddNode("b", markerNode("b")).
		AddNode("c", markerNode("c")).
		SetEntry("a")

	result, err := exec.Run(context.Background(), "Some Paper")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	wantTrace := []string{"a", "b", "c"}
	if diff := cmp.Diff(wantTrace, result.NodeTrace); diff != "" {
		t.Fatalf("node trace mismatch (-want +got):\n%s", diff)
	}
	if result.Iterations != 3 {
		t.Fatalf("iterations = %d, want 3", result.Iterations)
	}
	if result.Final.Title != "Some Paper" {
		t.Fatalf("title = %q", result.Final.Title)
	}
	if result.Final.RunID == "" || result.Final.SessionID == "" {
		t.Fatal("run and session ids must be seeded")
	}
	if len(result.Final.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(result.Final.History))
	}
	if result.CompletedAt.Before(result.StartedAt) {
		t.Fatal("completion time precedes start time")
	}
}

func TestExecutor_IterationCeiling(t *testing.T) {
	exec := New("loop", loopForeverPolicy{},
		WithMaxIterations(5)).
		AddNode("a", markerNode("a")).
		SetEntry("a")

	_, err := exec.Run(context.Background(), "t")
	if !errors.Is(err, ErrWorkflowStalled) {
		t.Fatalf("expected ErrWorkflowStalled, got %v", err)
	}
}

func TestExecutor_NodeFailureAbortsRun(t *testing.T) {
	boom := errors.New("boom")
	exec := New("fail", &countdownPolicy{}).
		AddNode("a", NodeFunc(func(_ context.Context, _ State) (State, error) {
			return State{}, boom
		})).
		SetEntry("a")

	_, err := exec.Run(context.Background(), "t")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped node error, got %v", err)
	}
}

func TestExecutor_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := New("cancel", &countdownPolicy{}).
		AddNode("a", markerNode("a")).
		SetEntry("a")

	_, err := exec.Run(ctx, "t")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExecutor_EmitsLifecycleEvents(t *testing.T) {
	sink := &recordingSink{}
	exec := New("observed", &countdownPolicy{},
		WithObserver(sink)).
		AddNode("a", markerNode("a")).
		SetEntry("a")

	if _, err := exec.Run(context.Background(), "t"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	kinds := []string{}
	for _, event := range sink.events {
		kinds = append(kinds, fmt.Sprintf("%s/%s", event.Kind, event.Status))
	}
	want := []string{
		"run/started",
		"step/started",
		"step/completed",
		"route/completed",
		"run/completed",
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("event sequence mismatch (-want +got):\n%s", diff)
	}

	route := sink.events[3]
	if route.Name != "complete" {
		t.Fatalf("terminal route event name = %q, want complete", route.Name)
	}
	if route.Pattern != "countdown" {
		t.Fatalf("route event pattern = %q", route.Pattern)
	}
}

func TestExecutor_SessionIDOption(t *testing.T) {
	exec := New("session", &countdownPolicy{},
		WithSessionID("fixed-session")).
		AddNode("a", markerNode("a")).
		SetEntry("a")

	result, err := exec.Run(context.Background(), "t")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Final.SessionID != "fixed-session" {
		t.Fatalf("session id = %q", result.Final.SessionID)
	}
}
