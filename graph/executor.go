package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/postgenhq/postgen/observe"
)

// ErrWorkflowStalled reports that a traversal exceeded the iteration
// ceiling. It signals a defective policy, not a transient failure, and
// is always surfaced to the caller.
var ErrWorkflowStalled = errors.New("graph: workflow stalled, iteration ceiling exceeded")

// DefaultMaxIterations bounds a single traversal. The longest legitimate
// run is entry-to-verify plus the full revision loop (11 steps); the
// ceiling sits well above that so it only trips on broken routing.
const DefaultMaxIterations = 25

// Result is the outcome of one completed traversal.
type Result struct {
	Final       State
	NodeTrace   []string
	Iterations  int
	StartedAt   time.Time
	CompletedAt time.Time
}

// Executor owns the node table and the routing policy and drives the
// iterate-until-terminal loop. Executors are cheap; build a fresh one
// per request and never share in-flight state across runs.
type Executor struct {
	name          string
	nodes         map[string]Node
	entry         string
	policy        Policy
	observer      observe.Sink
	maxIterations int
	sessionID     string
	buildErr      error
}

type Option func(*Executor)

func WithObserver(observer observe.Sink) Option {
	return func(e *Executor) { e.observer = observer }
}

func WithMaxIterations(max int) Option {
	return func(e *Executor) {
		if max > 0 {
			e.maxIterations = max
		}
	}
}

func WithSessionID(sessionID string) Option {
	return func(e *Executor) {
		if sessionID != "" {
			e.sessionID = sessionID
		}
	}
}

func New(name string, policy Policy, opts ...Option) *Executor {
	e := &Executor{
		name:          name,
		nodes:         map[string]Node{},
		policy:        policy,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) AddNode(id string, node Node) *Executor {
	if e == nil || e.buildErr != nil {
		return e
	}
	if id == "" {
		e.buildErr = fmt.Errorf("node id is required")
		return e
	}
	if node == nil {
		e.buildErr = fmt.Errorf("node %q is nil", id)
		return e
	}
	if _, exists := e.nodes[id]; exists {
		e.buildErr = fmt.Errorf("node %q already exists", id)
		return e
	}
	e.nodes[id] = node
	return e
}

func (e *Executor) SetEntry(id string) *Executor {
	if e == nil || e.buildErr != nil {
		return e
	}
	if id == "" {
		e.buildErr = fmt.Errorf("entry node id is required")
		return e
	}
	e.entry = id
	return e
}

func (e *Executor) Compile() error {
	if e == nil {
		return fmt.Errorf("executor is nil")
	}
	if e.buildErr != nil {
		return e.buildErr
	}
	if e.name == "" {
		return fmt.Errorf("executor name is required")
	}
	if e.policy == nil {
		return fmt.Errorf("routing policy is required")
	}
	if len(e.nodes) == 0 {
		return fmt.Errorf("executor has no nodes")
	}
	if e.entry == "" {
		return fmt.Errorf("entry node is not set")
	}
	if _, ok := e.nodes[e.entry]; !ok {
		return fmt.Errorf("entry node %q does not exist", e.entry)
	}
	return nil
}

// Run seeds a state for title and traverses the graph until the policy
// signals End. Node failures and a tripped iteration ceiling abort the
// whole run; routing itself never aborts it.
func (e *Executor) Run(ctx context.Context, title string) (Result, error) {
	if err := e.Compile(); err != nil {
		return Result{}, err
	}

	now := time.Now().UTC()
	sessionID := e.sessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	state := NewState(uuid.NewString(), sessionID, title, now)

	e.emit(ctx, observe.Event{
		Kind:    observe.KindRun,
		Status:  observe.StatusStarted,
		Name:    e.name,
		RunID:   state.RunID,
		Pattern: e.policy.Name(),
	})

	trace := []string{}
	current := e.entry
	for {
		select {
		case <-ctx.Done():
			e.emitFailure(ctx, state, ctx.Err())
			return Result{}, ctx.Err()
		default:
		}

		if len(trace) >= e.maxIterations {
			err := fmt.Errorf("at node %q after %d iterations: %w", current, len(trace), ErrWorkflowStalled)
			e.emitFailure(ctx, state, err)
			return Result{}, err
		}

		node, ok := e.nodes[current]
		if !ok {
			err := fmt.Errorf("node %q does not exist", current)
			e.emitFailure(ctx, state, err)
			return Result{}, err
		}

		e.emit(ctx, observe.Event{
			Kind:   observe.KindStep,
			Status: observe.StatusStarted,
			Name:   current,
			RunID:  state.RunID,
		})

		next, err := node.Execute(ctx, state)
		if err != nil {
			e.emitFailure(ctx, state, err)
			return Result{}, fmt.Errorf("node %q failed: %w", current, err)
		}
		state = next
		state.UpdatedAt = time.Now().UTC()
		trace = append(trace, current)

		e.emit(ctx, observe.Event{
			Kind:   observe.KindStep,
			Status: observe.StatusCompleted,
			Name:   current,
			RunID:  state.RunID,
		})

		nextID, err := e.policy.Next(ctx, current, &state)
		if err != nil {
			e.emitFailure(ctx, state, err)
			return Result{}, fmt.Errorf("routing after node %q failed: %w", current, err)
		}
		e.emit(ctx, observe.Event{
			Kind:    observe.KindRoute,
			Status:  observe.StatusCompleted,
			Name:    routeEventName(nextID),
			RunID:   state.RunID,
			Pattern: e.policy.Name(),
		})
		if nextID == End {
			break
		}
		current = nextID
	}

	completedAt := time.Now().UTC()
	e.emit(ctx, observe.Event{
		Kind:    observe.KindRun,
		Status:  observe.StatusCompleted,
		Name:    e.name,
		RunID:   state.RunID,
		Pattern: e.policy.Name(),
	})

	return Result{
		Final:       state,
		NodeTrace:   trace,
		Iterations:  len(trace),
		StartedAt:   state.StartedAt,
		CompletedAt: completedAt,
	}, nil
}

// PolicyName exposes the configured pattern tag.
func (e *Executor) PolicyName() string {
	if e == nil || e.policy == nil {
		return ""
	}
	return e.policy.Name()
}

func routeEventName(nextID string) string {
	if nextID == End {
		return "complete"
	}
	return nextID
}

func (e *Executor) emit(ctx context.Context, event observe.Event) {
	if e == nil || e.observer == nil {
		return
	}
	_ = e.observer.Emit(ctx, event)
}

func (e *Executor) emitFailure(ctx context.Context, state State, err error) {
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	e.emit(ctx, observe.Event{
		Kind:   observe.KindRun,
		Status: observe.StatusFailed,
		Name:   e.name,
		RunID:  state.RunID,
		Error:  errText,
	})
}
