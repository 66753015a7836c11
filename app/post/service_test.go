package post_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	apppost "github.com/postgenhq/postgen/app/post"
	"github.com/postgenhq/postgen/graph"
	"github.com/postgenhq/postgen/llm"
	"github.com/postgenhq/postgen/state"
	"github.com/postgenhq/postgen/tools"
	"github.com/postgenhq/postgen/types"

	_ "github.com/postgenhq/postgen/graphs/post"
)

// scriptedProvider routes on the agent's system prompt so one fake can
// play the summarizer and the drafter in a full traversal.
type scriptedProvider struct {
	summary    string
	drafts     []string
	draftCalls int
	failPhase  string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Capabilities() llm.Capabilities { return llm.Capabilities{} }

func (p *scriptedProvider) Generate(_ context.Context, req types.Request) (types.Response, error) {
	reply := func(text string) (types.Response, error) {
		return types.Response{Message: types.Message{Role: types.RoleAssistant, Content: text}}, nil
	}
	switch {
	case strings.Contains(req.SystemPrompt, "summarizer"):
		if p.failPhase == "summarize" {
			return types.Response{}, errors.New("summarizer unavailable")
		}
		return reply(p.summary)
	case strings.Contains(req.SystemPrompt, "social media strategist"):
		if p.failPhase == "draft" {
			return types.Response{}, errors.New("drafter unavailable")
		}
		idx := p.draftCalls
		if idx >= len(p.drafts) {
			idx = len(p.drafts) - 1
		}
		p.draftCalls++
		return reply(p.drafts[idx])
	default:
		return reply("")
	}
}

type memoryStore struct {
	mu   sync.Mutex
	runs map[string]state.Run
}

func newMemoryStore() *memoryStore {
	return &memoryStore{runs: map[string]state.Run{}}
}

func (m *memoryStore) SaveRun(_ context.Context, run state.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.RunID] = run
	return nil
}

func (m *memoryStore) LoadRun(_ context.Context, runID string) (state.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return state.Run{}, state.ErrNotFound
	}
	return run, nil
}

func (m *memoryStore) ListRuns(_ context.Context, query state.ListRunsQuery) ([]state.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []state.Run{}
	for _, run := range m.runs {
		if query.SessionID != "" && run.SessionID != query.SessionID {
			continue
		}
		if query.Status != "" && run.Status != query.Status {
			continue
		}
		out = append(out, run)
	}
	return out, nil
}

func (m *memoryStore) Close() error { return nil }

func compliantPost() string {
	return "LoRA trains small low-rank adapters on a frozen base model. Fine-tuning for a fraction of the cost. " + tools.RequiredMention
}

func TestService_PerfectFirstAttempt(t *testing.T) {
	provider := &scriptedProvider{
		summary: "LoRA adapts large models with low-rank updates.",
		drafts:  []string{compliantPost()},
	}
	service, err := apppost.NewService(apppost.Config{
		Pattern:  "supervised",
		Provider: provider,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	record := service.Generate(context.Background(), "LoRA: Low-Rank Adaptation of Large Language Models")
	if record.Failed() {
		t.Fatalf("run failed: %+v", record.Diagnostics)
	}
	if record.VerifyResult != "pass" {
		t.Fatalf("verify result = %q", record.VerifyResult)
	}
	if record.RevisionCount != 1 {
		t.Fatalf("revision count = %d, want 1", record.RevisionCount)
	}
	if record.Insights.CompletionReason != apppost.ReasonPerfectFirstAttempt {
		t.Fatalf("completion reason = %q", record.Insights.CompletionReason)
	}
	if record.Quality.OverallQuality != 1.0 {
		t.Fatalf("overall quality = %v", record.Quality.OverallQuality)
	}
	if record.WorkflowPattern != "supervised" {
		t.Fatalf("pattern = %q", record.WorkflowPattern)
	}
	if len(record.Insights.Decisions) == 0 {
		t.Fatal("supervised run should record routing decisions")
	}
	for _, decision := range record.Insights.Decisions {
		if !strings.HasSuffix(decision, "(fallback)") {
			t.Fatalf("run without advisor logged %q", decision)
		}
	}
}

func TestService_ForcedAcceptanceAfterThreeDrafts(t *testing.T) {
	provider := &scriptedProvider{
		summary: "LoRA adapts large models with low-rank updates.",
		drafts:  []string{"a post that never mentions the required handle"},
	}
	service, err := apppost.NewService(apppost.Config{
		Pattern:  "supervised",
		Provider: provider,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	record := service.Generate(context.Background(), "LoRA")
	if record.Failed() {
		t.Fatalf("run failed: %+v", record.Diagnostics)
	}
	if record.VerifyResult != "pass" {
		t.Fatalf("forced acceptance should still report pass, got %q", record.VerifyResult)
	}
	if record.RevisionCount != graph.MaxRevisions {
		t.Fatalf("revision count = %d, want %d", record.RevisionCount, graph.MaxRevisions)
	}
	if record.Insights.CompletionReason != apppost.ReasonMaxRetriesReached {
		t.Fatalf("completion reason = %q", record.Insights.CompletionReason)
	}
	if record.StyleCheck != "revise" {
		t.Fatalf("style check = %q", record.StyleCheck)
	}
	if provider.draftCalls != 3 {
		t.Fatalf("drafter was called %d times, want 3", provider.draftCalls)
	}
}

func TestService_SecondDraftPasses(t *testing.T) {
	provider := &scriptedProvider{
		summary: "LoRA adapts large models with low-rank updates.",
		drafts:  []string{"first draft without the handle", compliantPost()},
	}
	service, err := apppost.NewService(apppost.Config{
		Pattern:  "linear",
		Provider: provider,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	record := service.Generate(context.Background(), "LoRA")
	if record.Failed() {
		t.Fatalf("run failed: %+v", record.Diagnostics)
	}
	if record.RevisionCount != 2 {
		t.Fatalf("revision count = %d, want 2", record.RevisionCount)
	}
	if record.Insights.CompletionReason != apppost.ReasonQualityAchieved {
		t.Fatalf("completion reason = %q", record.Insights.CompletionReason)
	}
}

// Both patterns fill the same record fields; only the decision log and
// the routing differ.
func TestService_PatternsProduceSameRecordShape(t *testing.T) {
	records := map[string]apppost.RunRecord{}
	for _, pattern := range []string{"linear", "supervised"} {
		provider := &scriptedProvider{
			summary: "LoRA adapts large models with low-rank updates.",
			drafts:  []string{compliantPost()},
		}
		service, err := apppost.NewService(apppost.Config{Pattern: pattern, Provider: provider})
		if err != nil {
			t.Fatalf("NewService(%s) failed: %v", pattern, err)
		}
		records[pattern] = service.Generate(context.Background(), "LoRA")
	}

	keySet := func(record apppost.RunRecord) map[string]bool {
		data, err := json.Marshal(record)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		decoded := map[string]json.RawMessage{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		keys := map[string]bool{}
		for key := range decoded {
			keys[key] = true
		}
		return keys
	}

	linearKeys := keySet(records["linear"])
	supervisedKeys := keySet(records["supervised"])
	for key := range linearKeys {
		if !supervisedKeys[key] {
			t.Fatalf("supervised record is missing field %q", key)
		}
	}
	for key := range supervisedKeys {
		if !linearKeys[key] {
			t.Fatalf("linear record is missing field %q", key)
		}
	}

	if records["linear"].VerifyResult != records["supervised"].VerifyResult {
		t.Fatal("patterns disagree on the verify outcome for identical inputs")
	}
}

func TestService_FailureProducesDiagnostics(t *testing.T) {
	provider := &scriptedProvider{failPhase: "summarize"}
	store := newMemoryStore()
	service, err := apppost.NewService(apppost.Config{
		Pattern:  "supervised",
		Provider: provider,
		Store:    store,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	record := service.Generate(context.Background(), "LoRA")
	if !record.Failed() {
		t.Fatal("expected a failure record")
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

	saved, err := store.LoadRun(context.Background(), record.RunID)
	if err != nil {
		t.Fatalf("failed run was not persisted: %v", err)
	}
	if saved.Status != state.StatusFailed {
		t.Fatalf("persisted status = %q", saved.Status)
	}
	if saved.Error == "" {
		t.Fatal("persisted run is missing the error text")
	}
}

func TestService_PersistsCompletedRuns(t *testing.T) {
	provider := &scriptedProvider{
		summary: "LoRA adapts large models with low-rank updates.",
		drafts:  []string{compliantPost()},
	}
	store := newMemoryStore()
	service, err := apppost.NewService(apppost.Config{
		Pattern:   "linear",
		Provider:  provider,
		Store:     store,
		SessionID: "sess-42",
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	record := service.Generate(context.Background(), "LoRA")
	saved, err := store.LoadRun(context.Background(), record.RunID)
	if err != nil {
		t.Fatalf("completed run was not persisted: %v", err)
	}
	if saved.Status != state.StatusCompleted {
		t.Fatalf("persisted status = %q", saved.Status)
	}
	if saved.SessionID != "sess-42" {
		t.Fatalf("persisted session = %q", saved.SessionID)
	}

	var decoded apppost.RunRecord
	if err := json.Unmarshal(saved.Payload, &decoded); err != nil {
		t.Fatalf("payload does not decode as a run record: %v", err)
	}
	if decoded.RunID != record.RunID {
		t.Fatalf("payload run id = %q, want %q", decoded.RunID, record.RunID)
	}
}

func TestService_InputValidation(t *testing.T) {
	if _, err := apppost.NewService(apppost.Config{}); err == nil {
		t.Fatal("expected an error without a provider")
	}

	provider := &scriptedProvider{summary: "s", drafts: []string{"d"}}
	service, err := apppost.NewService(apppost.Config{Provider: provider})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	record := service.Generate(context.Background(), "")
	if !record.Failed() {
		t.Fatal("empty title must produce a failure record")
	}

	badPattern, err := apppost.NewService(apppost.Config{Provider: provider, Pattern: "spiral"})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	record = badPattern.Generate(context.Background(), "LoRA")
	if !record.Failed() {
		t.Fatal("unknown pattern must produce a failure record")
	}
}
