package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/postgenhq/postgen/state"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(runID, sessionID string) state.Run {
	now := time.Now().UTC()
	return state.Run{
		RunID:     runID,
		SessionID: sessionID,
		Pattern:   "supervised",
		Status:    state.StatusCompleted,
		Title:     "LoRA",
		Post:      "a post",
		Payload:   json.RawMessage(`{"run_id":"` + runID + `"}`),
		CreatedAt: &now,
	}
}

func TestStore_SaveAndLoadRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := sampleRun("run-1", "sess-1")
	completed := time.Now().UTC()
	run.CompletedAt = &completed

	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.LoadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Title != "LoRA" || loaded.Pattern != "supervised" {
		t.Fatalf("unexpected row: %+v", loaded)
	}
	if string(loaded.Payload) != string(run.Payload) {
		t.Fatalf("payload round trip: %s", loaded.Payload)
	}
	if loaded.CompletedAt == nil || !loaded.CompletedAt.Equal(completed.Truncate(0)) {
		t.Fatalf("completed at = %v, want %v", loaded.CompletedAt, completed)
	}
}

func TestStore_SaveRunUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := sampleRun("run-1", "sess-1")
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	run.Status = state.StatusFailed
	run.Error = "boom"
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	loaded, err := store.LoadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Status != state.StatusFailed || loaded.Error != "boom" {
		t.Fatalf("upsert did not apply: %+v", loaded)
	}
}

func TestStore_LoadRunNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.LoadRun(context.Background(), "missing"); !errors.Is(err, state.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SaveRunValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveRun(ctx, state.Run{SessionID: "s"}); err == nil {
		t.Fatal("expected error without run id")
	}
	if err := store.SaveRun(ctx, state.Run{RunID: "r"}); err == nil {
		t.Fatal("expected error without session id")
	}
}

func TestStore_ListRunsFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	runs := []state.Run{
		sampleRun("run-1", "sess-a"),
		sampleRun("run-2", "sess-a"),
		sampleRun("run-3", "sess-b"),
	}
	runs[1].Pattern = "linear"
	runs[2].Status = state.StatusFailed
	for _, run := range runs {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	bySession, err := store.ListRuns(ctx, state.ListRunsQuery{SessionID: "sess-a"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(bySession) != 2 {
		t.Fatalf("session filter returned %d runs", len(bySession))
	}

	byPattern, err := store.ListRuns(ctx, state.ListRunsQuery{Pattern: "linear"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(byPattern) != 1 || byPattern[0].RunID != "run-2" {
		t.Fatalf("pattern filter returned %+v", byPattern)
	}

	byStatus, err := store.ListRuns(ctx, state.ListRunsQuery{Status: state.StatusFailed})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].RunID != "run-3" {
		t.Fatalf("status filter returned %+v", byStatus)
	}

	limited, err := store.ListRuns(ctx, state.ListRunsQuery{Limit: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limit returned %d runs", len(limited))
	}
}
