package task

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lightningtw/dispatchd/core/ledger"
	"github.com/lightningtw/dispatchd/core/model"
)

func newTestProjection(t *testing.T) (*Projection, ledger.Store) {
	t.Helper()
	store, err := ledger.NewJSONLStore(filepath.Join(t.TempDir(), "ledger.log"), nil)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	p, err := NewProjection(context.Background(), store, nil)
	if err != nil {
		t.Fatalf("projection: %v", err)
	}
	return p, store
}

func TestProjection_CreateAndTransition(t *testing.T) {
	p, _ := newTestProjection(t)
	ctx := context.Background()

	created, err := p.Create(ctx, "summarize orders", "radar_station")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != model.StatusPending {
		t.Fatalf("new task status = %v, want pending", created.Status)
	}
	if created.ID == "" {
		t.Fatal("expected generated task id")
	}

	updated, err := p.Transition(ctx, created.ID, model.StatusAssigned)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != model.StatusAssigned {
		t.Fatalf("status = %v, want assigned", updated.Status)
	}
}

func TestProjection_UnknownTask(t *testing.T) {
	p, store := newTestProjection(t)
	ctx := context.Background()

	if _, err := p.Transition(ctx, "missing", model.StatusAssigned); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound got %v", err)
	}
	// A rejected transition must not leave a trace in the ledger.
	events, err := store.ReplayAll(ctx)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty ledger got %d events", len(events))
	}
}

func TestProjection_TerminalStatusFrozen(t *testing.T) {
	p, store := newTestProjection(t)
	ctx := context.Background()

	created, err := p.Create(ctx, "one-shot", "manual")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := p.Transition(ctx, created.ID, model.StatusCompleted); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := p.Transition(ctx, created.ID, model.StatusInProgress); !errors.Is(err, ErrTerminalStatus) {
		t.Fatalf("expected ErrTerminalStatus got %v", err)
	}
	events, err := store.ReplayAll(ctx)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events (create + complete) got %d", len(events))
	}
}

func TestProjection_ReplayDeterminism(t *testing.T) {
	p, store := newTestProjection(t)
	ctx := context.Background()

	a, err := p.Create(ctx, "a", "s")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := p.Create(ctx, "b", "s")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := p.Transition(ctx, a.ID, model.StatusAIProcessing); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := p.Transition(ctx, a.ID, model.StatusFailedReview); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := p.Transition(ctx, b.ID, model.StatusAssigned); err != nil {
		t.Fatalf("transition: %v", err)
	}

	rebuilt, err := NewProjection(ctx, store, nil)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	for _, tk := range p.List() {
		got, ok := rebuilt.Get(tk.ID)
		if !ok {
			t.Fatalf("rebuilt projection missing task %s", tk.ID)
		}
		if got != tk {
			t.Fatalf("rebuilt task %s = %+v, want %+v", tk.ID, got, tk)
		}
	}
}

func TestProjection_IgnoresTerminalUpdateOnReplay(t *testing.T) {
	store, err := ledger.NewJSONLStore(filepath.Join(t.TempDir(), "ledger.log"), nil)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	ctx := context.Background()
	// Hand-written history: a task completed, then a stray update that a
	// correct writer would never append.
	if _, err := store.Append(ctx, model.EventTaskCreated, map[string]any{"task_id": "t1", "description": "d", "source": "s"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.Append(ctx, model.EventStatusUpdated, map[string]any{"task_id": "t1", "new_status": "completed"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.Append(ctx, model.EventStatusUpdated, map[string]any{"task_id": "t1", "new_status": "pending"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.Append(ctx, model.EventStatusUpdated, map[string]any{"task_id": "ghost", "new_status": "assigned"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	p, err := NewProjection(ctx, store, nil)
	if err != nil {
		t.Fatalf("projection: %v", err)
	}
	got, ok := p.Get("t1")
	if !ok {
		t.Fatal("task t1 missing")
	}
	if got.Status != model.StatusCompleted {
		t.Fatalf("status = %v, want completed", got.Status)
	}
	if _, ok := p.Get("ghost"); ok {
		t.Fatal("unknown-task update must not create a task")
	}
}

func TestProjection_DuplicateCreateFirstWins(t *testing.T) {
	store, err := ledger.NewJSONLStore(filepath.Join(t.TempDir(), "ledger.log"), nil)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Append(ctx, model.EventTaskCreated, map[string]any{"task_id": "t1", "description": "first"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.Append(ctx, model.EventTaskCreated, map[string]any{"task_id": "t1", "description": "second"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	p, err := NewProjection(ctx, store, nil)
	if err != nil {
		t.Fatalf("projection: %v", err)
	}
	got, _ := p.Get("t1")
	if got.Description != "first" {
		t.Fatalf("description = %q, want first write to win", got.Description)
	}
}
