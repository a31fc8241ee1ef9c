package task

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/lightningtw/dispatchd/core/ledger"
	"github.com/lightningtw/dispatchd/core/logger"
	"github.com/lightningtw/dispatchd/core/model"
)

var (
	// ErrTaskNotFound is returned when a transition references an unknown id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTerminalStatus is returned when a transition targets a task whose
	// status is final.
	ErrTerminalStatus = errors.New("task is in a terminal status")
)

// Projection is the in-memory task state derived by folding ledger events in
// append order. It owns all tasks; nothing mutates a task outside event
// application, so rebuilding from the ledger always yields the same map.
type Projection struct {
	store ledger.Store
	log   logger.Logger
	mu    sync.RWMutex
	tasks map[string]model.Task
}

// NewProjection replays the ledger and folds it into the initial state.
func NewProjection(ctx context.Context, store ledger.Store, log logger.Logger) (*Projection, error) {
	p := &Projection{store: store, log: log, tasks: make(map[string]model.Task)}
	events, err := store.ReplayAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		p.apply(ev)
	}
	return p, nil
}

// apply folds one event into the task map. Callers hold p.mu or run during
// single-threaded construction.
func (p *Projection) apply(ev model.Event) {
	switch ev.Type {
	case model.EventTaskCreated:
		id, _ := ev.Data["task_id"].(string)
		if id == "" {
			p.warnf("TASK_CREATED without task_id, skipping")
			return
		}
		if _, ok := p.tasks[id]; ok {
			// First write wins.
			p.warnf("duplicate TASK_CREATED for %s, ignoring", id)
			return
		}
		desc, _ := ev.Data["description"].(string)
		src, _ := ev.Data["source"].(string)
		p.tasks[id] = model.Task{ID: id, Description: desc, Source: src, Status: model.StatusPending}
	case model.EventStatusUpdated:
		id, _ := ev.Data["task_id"].(string)
		t, ok := p.tasks[id]
		if !ok {
			p.warnf("STATUS_UPDATED for unknown task %s, ignoring", id)
			return
		}
		if t.Status.Terminal() {
			p.warnf("STATUS_UPDATED for terminal task %s, ignoring", id)
			return
		}
		status, _ := ev.Data["new_status"].(string)
		t.Status = model.TaskStatus(status)
		p.tasks[id] = t
	}
}

func (p *Projection) warnf(format string, args ...any) {
	if p.log != nil {
		p.log.Warnf(format, args...)
	}
}

// Create allocates an id, appends TASK_CREATED and updates the projection.
func (p *Projection) Create(ctx context.Context, description, source string) (model.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := uuid.NewString()
	data := map[string]any{
		"task_id":     id,
		"description": description,
		"source":      source,
		"status":      string(model.StatusPending),
	}
	ev, err := p.store.Append(ctx, model.EventTaskCreated, data)
	if err != nil {
		return model.Task{}, err
	}
	p.apply(ev)
	return p.tasks[id], nil
}

// Transition appends STATUS_UPDATED and updates the projection. It returns
// ErrTaskNotFound for an unknown id and ErrTerminalStatus when the task has
// reached a final state; in both cases no event is appended.
func (p *Projection) Transition(ctx context.Context, id string, newStatus model.TaskStatus) (model.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[id]
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	if t.Status.Terminal() {
		return model.Task{}, ErrTerminalStatus
	}
	data := map[string]any{
		"task_id":    id,
		"old_status": string(t.Status),
		"new_status": string(newStatus),
	}
	ev, err := p.store.Append(ctx, model.EventStatusUpdated, data)
	if err != nil {
		return model.Task{}, err
	}
	p.apply(ev)
	return p.tasks[id], nil
}

// Get returns the task with the given id.
func (p *Projection) Get(id string) (model.Task, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	t, ok := p.tasks[id]
	return t, ok
}

// List returns all tasks sorted by id.
func (p *Projection) List() []model.Task {
	p.mu.RLock()
	defer p.mu.RUnlock()
	res := make([]model.Task, 0, len(p.tasks))
	for _, t := range p.tasks {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}
