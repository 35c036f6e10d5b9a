// Package tasks tracks the lifecycle of background work (extraction, rename)
// so API clients can poll processing state per document.
package tasks

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/advflow/advflow/constants"
)

// Task is one unit of background work attached to a document.
type Task struct {
	ID         uuid.UUID            `json:"id"`
	DocumentID uuid.UUID            `json:"document_id"`
	Kind       constants.TaskKind   `json:"kind"`
	Status     constants.TaskStatus `json:"status"`
	Error      string               `json:"error,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// Registry is an in-memory task tracker. Tasks are not durable: a restart
// loses in-flight state, and the reprocess CLI exists to recover.
type Registry struct {
	mu     sync.Mutex
	tasks  map[uuid.UUID]*Task
	byDoc  map[uuid.UUID][]uuid.UUID
	done   map[uuid.UUID]chan struct{}
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tasks:  make(map[uuid.UUID]*Task),
		byDoc:  make(map[uuid.UUID][]uuid.UUID),
		done:   make(map[uuid.UUID]chan struct{}),
		logger: logger,
	}
}

// Start registers a new queued task and returns its id.
func (r *Registry) Start(documentID uuid.UUID, kind constants.TaskKind) uuid.UUID {
	now := time.Now()
	t := &Task{
		ID:         uuid.New(),
		DocumentID: documentID,
		Kind:       kind,
		Status:     constants.TaskStatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.mu.Lock()
	r.tasks[t.ID] = t
	r.byDoc[documentID] = append(r.byDoc[documentID], t.ID)
	r.done[t.ID] = make(chan struct{})
	r.mu.Unlock()

	r.logger.Debug("task started", "task_id", t.ID, "document_id", documentID, "kind", kind)
	return t.ID
}

// Running marks a task as picked up.
func (r *Registry) Running(id uuid.UUID) {
	r.transition(id, constants.TaskStatusRunning, "")
}

// Finish marks a task terminal. A nil err means OK.
func (r *Registry) Finish(id uuid.UUID, err error) {
	if err != nil {
		r.transition(id, constants.TaskStatusFailed, err.Error())
		return
	}
	r.transition(id, constants.TaskStatusOK, "")
}

// Skip marks a task as deliberately not run (e.g. unsupported mime type).
func (r *Registry) Skip(id uuid.UUID, reason string) {
	r.transition(id, constants.TaskStatusSkipped, reason)
}

func (r *Registry) transition(id uuid.UUID, status constants.TaskStatus, detail string) {
	r.mu.Lock()
	t, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	t.Status = status
	t.Error = detail
	t.UpdatedAt = time.Now()
	terminal := status == constants.TaskStatusOK || status == constants.TaskStatusFailed || status == constants.TaskStatusSkipped
	// Close under the lock: two concurrent terminal transitions must not
	// both reach close().
	if terminal {
		if ch := r.done[id]; ch != nil {
			select {
			case <-ch:
			default:
				close(ch)
			}
		}
	}
	r.mu.Unlock()

	r.logger.Debug("task transition", "task_id", id, "status", status, "detail", detail)
}

// Get returns a snapshot of one task.
func (r *Registry) Get(id uuid.UUID) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// ForDocument returns snapshots of all tasks for a document, oldest first.
func (r *Registry) ForDocument(documentID uuid.UUID) []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.byDoc[documentID]
	out := make([]Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.tasks[id]; ok {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Wait blocks until the task reaches a terminal status or the timeout fires.
// Returns the final snapshot and whether it terminated in time.
func (r *Registry) Wait(id uuid.UUID, timeout time.Duration) (Task, bool) {
	r.mu.Lock()
	ch, ok := r.done[id]
	r.mu.Unlock()
	if !ok {
		return Task{}, false
	}
	select {
	case <-ch:
		t, _ := r.Get(id)
		return t, true
	case <-time.After(timeout):
		t, _ := r.Get(id)
		return t, false
	}
}
