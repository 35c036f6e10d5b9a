package tasks

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advflow/advflow/constants"
)

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTaskLifecycle(t *testing.T) {
	r := newTestRegistry()
	docID := uuid.New()

	id := r.Start(docID, constants.TaskKindExtraction)
	task, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, constants.TaskStatusQueued, task.Status)

	r.Running(id)
	task, _ = r.Get(id)
	assert.Equal(t, constants.TaskStatusRunning, task.Status)

	r.Finish(id, nil)
	task, _ = r.Get(id)
	assert.Equal(t, constants.TaskStatusOK, task.Status)
	assert.Empty(t, task.Error)
}

func TestTaskFailureKeepsError(t *testing.T) {
	r := newTestRegistry()
	id := r.Start(uuid.New(), constants.TaskKindRename)
	r.Finish(id, errors.New("webhook status 502"))

	task, _ := r.Get(id)
	assert.Equal(t, constants.TaskStatusFailed, task.Status)
	assert.Equal(t, "webhook status 502", task.Error)
}

func TestSkipRecordsReason(t *testing.T) {
	r := newTestRegistry()
	id := r.Start(uuid.New(), constants.TaskKindExtraction)
	r.Skip(id, "mime type not supported")

	task, _ := r.Get(id)
	assert.Equal(t, constants.TaskStatusSkipped, task.Status)
	assert.Equal(t, "mime type not supported", task.Error)
}

func TestConcurrentTerminalTransitionsDoNotPanic(t *testing.T) {
	r := newTestRegistry()
	id := r.Start(uuid.New(), constants.TaskKindExtraction)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				r.Finish(id, nil)
			} else {
				r.Finish(id, errors.New("late failure"))
			}
		}(i)
	}
	wg.Wait()

	task, done := r.Wait(id, time.Second)
	assert.True(t, done)
	assert.Contains(t, []constants.TaskStatus{constants.TaskStatusOK, constants.TaskStatusFailed}, task.Status)
}

func TestForDocumentOrdersByCreation(t *testing.T) {
	r := newTestRegistry()
	docID := uuid.New()
	first := r.Start(docID, constants.TaskKindExtraction)
	second := r.Start(docID, constants.TaskKindRename)
	r.Start(uuid.New(), constants.TaskKindExtraction) // other document

	got := r.ForDocument(docID)
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0].ID)
	assert.Equal(t, second, got[1].ID)
}

func TestWaitReturnsOnTerminalStatus(t *testing.T) {
	r := newTestRegistry()
	id := r.Start(uuid.New(), constants.TaskKindRename)

	go func() {
		time.Sleep(10 * time.Millisecond)
		r.Finish(id, nil)
	}()

	task, done := r.Wait(id, time.Second)
	assert.True(t, done)
	assert.Equal(t, constants.TaskStatusOK, task.Status)
}

func TestWaitTimesOutOnPendingTask(t *testing.T) {
	r := newTestRegistry()
	id := r.Start(uuid.New(), constants.TaskKindRename)

	task, done := r.Wait(id, 20*time.Millisecond)
	assert.False(t, done)
	assert.Equal(t, constants.TaskStatusQueued, task.Status)
}
