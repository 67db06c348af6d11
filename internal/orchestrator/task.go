package orchestrator

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/models"
)

// entry is one registry slot. Its task fields are written only by the task's own run;
// external callers only ever set the stop flag.
type entry struct {
	id   string
	stop atomic.Bool

	mu   sync.Mutex
	task models.Task
}

func newEntry(id string, cfg models.TaskConfig, ownerKeyID int64, now time.Time) *entry {
	return &entry{
		id: id,
		task: models.Task{
			ID:         id,
			Config:     cfg,
			Status:     models.TaskIdle,
			Running:    true,
			OwnerKeyID: ownerKeyID,
			CreatedAt:  now,
		},
	}
}

// allowed lists the forward transitions of the task lifecycle.
var allowed = map[models.TaskStatus][]models.TaskStatus{
	models.TaskIdle:    {models.TaskRunning, models.TaskError, models.TaskStopped},
	models.TaskRunning: {models.TaskCompleted, models.TaskStopped, models.TaskError},
}

// moveLocked moves the task to status and reports whether the move was allowed.
// The caller holds e.mu.
func (e *entry) moveLocked(status models.TaskStatus) bool {
	if !slices.Contains(allowed[e.task.Status], status) {
		return false
	}
	e.task.Status = status
	return true
}

// start moves an idle task to running and records when it started.
func (e *entry) start(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.moveLocked(models.TaskRunning) {
		return false
	}
	e.task.StartedAt = &now
	return true
}

// finish moves the task to a terminal status and clears the running flag.
func (e *entry) finish(status models.TaskStatus, errMsg string, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.moveLocked(status) {
		if errMsg != "" {
			e.task.Error = &errMsg
		}
	}
	e.task.Running = false
	e.task.FinishedAt = &now
}

// signal requests a stop if the task is still running. The flag is set under the
// entry lock so a task cannot finish between the check and the store.
func (e *entry) signal() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.task.Running {
		return false
	}
	e.stop.Store(true)
	return true
}

func (e *entry) stopped() bool {
	return e.stop.Load()
}

func (e *entry) addStored(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.task.LeadsStored += n
}

func (e *entry) snapshot() models.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	task := e.task
	task.Config.Locations = slices.Clone(e.task.Config.Locations)
	task.StopRequested = e.stop.Load()
	if e.task.Error != nil {
		msg := *e.task.Error
		task.Error = &msg
	}
	if e.task.StartedAt != nil {
		started := *e.task.StartedAt
		task.StartedAt = &started
	}
	return task
}
