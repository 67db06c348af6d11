// Package orchestrator runs automation tasks in the background and tracks their lifecycle.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/browser"
	"github.com/UnknownOlympus/anvesh/internal/events"
	"github.com/UnknownOlympus/anvesh/internal/metrics"
	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/UnknownOlympus/anvesh/internal/repository"
	"github.com/UnknownOlympus/anvesh/internal/scraper"
	"github.com/google/uuid"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrInvalidConfig = errors.New("invalid task config")
)

// Traverser yields the results of one feed traversal.
type Traverser interface {
	Traverse(ctx context.Context, page browser.Page, q scraper.Query, stop func() bool) iter.Seq[scraper.Result]
}

// UsageRecorder appends usage entries for API keys.
type UsageRecorder interface {
	LogUsage(ctx context.Context, keyID int64, endpoint string, leads int) error
}

// Orchestrator owns the task registry. Each task runs on its own goroutine with its own page;
// the locations of one task are processed strictly one after another.
type Orchestrator struct {
	mu    sync.RWMutex
	tasks map[string]*entry
	order []string

	launcher browser.Launcher
	engine   Traverser
	leads    repository.LeadStore
	usage    UsageRecorder
	events   events.Publisher
	log      *slog.Logger
	metrics  *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

// New creates an orchestrator. Task runs are bound to ctx; cancelling it ends them.
func New(
	ctx context.Context,
	launcher browser.Launcher,
	engine Traverser,
	leads repository.LeadStore,
	usage UsageRecorder,
	publisher events.Publisher,
	log *slog.Logger,
	m *metrics.Metrics,
) *Orchestrator {
	runCtx, cancel := context.WithCancel(ctx)
	return &Orchestrator{
		tasks:    make(map[string]*entry),
		launcher: launcher,
		engine:   engine,
		leads:    leads,
		usage:    usage,
		events:   publisher,
		log:      log,
		metrics:  m,
		ctx:      runCtx,
		cancel:   cancel,
		now:      time.Now,
	}
}

func validate(cfg models.TaskConfig) error {
	switch {
	case cfg.Industry == "":
		return fmt.Errorf("%w: industry is required", ErrInvalidConfig)
	case len(cfg.Locations) == 0:
		return fmt.Errorf("%w: at least one location is required", ErrInvalidConfig)
	case cfg.LimitPerLocation < models.Unlimited:
		return fmt.Errorf("%w: limit_per_location must be -1 or greater", ErrInvalidConfig)
	}
	if slices.Contains(cfg.Locations, "") {
		return fmt.Errorf("%w: locations must not be empty", ErrInvalidConfig)
	}
	return nil
}

// Create registers a task and starts it in the background. It returns without waiting.
// ownerKeyID is the API key usage is accounted to, zero for none.
func (o *Orchestrator) Create(cfg models.TaskConfig, ownerKeyID int64) (string, error) {
	if err := validate(cfg); err != nil {
		return "", err
	}
	if o.ctx.Err() != nil {
		return "", fmt.Errorf("failed to create task: %w", o.ctx.Err())
	}

	cfg.Locations = slices.Clone(cfg.Locations)
	ent := newEntry(uuid.NewString(), cfg, ownerKeyID, o.now())

	o.mu.Lock()
	o.tasks[ent.id] = ent
	o.order = append(o.order, ent.id)
	o.mu.Unlock()

	o.metrics.TasksStarted.Inc()
	o.log.Info("Automation task created",
		"task", ent.id, "industry", cfg.Industry, "locations", len(cfg.Locations), "limit", cfg.LimitPerLocation)

	o.wg.Add(1)
	go o.run(ent)

	return ent.id, nil
}

// Stop signals a single task. It returns 1 when a running task was signalled and 0
// when the task has already finished.
func (o *Orchestrator) Stop(id string) (int, error) {
	ent, ok := o.get(id)
	if !ok {
		return 0, ErrTaskNotFound
	}
	if !ent.signal() {
		return 0, nil
	}
	o.log.Info("Stop signal sent", "task", id)
	return 1, nil
}

// StopAll signals every running task and returns how many were signalled.
func (o *Orchestrator) StopAll() int {
	o.mu.RLock()
	entries := make([]*entry, 0, len(o.tasks))
	for _, ent := range o.tasks {
		entries = append(entries, ent)
	}
	o.mu.RUnlock()

	count := 0
	for _, ent := range entries {
		if ent.signal() {
			count++
		}
	}
	if count > 0 {
		o.log.Info("Stop signal sent to tasks", "count", count)
	}
	return count
}

// Status returns a snapshot of a task.
func (o *Orchestrator) Status(id string) (models.Task, error) {
	ent, ok := o.get(id)
	if !ok {
		return models.Task{}, ErrTaskNotFound
	}
	return ent.snapshot(), nil
}

// List returns snapshots of all tasks in creation order.
func (o *Orchestrator) List() []models.Task {
	o.mu.RLock()
	entries := make([]*entry, 0, len(o.order))
	for _, id := range o.order {
		entries = append(entries, o.tasks[id])
	}
	o.mu.RUnlock()

	tasks := make([]models.Task, 0, len(entries))
	for _, ent := range entries {
		tasks = append(tasks, ent.snapshot())
	}
	return tasks
}

// Shutdown stops every task and waits for the runs to return or ctx to end.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.StopAll()
	o.cancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to wait for tasks: %w", ctx.Err())
	}
}

func (o *Orchestrator) get(id string) (*entry, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ent, ok := o.tasks[id]
	return ent, ok
}
