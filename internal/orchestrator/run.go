package orchestrator

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/anvesh/internal/browser"
	"github.com/UnknownOlympus/anvesh/internal/events"
	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/UnknownOlympus/anvesh/internal/scraper"
)

// run executes a task. Any failure, including a panic, ends only this task, with status error.
func (o *Orchestrator) run(ent *entry) {
	defer o.wg.Done()
	log := o.log.With("task", ent.id)
	ctx := o.ctx

	o.metrics.RunningTasks.Inc()
	defer o.metrics.RunningTasks.Dec()

	final, errMsg := models.TaskCompleted, ""
	defer func() {
		if r := recover(); r != nil {
			final, errMsg = models.TaskError, fmt.Sprintf("task panicked: %v", r)
		}
		ent.finish(final, errMsg, o.now())
		o.metrics.TasksFinished.WithLabelValues(string(ent.snapshot().Status)).Inc()
		if errMsg != "" {
			log.ErrorContext(ctx, "Automation task failed", "error", errMsg)
			return
		}
		log.InfoContext(ctx, "Automation task finished", "status", final, "stored", ent.snapshot().LeadsStored)
	}()

	if ent.stopped() {
		final = models.TaskStopped
		return
	}

	ent.start(o.now())
	cfg := ent.snapshot().Config
	ownerKeyID := ent.snapshot().OwnerKeyID

	page, err := o.launcher.NewPage(ctx)
	if err != nil {
		final, errMsg = models.TaskError, fmt.Sprintf("failed to open browser page: %v", err)
		return
	}
	defer func() {
		if errClose := page.Close(); errClose != nil {
			log.WarnContext(ctx, "Failed to close browser page", "error", errClose)
		}
	}()

	for i, location := range cfg.Locations {
		if ent.stopped() || ctx.Err() != nil {
			log.InfoContext(ctx, "Automation task stopped", "remaining_locations", len(cfg.Locations)-i)
			final = models.TaskStopped
			return
		}

		log.InfoContext(ctx, "Processing location", "location", location, "index", i+1, "of", len(cfg.Locations))
		stored := o.runLocation(ctx, ent, page, scraper.Query{Industry: cfg.Industry, Location: location}, cfg.LimitPerLocation, ownerKeyID)

		if stored > 0 && ownerKeyID != 0 {
			if errUsage := o.usage.LogUsage(ctx, ownerKeyID, models.EndpointScrape, stored); errUsage != nil {
				log.ErrorContext(ctx, "Failed to log usage", "location", location, "error", errUsage)
			}
		}
		log.InfoContext(ctx, "Finished location", "location", location, "stored", stored)
	}

	if ent.stopped() || ctx.Err() != nil {
		final = models.TaskStopped
	}
}

// runLocation traverses one location and stores what it yields. It returns the number of
// newly stored leads, which never exceeds limit unless limit is models.Unlimited.
func (o *Orchestrator) runLocation(
	ctx context.Context,
	ent *entry,
	page browser.Page,
	query scraper.Query,
	limit int,
	ownerKeyID int64,
) int {
	if limit == 0 {
		return 0
	}
	log := o.log.With("task", ent.id, "location", query.Location)

	stored := 0
	for res := range o.engine.Traverse(ctx, page, query, ent.stopped) {
		if res.Err != nil {
			log.WarnContext(ctx, "Traversal ended early", "reason", res.Skip, "error", res.Err)
			continue
		}
		if res.Lead == nil {
			continue
		}

		outcome, err := o.leads.InsertLead(ctx, res.Lead)
		if err != nil {
			o.metrics.LeadsStored.WithLabelValues("error").Inc()
			log.ErrorContext(ctx, "Failed to store lead", "name", res.Lead.BusinessName, "error", err)
			continue
		}
		o.metrics.LeadsStored.WithLabelValues(string(outcome)).Inc()
		if outcome != models.StoreNew {
			continue
		}

		stored++
		ent.addStored(1)
		o.publish(ctx, ent.id, ownerKeyID, res.Lead)

		if limit != models.Unlimited && stored >= limit {
			log.InfoContext(ctx, "Location limit reached", "limit", limit)
			break
		}
	}

	return stored
}

func (o *Orchestrator) publish(ctx context.Context, taskID string, ownerKeyID int64, lead *models.Lead) {
	event := events.LeadEvent{TaskID: taskID, OwnerKeyID: ownerKeyID, Lead: *lead}
	if err := o.events.PublishLead(ctx, event); err != nil {
		o.metrics.EventsPublished.WithLabelValues("error").Inc()
		o.log.WarnContext(ctx, "Failed to publish lead event", "task", taskID, "lead", lead.ID, "error", err)
		return
	}
	o.metrics.EventsPublished.WithLabelValues("success").Inc()
}
