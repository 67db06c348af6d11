// Package service holds background jobs that run alongside the API.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/geocoding"
	"github.com/UnknownOlympus/anvesh/internal/metrics"
	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/UnknownOlympus/anvesh/internal/repository"
)

// batchSize is how many leads one poll takes from storage.
const batchSize = 100

// LeadGeocoder fills in coordinates for stored leads in the background.
type LeadGeocoder struct {
	log          *slog.Logger
	store        repository.GeocodingStore
	provider     geocoding.Provider
	providerName string
	metrics      *metrics.Metrics
	numWorkers   int
	pollInterval time.Duration
}

func NewLeadGeocoder(
	log *slog.Logger,
	store repository.GeocodingStore,
	provider geocoding.Provider,
	providerName string,
	m *metrics.Metrics,
	numWorkers int,
	pollInterval time.Duration,
) *LeadGeocoder {
	return &LeadGeocoder{
		log:          log.With("component", "geocoder", "provider", providerName),
		store:        store,
		provider:     provider,
		providerName: providerName,
		metrics:      m,
		numWorkers:   max(numWorkers, 1),
		pollInterval: pollInterval,
	}
}

// Run processes one batch immediately and then one per poll interval until ctx is done.
func (lg *LeadGeocoder) Run(ctx context.Context) {
	ticker := time.NewTicker(lg.pollInterval)
	defer ticker.Stop()

	lg.log.InfoContext(ctx, "Lead geocoder started", "interval", lg.pollInterval, "workers", lg.numWorkers)
	lg.processBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			lg.log.InfoContext(ctx, "Lead geocoder stopped")
			return
		case <-ticker.C:
			lg.processBatch(ctx)
		}
	}
}

// processBatch fetches leads without coordinates and geocodes them on a worker pool.
func (lg *LeadGeocoder) processBatch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	leads, err := lg.store.FetchLeadsForGeocoding(ctx, batchSize)
	if err != nil {
		lg.log.ErrorContext(ctx, "Failed to fetch leads for geocoding", "error", err)
		return
	}
	if len(leads) == 0 {
		lg.log.DebugContext(ctx, "No leads to geocode")
		return
	}

	lg.log.InfoContext(ctx, "Geocoding batch of leads", "leads", len(leads), "num_workers", lg.numWorkers)

	jobs := make(chan models.GeocodingLead, len(leads))
	for _, lead := range leads {
		jobs <- lead
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := range min(lg.numWorkers, len(leads)) {
		wg.Add(1)
		go lg.worker(ctx, i+1, &wg, jobs)
	}
	wg.Wait()

	lg.log.InfoContext(ctx, "Geocoding batch finished")
}

func (lg *LeadGeocoder) worker(ctx context.Context, idx int, wg *sync.WaitGroup, jobs <-chan models.GeocodingLead) {
	defer wg.Done()
	for lead := range jobs {
		if ctx.Err() != nil {
			return
		}
		lg.geocode(ctx, idx, lead)
	}
}

func (lg *LeadGeocoder) geocode(ctx context.Context, idx int, lead models.GeocodingLead) {
	lg.metrics.ActiveWorkers.Inc()
	defer lg.metrics.ActiveWorkers.Dec()

	start := time.Now()
	coords, err := lg.provider.Geocode(ctx, lead.Address)
	lg.metrics.GeocoderSeconds.WithLabelValues(lg.providerName).Observe(time.Since(start).Seconds())

	if err != nil {
		lg.metrics.GeocodedLeads.WithLabelValues("failure").Inc()
		lg.metrics.GeocoderErrors.Inc()
		lg.log.WarnContext(ctx, "Failed to geocode lead", "worker", idx, "lead", lead.ID, "error", err)

		if err = lg.store.IncrementFailureCount(ctx, lead.ID, err.Error()); err != nil {
			lg.log.ErrorContext(ctx, "Could not record geocoding failure", "worker", idx, "lead", lead.ID, "error", err)
		}
		return
	}

	lg.metrics.GeocodedLeads.WithLabelValues("success").Inc()
	if err = lg.store.UpdateLeadCoordinates(ctx, lead.ID, *coords); err != nil {
		lg.log.ErrorContext(ctx, "Failed to store lead coordinates", "worker", idx, "lead", lead.ID, "error", err)
		return
	}
	lg.log.DebugContext(ctx, "Lead geocoded", "worker", idx, "lead", lead.ID)
}
