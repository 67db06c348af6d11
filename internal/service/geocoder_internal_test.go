package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/metrics"
	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/UnknownOlympus/anvesh/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestGeocoder(t *testing.T) (*LeadGeocoder, *mocks.GeocodingStore, *mocks.Provider, *metrics.Metrics) {
	t.Helper()
	store := mocks.NewGeocodingStore(t)
	provider := mocks.NewProvider(t)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	lg := NewLeadGeocoder(slog.New(slog.DiscardHandler), store, provider, "nominatim", m, 2, time.Hour)
	return lg, store, provider, m
}

func TestProcessBatch(t *testing.T) {
	ctx := t.Context()

	t.Run("successful processing", func(t *testing.T) {
		lg, store, provider, m := newTestGeocoder(t)
		coords := &models.Coordinates{Latitude: 43.65, Longitude: -79.38}

		store.On("FetchLeadsForGeocoding", ctx, 100).
			Return([]models.GeocodingLead{{ID: 1, Address: "120 King St W, Toronto"}}, nil).Once()
		provider.On("Geocode", ctx, "120 King St W, Toronto").Return(coords, nil).Once()
		store.On("UpdateLeadCoordinates", ctx, int64(1), *coords).Return(nil).Once()

		lg.processBatch(ctx)

		assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodedLeads.WithLabelValues("success")), 0)
		assert.InDelta(t, 0, testutil.ToFloat64(m.ActiveWorkers), 0)
	})

	t.Run("fetch returns error", func(t *testing.T) {
		lg, store, _, _ := newTestGeocoder(t)
		store.On("FetchLeadsForGeocoding", ctx, 100).Return(nil, assert.AnError).Once()

		lg.processBatch(ctx)
	})

	t.Run("nothing to geocode", func(t *testing.T) {
		lg, store, _, _ := newTestGeocoder(t)
		store.On("FetchLeadsForGeocoding", ctx, 100).Return([]models.GeocodingLead{}, nil).Once()

		lg.processBatch(ctx)
	})

	t.Run("provider error increments failure count", func(t *testing.T) {
		lg, store, provider, m := newTestGeocoder(t)
		geocodeErr := errors.New("geocoding failed")

		store.On("FetchLeadsForGeocoding", ctx, 100).
			Return([]models.GeocodingLead{{ID: 2, Address: "Nowhere"}}, nil).Once()
		provider.On("Geocode", ctx, "Nowhere").Return(nil, geocodeErr).Once()
		store.On("IncrementFailureCount", ctx, int64(2), geocodeErr.Error()).Return(nil).Once()

		lg.processBatch(ctx)

		assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodedLeads.WithLabelValues("failure")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.GeocoderErrors), 0)
	})

	t.Run("failure count update error is logged", func(t *testing.T) {
		lg, store, provider, _ := newTestGeocoder(t)
		geocodeErr := errors.New("geocoding failed")

		store.On("FetchLeadsForGeocoding", ctx, 100).
			Return([]models.GeocodingLead{{ID: 2, Address: "Nowhere"}}, nil).Once()
		provider.On("Geocode", ctx, "Nowhere").Return(nil, geocodeErr).Once()
		store.On("IncrementFailureCount", ctx, int64(2), geocodeErr.Error()).Return(assert.AnError).Once()

		lg.processBatch(ctx)
	})

	t.Run("coordinates update error is logged", func(t *testing.T) {
		lg, store, provider, _ := newTestGeocoder(t)
		coords := &models.Coordinates{Latitude: 43.65, Longitude: -79.38}

		store.On("FetchLeadsForGeocoding", ctx, 100).
			Return([]models.GeocodingLead{{ID: 1, Address: "Toronto"}}, nil).Once()
		provider.On("Geocode", ctx, "Toronto").Return(coords, nil).Once()
		store.On("UpdateLeadCoordinates", ctx, int64(1), *coords).Return(assert.AnError).Once()

		lg.processBatch(ctx)
	})

	t.Run("batch is spread across workers", func(t *testing.T) {
		lg, store, provider, m := newTestGeocoder(t)
		leads := []models.GeocodingLead{{ID: 1, Address: "A"}, {ID: 2, Address: "B"}, {ID: 3, Address: "C"}}

		store.On("FetchLeadsForGeocoding", ctx, 100).Return(leads, nil).Once()
		provider.On("Geocode", ctx, mock.Anything).Return(&models.Coordinates{Latitude: 1, Longitude: 2}, nil).Times(3)
		store.On("UpdateLeadCoordinates", ctx, mock.Anything, mock.Anything).Return(nil).Times(3)

		lg.processBatch(ctx)

		assert.InDelta(t, 3, testutil.ToFloat64(m.GeocodedLeads.WithLabelValues("success")), 0)
	})
}

func TestRun_StopsOnCancel(t *testing.T) {
	lg, store, _, _ := newTestGeocoder(t)
	ctx, cancel := context.WithCancel(t.Context())

	store.On("FetchLeadsForGeocoding", mock.Anything, 100).
		Run(func(mock.Arguments) { cancel() }).
		Return([]models.GeocodingLead{}, nil).Once()

	done := make(chan struct{})
	go func() {
		lg.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("geocoder did not stop after cancel")
	}
}
