package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TasksStarted     prometheus.Counter
	TasksFinished    *prometheus.CounterVec
	RunningTasks     prometheus.Gauge
	LeadsExtracted   prometheus.Counter
	LeadsStored      *prometheus.CounterVec
	ItemsSkipped     *prometheus.CounterVec
	ScrollStalls     prometheus.Counter
	ExtractSeconds   prometheus.Histogram
	EventsPublished  *prometheus.CounterVec
	GeocodedLeads    *prometheus.CounterVec
	GeocoderErrors   prometheus.Counter
	GeocoderSeconds  *prometheus.HistogramVec
	ActiveWorkers    prometheus.Gauge
	HTTPRequests     *prometheus.CounterVec
	HTTPSeconds      *prometheus.HistogramVec
	RateLimitRejects prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		TasksStarted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "anvesh_tasks_started_total",
			Help: "Total number of automation tasks started.",
		}),
		TasksFinished: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "anvesh_tasks_finished_total",
			Help: "Total number of automation tasks finished, by final status.",
		}, []string{"status"}),
		RunningTasks: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "anvesh_tasks_running",
			Help: "Current number of running automation tasks.",
		}),
		LeadsExtracted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "anvesh_leads_extracted_total",
			Help: "Total number of listings extracted from search feeds.",
		}),
		LeadsStored: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "anvesh_leads_stored_total",
			Help: "Total number of extracted leads handed to storage, by outcome.",
		}, []string{"outcome"}),
		ItemsSkipped: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "anvesh_feed_items_skipped_total",
			Help: "Total number of feed items skipped, by reason.",
		}, []string{"reason"}),
		ScrollStalls: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "anvesh_feed_scroll_stalls_total",
			Help: "Total number of scrolls that loaded no new feed items.",
		}),
		ExtractSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "anvesh_feed_item_duration_seconds",
			Help:    "Time spent opening, verifying and extracting a single feed item.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
		EventsPublished: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "anvesh_lead_events_total",
			Help: "Total number of lead events published, by status.",
		}, []string{"status"}),
		GeocodedLeads: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "anvesh_geocoding_leads_processed_total",
			Help: "Total number of leads processed by the geocoder.",
		}, []string{"status"}),
		GeocoderErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "anvesh_geocoding_provider_api_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}),
		GeocoderSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "anvesh_geocoding_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "anvesh_geocoding_active_workers",
			Help: "Current number of active workers geocoding leads.",
		}),
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "anvesh_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "endpoint", "status"}),
		HTTPSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "anvesh_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		RateLimitRejects: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "anvesh_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the per-minute rate limit.",
		}),
	}
}
