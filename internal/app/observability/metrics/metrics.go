package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	SearchRequestsTotal    metric.Int64Counter
	SearchCacheHitsTotal   metric.Int64Counter
	SearchCandidates       metric.Int64Histogram
	WebhookEventsTotal     metric.Int64Counter
	ViewCountFailuresTotal metric.Int64Counter
	ContributionsTotal     metric.Int64Counter
	DBQueryDurationSeconds metric.Float64Histogram
	DBQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once from the global MeterProvider.
// Call it after the provider is installed so the Prometheus exporter sees them.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("kidspots-api")
		var err error
		m := &AppMetrics{}

		m.SearchRequestsTotal, err = meter.Int64Counter(
			"place_search_requests_total",
			metric.WithDescription("Total number of place search requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create place_search_requests_total: %v", err)
		}

		m.SearchCacheHitsTotal, err = meter.Int64Counter(
			"place_search_cache_hits_total",
			metric.WithDescription("Place searches served from the in-process cache"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create place_search_cache_hits_total: %v", err)
		}

		m.SearchCandidates, err = meter.Int64Histogram(
			"place_search_candidates",
			metric.WithDescription("Rows loaded from storage before in-process filtering"),
			metric.WithUnit("{place}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create place_search_candidates: %v", err)
		}

		m.WebhookEventsTotal, err = meter.Int64Counter(
			"billing_webhook_events_total",
			metric.WithDescription("Payment provider webhook events by type and outcome"),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create billing_webhook_events_total: %v", err)
		}

		m.ViewCountFailuresTotal, err = meter.Int64Counter(
			"view_count_failures_total",
			metric.WithDescription("Background view counter writes that failed"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create view_count_failures_total: %v", err)
		}

		m.ContributionsTotal, err = meter.Int64Counter(
			"contributions_recorded_total",
			metric.WithDescription("Contributions recorded by type and status"),
			metric.WithUnit("{contribution}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create contributions_recorded_total: %v", err)
		}

		m.DBQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DBQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the instruments, creating them against the current global
// provider on first use. Before a provider is installed that is the no-op provider.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
