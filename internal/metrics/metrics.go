// Package metrics tracks the outcome of a single run and optionally pushes it
// to a Prometheus Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "yacht_watch"

// Run holds the metrics of one pipeline run on a private registry.
type Run struct {
	registry *prometheus.Registry

	ListingsScraped  prometheus.Gauge
	Changes          *prometheus.GaugeVec
	ArchivalFailures prometheus.Counter
	NotifyFailures   prometheus.Counter
	Duration         prometheus.Gauge
	LastSuccess      prometheus.Gauge
}

// NewRun creates and registers the run metrics.
func NewRun() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		ListingsScraped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listings_scraped",
			Help:      "Number of listings in the current snapshot.",
		}),
		Changes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listing_changes",
			Help:      "Number of listings per change kind in the last run.",
		}, []string{"kind"}),
		ArchivalFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archival_failures_total",
			Help:      "Artifacts that could not be archived.",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Report deliveries that failed.",
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that produced a report.",
		}),
	}

	r.registry.MustRegister(
		r.ListingsScraped, r.Changes, r.ArchivalFailures, r.NotifyFailures, r.Duration, r.LastSuccess,
	)

	return r
}

// ObserveChanges records the size of each change set.
func (r *Run) ObserveChanges(added, removed, changed int) {
	r.Changes.WithLabelValues("added").Set(float64(added))
	r.Changes.WithLabelValues("removed").Set(float64(removed))
	r.Changes.WithLabelValues("changed").Set(float64(changed))
}

// Push sends the collected metrics to the gateway under job.
func (r *Run) Push(ctx context.Context, gatewayURL, job string, started time.Time) error {
	r.Duration.Set(time.Since(started).Seconds())

	if err := push.New(gatewayURL, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", gatewayURL, err)
	}

	return nil
}
