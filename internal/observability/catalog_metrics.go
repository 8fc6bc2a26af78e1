package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogCollector exposes catalog-fetch Prometheus metrics.
type CatalogCollector struct {
	gatherer prometheus.Gatherer

	FetchDuration prometheus.Histogram
	FetchFailures prometheus.Counter
	Retries       prometheus.Counter
	Candidates    prometheus.Gauge
}

// NewCatalogCollector registers catalog metrics against the provided registerer.
func NewCatalogCollector(reg prometheus.Registerer) (*CatalogCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	fetchDuration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_fetch_duration_seconds",
		Help:    "Duration of catalog feed queries, retries included.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}), "catalog_fetch_duration_seconds")
	if err != nil {
		return nil, err
	}

	failures, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_fetch_failures_total",
		Help: "Catalog queries that failed after all retries.",
	}), "catalog_fetch_failures_total")
	if err != nil {
		return nil, err
	}

	retries, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_fetch_retries_total",
		Help: "Individual catalog requests that were retried.",
	}), "catalog_fetch_retries_total")
	if err != nil {
		return nil, err
	}

	candidates, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_candidates",
		Help: "Number of candidates returned by the last catalog query.",
	}), "catalog_candidates")
	if err != nil {
		return nil, err
	}

	return &CatalogCollector{
		gatherer:      gatherer,
		FetchDuration: fetchDuration,
		FetchFailures: failures,
		Retries:       retries,
		Candidates:    candidates,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *CatalogCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *CatalogCollector) Handler() http.Handler {
	return handlerFor(c.Gatherer())
}

// ObserveFetch records one completed query.
func (c *CatalogCollector) ObserveFetch(d time.Duration, candidates int, err error) {
	if c == nil {
		return
	}
	c.FetchDuration.Observe(d.Seconds())
	if err != nil {
		c.FetchFailures.Inc()
		return
	}
	c.Candidates.Set(float64(candidates))
}

// IncRetries counts a retried request.
func (c *CatalogCollector) IncRetries() {
	if c == nil {
		return
	}
	c.Retries.Inc()
}
