// Package metrics exposes Prometheus metrics for the enrichment pipeline.
package metrics

import (
	"time"

	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/enrichment"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "memotag"

// EnrichmentMetrics records pipeline events. It implements enrichment.Observer
// and prometheus.Collector.
type EnrichmentMetrics struct {
	itemsTotal        *prometheus.CounterVec
	classifyDuration  prometheus.Histogram
	batchesTotal      prometheus.Counter
	batchDuration     prometheus.Histogram
	remainingUntagged prometheus.Gauge
	runsTotal         *prometheus.CounterVec
	runBatches        prometheus.Histogram
}

var _ enrichment.Observer = (*EnrichmentMetrics)(nil)

// NewEnrichmentMetrics creates the metrics and registers them with registry.
func NewEnrichmentMetrics(registry prometheus.Registerer) (*EnrichmentMetrics, error) {
	m := &EnrichmentMetrics{
		itemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrichment_items_total",
				Help:      "Memos handled by the enricher, by outcome",
			},
			[]string{"outcome"}, // tagged, unclassified, quarantined, failed
		),
		classifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrichment_item_duration_seconds",
			Help:      "Time spent enriching a single memo",
			// 50ms to ~50s
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 11),
		}),
		batchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_batches_total",
			Help:      "Enrichment batches completed",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrichment_batch_duration_seconds",
			Help:      "Time taken by one enrichment batch",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		remainingUntagged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "enrichment_remaining_untagged",
			Help:      "Untagged memos observed after the last batch",
		}),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrichment_runs_total",
				Help:      "Enrichment runs finished, by terminal state",
			},
			[]string{"state"},
		),
		runBatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrichment_run_batches",
			Help:      "Batches executed per enrichment run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ItemFinished implements enrichment.Observer.
func (m *EnrichmentMetrics) ItemFinished(outcome enrichment.Outcome, elapsed time.Duration) {
	m.itemsTotal.WithLabelValues(outcome.String()).Inc()
	m.classifyDuration.Observe(elapsed.Seconds())
}

// BatchFinished implements enrichment.Observer.
func (m *EnrichmentMetrics) BatchFinished(result domain.BatchResult, elapsed time.Duration) {
	m.batchesTotal.Inc()
	m.batchDuration.Observe(elapsed.Seconds())
	m.remainingUntagged.Set(float64(result.Remaining))
}

// RunFinished implements enrichment.Observer.
func (m *EnrichmentMetrics) RunFinished(summary enrichment.RunSummary) {
	m.runsTotal.WithLabelValues(string(summary.State)).Inc()
	m.runBatches.Observe(float64(summary.Batches))
}

// Describe implements the Collector interface
func (m *EnrichmentMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.itemsTotal.Describe(ch)
	m.classifyDuration.Describe(ch)
	m.batchesTotal.Describe(ch)
	m.batchDuration.Describe(ch)
	m.remainingUntagged.Describe(ch)
	m.runsTotal.Describe(ch)
	m.runBatches.Describe(ch)
}

// Collect implements the Collector interface
func (m *EnrichmentMetrics) Collect(ch chan<- prometheus.Metric) {
	m.itemsTotal.Collect(ch)
	m.classifyDuration.Collect(ch)
	m.batchesTotal.Collect(ch)
	m.batchDuration.Collect(ch)
	m.remainingUntagged.Collect(ch)
	m.runsTotal.Collect(ch)
	m.runBatches.Collect(ch)
}
